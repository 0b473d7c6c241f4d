package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/backend/pkg/token"
	"github.com/attendly/backend/services/meetings/entity"
	"github.com/attendly/backend/services/meetings/storage"
	"github.com/attendly/backend/services/meetings/usecase"
)

// stubUsecase overrides the operations a test cares about; everything else
// panics through the embedded nil interface.
type stubUsecase struct {
	usecase.Usecase

	meeting      *entity.Meeting
	getErr       error
	uploadedReq  *usecase.UploadRequest
	createErr    error
	createResult *entity.Meeting
}

func (s *stubUsecase) GetMeeting(_ context.Context, meetingID, ownerID string) (*entity.Meeting, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.meeting, nil
}

func (s *stubUsecase) CreateMeeting(_ context.Context, req *usecase.UploadRequest) (*entity.Meeting, error) {
	s.uploadedReq = req
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.createResult, nil
}

func routerWith(uc usecase.Usecase) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(uc, nil, log, testSecret)

	router := chi.NewRouter()
	router.Group(func(private chi.Router) {
		private.Use(h.Authenticate)
		private.Post("/meetings/upload", h.UploadMeeting)
		private.Get("/meetings/{id}", h.GetMeeting)
	})
	return router
}

func authedRequest(t *testing.T, method, target string, body io.Reader) *http.Request {
	t.Helper()
	raw, err := token.Generate("u-1", "alice@example.com", testSecret, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+raw)
	return req
}

func TestGetMeetingNotFound(t *testing.T) {
	router := routerWith(&stubUsecase{getErr: storage.ErrNotFound})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/meetings/m-404", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMeeting(t *testing.T) {
	summary := "Key decisions."
	router := routerWith(&stubUsecase{meeting: &entity.Meeting{
		ID:      "m-1",
		Title:   "Roadmap sync",
		Status:  entity.StatusCompleted,
		Summary: &summary,
		OwnerID: "u-1",
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/meetings/m-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool           `json:"success"`
		Data    entity.Meeting `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "Roadmap sync", envelope.Data.Title)
	assert.Equal(t, entity.StatusCompleted, envelope.Data.Status)
}

func multipartUpload(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestUploadMeeting(t *testing.T) {
	stub := &stubUsecase{createResult: &entity.Meeting{ID: "m-1", Status: entity.StatusQueued}}
	router := routerWith(stub)

	body, contentType := multipartUpload(t, "audio", "standup.webm", "audio/webm", []byte("webm bytes"))
	req := authedRequest(t, http.MethodPost, "/meetings/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, stub.uploadedReq)
	assert.Equal(t, "standup.webm", stub.uploadedReq.FileName)
	assert.Equal(t, "audio/webm", stub.uploadedReq.ContentType)
	assert.Equal(t, "u-1", stub.uploadedReq.OwnerID)
	assert.Equal(t, []byte("webm bytes"), stub.uploadedReq.Data)
}

func TestUploadMeetingMissingFile(t *testing.T) {
	router := routerWith(&stubUsecase{})

	body, contentType := multipartUpload(t, "video", "standup.webm", "audio/webm", []byte("x"))
	req := authedRequest(t, http.MethodPost, "/meetings/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadMeetingInvalidType(t *testing.T) {
	router := routerWith(&stubUsecase{createErr: usecase.ErrInvalidUpload})

	body, contentType := multipartUpload(t, "audio", "notes.mp3", "audio/mpeg", []byte("x"))
	req := authedRequest(t, http.MethodPost, "/meetings/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
