package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/attendly/backend/pkg/json"
	"github.com/attendly/backend/services/meetings/consts"
	"github.com/attendly/backend/services/meetings/entity"
	"github.com/attendly/backend/services/meetings/storage"
	"github.com/attendly/backend/services/meetings/usecase"
)

// UploadMeeting accepts a multipart form with an "audio" file field, stores
// the recording and queues it for background processing. The response comes
// back before any transcription work starts.
func (h *Handler) UploadMeeting(w http.ResponseWriter, r *http.Request) {
	ident := callerIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, consts.MaxUploadSize+1024)
	if err := r.ParseMultipartForm(consts.MaxUploadSize); err != nil {
		json.WriteError(w, http.StatusBadRequest,
			fmt.Errorf("file size exceeds maximum limit of %dMB", consts.MaxUploadSize/(1024*1024)))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("audio file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("failed to read audio file"))
		return
	}

	meeting, err := h.usecase.CreateMeeting(r.Context(), &usecase.UploadRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		OwnerID:     ident.ID,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidUpload) {
			json.WriteError(w, http.StatusBadRequest, err)
			return
		}
		h.log.Error("failed to create meeting", "error", err)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to upload meeting"))
		return
	}

	json.WriteSuccess(w, http.StatusCreated, "Meeting uploaded and queued for processing", meeting)
}

func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	ident := callerIdentity(r.Context())
	meetingID := chi.URLParam(r, "id")

	meeting, err := h.usecase.GetMeeting(r.Context(), meetingID, ident.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			json.WriteError(w, http.StatusNotFound, fmt.Errorf("meeting not found"))
			return
		}
		h.log.Error("failed to get meeting", "error", err, "meeting_id", meetingID)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to get meeting"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "", meeting)
}

func (h *Handler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	ident := callerIdentity(r.Context())

	req := &entity.ListMeetingsRequest{
		OwnerID: ident.ID,
		Status:  r.URL.Query().Get("status"),
		Limit:   queryInt(r, "limit", 0),
		Offset:  queryInt(r, "offset", 0),
	}

	meetings, total, err := h.usecase.ListMeetings(r.Context(), req)
	if err != nil {
		h.log.Error("failed to list meetings", "error", err)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to list meetings"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "", map[string]any{
		"meetings": meetings,
		"total":    total,
		"limit":    req.Limit,
		"offset":   req.Offset,
	})
}

type updateMeetingRequest struct {
	Title   *string `json:"title"`
	Summary *string `json:"summary"`
}

func (h *Handler) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	ident := callerIdentity(r.Context())
	meetingID := chi.URLParam(r, "id")

	var body updateMeetingRequest
	if err := json.ParseJSON(r, &body); err != nil {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}
	if body.Title == nil && body.Summary == nil {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("nothing to update"))
		return
	}

	meeting, err := h.usecase.UpdateMeeting(r.Context(), meetingID, ident.ID, &entity.UpdateMeetingRequest{
		Title:   body.Title,
		Summary: body.Summary,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			json.WriteError(w, http.StatusNotFound, fmt.Errorf("meeting not found"))
			return
		}
		h.log.Error("failed to update meeting", "error", err, "meeting_id", meetingID)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to update meeting"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "Meeting updated", meeting)
}

func (h *Handler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	ident := callerIdentity(r.Context())
	meetingID := chi.URLParam(r, "id")

	if err := h.usecase.DeleteMeeting(r.Context(), meetingID, ident.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			json.WriteError(w, http.StatusNotFound, fmt.Errorf("meeting not found"))
			return
		}
		h.log.Error("failed to delete meeting", "error", err, "meeting_id", meetingID)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to delete meeting"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "Meeting deleted", nil)
}

func (h *Handler) MeetingStats(w http.ResponseWriter, r *http.Request) {
	ident := callerIdentity(r.Context())

	stats, err := h.usecase.MeetingStats(r.Context(), ident.ID)
	if err != nil {
		h.log.Error("failed to get meeting stats", "error", err)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to get stats"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "", stats)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
