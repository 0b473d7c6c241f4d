package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/attendly/backend/pkg/json"
	"github.com/attendly/backend/services/meetings/storage"
)

// GetMeetingTranscription returns the latest transcription of a meeting with
// its diarized segments.
func (h *Handler) GetMeetingTranscription(w http.ResponseWriter, r *http.Request) {
	ident := callerIdentity(r.Context())
	meetingID := chi.URLParam(r, "id")

	// Owner scoping happens on the meeting row; a foreign meeting reads as
	// missing.
	if _, err := h.usecase.GetMeeting(r.Context(), meetingID, ident.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			json.WriteError(w, http.StatusNotFound, fmt.Errorf("meeting not found"))
			return
		}
		h.log.Error("failed to get meeting", "error", err, "meeting_id", meetingID)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to get transcription"))
		return
	}

	transcription, err := h.usecase.GetTranscriptionByMeeting(r.Context(), meetingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			json.WriteError(w, http.StatusNotFound, fmt.Errorf("transcription not found"))
			return
		}
		h.log.Error("failed to get transcription", "error", err, "meeting_id", meetingID)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to get transcription"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "", transcription)
}

func (h *Handler) GetTranscription(w http.ResponseWriter, r *http.Request) {
	transcriptionID := chi.URLParam(r, "id")

	transcription, err := h.usecase.GetTranscription(r.Context(), transcriptionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			json.WriteError(w, http.StatusNotFound, fmt.Errorf("transcription not found"))
			return
		}
		h.log.Error("failed to get transcription", "error", err, "transcription_id", transcriptionID)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to get transcription"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "", transcription)
}

func (h *Handler) ListChatSegments(w http.ResponseWriter, r *http.Request) {
	transcriptionID := chi.URLParam(r, "id")

	segments, total, err := h.usecase.ListChatSegments(r.Context(), transcriptionID,
		queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		h.log.Error("failed to list chat segments", "error", err, "transcription_id", transcriptionID)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to list segments"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "", map[string]any{
		"segments": segments,
		"total":    total,
	})
}

func (h *Handler) TranscriptionStats(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "id")

	stats, err := h.usecase.TranscriptionStats(r.Context(), meetingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			json.WriteError(w, http.StatusNotFound, fmt.Errorf("transcription not found"))
			return
		}
		h.log.Error("failed to get transcription stats", "error", err, "meeting_id", meetingID)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to get stats"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "", stats)
}

func (h *Handler) DeleteTranscription(w http.ResponseWriter, r *http.Request) {
	transcriptionID := chi.URLParam(r, "id")

	if err := h.usecase.DeleteTranscription(r.Context(), transcriptionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			json.WriteError(w, http.StatusNotFound, fmt.Errorf("transcription not found"))
			return
		}
		h.log.Error("failed to delete transcription", "error", err, "transcription_id", transcriptionID)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to delete transcription"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "Transcription deleted", nil)
}
