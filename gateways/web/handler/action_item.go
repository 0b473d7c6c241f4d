package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/attendly/backend/pkg/json"
	"github.com/attendly/backend/services/meetings/entity"
	"github.com/attendly/backend/services/meetings/storage"
	"github.com/attendly/backend/services/meetings/usecase"
)

type createActionItemRequest struct {
	MeetingID   string     `json:"meetingId"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Speaker     *string    `json:"speaker"`
	DueDate     *time.Time `json:"dueDate"`
}

func (h *Handler) CreateActionItem(w http.ResponseWriter, r *http.Request) {
	ident := callerIdentity(r.Context())

	var body createActionItemRequest
	if err := json.ParseJSON(r, &body); err != nil {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	item, err := h.usecase.CreateActionItem(r.Context(), &entity.CreateActionItemRequest{
		MeetingID:   body.MeetingID,
		Description: body.Description,
		Priority:    entity.ActionItemPriority(body.Priority),
		Speaker:     body.Speaker,
		DueDate:     body.DueDate,
		CreatedBy:   ident.ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidActionItem):
			json.WriteError(w, http.StatusBadRequest, err)
		case errors.Is(err, storage.ErrNotFound):
			json.WriteError(w, http.StatusNotFound, fmt.Errorf("meeting not found"))
		default:
			h.log.Error("failed to create action item", "error", err)
			json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to create action item"))
		}
		return
	}

	json.WriteSuccess(w, http.StatusCreated, "Action item created", item)
}

func (h *Handler) ListActionItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	items, total, err := h.usecase.ListActionItems(r.Context(), &entity.ListActionItemsRequest{
		MeetingID: chi.URLParam(r, "id"),
		Status:    q.Get("status"),
		Priority:  q.Get("priority"),
		Speaker:   q.Get("speaker"),
		Limit:     queryInt(r, "limit", 0),
		Offset:    queryInt(r, "offset", 0),
	})
	if err != nil {
		h.log.Error("failed to list action items", "error", err)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to list action items"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "", map[string]any{
		"actionItems": items,
		"total":       total,
	})
}

type updateActionItemRequest struct {
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	Status      *string    `json:"status"`
	Speaker     *string    `json:"speaker"`
	DueDate     *time.Time `json:"dueDate"`
}

func (h *Handler) UpdateActionItem(w http.ResponseWriter, r *http.Request) {
	actionItemID := chi.URLParam(r, "id")

	var body updateActionItemRequest
	if err := json.ParseJSON(r, &body); err != nil {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	req := &entity.UpdateActionItemRequest{
		Description: body.Description,
		Speaker:     body.Speaker,
		DueDate:     body.DueDate,
	}
	if body.Priority != nil {
		p := entity.ActionItemPriority(*body.Priority)
		req.Priority = &p
	}
	if body.Status != nil {
		s := entity.ActionItemStatus(*body.Status)
		req.Status = &s
	}

	item, err := h.usecase.UpdateActionItem(r.Context(), actionItemID, req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidActionItem):
			json.WriteError(w, http.StatusBadRequest, err)
		case errors.Is(err, storage.ErrNotFound):
			json.WriteError(w, http.StatusNotFound, fmt.Errorf("action item not found"))
		default:
			h.log.Error("failed to update action item", "error", err, "action_item_id", actionItemID)
			json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to update action item"))
		}
		return
	}

	json.WriteSuccess(w, http.StatusOK, "Action item updated", item)
}

func (h *Handler) DeleteActionItem(w http.ResponseWriter, r *http.Request) {
	actionItemID := chi.URLParam(r, "id")

	if err := h.usecase.DeleteActionItem(r.Context(), actionItemID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			json.WriteError(w, http.StatusNotFound, fmt.Errorf("action item not found"))
			return
		}
		h.log.Error("failed to delete action item", "error", err, "action_item_id", actionItemID)
		json.WriteError(w, http.StatusInternalServerError, fmt.Errorf("failed to delete action item"))
		return
	}

	json.WriteSuccess(w, http.StatusOK, "Action item deleted", nil)
}
