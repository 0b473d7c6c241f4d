package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/attendly/backend/services/meetings/consts"
	"github.com/attendly/backend/services/meetings/entity"
)

// ErrInvalidActionItem is returned when a create or update request fails
// validation before reaching storage.
var ErrInvalidActionItem = fmt.Errorf("invalid action item")

func (u *usecase) CreateActionItem(ctx context.Context, req *entity.CreateActionItemRequest) (*entity.ActionItem, error) {
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidActionItem)
	}
	if req.MeetingID == "" {
		return nil, fmt.Errorf("%w: meeting id is required", ErrInvalidActionItem)
	}
	if req.Priority == "" {
		req.Priority = entity.PriorityMedium
	}
	if !req.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidActionItem, req.Priority)
	}
	// Items attach only to a meeting the caller owns.
	if _, err := u.storage.GetMeeting(ctx, req.MeetingID, req.CreatedBy); err != nil {
		return nil, err
	}
	return u.storage.CreateActionItem(ctx, req)
}

func (u *usecase) ListActionItems(ctx context.Context, req *entity.ListActionItemsRequest) ([]entity.ActionItem, int, error) {
	if req.Limit <= 0 {
		req.Limit = consts.DefaultPageLimit
	}
	if req.Limit > consts.MaxPageLimit {
		req.Limit = consts.MaxPageLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return u.storage.ListActionItems(ctx, req)
}

func (u *usecase) UpdateActionItem(ctx context.Context, actionItemID string, req *entity.UpdateActionItemRequest) (*entity.ActionItem, error) {
	if req.Priority != nil && !req.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidActionItem, *req.Priority)
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidActionItem, *req.Status)
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: description cannot be empty", ErrInvalidActionItem)
		}
		req.Description = &trimmed
	}
	return u.storage.UpdateActionItem(ctx, actionItemID, req)
}

func (u *usecase) DeleteActionItem(ctx context.Context, actionItemID string) error {
	return u.storage.DeleteActionItem(ctx, actionItemID)
}
