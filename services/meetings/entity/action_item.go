package entity

import "time"

type ActionItemPriority string

const (
	PriorityHigh   ActionItemPriority = "high"
	PriorityMedium ActionItemPriority = "medium"
	PriorityLow    ActionItemPriority = "low"
)

func (p ActionItemPriority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type ActionItemStatus string

const (
	ActionItemPending    ActionItemStatus = "pending"
	ActionItemInProgress ActionItemStatus = "in_progress"
	ActionItemCompleted  ActionItemStatus = "completed"
	ActionItemCancelled  ActionItemStatus = "cancelled"
)

func (s ActionItemStatus) Valid() bool {
	switch s {
	case ActionItemPending, ActionItemInProgress, ActionItemCompleted, ActionItemCancelled:
		return true
	}
	return false
}

type ActionItem struct {
	ID          string             `json:"id"`
	MeetingID   string             `json:"meetingId"`
	Description string             `json:"description"`
	Speaker     *string            `json:"speaker,omitempty"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
	Priority    ActionItemPriority `json:"priority"`
	Status      ActionItemStatus   `json:"status"`
	CreatedBy   string             `json:"createdBy"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

type CreateActionItemRequest struct {
	MeetingID   string
	Description string
	Priority    ActionItemPriority
	Speaker     *string
	DueDate     *time.Time
	CreatedBy   string
}

type UpdateActionItemRequest struct {
	Description *string
	Priority    *ActionItemPriority
	Status      *ActionItemStatus
	Speaker     *string
	DueDate     *time.Time
}

type ListActionItemsRequest struct {
	MeetingID string
	Status    string
	Priority  string
	Speaker   string
	Limit     int
	Offset    int
}
