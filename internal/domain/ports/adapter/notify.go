package adapter

import (
	"context"

	"fitlesson-settlement/internal/domain/model"
)

// Notification describes a state transition worth telling a user about.
type Notification struct {
	Kind     model.ApprovalKind
	EntityID string
	UserID   string
	Event    string // "approved" | "rejected" | "settled"
}

// NotificationDispatcher delivers fire-and-forget notifications. A dispatch
// failure must never roll back the state transition that triggered it.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, n Notification)
}
