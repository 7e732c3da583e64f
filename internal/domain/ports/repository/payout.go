package repository

import (
	"context"
	"time"

	"fitlesson-settlement/internal/domain/model"
)

type PayoutRequestRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PayoutRequest) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PayoutRequest, error)
	// FindActiveByTrainer returns the trainer's pending or approved request,
	// or domain.ErrNotFound. A trainer holds at most one at any time.
	FindActiveByTrainer(ctx context.Context, tx Tx, trainerID string) (*model.PayoutRequest, error)
	// UpdateStatusIf is the compare-and-swap transition shared by decide()
	// and markSettled(); reports whether the row changed.
	UpdateStatusIf(ctx context.Context, tx Tx, id string, from, to model.PayoutStatus, at time.Time) (bool, error)
	ListByWindow(ctx context.Context, tx Tx, start, end *time.Time) ([]*model.PayoutRequest, error)
	CountPending(ctx context.Context, tx Tx) (int, error)
	ListPending(ctx context.Context, tx Tx) ([]*model.PayoutRequest, error)
	// ListApprovedBefore returns requests approved before the cutoff whose
	// transfer has not settled yet; the reconciler re-hands these off.
	ListApprovedBefore(ctx context.Context, tx Tx, cutoff time.Time) ([]*model.PayoutRequest, error)
}
