package repository

import (
	"context"
	"time"

	"fitlesson-settlement/internal/domain/model"
)

type RefundRepository interface {
	Save(ctx context.Context, tx Tx, r *model.Refund) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Refund, error)
	// FindActiveByPayment returns the payment's non-rejected refund, or
	// domain.ErrNotFound. At most one can exist.
	FindActiveByPayment(ctx context.Context, tx Tx, paymentID string) (*model.Refund, error)
	// UpdateStatusIf transitions the refund only when its current status
	// still equals `from` at write time (compare-and-swap); reports whether
	// the row changed.
	UpdateStatusIf(ctx context.Context, tx Tx, id string, from, to model.RefundStatus, refundAmount int64) (bool, error)
	ListByWindow(ctx context.Context, tx Tx, start, end *time.Time) ([]*model.Refund, error)
	CountPending(ctx context.Context, tx Tx) (int, error)
	ListPending(ctx context.Context, tx Tx) ([]*model.Refund, error)
}
