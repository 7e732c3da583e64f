package repository

import (
	"context"
	"time"

	"fitlesson-settlement/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByLesson(ctx context.Context, tx Tx, lessonID string) (*model.Payment, error)
	// ApplyProcessorUpdate records a webhook-delivered status change. The
	// UPDATE is guarded so a payment already in a terminal paid state is
	// never regressed; it reports whether a row actually changed.
	ApplyProcessorUpdate(ctx context.Context, tx Tx, id string, status model.PaymentStatus, netAmount int64, paidAt *time.Time) (bool, error)
	// ExcludeFromPayout atomically removes the payment from trainer-share
	// aggregation; Reinclude reverses it when a refund is rejected.
	ExcludeFromPayout(ctx context.Context, tx Tx, id string) error
	ReincludeInPayout(ctx context.Context, tx Tx, id string) error
	// LockEligibleForPayout returns the trainer's settled, unexcluded,
	// unclaimed payments, locked FOR UPDATE within the given transaction.
	LockEligibleForPayout(ctx context.Context, tx Tx, trainerID string) ([]*model.Payment, error)
	// ListEligibleForPayout is the non-locking read of the same set, for
	// balance previews.
	ListEligibleForPayout(ctx context.Context, tx Tx, trainerID string) ([]*model.Payment, error)
	AssignPayoutRequest(ctx context.Context, tx Tx, paymentIDs []string, payoutRequestID string) error
	// ReleasePayoutRequest unclaims payments after a payout rejection.
	ReleasePayoutRequest(ctx context.Context, tx Tx, payoutRequestID string) error
	// MarkPaidOut finalizes the claimed payments once the transfer settles.
	MarkPaidOut(ctx context.Context, tx Tx, payoutRequestID string) error
	// ListByWindow returns payments with createdAt in [start, end). Nil
	// bounds are open (all-time).
	ListByWindow(ctx context.Context, tx Tx, start, end *time.Time) ([]*model.Payment, error)
}
