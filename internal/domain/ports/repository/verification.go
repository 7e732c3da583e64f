package repository

import (
	"context"

	"fitlesson-settlement/internal/domain/model"
)

type VerificationRepository interface {
	// Save appends a submission; history rows are never mutated in place
	// except for the pending -> approved|rejected decision on the row itself.
	Save(ctx context.Context, tx Tx, v *model.IdentityVerification) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.IdentityVerification, error)
	// HistoryByTrainer returns every submission for the trainer, newest first.
	HistoryByTrainer(ctx context.Context, tx Tx, trainerID string) ([]*model.IdentityVerification, error)
	UpdateStatusIf(ctx context.Context, tx Tx, id string, from, to model.VerificationStatus) (bool, error)
	CountPending(ctx context.Context, tx Tx) (int, error)
	ListPending(ctx context.Context, tx Tx) ([]*model.IdentityVerification, error)
}
