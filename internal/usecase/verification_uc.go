package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fitlesson-settlement/internal/domain"
	"fitlesson-settlement/internal/domain/model"
	"fitlesson-settlement/internal/domain/ports/repository"
)

// Compile-time check
var _ VerificationUseCase = (*verificationUC)(nil)

type VerificationUseCase interface {
	// Submit appends a new pending submission. Resubmission is allowed
	// after rejection; while a submission is pending or already approved
	// the call fails with ErrAlreadyExists.
	Submit(ctx context.Context, trainerID string) (*model.IdentityVerification, error)
	AuthoritativeStatus(ctx context.Context, trainerID string) (model.VerificationStatus, error)
	// CanPublishLesson is the eligibility gate. It re-reads the history on
	// every call: approval can change between a trainer's visits, so the
	// result must never be cached across requests.
	CanPublishLesson(ctx context.Context, trainerID string) error
}

type verificationUC struct {
	verifs repository.VerificationRepository
	log    *zerolog.Logger
}

func NewVerificationUseCase(verifs repository.VerificationRepository, logger *zerolog.Logger) *verificationUC {
	return &verificationUC{verifs: verifs, log: logger}
}

func (u *verificationUC) Submit(ctx context.Context, trainerID string) (*model.IdentityVerification, error) {
	status, err := u.AuthoritativeStatus(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if status == model.VerificationStatusPending || status == model.VerificationStatusApproved {
		return nil, domain.ErrAlreadyExists
	}

	v, err := model.NewIdentityVerification(uuid.NewString(), trainerID)
	if err != nil {
		return nil, err
	}
	if err := u.verifs.Save(ctx, repository.NoTX, v); err != nil {
		return nil, err
	}
	u.log.Info().Str("verification_id", v.ID).Str("trainer_id", trainerID).Msg("identity verification submitted")
	return v, nil
}

func (u *verificationUC) AuthoritativeStatus(ctx context.Context, trainerID string) (model.VerificationStatus, error) {
	history, err := u.verifs.HistoryByTrainer(ctx, repository.NoTX, trainerID)
	if err != nil {
		return "", err
	}
	return model.AuthoritativeStatus(history), nil
}

func (u *verificationUC) CanPublishLesson(ctx context.Context, trainerID string) error {
	status, err := u.AuthoritativeStatus(ctx, trainerID)
	if err != nil {
		return err
	}
	return model.PublishBlockReason(status)
}
