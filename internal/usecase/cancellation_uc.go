package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fitlesson-settlement/internal/domain"
	"fitlesson-settlement/internal/domain/model"
	"fitlesson-settlement/internal/domain/ports/repository"
)

// Compile-time check
var _ CancellationUseCase = (*cancellationUC)(nil)

type CancellationUseCase interface {
	// Evaluate runs the cancellation policy without touching state.
	Evaluate(ctx context.Context, lessonID string, actor model.Actor, now time.Time) (model.RefundDecision, error)
	// RequestRefund evaluates the policy and, when eligible, creates the
	// pending refund and atomically excludes the payment from trainer-share
	// aggregation, all inside one transaction.
	RequestRefund(ctx context.Context, lessonID string, actor model.Actor, now time.Time) (*model.Refund, model.RefundDecision, error)
}

type cancellationUC struct {
	lessons  repository.LessonRepository
	payments repository.PaymentRepository
	refunds  repository.RefundRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewCancellationUseCase(
	lessons repository.LessonRepository,
	payments repository.PaymentRepository,
	refunds repository.RefundRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *cancellationUC {
	return &cancellationUC{lessons: lessons, payments: payments, refunds: refunds, tm: tm, log: logger}
}

func (u *cancellationUC) Evaluate(ctx context.Context, lessonID string, actor model.Actor, now time.Time) (model.RefundDecision, error) {
	lesson, err := u.lessons.FindByID(ctx, repository.NoTX, lessonID)
	if err != nil {
		return model.RefundDecision{}, err
	}
	payment, err := u.payments.FindByLesson(ctx, repository.NoTX, lessonID)
	if err != nil {
		return model.RefundDecision{}, err
	}
	return u.decide(lesson, payment, actor, now)
}

func (u *cancellationUC) decide(lesson *model.Lesson, payment *model.Payment, actor model.Actor, now time.Time) (model.RefundDecision, error) {
	if err := payment.Validate(); err != nil {
		u.log.Error().Str("payment_id", payment.ID).
			Int64("amount", payment.Amount).Int64("net_amount", payment.NetAmount).
			Msg("payment fails integrity check; aborting cancellation")
		return model.RefundDecision{}, err
	}
	if actor.IsAdmin() {
		// Admin-initiated refunds bypass the timing rule but still forfeit
		// the processor fee.
		return model.RefundDecision{
			Eligible: true,
			Amount:   payment.NetAmount,
			Reason:   model.ReasonAdminRefund,
		}, nil
	}
	return model.EvaluateCancellation(lesson.StartAt, now, actor.Role, payment.Amount, payment.NetAmount), nil
}

func (u *cancellationUC) RequestRefund(ctx context.Context, lessonID string, actor model.Actor, now time.Time) (*model.Refund, model.RefundDecision, error) {
	lesson, err := u.lessons.FindByID(ctx, repository.NoTX, lessonID)
	if err != nil {
		return nil, model.RefundDecision{}, err
	}

	var refund *model.Refund
	var decision model.RefundDecision
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// Reads the payment under FOR UPDATE so the refund decision and the
		// payout-eligibility exclusion see one consistent snapshot.
		payment, err := u.payments.FindByLesson(ctx, tx, lessonID)
		if err != nil {
			return err
		}
		if !payment.Status.Settled() {
			return domain.ErrInvalidTransition
		}
		decision, err = u.decide(lesson, payment, actor, now)
		if err != nil {
			return err
		}
		if !decision.Eligible {
			return nil
		}

		// At most one non-rejected refund per payment.
		if _, err := u.refunds.FindActiveByPayment(ctx, tx, payment.ID); err == nil {
			return domain.ErrDuplicateActiveRequest
		} else if err != domain.ErrNotFound {
			return err
		}

		r, err := model.NewRefund(uuid.NewString(), payment.ID, decision.Amount, decision.Reason)
		if err != nil {
			return err
		}
		if err := u.refunds.Save(ctx, tx, r); err != nil {
			return err
		}
		if err := u.payments.ExcludeFromPayout(ctx, tx, payment.ID); err != nil {
			return err
		}
		refund = r
		return u.lessons.UpdateStatus(ctx, tx, lessonID, model.LessonStatusCancelled)
	})
	if err != nil {
		return nil, model.RefundDecision{}, err
	}
	if refund != nil {
		u.log.Info().Str("refund_id", refund.ID).Str("lesson_id", lessonID).
			Str("reason", string(decision.Reason)).Int64("amount", decision.Amount).
			Msg("refund requested")
	}
	return refund, decision, nil
}
