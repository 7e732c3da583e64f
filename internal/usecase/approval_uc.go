package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fitlesson-settlement/internal/domain"
	"fitlesson-settlement/internal/domain/model"
	"fitlesson-settlement/internal/domain/ports/adapter"
	"fitlesson-settlement/internal/domain/ports/repository"
	"fitlesson-settlement/internal/infra/metrics"
)

// Compile-time check
var _ ApprovalUseCase = (*approvalUC)(nil)

type ApprovalUseCase interface {
	// Decide moves a pending entity to approved or rejected. Only an admin
	// may call it; a concurrent decision loses with ErrInvalidTransition
	// because the transition is a compare-and-swap on status.
	Decide(ctx context.Context, kind model.ApprovalKind, id string, outcome model.Outcome, actor model.Actor) error
}

type approvalUC struct {
	refunds  repository.RefundRepository
	payouts  repository.PayoutRequestRepository
	verifs   repository.VerificationRepository
	payments repository.PaymentRepository
	tm       repository.TransactionManager
	transfer adapter.TransferExecutor
	notifier adapter.NotificationDispatcher
	log      *zerolog.Logger
}

func NewApprovalUseCase(
	refunds repository.RefundRepository,
	payouts repository.PayoutRequestRepository,
	verifs repository.VerificationRepository,
	payments repository.PaymentRepository,
	tm repository.TransactionManager,
	transfer adapter.TransferExecutor,
	notifier adapter.NotificationDispatcher,
	logger *zerolog.Logger,
) *approvalUC {
	return &approvalUC{
		refunds: refunds, payouts: payouts, verifs: verifs, payments: payments,
		tm: tm, transfer: transfer, notifier: notifier, log: logger,
	}
}

func (u *approvalUC) Decide(ctx context.Context, kind model.ApprovalKind, id string, outcome model.Outcome, actor model.Actor) error {
	if err := model.AuthorizeDecision(actor); err != nil {
		metrics.IncDecision(string(kind), "forbidden")
		return err
	}
	if !kind.Valid() || !outcome.Valid() || id == "" {
		return domain.ErrInvalidArgument
	}

	var err error
	switch kind {
	case model.KindRefund:
		err = u.decideRefund(ctx, id, outcome)
	case model.KindPayout:
		err = u.decidePayout(ctx, id, outcome)
	case model.KindVerification:
		err = u.decideVerification(ctx, id, outcome)
	}
	if err != nil {
		metrics.IncDecision(string(kind), "rejected_transition")
		return err
	}

	metrics.IncDecision(string(kind), string(outcome))
	u.log.Info().Str("kind", string(kind)).Str("entity_id", id).
		Str("outcome", string(outcome)).Str("admin_id", actor.ID).
		Msg("approval decision recorded")
	return nil
}

func (u *approvalUC) decideRefund(ctx context.Context, id string, outcome model.Outcome) error {
	var payerID string
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		r, err := u.refunds.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		p, err := u.payments.FindByID(ctx, tx, r.PaymentID)
		if err != nil {
			return err
		}
		payerID = p.PayerID

		to := model.RefundStatusRefunded
		amount := r.RequestedAmount
		if outcome == model.OutcomeRejected {
			to = model.RefundStatusRejected
			amount = 0
		}
		changed, err := u.refunds.UpdateStatusIf(ctx, tx, id, model.RefundStatusPending, to, amount)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrInvalidTransition
		}

		// A rejected refund releases the payment back into trainer-share
		// aggregation, unless the trainer cancelled the lesson: that
		// exclusion outlives any refund decision.
		if outcome == model.OutcomeRejected && r.Reason != model.ReasonTrainerCancelled {
			if err := u.payments.ReincludeInPayout(ctx, tx, r.PaymentID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.notifier.Dispatch(ctx, adapter.Notification{
		Kind: model.KindRefund, EntityID: id, UserID: payerID, Event: string(outcome),
	})
	return nil
}

func (u *approvalUC) decidePayout(ctx context.Context, id string, outcome model.Outcome) error {
	var req *model.PayoutRequest
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		to := model.PayoutStatusApproved
		if outcome == model.OutcomeRejected {
			to = model.PayoutStatusRejected
		}
		changed, err := u.payouts.UpdateStatusIf(ctx, tx, id, model.PayoutStatusPending, to, time.Now())
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrInvalidTransition
		}
		if outcome == model.OutcomeRejected {
			// Unclaim the payments so the next request can pick them up.
			if err := u.payments.ReleasePayoutRequest(ctx, tx, id); err != nil {
				return err
			}
		}
		req, err = u.payouts.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return err
	}

	if outcome == model.OutcomeApproved {
		// Approval only authorizes the transfer; the money moves via the
		// external service and markSettled fires on its confirmation.
		// A failed hand-off leaves the request approved and retriable.
		if terr := u.transfer.Execute(ctx, req.TrainerID, req.NetPayout, req.ID); terr != nil {
			metrics.IncTransferFailure(u.transfer.Name())
			u.log.Error().Err(terr).Str("payout_id", req.ID).
				Msg("transfer hand-off failed; request stays approved")
		}
	}
	u.notifier.Dispatch(ctx, adapter.Notification{
		Kind: model.KindPayout, EntityID: req.ID, UserID: req.TrainerID, Event: string(outcome),
	})
	return nil
}

func (u *approvalUC) decideVerification(ctx context.Context, id string, outcome model.Outcome) error {
	to := model.VerificationStatusApproved
	if outcome == model.OutcomeRejected {
		to = model.VerificationStatusRejected
	}
	changed, err := u.verifs.UpdateStatusIf(ctx, repository.NoTX, id, model.VerificationStatusPending, to)
	if err != nil {
		return err
	}
	if !changed {
		return domain.ErrInvalidTransition
	}
	if v, err := u.verifs.FindByID(ctx, repository.NoTX, id); err == nil {
		u.notifier.Dispatch(ctx, adapter.Notification{
			Kind: model.KindVerification, EntityID: v.ID, UserID: v.TrainerID, Event: string(outcome),
		})
	}
	return nil
}
