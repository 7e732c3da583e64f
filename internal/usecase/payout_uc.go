package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fitlesson-settlement/internal/domain"
	"fitlesson-settlement/internal/domain/model"
	"fitlesson-settlement/internal/domain/ports/adapter"
	"fitlesson-settlement/internal/domain/ports/repository"
	"fitlesson-settlement/internal/infra/metrics"
)

// Locker guards against concurrent submissions by the same trainer.
// Implemented by the redis SETNX locker.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Compile-time check
var _ PayoutUseCase = (*payoutUC)(nil)

type PayoutUseCase interface {
	// Submit creates a pending payout request over the trainer's eligible
	// balance. Fails with ErrDuplicateActiveRequest while a pending or
	// approved request exists.
	Submit(ctx context.Context, trainerID string) (*model.PayoutRequest, error)
	// MarkSettled finalizes an approved request after the external transfer
	// completed. Calling it again on an already-paid request is a no-op
	// success so redelivered confirmations stay harmless.
	MarkSettled(ctx context.Context, payoutRequestID string) error
	// EligibleBalance sums the trainer's per-payment shares without
	// creating anything.
	EligibleBalance(ctx context.Context, trainerID string) (int64, error)
}

type payoutUC struct {
	payouts  repository.PayoutRequestRepository
	payments repository.PaymentRepository
	tm       repository.TransactionManager
	locker   Locker
	notifier adapter.NotificationDispatcher
	log      *zerolog.Logger
}

func NewPayoutUseCase(
	payouts repository.PayoutRequestRepository,
	payments repository.PaymentRepository,
	tm repository.TransactionManager,
	locker Locker,
	notifier adapter.NotificationDispatcher,
	logger *zerolog.Logger,
) *payoutUC {
	return &payoutUC{payouts: payouts, payments: payments, tm: tm, locker: locker, notifier: notifier, log: logger}
}

func (u *payoutUC) Submit(ctx context.Context, trainerID string) (*model.PayoutRequest, error) {
	token, err := u.locker.TryLock(ctx, "payout:submit:"+trainerID, 10*time.Second)
	if err != nil {
		return nil, err
	}
	defer func() { _ = u.locker.Unlock(ctx, "payout:submit:"+trainerID, token) }()

	if _, err := u.payouts.FindActiveByTrainer(ctx, repository.NoTX, trainerID); err == nil {
		return nil, domain.ErrDuplicateActiveRequest
	} else if err != domain.ErrNotFound {
		return nil, err
	}

	var req *model.PayoutRequest
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		eligible, err := u.payments.LockEligibleForPayout(ctx, tx, trainerID)
		if err != nil {
			return err
		}
		gross, ids, err := u.sumShares(eligible)
		if err != nil {
			return err
		}
		r, err := model.NewPayoutRequest(uuid.NewString(), trainerID, gross)
		if err != nil {
			return err
		}
		if err := u.payouts.Save(ctx, tx, r); err != nil {
			return err
		}
		// Claiming the payments here pins the request to a fixed set of
		// records: payments settled later belong to the next request.
		if err := u.payments.AssignPayoutRequest(ctx, tx, ids, r.ID); err != nil {
			return err
		}
		req = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPayout(string(req.Status))
	u.log.Info().Str("payout_id", req.ID).Str("trainer_id", trainerID).
		Int64("gross_eligible", req.GrossEligible).Int64("net_payout", req.NetPayout).
		Msg("payout request submitted")
	return req, nil
}

// sumShares totals per-payment trainer shares. An integrity fault aborts the
// submission rather than guessing a balance.
func (u *payoutUC) sumShares(payments []*model.Payment) (int64, []string, error) {
	var gross int64
	ids := make([]string, 0, len(payments))
	for _, p := range payments {
		if err := p.Validate(); err != nil {
			u.log.Error().Str("payment_id", p.ID).Msg("eligible payment fails integrity check")
			return 0, nil, err
		}
		gross += model.TrainerShare(p.NetAmount)
		ids = append(ids, p.ID)
	}
	return gross, ids, nil
}

func (u *payoutUC) MarkSettled(ctx context.Context, payoutRequestID string) error {
	var settled bool
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()
		changed, err := u.payouts.UpdateStatusIf(ctx, tx, payoutRequestID, model.PayoutStatusApproved, model.PayoutStatusPaid, now)
		if err != nil {
			return err
		}
		if !changed {
			// Either already paid (idempotent redelivery) or a genuinely
			// bad transition. Re-read under the same snapshot to tell.
			cur, err := u.payouts.FindByID(ctx, tx, payoutRequestID)
			if err != nil {
				return err
			}
			if cur.Status == model.PayoutStatusPaid {
				return nil
			}
			return domain.ErrInvalidTransition
		}
		settled = true
		return u.payments.MarkPaidOut(ctx, tx, payoutRequestID)
	})
	if err != nil {
		return err
	}
	if !settled {
		u.log.Debug().Str("payout_id", payoutRequestID).Msg("duplicate settlement confirmation ignored")
		return nil
	}

	metrics.IncPayout(string(model.PayoutStatusPaid))
	req, err := u.payouts.FindByID(ctx, repository.NoTX, payoutRequestID)
	if err == nil {
		u.notifier.Dispatch(ctx, adapter.Notification{
			Kind: model.KindPayout, EntityID: req.ID, UserID: req.TrainerID, Event: "settled",
		})
	}
	u.log.Info().Str("payout_id", payoutRequestID).Msg("payout settled")
	return nil
}

// EligibleBalance is a read-only preview; it deliberately avoids the
// FOR UPDATE path so it never contends with a concurrent submission.
func (u *payoutUC) EligibleBalance(ctx context.Context, trainerID string) (int64, error) {
	eligible, err := u.payments.ListEligibleForPayout(ctx, repository.NoTX, trainerID)
	if err != nil {
		return 0, err
	}
	gross, _, err := u.sumShares(eligible)
	return gross, err
}
