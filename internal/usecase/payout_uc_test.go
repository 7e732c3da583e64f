//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"fitlesson-settlement/internal/domain"
	"fitlesson-settlement/internal/domain/model"
	"fitlesson-settlement/internal/domain/ports/repository"
	"fitlesson-settlement/internal/usecase"
)

type payoutUCTestDeps struct {
	payouts  *MockPayoutRepo
	payments *MockPaymentRepo
	tm       *MockTxManager
	locker   *MockLocker
	notifier *MockNotifier
}

func newPayoutUCDeps() *payoutUCTestDeps {
	return &payoutUCTestDeps{
		payouts:  NewMockPayoutRepo(),
		payments: NewMockPaymentRepo(),
		tm:       NewMockTxManager(),
		locker:   NewMockLocker(),
		notifier: &MockNotifier{},
	}
}

func (d *payoutUCTestDeps) build() usecase.PayoutUseCase {
	return usecase.NewPayoutUseCase(d.payouts, d.payments, d.tm, d.locker, d.notifier, newTestLogger())
}

func seedSettledPayment(d *payoutUCTestDeps, id string, amount, net int64) {
	_ = d.payments.Save(context.Background(), nil, &model.Payment{
		ID: id, LessonID: "les-" + id, PayerID: "c-1", TrainerID: "t-1",
		Amount: amount, NetAmount: net, Status: model.PaymentStatusPaid,
		CreatedAt: time.Now(),
	})
}

func TestPayoutUseCase_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("should create a pending request over the settled balance", func(t *testing.T) {
		deps := newPayoutUCDeps()
		seedSettledPayment(deps, "pay-1", 10000, 9500)
		seedSettledPayment(deps, "pay-2", 5000, 4800)
		uc := deps.build()

		req, err := uc.Submit(ctx, "t-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		wantGross := model.TrainerShare(9500) + model.TrainerShare(4800)
		if req.GrossEligible != wantGross {
			t.Errorf("expected gross %d, got %d", wantGross, req.GrossEligible)
		}
		if req.NetPayout != wantGross-model.TransferFee {
			t.Errorf("expected net %d, got %d", wantGross-model.TransferFee, req.NetPayout)
		}
		if req.Status != model.PayoutStatusPending {
			t.Errorf("expected status pending, got %s", req.Status)
		}

		// Both payments must be claimed by this request.
		for _, id := range []string{"pay-1", "pay-2"} {
			p, _ := deps.payments.FindByID(ctx, nil, id)
			if p.PayoutRequestID == nil || *p.PayoutRequestID != req.ID {
				t.Errorf("expected payment %s claimed by %s", id, req.ID)
			}
		}
	})

	t.Run("should skip excluded and already-claimed payments", func(t *testing.T) {
		deps := newPayoutUCDeps()
		seedSettledPayment(deps, "pay-1", 10000, 9500)
		seedSettledPayment(deps, "pay-2", 5000, 4800)
		_ = deps.payments.ExcludeFromPayout(ctx, nil, "pay-2")
		uc := deps.build()

		req, err := uc.Submit(ctx, "t-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if req.GrossEligible != model.TrainerShare(9500) {
			t.Errorf("expected gross %d, got %d", model.TrainerShare(9500), req.GrossEligible)
		}
	})

	t.Run("should fail while an active request exists", func(t *testing.T) {
		deps := newPayoutUCDeps()
		seedSettledPayment(deps, "pay-1", 10000, 9500)
		for _, status := range []model.PayoutStatus{model.PayoutStatusPending, model.PayoutStatusApproved} {
			_ = deps.payouts.Save(ctx, nil, &model.PayoutRequest{
				ID: "po-existing", TrainerID: "t-1", GrossEligible: 1000, NetPayout: 750,
				Status: status, CreatedAt: time.Now(),
			})
			uc := deps.build()

			_, err := uc.Submit(ctx, "t-1")
			if !errors.Is(err, domain.ErrDuplicateActiveRequest) {
				t.Errorf("status=%s: expected ErrDuplicateActiveRequest, got %v", status, err)
			}
		}
	})

	t.Run("should allow a new request after the previous one settled", func(t *testing.T) {
		deps := newPayoutUCDeps()
		seedSettledPayment(deps, "pay-1", 10000, 9500)
		_ = deps.payouts.Save(ctx, nil, &model.PayoutRequest{
			ID: "po-old", TrainerID: "t-1", GrossEligible: 1000, NetPayout: 750,
			Status: model.PayoutStatusPaid, CreatedAt: time.Now().Add(-time.Hour),
		})
		uc := deps.build()

		if _, err := uc.Submit(ctx, "t-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("should fail when the balance does not cover the transfer fee", func(t *testing.T) {
		deps := newPayoutUCDeps()
		seedSettledPayment(deps, "pay-1", 300, 300) // share 240 < fee 250
		uc := deps.build()

		if _, err := uc.Submit(ctx, "t-1"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should abort on a payment failing the integrity check", func(t *testing.T) {
		deps := newPayoutUCDeps()
		_ = deps.payments.Save(ctx, nil, &model.Payment{
			ID: "pay-bad", LessonID: "les-1", PayerID: "c-1", TrainerID: "t-1",
			Amount: 1000, NetAmount: 2000, Status: model.PaymentStatusPaid, CreatedAt: time.Now(),
		})
		uc := deps.build()

		if _, err := uc.Submit(ctx, "t-1"); !errors.Is(err, domain.ErrInconsistentRecord) {
			t.Errorf("expected ErrInconsistentRecord, got %v", err)
		}
	})

	t.Run("should fail when the submission lock is contended", func(t *testing.T) {
		deps := newPayoutUCDeps()
		seedSettledPayment(deps, "pay-1", 10000, 9500)
		_, _ = deps.locker.TryLock(ctx, "payout:submit:t-1", time.Second)
		uc := deps.build()

		if _, err := uc.Submit(ctx, "t-1"); !errors.Is(err, domain.ErrDuplicateActiveRequest) {
			t.Errorf("expected ErrDuplicateActiveRequest, got %v", err)
		}
	})

	t.Run("should surface a lock store outage as upstream unavailability", func(t *testing.T) {
		deps := newPayoutUCDeps()
		seedSettledPayment(deps, "pay-1", 10000, 9500)
		deps.locker.ErrOn["payout:submit:t-1"] = domain.ErrUpstreamUnavailable
		uc := deps.build()

		if _, err := uc.Submit(ctx, "t-1"); !errors.Is(err, domain.ErrUpstreamUnavailable) {
			t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
		}
	})
}

func TestPayoutUseCase_MarkSettled(t *testing.T) {
	ctx := context.Background()

	seedApproved := func(deps *payoutUCTestDeps) {
		processedAt := time.Now().Add(-time.Minute)
		_ = deps.payouts.Save(ctx, nil, &model.PayoutRequest{
			ID: "po-1", TrainerID: "t-1", GrossEligible: 8000, NetPayout: 7750,
			Status: model.PayoutStatusApproved, CreatedAt: time.Now().Add(-time.Hour),
			ProcessedAt: &processedAt,
		})
		rid := "po-1"
		_ = deps.payments.Save(ctx, nil, &model.Payment{
			ID: "pay-1", LessonID: "les-1", PayerID: "c-1", TrainerID: "t-1",
			Amount: 10000, NetAmount: 9500, Status: model.PaymentStatusPaid,
			PayoutRequestID: &rid, CreatedAt: time.Now(),
		})
	}

	t.Run("should settle an approved request and finalize its payments", func(t *testing.T) {
		deps := newPayoutUCDeps()
		seedApproved(deps)
		uc := deps.build()

		if err := uc.MarkSettled(ctx, "po-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		req, _ := deps.payouts.FindByID(ctx, nil, "po-1")
		if req.Status != model.PayoutStatusPaid {
			t.Errorf("expected status paid, got %s", req.Status)
		}
		if req.SettledAt == nil {
			t.Error("expected settledAt to be stamped")
		}
		p, _ := deps.payments.FindByID(ctx, nil, "pay-1")
		if p.Status != model.PaymentStatusPaidOut {
			t.Errorf("expected claimed payment paid_out, got %s", p.Status)
		}
		if len(deps.notifier.Sent) != 1 || deps.notifier.Sent[0].Event != "settled" {
			t.Errorf("expected one settled notification, got %+v", deps.notifier.Sent)
		}
	})

	t.Run("should treat a repeated confirmation as a no-op success", func(t *testing.T) {
		deps := newPayoutUCDeps()
		seedApproved(deps)
		uc := deps.build()

		if err := uc.MarkSettled(ctx, "po-1"); err != nil {
			t.Fatalf("first call: %v", err)
		}
		markPaidOutCalls := len(deps.payments.Calls.MarkPaidOut)
		notifications := len(deps.notifier.Sent)

		if err := uc.MarkSettled(ctx, "po-1"); err != nil {
			t.Fatalf("redelivered confirmation must succeed, got %v", err)
		}

		if len(deps.payments.Calls.MarkPaidOut) != markPaidOutCalls {
			t.Error("redelivery must not finalize payments again")
		}
		if len(deps.notifier.Sent) != notifications {
			t.Error("redelivery must not notify again")
		}
	})

	t.Run("should fail on a request that was never approved", func(t *testing.T) {
		deps := newPayoutUCDeps()
		_ = deps.payouts.Save(ctx, nil, &model.PayoutRequest{
			ID: "po-1", TrainerID: "t-1", GrossEligible: 8000, NetPayout: 7750,
			Status: model.PayoutStatusPending, CreatedAt: time.Now(),
		})
		uc := deps.build()

		if err := uc.MarkSettled(ctx, "po-1"); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("should fail with ErrNotFound for an unknown request", func(t *testing.T) {
		deps := newPayoutUCDeps()
		uc := deps.build()

		if err := uc.MarkSettled(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestPayoutUseCase_EligibleBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("should sum per-payment shares without creating anything", func(t *testing.T) {
		deps := newPayoutUCDeps()
		seedSettledPayment(deps, "pay-1", 10000, 9500)
		seedSettledPayment(deps, "pay-2", 5000, 4800)
		uc := deps.build()

		got, err := uc.EligibleBalance(ctx, "t-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := model.TrainerShare(9500) + model.TrainerShare(4800)
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
		if n, _ := deps.payouts.CountPending(ctx, nil); n != 0 {
			t.Error("balance inquiry must not create a payout request")
		}
	})

	t.Run("should read the balance without opening a transaction", func(t *testing.T) {
		deps := newPayoutUCDeps()
		seedSettledPayment(deps, "pay-1", 10000, 9500)
		deps.tm.WithTxFunc = func(ctx context.Context, txOpt pgx.TxOptions, fn func(context.Context, repository.Tx) error) error {
			return errors.New("balance preview must not open a transaction")
		}
		uc := deps.build()

		got, err := uc.EligibleBalance(ctx, "t-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != model.TrainerShare(9500) {
			t.Errorf("expected %d, got %d", model.TrainerShare(9500), got)
		}
	})

	t.Run("should return zero for a trainer with no settled payments", func(t *testing.T) {
		deps := newPayoutUCDeps()
		uc := deps.build()

		got, err := uc.EligibleBalance(ctx, "t-unknown")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})
}
