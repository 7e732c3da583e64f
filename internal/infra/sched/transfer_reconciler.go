package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fitlesson-settlement/internal/domain/ports/adapter"
	"fitlesson-settlement/internal/domain/ports/repository"
	"fitlesson-settlement/internal/infra/metrics"
)

// TransferReconciler re-hands approved payouts whose transfer confirmation
// never arrived. The provider dedupes on the payout request ID, so a repeat
// hand-off of an in-flight transfer is harmless.
type TransferReconciler struct {
	interval time.Duration
	stale    time.Duration
	payouts  repository.PayoutRequestRepository
	transfer adapter.TransferExecutor
	log      *zerolog.Logger
}

func NewTransferReconciler(interval, stale time.Duration, payouts repository.PayoutRequestRepository, transfer adapter.TransferExecutor, logger *zerolog.Logger) *TransferReconciler {
	compLog := logger.With().Str("component", "TransferReconciler").Logger()
	return &TransferReconciler{
		interval: interval,
		stale:    stale,
		payouts:  payouts,
		transfer: transfer,
		log:      &compLog,
	}
}

func (w *TransferReconciler) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting transfer reconciler")
	// Run once on startup, then on every tick
	w.reconcile(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping transfer reconciler")
			return ctx.Err()
		case <-ticker.C:
			w.reconcile(ctx)
		}
	}
}

func (w *TransferReconciler) reconcile(ctx context.Context) {
	stale, err := w.payouts.ListApprovedBefore(ctx, repository.NoTX, time.Now().Add(-w.stale))
	if err != nil {
		w.log.Error().Err(err).Msg("reconcile scan failed")
		return
	}
	for _, req := range stale {
		if err := w.transfer.Execute(ctx, req.TrainerID, req.NetPayout, req.ID); err != nil {
			metrics.IncTransferFailure(w.transfer.Name())
			w.log.Error().Err(err).Str("payout_id", req.ID).Msg("transfer re-hand-off failed")
			continue
		}
		w.log.Info().Str("payout_id", req.ID).Msg("stale approved payout re-handed to transfer service")
	}
}
