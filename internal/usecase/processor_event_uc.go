package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fitlesson-settlement/internal/domain"
	"fitlesson-settlement/internal/domain/model"
	"fitlesson-settlement/internal/domain/ports/repository"
	"fitlesson-settlement/internal/infra/metrics"
)

// ProcessorEvent is one webhook delivery from the payment processor.
// Delivery is at-least-once; events are deduplicated by paymentID+status.
type ProcessorEvent struct {
	PaymentID string
	Status    string
	Amount    int64
	NetAmount int64
	Timestamp time.Time
}

// EventDeduper remembers which events were already applied. Implemented by
// the redis store. Seen is a plain read; MarkSeen records the key only after
// the update landed, so a transient database failure leaves the key free and
// the processor's redelivery goes through.
type EventDeduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	MarkSeen(ctx context.Context, key string) error
}

// Compile-time check
var _ ProcessorEventUseCase = (*processorEventUC)(nil)

type ProcessorEventUseCase interface {
	Apply(ctx context.Context, ev ProcessorEvent) error
}

type processorEventUC struct {
	payments repository.PaymentRepository
	dedup    EventDeduper
	log      *zerolog.Logger
}

func NewProcessorEventUseCase(payments repository.PaymentRepository, dedup EventDeduper, logger *zerolog.Logger) *processorEventUC {
	return &processorEventUC{payments: payments, dedup: dedup, log: logger}
}

// statusFromProcessor maps the processor's vocabulary onto ours. Unknown
// statuses are rejected rather than guessed at.
func statusFromProcessor(s string) (model.PaymentStatus, error) {
	switch model.PaymentStatus(s) {
	case model.PaymentStatusPaid, model.PaymentStatusSucceeded, model.PaymentStatusCompleted, model.PaymentStatusFailed:
		return model.PaymentStatus(s), nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

func (u *processorEventUC) Apply(ctx context.Context, ev ProcessorEvent) error {
	status, err := statusFromProcessor(ev.Status)
	if err != nil {
		return err
	}
	if ev.NetAmount > ev.Amount || ev.Amount < 0 || ev.NetAmount < 0 {
		// Integrity fault: log and abort, never coerce a value.
		u.log.Error().Str("payment_id", ev.PaymentID).
			Int64("amount", ev.Amount).Int64("net_amount", ev.NetAmount).
			Msg("processor event fails integrity check")
		return domain.ErrInconsistentRecord
	}

	dedupKey := "processor:evt:" + ev.PaymentID + ":" + ev.Status
	seen, err := u.dedup.Seen(ctx, dedupKey)
	if err != nil {
		// Dedup store down: fall through to the guarded UPDATE, which is
		// itself safe to repeat.
		u.log.Warn().Err(err).Msg("event dedup store unavailable; relying on status guard")
	} else if seen {
		metrics.IncWebhookDuplicate("processor")
		return nil
	}

	var paidAt *time.Time
	if status.Settled() {
		ts := ev.Timestamp
		paidAt = &ts
	}
	changed, err := u.payments.ApplyProcessorUpdate(ctx, repository.NoTX, ev.PaymentID, status, ev.NetAmount, paidAt)
	if err != nil {
		// The key stays unset here: the redelivery must reach the UPDATE.
		return err
	}
	if derr := u.dedup.MarkSeen(ctx, dedupKey); derr != nil {
		u.log.Warn().Err(derr).Msg("failed to record event dedup key")
	}
	if !changed {
		// Already in a terminal paid state; a late or duplicate event must
		// never regress it.
		metrics.IncWebhookDuplicate("processor")
		u.log.Debug().Str("payment_id", ev.PaymentID).Str("status", ev.Status).Msg("processor event ignored by status guard")
		return nil
	}

	metrics.IncPayment(string(status))
	u.log.Info().Str("payment_id", ev.PaymentID).Str("status", string(status)).Msg("processor event applied")
	return nil
}
