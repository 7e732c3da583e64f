package transfer

import (
	"context"

	"github.com/rs/zerolog"

	"fitlesson-settlement/internal/domain/ports/adapter"
)

var _ adapter.TransferExecutor = (*NoopExecutor)(nil)

// NoopExecutor logs instead of transferring. Used in dev mode and tests.
type NoopExecutor struct {
	log *zerolog.Logger
}

func NewNoopExecutor(logger *zerolog.Logger) *NoopExecutor {
	return &NoopExecutor{log: logger}
}

func (e *NoopExecutor) Name() string { return "noop" }

func (e *NoopExecutor) Execute(_ context.Context, trainerID string, netPayout int64, payoutRequestID string) error {
	e.log.Info().Str("trainer_id", trainerID).Int64("net_payout", netPayout).
		Str("payout_id", payoutRequestID).Msg("noop transfer executed")
	return nil
}
