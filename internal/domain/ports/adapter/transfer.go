package adapter

import "context"

// TransferExecutor moves an approved payout to the trainer's bank account via
// the external transfer service. Execution is asynchronous on the provider
// side: a successful call only means the transfer was accepted; completion
// arrives later through the confirmation webhook, which drives markSettled.
type TransferExecutor interface {
	Name() string
	Execute(ctx context.Context, trainerID string, netPayout int64, payoutRequestID string) error
}
