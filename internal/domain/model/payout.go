package model

import (
	"time"

	"fitlesson-settlement/internal/domain"
)

// TransferFee is the fixed cost of one external transfer, deducted from the
// trainer's eligible balance when a payout request is created.
const TransferFee int64 = 250

type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "pending"
	PayoutStatusApproved PayoutStatus = "approved"
	PayoutStatusPaid     PayoutStatus = "paid"
	PayoutStatusRejected PayoutStatus = "rejected"
)

// Active reports whether the request still occupies the trainer's one
// in-flight payout slot.
func (s PayoutStatus) Active() bool {
	return s == PayoutStatusPending || s == PayoutStatusApproved
}

// PayoutRequest is a trainer's claim on their accumulated eligible balance.
// NetPayout is computed exactly once, at creation, and never recomputed.
type PayoutRequest struct {
	ID            string // UUID
	TrainerID     string // UUID
	GrossEligible int64  // sum of per-payment trainer shares at creation time
	NetPayout     int64  // GrossEligible - TransferFee
	Status        PayoutStatus
	CreatedAt     time.Time
	ProcessedAt   *time.Time // set when an admin decides
	SettledAt     *time.Time // set when the external transfer completes
}

func NewPayoutRequest(id, trainerID string, grossEligible int64) (*PayoutRequest, error) {
	if id == "" || trainerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if grossEligible <= TransferFee {
		// A payout that nets zero or less is never created.
		return nil, domain.ErrInvalidArgument
	}
	return &PayoutRequest{
		ID:            id,
		TrainerID:     trainerID,
		GrossEligible: grossEligible,
		NetPayout:     grossEligible - TransferFee,
		Status:        PayoutStatusPending,
		CreatedAt:     time.Now(),
	}, nil
}
