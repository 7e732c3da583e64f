package model

import (
	"time"

	"fitlesson-settlement/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // checkout initiated; awaiting processor webhook
	PaymentStatusPaid      PaymentStatus = "paid"      // processor confirmed the charge
	PaymentStatusSucceeded PaymentStatus = "succeeded" // processor-specific alias of paid
	PaymentStatusCompleted PaymentStatus = "completed" // lesson delivered
	PaymentStatusPaidOut   PaymentStatus = "paid_out"  // trainer share disbursed via a settled payout
	PaymentStatusFailed    PaymentStatus = "failed"
)

// settledStatuses are the terminal paid states. A payment in one of these
// counts toward revenue and, unless excluded, toward trainer payout
// eligibility. It never regresses to pending or failed.
var settledStatuses = map[PaymentStatus]bool{
	PaymentStatusPaid:      true,
	PaymentStatusSucceeded: true,
	PaymentStatusCompleted: true,
	PaymentStatusPaidOut:   true,
}

func (s PaymentStatus) Settled() bool { return settledStatuses[s] }

// Payment records a client's charge for a lesson.
type Payment struct {
	ID        string // UUID
	LessonID  string // UUID
	PayerID   string // UUID of the client
	TrainerID string // UUID of the lesson's trainer, captured at checkout
	Amount    int64  // gross, integer currency units
	NetAmount int64  // amount minus the processor fee
	Status    PaymentStatus
	// PayoutExcluded removes the payment from trainer-share aggregation.
	// Set atomically with refund creation and on trainer-initiated cancellation.
	PayoutExcluded bool
	// PayoutRequestID links the payment to the payout request that claimed it.
	PayoutRequestID *string
	CreatedAt       time.Time
	PaidAt          *time.Time
}

func NewPayment(id, lessonID, payerID, trainerID string, amount int64) (*Payment, error) {
	if id == "" || lessonID == "" || payerID == "" || trainerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Payment{
		ID:        id,
		LessonID:  lessonID,
		PayerID:   payerID,
		TrainerID: trainerID,
		Amount:    amount,
		Status:    PaymentStatusPending,
		CreatedAt: time.Now(),
	}, nil
}

// ProcessorFee is the non-recoverable cost charged by the payment processor.
func (p *Payment) ProcessorFee() int64 { return p.Amount - p.NetAmount }

// Validate checks monetary integrity. A violation is a data fault to abort
// on, never a value to coerce.
func (p *Payment) Validate() error {
	if p.Amount < 0 || p.NetAmount < 0 || p.NetAmount > p.Amount {
		return domain.ErrInconsistentRecord
	}
	return nil
}
