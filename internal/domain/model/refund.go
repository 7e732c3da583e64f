package model

import (
	"time"

	"fitlesson-settlement/internal/domain"
)

type RefundStatus string

const (
	RefundStatusPending  RefundStatus = "pending"
	RefundStatusRefunded RefundStatus = "refunded"
	RefundStatusRejected RefundStatus = "rejected"
)

func (s RefundStatus) Terminal() bool {
	return s == RefundStatusRefunded || s == RefundStatusRejected
}

// Refund tracks a full-refund request against a payment. A payment carries at
// most one non-rejected refund; the repository enforces this at creation time.
type Refund struct {
	ID              string // UUID
	PaymentID       string // UUID
	RequestedAmount int64
	RefundAmount    int64 // set when refunded
	Status          RefundStatus
	Reason          ReasonCode
	CreatedAt       time.Time
}

func NewRefund(id, paymentID string, requestedAmount int64, reason ReasonCode) (*Refund, error) {
	if id == "" || paymentID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if requestedAmount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Refund{
		ID:              id,
		PaymentID:       paymentID,
		RequestedAmount: requestedAmount,
		Status:          RefundStatusPending,
		Reason:          reason,
		CreatedAt:       time.Now(),
	}, nil
}
