package model

import (
	"time"

	"fitlesson-settlement/internal/domain"
)

type VerificationStatus string

const (
	VerificationStatusNotSubmitted VerificationStatus = "not_submitted"
	VerificationStatusPending      VerificationStatus = "pending"
	VerificationStatusApproved     VerificationStatus = "approved"
	VerificationStatusRejected     VerificationStatus = "rejected"
)

// IdentityVerification is one submission in a trainer's verification history.
// Rows are append-only: a resubmission after rejection creates a new row and
// the old one is kept untouched.
type IdentityVerification struct {
	ID        string // UUID
	TrainerID string // UUID
	Status    VerificationStatus
	CreatedAt time.Time
}

func NewIdentityVerification(id, trainerID string) (*IdentityVerification, error) {
	if id == "" || trainerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &IdentityVerification{
		ID:        id,
		TrainerID: trainerID,
		Status:    VerificationStatusPending,
		CreatedAt: time.Now(),
	}, nil
}

// AuthoritativeStatus derives the single effective verification state from a
// trainer's submission history: the most recently created row wins, ties
// broken by the highest ID. An empty history means not_submitted.
func AuthoritativeStatus(history []*IdentityVerification) VerificationStatus {
	var latest *IdentityVerification
	for _, v := range history {
		if v == nil {
			continue
		}
		if latest == nil ||
			v.CreatedAt.After(latest.CreatedAt) ||
			(v.CreatedAt.Equal(latest.CreatedAt) && v.ID > latest.ID) {
			latest = v
		}
	}
	if latest == nil {
		return VerificationStatusNotSubmitted
	}
	return latest.Status
}

// PublishBlockReason maps a non-approved authoritative status to the distinct
// user-facing reason the publish gate returns. Approved yields no error.
func PublishBlockReason(status VerificationStatus) error {
	switch status {
	case VerificationStatusApproved:
		return nil
	case VerificationStatusPending:
		return domain.ErrVerificationPending
	case VerificationStatusRejected:
		return domain.ErrVerificationRejected
	default:
		return domain.ErrVerificationNotSubmitted
	}
}
