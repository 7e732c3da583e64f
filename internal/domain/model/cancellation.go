package model

import "time"

// ReasonCode explains a refund decision to the caller and is stored on the
// refund row for auditability.
type ReasonCode string

const (
	ReasonClientBeforeDeadline ReasonCode = "client_before_deadline"
	ReasonClientPastDeadline   ReasonCode = "client_past_deadline"
	ReasonTrainerCancelled     ReasonCode = "trainer_cancelled"
	ReasonAdminRefund          ReasonCode = "admin_refund"
)

// RefundDecision is the pure outcome of the cancellation policy. Amount is 0
// whenever Eligible is false. WithholdTrainerShare marks payments whose
// trainer must not receive a share (trainer-initiated cancellations).
type RefundDecision struct {
	Eligible             bool
	Amount               int64
	Reason               ReasonCode
	WithholdTrainerShare bool
}

// CancellationDeadline is 23:59:59 on the calendar day before the lesson, in
// the lesson's own location.
func CancellationDeadline(lessonStart time.Time) time.Time {
	loc := lessonStart.Location()
	y, m, d := lessonStart.Date()
	return time.Date(y, m, d-1, 23, 59, 59, 0, loc)
}

// EvaluateCancellation decides refund eligibility and amount from the lesson
// timing, the cancellation instant, and which party cancels. It is pure: it
// must be called before any Refund row is created and never mutates state.
//
// The refundable amount is the gross charge minus the processor fee; the
// processor's cut is non-recoverable in every branch.
func EvaluateCancellation(lessonStart, cancelledAt time.Time, party Role, amount, netAmount int64) RefundDecision {
	recoverable := amount - (amount - netAmount)

	if party == RoleTrainer {
		return RefundDecision{
			Eligible:             true,
			Amount:               recoverable,
			Reason:               ReasonTrainerCancelled,
			WithholdTrainerShare: true,
		}
	}

	if cancelledAt.After(CancellationDeadline(lessonStart)) {
		// Late cancellation or no-show: nothing back, regardless of reason.
		return RefundDecision{Eligible: false, Amount: 0, Reason: ReasonClientPastDeadline}
	}
	return RefundDecision{Eligible: true, Amount: recoverable, Reason: ReasonClientBeforeDeadline}
}
