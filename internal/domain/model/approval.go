package model

import "fitlesson-settlement/internal/domain"

// The approval workflow is one machine instantiated three times:
// refunds, payout requests, and identity verifications all move
// pending -> approved|rejected, and payout requests alone continue
// approved -> paid once the external transfer completes.

type ApprovalKind string

const (
	KindRefund       ApprovalKind = "refund"
	KindPayout       ApprovalKind = "payout"
	KindVerification ApprovalKind = "verification"
)

type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

func (k ApprovalKind) Valid() bool {
	return k == KindRefund || k == KindPayout || k == KindVerification
}

func (o Outcome) Valid() bool {
	return o == OutcomeApproved || o == OutcomeRejected
}

// AuthorizeDecision is the capability gate shared by every decide() call.
func AuthorizeDecision(actor Actor) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}
