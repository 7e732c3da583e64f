package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyExists   = errors.New("entity already exists")

	// Settlement / approval errors
	ErrForbidden              = errors.New("actor lacks the required capability")
	ErrInvalidTransition      = errors.New("state machine precondition violated")
	ErrDuplicateActiveRequest = errors.New("trainer already has an active payout request")
	ErrInconsistentRecord     = errors.New("record violates a monetary integrity invariant")
	ErrUpstreamUnavailable    = errors.New("upstream store or processor unavailable")

	// Publish-gate errors, one per blocking verification status
	ErrVerificationNotSubmitted = errors.New("identity verification has not been submitted")
	ErrVerificationPending      = errors.New("identity verification is still under review")
	ErrVerificationRejected     = errors.New("identity verification was rejected")

	// Infra-level errors surfaced by repositories
	ErrInvalidExecContext = errors.New("invalid query execution context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
