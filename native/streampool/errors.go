package streampool

import "errors"

var (
	// ErrUnauthorized indicates the caller may not mutate the share registry.
	ErrUnauthorized = errors.New("streampool: caller not authorized")

	// ErrEmptyUpdate indicates a share update carried no entries.
	ErrEmptyUpdate = errors.New("streampool: empty share update")

	// ErrNegativeWeight indicates a share weight below zero was supplied.
	ErrNegativeWeight = errors.New("streampool: negative share weight")

	// ErrInvalidPeriod indicates a pool vesting period of zero or less.
	ErrInvalidPeriod = errors.New("streampool: vesting period must be positive")

	// ErrInvalidAsset indicates the native sentinel was passed where a token
	// identifier was expected.
	ErrInvalidAsset = errors.New("streampool: invalid asset identifier")

	// ErrInsufficientDeposit indicates a zero-value deposit.
	ErrInsufficientDeposit = errors.New("streampool: deposit amount must be positive")

	// ErrInvalidPool indicates the pool id is zero or was never allocated.
	ErrInvalidPool = errors.New("streampool: pool not found")

	// ErrNoShare indicates the participant holds no share weight.
	ErrNoShare = errors.New("streampool: participant has no share")

	// ErrNoShares indicates the registry holds no weight at all, so no
	// entitlement can be computed.
	ErrNoShares = errors.New("streampool: share registry is empty")

	// ErrTransferFailed indicates the asset transfer collaborator rejected a
	// custody movement; the ledger rolls back the associated bookkeeping.
	ErrTransferFailed = errors.New("streampool: asset transfer failed")

	// ErrInvariantViolation indicates internal accounting reached a state the
	// ledger guarantees impossible. It signals a logic bug, not a bad request.
	ErrInvariantViolation = errors.New("streampool: accounting invariant violated")
)
