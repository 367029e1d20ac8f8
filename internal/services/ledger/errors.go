package ledger

import "errors"

// Business-rule errors surfaced to callers. Handlers map these to refused
// operations with a reason; anything else is treated as a backend failure and
// reported generically.
var (
	// ErrEmailTaken is returned when a signup reuses a registered email
	ErrEmailTaken = errors.New("email already registered")

	// ErrSelfReferral is returned when a referral code resolves to the
	// signee's own account
	ErrSelfReferral = errors.New("cannot use your own referral code")

	// ErrInsufficientPoints is returned when a redemption would overdraw
	// the points balance
	ErrInsufficientPoints = errors.New("insufficient points for this reward")

	// ErrRewardNotFound is returned for unknown catalog ids
	ErrRewardNotFound = errors.New("reward not found")

	// ErrUserNotFound is returned for unknown user ids
	ErrUserNotFound = errors.New("user not found")
)
