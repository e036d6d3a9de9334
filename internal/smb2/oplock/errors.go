package oplock

import "errors"

var (
	// ErrNotBreaking is returned by an Acknowledge* call that doesn't
	// match any outstanding break.
	ErrNotBreaking = errors.New("oplock: no break in progress for this key")

	// ErrUnknownLease names a lease key with no tracked state. No
	// Manager method returns it.
	ErrUnknownLease = errors.New("oplock: unknown lease key")

	// ErrInvalidLeaseState names a lease state that is not a valid
	// combination for the target (file vs directory). No Manager method
	// returns it; RequestLease downgrades an invalid request instead.
	ErrInvalidLeaseState = errors.New("oplock: invalid lease state for target")
)
