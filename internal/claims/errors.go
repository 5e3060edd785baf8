package claims

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidNonce     = errors.New("invalid_nonce")
	ErrNonceReused      = errors.New("nonce_reused")
	ErrClaimInFlight    = errors.New("claim_in_flight")
	ErrCooldownActive   = errors.New("cooldown_active")
	ErrAlreadyClaimed   = errors.New("already_claimed")
	ErrSessionNotFound  = errors.New("session_not_found")
	ErrSettlementFailed = errors.New("settlement_failed")
)

// InsufficientTimeError reports how much of the eligibility window is still
// missing.
type InsufficientTimeError struct {
	MinutesRemaining int
}

func (e *InsufficientTimeError) Error() string {
	return fmt.Sprintf("insufficient_time: %d minutes remaining", e.MinutesRemaining)
}
