package rewards

import (
	"errors"
	"net/http"

	"voxelworld-economy/internal/claims"
	"voxelworld-economy/internal/referral"
	"voxelworld-economy/internal/store"
)

var ErrInvalidRequest = errors.New("invalid_request")

// MapError resolves a rewards failure to an HTTP status and stable error
// code. Retryable settlement failures are 502: the reservation is already
// reverted and the caller may try again with a fresh nonce.
func MapError(err error) (int, string) {
	var insufficientTime *claims.InsufficientTimeError
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, claims.ErrInvalidNonce):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "account_not_found"
	case errors.Is(err, claims.ErrNonceReused):
		return http.StatusConflict, "nonce_reused"
	case errors.Is(err, claims.ErrClaimInFlight):
		return http.StatusConflict, "claim_in_flight"
	case errors.Is(err, claims.ErrAlreadyClaimed):
		return http.StatusConflict, "already_claimed"
	case errors.Is(err, claims.ErrCooldownActive):
		return http.StatusConflict, "cooldown_active"
	case errors.As(err, &insufficientTime):
		return http.StatusConflict, "insufficient_time"
	case errors.Is(err, claims.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, referral.ErrAlreadyHasReferrer):
		return http.StatusConflict, "already_has_referrer"
	case errors.Is(err, referral.ErrCannotReferSelf):
		return http.StatusBadRequest, "cannot_refer_self"
	case errors.Is(err, referral.ErrBelowPayoutThreshold):
		return http.StatusUnprocessableEntity, "below_payout_threshold"
	case errors.Is(err, referral.ErrPayoutInFlight):
		return http.StatusConflict, "payout_in_flight"
	case errors.Is(err, referral.ErrNoReferrer):
		return http.StatusUnprocessableEntity, "no_referrer"
	case errors.Is(err, referral.ErrPromoNotEligible):
		return http.StatusConflict, "promo_not_eligible"
	case errors.Is(err, referral.ErrPromoAlreadyClaimed):
		return http.StatusConflict, "promo_already_claimed"
	case errors.Is(err, claims.ErrSettlementFailed), errors.Is(err, referral.ErrSettlementFailed):
		return http.StatusBadGateway, "settlement_failed"
	case errors.Is(err, referral.ErrWriteConflict):
		return http.StatusConflict, "write_conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
