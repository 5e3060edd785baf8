package referral

import "errors"

var (
	ErrAlreadyHasReferrer   = errors.New("already_has_referrer")
	ErrCannotReferSelf      = errors.New("cannot_refer_self")
	ErrBelowPayoutThreshold = errors.New("below_payout_threshold")
	ErrPayoutInFlight       = errors.New("payout_in_flight")
	ErrWriteConflict        = errors.New("write_conflict")
	ErrNoReferrer           = errors.New("no_referrer")
	ErrPromoNotEligible     = errors.New("promo_not_eligible")
	ErrPromoAlreadyClaimed  = errors.New("promo_already_claimed")
	ErrSettlementFailed     = errors.New("settlement_failed")
)
