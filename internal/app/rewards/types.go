package rewards

type StatusResponse struct {
	Eligible          bool   `json:"eligible"`
	SessionMinutes    int    `json:"session_minutes"`
	RequiredMinutes   int    `json:"required_minutes"`
	CooldownRemaining int    `json:"cooldown_remaining_seconds"`
	PendingWei        string `json:"pending_wei"`
	PaidOutWei        string `json:"paid_out_wei"`
	Tier1EarnedWei    string `json:"tier1_earned_wei"`
	Tier2EarnedWei    string `json:"tier2_earned_wei"`
	ReferrerAddress   string `json:"referrer_address,omitempty"`
	PromoClaimed      bool   `json:"promo_claimed"`
}

type ReferralResponse struct {
	ReferrerAddress   string `json:"referrer_address,omitempty"`
	PendingWei        string `json:"pending_wei"`
	PaidOutWei        string `json:"paid_out_wei"`
	Tier1EarnedWei    string `json:"tier1_earned_wei"`
	Tier2EarnedWei    string `json:"tier2_earned_wei"`
	NetworkRevenueWei string `json:"network_revenue_wei"`
	PromoClaimed      bool   `json:"promo_claimed"`
}

type ClaimResponse struct {
	IntentID     string `json:"intent_id"`
	AmountWei    string `json:"amount_wei"`
	ExternalTxID string `json:"external_tx_id"`
}

type PayoutResponse struct {
	IntentID     string `json:"intent_id"`
	AmountWei    string `json:"amount_wei"`
	ExternalTxID string `json:"external_tx_id"`
}

type PromoResponse struct {
	ReferredTxID    string `json:"referred_tx_id"`
	ReferrerTxID    string `json:"referrer_tx_id,omitempty"`
	ReferrerSettled bool   `json:"referrer_settled"`
}
