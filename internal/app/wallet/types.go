package wallet

import "time"

type AccountResponse struct {
	WalletAddress    string     `json:"wallet_address"`
	BalanceVC        int64      `json:"balance_vc"`
	LifetimeEarnedVC int64      `json:"lifetime_earned_vc"`
	LifetimeSpentVC  int64      `json:"lifetime_spent_vc"`
	ClaimCount       int64      `json:"claim_count"`
	LastClaimAt      *time.Time `json:"last_claim_at"`
	ReferrerAddress  string     `json:"referrer_address,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type BalanceResponse struct {
	WalletAddress string `json:"wallet_address"`
	BalanceVC     int64  `json:"balance_vc"`
}

type LedgerResponse struct {
	Items  []LedgerItem `json:"items"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

type LedgerItem struct {
	ID          string    `json:"id"`
	EntryType   string    `json:"entry_type"`
	SrcWallet   string    `json:"src_wallet,omitempty"`
	DstWallet   string    `json:"dst_wallet,omitempty"`
	AmountVC    int64     `json:"amount_vc,omitempty"`
	AmountWei   string    `json:"amount_wei,omitempty"`
	SrcBeforeVC *int64    `json:"src_before_vc,omitempty"`
	SrcAfterVC  *int64    `json:"src_after_vc,omitempty"`
	DstBeforeVC *int64    `json:"dst_before_vc,omitempty"`
	DstAfterVC  *int64    `json:"dst_after_vc,omitempty"`
	RefType     string    `json:"ref_type,omitempty"`
	RefID       string    `json:"ref_id,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type SpendResponse struct {
	WalletAddress string `json:"wallet_address"`
	BalanceVC     int64  `json:"balance_vc"`
	ItemRef       string `json:"item_ref"`
}
