package store

import (
	"math/big"
	"time"
)

type Account struct {
	WalletAddress       string
	BalanceVC           int64
	LifetimeEarnedVC    int64
	LifetimeSpentVC     int64
	LastClaimAt         *time.Time
	ClaimCount          int64
	SessionSeconds      int64
	LifetimePlaySeconds int64
	SessionUpdatedAt    *time.Time
	ReferrerAddress     string
	PromoClaimed        bool
	PendingWei          *big.Int
	PaidOutWei          *big.Int
	Tier1EarnedWei      *big.Int
	Tier2EarnedWei      *big.Int
	NetworkRevenueWei   *big.Int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type LedgerEntry struct {
	ID          string
	EntryType   string
	SrcWallet   string
	DstWallet   string
	AmountVC    int64
	AmountWei   *big.Int
	SrcBeforeVC *int64
	SrcAfterVC  *int64
	DstBeforeVC *int64
	DstAfterVC  *int64
	WeiBefore   *big.Int
	WeiAfter    *big.Int
	RefType     string
	RefID       string
	Reason      string
	CreatedAt   time.Time
}

const (
	IntentStateReserved = "reserved"
	IntentStateSettled  = "settled"
	IntentStateReverted = "reverted"
)

const (
	IntentKindDailyBonus     = "daily_bonus"
	IntentKindReferralPayout = "referral_payout"
	IntentKindPromoReferred  = "promo_referred"
	IntentKindPromoReferrer  = "promo_referrer"
)

type PayoutIntent struct {
	ID                  string
	WalletAddress       string
	Kind                string
	Nonce               string
	AmountWei           *big.Int
	State               string
	PriorLastClaimAt    *time.Time
	PriorClaimCount     int64
	PriorSessionSeconds int64
	PriorPendingWei     *big.Int
	PriorPaidOutWei     *big.Int
	ExternalTxID        string
	FailReason          string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
