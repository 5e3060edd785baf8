package referral

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"voxelworld-economy/internal/settlement"
	"voxelworld-economy/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const bpsDenominator = 10_000

// Store is the slice of the persistence layer the engine needs.
type Store interface {
	GetAccount(ctx context.Context, wallet string) (*store.Account, error)
	SetReferrer(ctx context.Context, wallet, referrer string) error
	ApplyReferralAccrual(ctx context.Context, wallet string, prevPending, newPending *big.Int, tier int, share, revenue *big.Int) error
	ReserveReferralPayout(ctx context.Context, acct *store.Account) (*store.PayoutIntent, error)
	SettleIntent(ctx context.Context, intentID, externalTxID string, entry store.LedgerEntry) error
	RevertReferralPayout(ctx context.Context, intent *store.PayoutIntent, failReason string) error
	ReservePromo(ctx context.Context, acct *store.Account, referrer string, referredAmount, referrerAmount *big.Int) (*store.PayoutIntent, *store.PayoutIntent, error)
	RevertPromoReferred(ctx context.Context, intent *store.PayoutIntent, failReason string) error
	MarkIntentReverted(ctx context.Context, intentID, failReason string) error
}

type Params struct {
	// WeiPerVC converts in-game spend to settlement-network minor units.
	WeiPerVC           decimal.Decimal
	Tier1BPS           int64
	Tier2BPS           int64
	PayoutThresholdWei *big.Int
	PromoBonusWei      *big.Int
	PromoPlaytime      time.Duration
	// AccrualRetries bounds the read-modify-write loop under contention.
	AccrualRetries int
}

type PayoutResult struct {
	IntentID     string
	AmountWei    *big.Int
	ExternalTxID string
}

type PromoResult struct {
	ReferredTxID    string
	ReferrerTxID    string
	ReferrerSettled bool
}

// Engine accrues tiered revenue shares from spend events and settles pending
// earnings to the external network.
type Engine struct {
	store  Store
	bridge settlement.Bridge
	params Params

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewEngine(st Store, bridge settlement.Bridge, params Params) *Engine {
	if params.AccrualRetries <= 0 {
		params.AccrualRetries = 5
	}
	return &Engine{store: st, bridge: bridge, params: params, inflight: map[string]struct{}{}}
}

// Register records the one-time referral edge for a freshly registered
// account.
func (e *Engine) Register(ctx context.Context, wallet, referrer string) error {
	if wallet == referrer {
		return ErrCannotReferSelf
	}
	if _, err := e.store.GetAccount(ctx, referrer); err != nil {
		return err
	}
	if err := e.store.SetReferrer(ctx, wallet, referrer); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrAlreadyHasReferrer
		}
		return err
	}
	return nil
}

// AccrueSpend converts a spend to minor units and credits the spender's
// tier-1 and tier-2 referrers their fixed shares. Integer arithmetic only:
// the conversion truncates toward zero once, and shares are computed by
// integer multiply/divide on the converted revenue.
func (e *Engine) AccrueSpend(ctx context.Context, spender string, amountVC int64) error {
	if amountVC <= 0 {
		return nil
	}
	acct, err := e.store.GetAccount(ctx, spender)
	if err != nil {
		return err
	}
	if acct.ReferrerAddress == "" {
		return nil
	}
	revenue := decimal.NewFromInt(amountVC).Mul(e.params.WeiPerVC).BigInt()
	if revenue.Sign() <= 0 {
		return nil
	}

	tier1 := share(revenue, e.params.Tier1BPS)
	if err := e.credit(ctx, acct.ReferrerAddress, 1, tier1, revenue); err != nil {
		return err
	}

	ref1, err := e.store.GetAccount(ctx, acct.ReferrerAddress)
	if err != nil {
		return err
	}
	if ref1.ReferrerAddress == "" {
		return nil
	}
	tier2 := share(revenue, e.params.Tier2BPS)
	return e.credit(ctx, ref1.ReferrerAddress, 2, tier2, revenue)
}

func share(revenue *big.Int, bps int64) *big.Int {
	v := new(big.Int).Mul(revenue, big.NewInt(bps))
	return v.Quo(v, big.NewInt(bpsDenominator))
}

// credit retries the conditional pending-earnings write under contention
// rather than dropping the accrual.
func (e *Engine) credit(ctx context.Context, wallet string, tier int, amount, revenue *big.Int) error {
	if amount.Sign() <= 0 {
		return nil
	}
	for attempt := 0; attempt < e.params.AccrualRetries; attempt++ {
		acct, err := e.store.GetAccount(ctx, wallet)
		if err != nil {
			return err
		}
		newPending := new(big.Int).Add(acct.PendingWei, amount)
		err = e.store.ApplyReferralAccrual(ctx, wallet, acct.PendingWei, newPending, tier, amount, revenue)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
	}
	log.Error().Str("wallet", wallet).Int("tier", tier).Str("amount_wei", amount.String()).
		Msg("referral accrual lost all retries")
	return ErrWriteConflict
}

func (e *Engine) tryAcquire(wallet string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.inflight[wallet]; ok {
		return false
	}
	e.inflight[wallet] = struct{}{}
	return true
}

func (e *Engine) release(wallet string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, wallet)
}

// RequestPayout reserves the whole pending balance, settles it externally,
// and reverts the reservation if the transfer fails.
func (e *Engine) RequestPayout(ctx context.Context, wallet string) (*PayoutResult, error) {
	if !e.tryAcquire(wallet) {
		return nil, ErrPayoutInFlight
	}
	defer e.release(wallet)

	var intent *store.PayoutIntent
	for attempt := 0; attempt < e.params.AccrualRetries; attempt++ {
		acct, err := e.store.GetAccount(ctx, wallet)
		if err != nil {
			return nil, err
		}
		if acct.PendingWei.Cmp(e.params.PayoutThresholdWei) < 0 {
			return nil, ErrBelowPayoutThreshold
		}
		intent, err = e.store.ReserveReferralPayout(ctx, acct)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		intent = nil
	}
	if intent == nil {
		return nil, ErrWriteConflict
	}

	settled, err := e.bridge.Settle(ctx, wallet, intent.AmountWei, intent.ID)
	if err != nil {
		log.Warn().Err(err).Str("wallet", wallet).Str("intent_id", intent.ID).
			Msg("referral payout settlement failed, reverting reservation")
		if revertErr := e.store.RevertReferralPayout(ctx, intent, err.Error()); revertErr != nil {
			log.Error().Err(revertErr).Str("intent_id", intent.ID).
				Msg("revert of referral payout failed, intent left reserved")
			return nil, revertErr
		}
		return nil, ErrSettlementFailed
	}

	zero := big.NewInt(0)
	if err := e.store.SettleIntent(ctx, intent.ID, settled.ExternalTxID, store.LedgerEntry{
		EntryType: "referral_payout",
		SrcWallet: wallet,
		AmountWei: intent.AmountWei,
		WeiBefore: intent.PriorPendingWei,
		WeiAfter:  zero,
		RefType:   "payout_intent",
		RefID:     intent.ID,
		Reason:    "referral earnings payout",
	}); err != nil {
		log.Error().Err(err).Str("intent_id", intent.ID).Str("external_tx_id", settled.ExternalTxID).
			Msg("transfer confirmed but intent not settled, needs manual reconciliation")
		return nil, err
	}
	return &PayoutResult{IntentID: intent.ID, AmountWei: intent.AmountWei, ExternalTxID: settled.ExternalTxID}, nil
}

// ClaimPromo pays the one-time new-referral bonus to the referred account
// and its referrer once the referred account has played long enough. The two
// legs are independent payouts: a referrer-side failure does not roll back
// the referred side.
func (e *Engine) ClaimPromo(ctx context.Context, wallet string) (*PromoResult, error) {
	acct, err := e.store.GetAccount(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if acct.ReferrerAddress == "" {
		return nil, ErrNoReferrer
	}
	if acct.PromoClaimed {
		return nil, ErrPromoAlreadyClaimed
	}
	if time.Duration(acct.LifetimePlaySeconds)*time.Second < e.params.PromoPlaytime {
		return nil, ErrPromoNotEligible
	}

	referredIntent, referrerIntent, err := e.store.ReservePromo(ctx, acct, acct.ReferrerAddress,
		e.params.PromoBonusWei, e.params.PromoBonusWei)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrPromoAlreadyClaimed
		}
		return nil, err
	}

	referredRes, err := e.bridge.Settle(ctx, wallet, referredIntent.AmountWei, referredIntent.ID)
	if err != nil {
		if revertErr := e.store.RevertPromoReferred(ctx, referredIntent, err.Error()); revertErr != nil {
			log.Error().Err(revertErr).Str("intent_id", referredIntent.ID).
				Msg("revert of promo claim failed, intent left reserved")
			return nil, revertErr
		}
		if err := e.store.MarkIntentReverted(ctx, referrerIntent.ID, "referred_leg_failed"); err != nil {
			return nil, err
		}
		return nil, ErrSettlementFailed
	}
	if err := e.store.SettleIntent(ctx, referredIntent.ID, referredRes.ExternalTxID, store.LedgerEntry{
		EntryType: "promo_bonus",
		DstWallet: wallet,
		AmountWei: referredIntent.AmountWei,
		RefType:   "payout_intent",
		RefID:     referredIntent.ID,
		Reason:    "new referral promo, referred side",
	}); err != nil {
		return nil, err
	}

	out := &PromoResult{ReferredTxID: referredRes.ExternalTxID}
	referrerRes, err := e.bridge.Settle(ctx, acct.ReferrerAddress, referrerIntent.AmountWei, referrerIntent.ID)
	if err != nil {
		// Deliberately asymmetric: the referred payout stands. Log both
		// intent ids so manual reconciliation can pick up the referrer leg.
		log.Warn().Err(err).
			Str("referred_intent", referredIntent.ID).
			Str("referrer_intent", referrerIntent.ID).
			Str("referrer", acct.ReferrerAddress).
			Msg("promo referrer leg failed after referred leg settled")
		if err := e.store.MarkIntentReverted(ctx, referrerIntent.ID, err.Error()); err != nil {
			return nil, err
		}
		return out, nil
	}
	if err := e.store.SettleIntent(ctx, referrerIntent.ID, referrerRes.ExternalTxID, store.LedgerEntry{
		EntryType: "promo_bonus",
		DstWallet: acct.ReferrerAddress,
		AmountWei: referrerIntent.AmountWei,
		RefType:   "payout_intent",
		RefID:     referrerIntent.ID,
		Reason:    "new referral promo, referrer side",
	}); err != nil {
		return nil, err
	}
	out.ReferrerTxID = referrerRes.ExternalTxID
	out.ReferrerSettled = true
	return out, nil
}
