package claims

import (
	"context"
	"errors"
	"math/big"
	"time"

	"voxelworld-economy/internal/settlement"
	"voxelworld-economy/internal/store"

	"github.com/rs/zerolog/log"
)

// Store is the slice of the persistence layer the coordinator needs.
type Store interface {
	GetAccount(ctx context.Context, wallet string) (*store.Account, error)
	AccrueSession(ctx context.Context, wallet string, deltaSeconds int64, at time.Time) error
	ReserveDailyClaim(ctx context.Context, acct *store.Account, nonce string, amount *big.Int, now time.Time) (*store.PayoutIntent, error)
	SettleIntent(ctx context.Context, intentID, externalTxID string, entry store.LedgerEntry) error
	RevertDailyClaim(ctx context.Context, intent *store.PayoutIntent, failReason string) error
}

type Params struct {
	BonusWei             *big.Int
	RequiredSession      time.Duration
	Cooldown             time.Duration
	HeartbeatInterval    time.Duration
	HeartbeatMaxMultiple int
	NonceTTL             time.Duration
	SessionTTL           time.Duration
}

type ClaimResult struct {
	IntentID     string
	AmountWei    *big.Int
	ExternalTxID string
}

type WindowStatus struct {
	Eligible          bool
	SessionMinutes    int
	RequiredMinutes   int
	CooldownRemaining time.Duration
}

// Coordinator owns time-gated reward eligibility: session accrual, the nonce
// replay guard, per-wallet claim exclusion, and the reserve/settle/revert
// sequence for the daily bonus.
type Coordinator struct {
	store    Store
	bridge   settlement.Bridge
	params   Params
	nonces   *nonceCache
	inflight *inflightSet
	tracker  *sessionTracker
	now      func() time.Time
}

func NewCoordinator(st Store, bridge settlement.Bridge, params Params) *Coordinator {
	if params.SessionTTL <= 0 {
		params.SessionTTL = 2 * time.Hour
	}
	if params.HeartbeatMaxMultiple <= 0 {
		params.HeartbeatMaxMultiple = 3
	}
	return &Coordinator{
		store:    st,
		bridge:   bridge,
		params:   params,
		nonces:   newNonceCache(params.NonceTTL),
		inflight: newInflightSet(),
		tracker:  newSessionTracker(),
		now:      time.Now,
	}
}

// StartSession begins heartbeat tracking for an authenticated wallet.
func (c *Coordinator) StartSession(wallet string) {
	c.tracker.start(wallet, c.now(), c.params.SessionTTL)
}

func (c *Coordinator) EndSession(wallet string) {
	c.tracker.end(wallet)
}

// Heartbeat accrues session duration in bounded increments onto the
// persisted account.
func (c *Coordinator) Heartbeat(ctx context.Context, wallet string) error {
	now := c.now()
	maxDelta := time.Duration(c.params.HeartbeatMaxMultiple) * c.params.HeartbeatInterval
	delta, ok := c.tracker.advance(wallet, now, c.params.SessionTTL, maxDelta)
	if !ok {
		return ErrSessionNotFound
	}
	if delta <= 0 {
		return nil
	}
	return c.store.AccrueSession(ctx, wallet, int64(delta/time.Second), now)
}

// Status reports the claim window state from the persisted account.
func (c *Coordinator) Status(acct *store.Account) WindowStatus {
	now := c.now()
	st := WindowStatus{
		SessionMinutes:  int(acct.SessionSeconds / 60),
		RequiredMinutes: int(c.params.RequiredSession / time.Minute),
	}
	if acct.LastClaimAt != nil {
		if remaining := c.params.Cooldown - now.Sub(*acct.LastClaimAt); remaining > 0 {
			st.CooldownRemaining = remaining
		}
	}
	st.Eligible = st.CooldownRemaining == 0 &&
		time.Duration(acct.SessionSeconds)*time.Second >= c.params.RequiredSession
	return st
}

// ClaimDailyBonus runs the claim protocol: nonce guard, in-flight exclusion,
// eligibility re-check against the persisted account, conditional
// reservation, settlement, and compensation on settlement failure.
func (c *Coordinator) ClaimDailyBonus(ctx context.Context, wallet, nonce string) (*ClaimResult, error) {
	if nonce == "" {
		return nil, ErrInvalidNonce
	}
	now := c.now()
	if !c.nonces.Register(nonce, now) {
		return nil, ErrNonceReused
	}
	if !c.inflight.TryAcquire(wallet) {
		c.nonces.Release(nonce)
		return nil, ErrClaimInFlight
	}
	defer c.inflight.Release(wallet)

	res, err := c.claim(ctx, wallet, nonce, now)
	if err != nil {
		// Safe to free the nonce unless the reservation may still be live:
		// failures before the reservation wrote nothing, and a settlement
		// failure reverts it before returning. Only a failed revert leaves
		// the intent reserved, and then the nonce must stay burned.
		if !errors.Is(err, errRevertFailed) {
			c.nonces.Release(nonce)
		}
		return nil, err
	}
	return res, nil
}

var errRevertFailed = errors.New("revert_failed")

func (c *Coordinator) claim(ctx context.Context, wallet, nonce string, now time.Time) (*ClaimResult, error) {
	acct, err := c.store.GetAccount(ctx, wallet)
	if err != nil {
		return nil, err
	}
	accrued := time.Duration(acct.SessionSeconds) * time.Second
	if accrued < c.params.RequiredSession {
		remaining := c.params.RequiredSession - accrued
		return nil, &InsufficientTimeError{
			MinutesRemaining: int((remaining + time.Minute - 1) / time.Minute),
		}
	}
	if acct.LastClaimAt != nil && now.Sub(*acct.LastClaimAt) < c.params.Cooldown {
		return nil, ErrCooldownActive
	}

	intent, err := c.store.ReserveDailyClaim(ctx, acct, nonce, c.params.BonusWei, now)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}

	settled, err := c.bridge.Settle(ctx, wallet, intent.AmountWei, intent.ID)
	if err != nil {
		log.Warn().Err(err).Str("wallet", wallet).Str("intent_id", intent.ID).
			Msg("daily bonus settlement failed, reverting reservation")
		if revertErr := c.store.RevertDailyClaim(ctx, intent, err.Error()); revertErr != nil {
			log.Error().Err(revertErr).Str("intent_id", intent.ID).
				Msg("revert of daily claim failed, intent left reserved")
			return nil, errors.Join(errRevertFailed, revertErr)
		}
		return nil, ErrSettlementFailed
	}

	if err := c.store.SettleIntent(ctx, intent.ID, settled.ExternalTxID, store.LedgerEntry{
		EntryType: "daily_bonus",
		DstWallet: wallet,
		AmountWei: intent.AmountWei,
		RefType:   "payout_intent",
		RefID:     intent.ID,
		Reason:    "daily login bonus",
	}); err != nil {
		// The external transfer landed; never undo the claim here. Surface
		// the intent for the reconciliation tooling instead.
		log.Error().Err(err).Str("intent_id", intent.ID).Str("external_tx_id", settled.ExternalTxID).
			Msg("transfer confirmed but intent not settled, needs manual reconciliation")
		return nil, err
	}
	return &ClaimResult{IntentID: intent.ID, AmountWei: intent.AmountWei, ExternalTxID: settled.ExternalTxID}, nil
}
