package store

import (
	"context"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
)

// ApplyReferralAccrual credits one referrer's pending earnings. The write is
// guarded by the pending value the caller read; a concurrent accrual or
// payout invalidates the guard and the caller retries with a fresh read.
func (s *Store) ApplyReferralAccrual(ctx context.Context, wallet string, prevPending, newPending *big.Int, tier int, share, revenue *big.Int) error {
	if tier != 1 && tier != 2 {
		return fmt.Errorf("invalid referral tier %d", tier)
	}
	tierColumn := "tier1_earned_wei"
	if tier == 2 {
		tierColumn = "tier2_earned_wei"
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE accounts SET pending_wei = $2::numeric,
			`+tierColumn+` = `+tierColumn+` + $3::numeric,
			network_revenue_wei = network_revenue_wei + $4::numeric,
			updated_at = now()
		 WHERE wallet_address = $1 AND pending_wei = $5::numeric`,
		wallet, weiString(newPending), weiString(share), weiString(revenue), weiString(prevPending))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// ReserveReferralPayout zeroes pending earnings and moves them to the
// paid-out total, conditional on the pending value the caller read, and
// records the reserved intent in the same transaction.
func (s *Store) ReserveReferralPayout(ctx context.Context, acct *Account) (*PayoutIntent, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	newPaidOut := new(big.Int).Add(acct.PaidOutWei, acct.PendingWei)
	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET pending_wei = 0, paid_out_wei = $2::numeric, updated_at = now()
		 WHERE wallet_address = $1 AND pending_wei = $3::numeric`,
		acct.WalletAddress, weiString(newPaidOut), weiString(acct.PendingWei))
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrConflict
	}
	intent := PayoutIntent{
		ID:                  NewID(),
		WalletAddress:       acct.WalletAddress,
		Kind:                IntentKindReferralPayout,
		AmountWei:           acct.PendingWei,
		State:               IntentStateReserved,
		PriorLastClaimAt:    acct.LastClaimAt,
		PriorClaimCount:     acct.ClaimCount,
		PriorSessionSeconds: acct.SessionSeconds,
		PriorPendingWei:     acct.PendingWei,
		PriorPaidOutWei:     acct.PaidOutWei,
	}
	if err := insertIntent(ctx, tx, intent); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &intent, nil
}

// RevertReferralPayout compensates a failed payout by adding the reserved
// amount back to pending and removing it from paid-out. Accruals may have
// landed since the reservation, so the account row is re-read under lock
// rather than restored to the captured snapshot. Idempotent via the intent
// state transition.
func (s *Store) RevertReferralPayout(ctx context.Context, intent *PayoutIntent, failReason string) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE payout_intents SET state = $2, fail_reason = $3, updated_at = now()
		 WHERE id = $1 AND state = $4`,
		intent.ID, IntentStateReverted, failReason, IntentStateReserved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	var pendingRaw, paidOutRaw string
	err = tx.QueryRow(ctx,
		`SELECT pending_wei::text, paid_out_wei::text FROM accounts
		 WHERE wallet_address = $1 FOR UPDATE`,
		intent.WalletAddress).Scan(&pendingRaw, &paidOutRaw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	pending, err := parseWei(pendingRaw)
	if err != nil {
		return err
	}
	paidOut, err := parseWei(paidOutRaw)
	if err != nil {
		return err
	}
	newPending := new(big.Int).Add(pending, intent.AmountWei)
	newPaidOut := new(big.Int).Sub(paidOut, intent.AmountWei)
	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET pending_wei = $2::numeric, paid_out_wei = $3::numeric, updated_at = now()
		 WHERE wallet_address = $1`,
		intent.WalletAddress, weiString(newPending), weiString(newPaidOut)); err != nil {
		return err
	}
	if err := insertLedgerEntry(ctx, tx, LedgerEntry{
		EntryType: intent.Kind + "_reversal",
		DstWallet: intent.WalletAddress,
		AmountWei: intent.AmountWei,
		WeiBefore: pending,
		WeiAfter:  newPending,
		RefType:   "payout_intent",
		RefID:     intent.ID,
		Reason:    failReason,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReservePromo flips the one-shot promo flag and records both payout legs as
// reserved intents. ErrConflict means the promo was already claimed.
func (s *Store) ReservePromo(ctx context.Context, acct *Account, referrer string, referredAmount, referrerAmount *big.Int) (referred, referrerIntent *PayoutIntent, err error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET referral_promo_claimed = TRUE, updated_at = now()
		 WHERE wallet_address = $1 AND referral_promo_claimed = FALSE`,
		acct.WalletAddress)
	if err != nil {
		return nil, nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, nil, ErrConflict
	}
	a := PayoutIntent{
		ID:            NewID(),
		WalletAddress: acct.WalletAddress,
		Kind:          IntentKindPromoReferred,
		AmountWei:     referredAmount,
		State:         IntentStateReserved,
	}
	b := PayoutIntent{
		ID:            NewID(),
		WalletAddress: referrer,
		Kind:          IntentKindPromoReferrer,
		AmountWei:     referrerAmount,
		State:         IntentStateReserved,
	}
	if err := insertIntent(ctx, tx, a); err != nil {
		return nil, nil, err
	}
	if err := insertIntent(ctx, tx, b); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return &a, &b, nil
}

// RevertPromoReferred undoes the promo flag after the referred leg failed to
// settle, so the account can try again.
func (s *Store) RevertPromoReferred(ctx context.Context, intent *PayoutIntent, failReason string) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE payout_intents SET state = $2, fail_reason = $3, updated_at = now()
		 WHERE id = $1 AND state = $4`,
		intent.ID, IntentStateReverted, failReason, IntentStateReserved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET referral_promo_claimed = FALSE, updated_at = now()
		 WHERE wallet_address = $1`,
		intent.WalletAddress); err != nil {
		return err
	}
	if err := insertLedgerEntry(ctx, tx, LedgerEntry{
		EntryType: intent.Kind + "_reversal",
		SrcWallet: intent.WalletAddress,
		AmountWei: intent.AmountWei,
		RefType:   "payout_intent",
		RefID:     intent.ID,
		Reason:    failReason,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// MarkIntentReverted flips an intent without touching account state. Used for
// the referrer promo leg, whose reservation carries no account-side effect.
func (s *Store) MarkIntentReverted(ctx context.Context, intentID, failReason string) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE payout_intents SET state = $2, fail_reason = $3, updated_at = now()
		 WHERE id = $1 AND state = $4`,
		intentID, IntentStateReverted, failReason, IntentStateReserved)
	return err
}
