package store

import (
	"context"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
)

const intentColumns = `id, wallet_address, kind, nonce, amount_wei::text, state,
	prior_last_claim_at, prior_claim_count, prior_session_seconds,
	prior_pending_wei::text, prior_paid_out_wei::text,
	external_tx_id, fail_reason, created_at, updated_at`

func scanIntent(row rowScanner) (*PayoutIntent, error) {
	var p PayoutIntent
	var amount, priorPending, priorPaidOut string
	err := row.Scan(
		&p.ID, &p.WalletAddress, &p.Kind, &p.Nonce, &amount, &p.State,
		&p.PriorLastClaimAt, &p.PriorClaimCount, &p.PriorSessionSeconds,
		&priorPending, &priorPaidOut,
		&p.ExternalTxID, &p.FailReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.AmountWei, err = parseWei(amount); err != nil {
		return nil, err
	}
	if p.PriorPendingWei, err = parseWei(priorPending); err != nil {
		return nil, err
	}
	if p.PriorPaidOutWei, err = parseWei(priorPaidOut); err != nil {
		return nil, err
	}
	return &p, nil
}

func insertIntent(ctx context.Context, tx pgx.Tx, p PayoutIntent) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO payout_intents (id, wallet_address, kind, nonce, amount_wei, state,
			prior_last_claim_at, prior_claim_count, prior_session_seconds,
			prior_pending_wei, prior_paid_out_wei)
		 VALUES ($1,$2,$3,$4,$5::numeric,$6,$7,$8,$9,$10::numeric,$11::numeric)`,
		p.ID, p.WalletAddress, p.Kind, p.Nonce, weiString(p.AmountWei), IntentStateReserved,
		p.PriorLastClaimAt, p.PriorClaimCount, p.PriorSessionSeconds,
		weiString(p.PriorPendingWei), weiString(p.PriorPaidOutWei))
	return err
}

// ReserveDailyClaim advances the claim window and records a reserved payout
// intent in one transaction. The update is conditional on the last-claim
// timestamp still holding the value the caller read during its eligibility
// check; if another claim won the race the update touches zero rows and
// ErrConflict is returned with nothing written.
func (s *Store) ReserveDailyClaim(ctx context.Context, acct *Account, nonce string, amount *big.Int, now time.Time) (*PayoutIntent, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET last_claim_at = $2, claim_count = claim_count + 1,
			session_seconds = 0, updated_at = now()
		 WHERE wallet_address = $1 AND last_claim_at IS NOT DISTINCT FROM $3`,
		acct.WalletAddress, now, acct.LastClaimAt)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrConflict
	}
	intent := PayoutIntent{
		ID:                  NewID(),
		WalletAddress:       acct.WalletAddress,
		Kind:                IntentKindDailyBonus,
		Nonce:               nonce,
		AmountWei:           amount,
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

// SettleIntent marks a reserved intent settled and appends the reward's
// ledger entry atomically. ErrConflict means the intent already left the
// reserved state.
func (s *Store) SettleIntent(ctx context.Context, intentID, externalTxID string, entry LedgerEntry) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE payout_intents SET state = $2, external_tx_id = $3, updated_at = now()
		 WHERE id = $1 AND state = $4`,
		intentID, IntentStateSettled, externalTxID, IntentStateReserved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	if err := insertLedgerEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RevertDailyClaim restores the exact pre-claim window values captured in the
// intent and appends a reversal entry. Idempotent: a second call finds the
// intent already reverted and does nothing.
func (s *Store) RevertDailyClaim(ctx context.Context, intent *PayoutIntent, failReason string) error {
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
		`UPDATE accounts SET last_claim_at = $2, claim_count = $3, session_seconds = $4, updated_at = now()
		 WHERE wallet_address = $1`,
		intent.WalletAddress, intent.PriorLastClaimAt, intent.PriorClaimCount, intent.PriorSessionSeconds); err != nil {
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

func (s *Store) GetPayoutIntent(ctx context.Context, id string) (*PayoutIntent, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+intentColumns+` FROM payout_intents WHERE id = $1`, id)
	return scanIntent(row)
}

func (s *Store) ListPayoutIntents(ctx context.Context, wallet, state string, limit, offset int) ([]PayoutIntent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+intentColumns+` FROM payout_intents
		 WHERE ($1 = '' OR wallet_address = $1) AND ($2 = '' OR state = $2)
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		wallet, state, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]PayoutIntent, 0, limit)
	for rows.Next() {
		p, err := scanIntent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
