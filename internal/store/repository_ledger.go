package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

type LedgerFilter struct {
	Wallet  string
	RefType string
	RefID   string
	From    *time.Time
	To      *time.Time
}

func insertLedgerEntry(ctx context.Context, tx pgx.Tx, e LedgerEntry) error {
	var amountVC *int64
	if e.AmountVC > 0 {
		amountVC = &e.AmountVC
	}
	var amountWei, weiBefore, weiAfter *string
	if e.AmountWei != nil {
		v := e.AmountWei.String()
		amountWei = &v
	}
	if e.WeiBefore != nil {
		v := e.WeiBefore.String()
		weiBefore = &v
	}
	if e.WeiAfter != nil {
		v := e.WeiAfter.String()
		weiAfter = &v
	}
	var src, dst *string
	if e.SrcWallet != "" {
		src = &e.SrcWallet
	}
	if e.DstWallet != "" {
		dst = &e.DstWallet
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO ledger_entries (id, entry_type, src_wallet, dst_wallet, amount_vc, amount_wei,
			src_before_vc, src_after_vc, dst_before_vc, dst_after_vc, wei_before, wei_after,
			ref_type, ref_id, reason)
		 VALUES ($1,$2,$3,$4,$5,$6::numeric,$7,$8,$9,$10,$11::numeric,$12::numeric,$13,$14,$15)`,
		NewID(), e.EntryType, src, dst, amountVC, amountWei,
		e.SrcBeforeVC, e.SrcAfterVC, e.DstBeforeVC, e.DstAfterVC, weiBefore, weiAfter,
		e.RefType, e.RefID, e.Reason)
	return err
}

func (s *Store) lockBalance(ctx context.Context, tx pgx.Tx, wallet string) (int64, error) {
	var bal int64
	err := tx.QueryRow(ctx,
		`SELECT balance_vc FROM accounts WHERE wallet_address = $1 FOR UPDATE`, wallet).Scan(&bal)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return bal, nil
}

// Credit adds VC to an account and appends the paired ledger entry in one
// transaction. Returns the new balance.
func (s *Store) Credit(ctx context.Context, wallet string, amount int64, entryType, refType, refID, reason string) (int64, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	before, err := s.lockBalance(ctx, tx, wallet)
	if err != nil {
		return 0, err
	}
	after := before + amount
	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET balance_vc = $2, lifetime_earned_vc = lifetime_earned_vc + $3, updated_at = now()
		 WHERE wallet_address = $1`,
		wallet, after, amount); err != nil {
		return 0, err
	}
	if err := insertLedgerEntry(ctx, tx, LedgerEntry{
		EntryType:   entryType,
		DstWallet:   wallet,
		AmountVC:    amount,
		DstBeforeVC: &before,
		DstAfterVC:  &after,
		RefType:     refType,
		RefID:       refID,
		Reason:      reason,
	}); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return after, nil
}

// Debit removes VC from an account; the balance never goes below zero. A
// rejected debit writes no ledger entry.
func (s *Store) Debit(ctx context.Context, wallet string, amount int64, entryType, refType, refID, reason string) (int64, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	before, err := s.lockBalance(ctx, tx, wallet)
	if err != nil {
		return 0, err
	}
	if before < amount {
		return 0, ErrInsufficientFunds
	}
	after := before - amount
	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET balance_vc = $2, lifetime_spent_vc = lifetime_spent_vc + $3, updated_at = now()
		 WHERE wallet_address = $1`,
		wallet, after, amount); err != nil {
		return 0, err
	}
	if err := insertLedgerEntry(ctx, tx, LedgerEntry{
		EntryType:   entryType,
		SrcWallet:   wallet,
		AmountVC:    amount,
		SrcBeforeVC: &before,
		SrcAfterVC:  &after,
		RefType:     refType,
		RefID:       refID,
		Reason:      reason,
	}); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return after, nil
}

// Transfer moves VC between two accounts atomically. Rows are locked in key
// order so two opposing transfers cannot deadlock.
func (s *Store) Transfer(ctx context.Context, from, to string, amount int64, entryType, refType, refID, reason string) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	first, second := from, to
	if second < first {
		first, second = second, first
	}
	balances := map[string]int64{}
	for _, w := range []string{first, second} {
		bal, err := s.lockBalance(ctx, tx, w)
		if err != nil {
			return err
		}
		balances[w] = bal
	}
	srcBefore, dstBefore := balances[from], balances[to]
	if srcBefore < amount {
		return ErrInsufficientFunds
	}
	srcAfter := srcBefore - amount
	dstAfter := dstBefore + amount
	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET balance_vc = $2, lifetime_spent_vc = lifetime_spent_vc + $3, updated_at = now()
		 WHERE wallet_address = $1`,
		from, srcAfter, amount); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET balance_vc = $2, lifetime_earned_vc = lifetime_earned_vc + $3, updated_at = now()
		 WHERE wallet_address = $1`,
		to, dstAfter, amount); err != nil {
		return err
	}
	if err := insertLedgerEntry(ctx, tx, LedgerEntry{
		EntryType:   entryType,
		SrcWallet:   from,
		DstWallet:   to,
		AmountVC:    amount,
		SrcBeforeVC: &srcBefore,
		SrcAfterVC:  &srcAfter,
		DstBeforeVC: &dstBefore,
		DstAfterVC:  &dstAfter,
		RefType:     refType,
		RefID:       refID,
		Reason:      reason,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ListLedgerEntries(ctx context.Context, f LedgerFilter, limit, offset int) ([]LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, entry_type, COALESCE(src_wallet,''), COALESCE(dst_wallet,''),
			amount_vc, amount_wei::text,
			src_before_vc, src_after_vc, dst_before_vc, dst_after_vc,
			wei_before::text, wei_after::text,
			ref_type, ref_id, reason, created_at
		 FROM ledger_entries
		 WHERE ($1 = '' OR src_wallet = $1 OR dst_wallet = $1)
		   AND ($2 = '' OR ref_type = $2)
		   AND ($3 = '' OR ref_id = $3)
		   AND ($4::timestamptz IS NULL OR created_at >= $4)
		   AND ($5::timestamptz IS NULL OR created_at <= $5)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $6 OFFSET $7`,
		f.Wallet, f.RefType, f.RefID, f.From, f.To, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LedgerEntry, 0, limit)
	for rows.Next() {
		var e LedgerEntry
		var amountVC *int64
		var amountWei, weiBefore, weiAfter *string
		if err := rows.Scan(
			&e.ID, &e.EntryType, &e.SrcWallet, &e.DstWallet,
			&amountVC, &amountWei,
			&e.SrcBeforeVC, &e.SrcAfterVC, &e.DstBeforeVC, &e.DstAfterVC,
			&weiBefore, &weiAfter,
			&e.RefType, &e.RefID, &e.Reason, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if amountVC != nil {
			e.AmountVC = *amountVC
		}
		if e.AmountWei, err = parseWeiPtr(amountWei); err != nil {
			return nil, err
		}
		if e.WeiBefore, err = parseWeiPtr(weiBefore); err != nil {
			return nil, err
		}
		if e.WeiAfter, err = parseWeiPtr(weiAfter); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
