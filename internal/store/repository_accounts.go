package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `wallet_address, balance_vc, lifetime_earned_vc, lifetime_spent_vc,
	last_claim_at, claim_count, session_seconds, lifetime_play_seconds, session_updated_at,
	COALESCE(referrer_address, ''), referral_promo_claimed,
	pending_wei::text, paid_out_wei::text, tier1_earned_wei::text, tier2_earned_wei::text,
	network_revenue_wei::text, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var a Account
	var pending, paidOut, tier1, tier2, revenue string
	err := row.Scan(
		&a.WalletAddress, &a.BalanceVC, &a.LifetimeEarnedVC, &a.LifetimeSpentVC,
		&a.LastClaimAt, &a.ClaimCount, &a.SessionSeconds, &a.LifetimePlaySeconds, &a.SessionUpdatedAt,
		&a.ReferrerAddress, &a.PromoClaimed,
		&pending, &paidOut, &tier1, &tier2, &revenue,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.PendingWei, err = parseWei(pending); err != nil {
		return nil, err
	}
	if a.PaidOutWei, err = parseWei(paidOut); err != nil {
		return nil, err
	}
	if a.Tier1EarnedWei, err = parseWei(tier1); err != nil {
		return nil, err
	}
	if a.Tier2EarnedWei, err = parseWei(tier2); err != nil {
		return nil, err
	}
	if a.NetworkRevenueWei, err = parseWei(revenue); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) EnsureAccount(ctx context.Context, wallet string) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO accounts (wallet_address) VALUES ($1) ON CONFLICT (wallet_address) DO NOTHING`,
		wallet)
	return err
}

func (s *Store) GetAccount(ctx context.Context, wallet string) (*Account, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE wallet_address = $1`, wallet)
	return scanAccount(row)
}

func (s *Store) ListAccounts(ctx context.Context, limit, offset int) ([]Account, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Account, 0, limit)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// SetReferrer records the referral edge. The edge is write-once: a second
// registration attempt returns ErrConflict.
func (s *Store) SetReferrer(ctx context.Context, wallet, referrer string) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE accounts SET referrer_address = $2, updated_at = now()
		 WHERE wallet_address = $1 AND referrer_address IS NULL`,
		wallet, referrer)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// AccrueSession adds a bounded heartbeat increment to the eligibility window
// and the lifetime playtime counter.
func (s *Store) AccrueSession(ctx context.Context, wallet string, deltaSeconds int64, at time.Time) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE accounts SET session_seconds = session_seconds + $2,
			lifetime_play_seconds = lifetime_play_seconds + $2,
			session_updated_at = $3, updated_at = now()
		 WHERE wallet_address = $1`,
		wallet, deltaSeconds, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
