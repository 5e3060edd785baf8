package ledger

import (
	"context"
	"errors"

	"voxelworld-economy/internal/store"
)

var ErrInvalidAmount = errors.New("invalid_amount")

const (
	EntryTransfer     = "transfer"
	EntryPurchase     = "purchase"
	EntryBonus        = "bonus"
	EntryEscrow       = "escrow"
	EntryEscrowPayout = "escrow_payout"
	EntryEscrowRefund = "escrow_refund"
)

// Ledger is the only code path that mutates account balances. Every
// successful mutation appends exactly one ledger entry; rejected mutations
// append none.
type Ledger struct {
	Store *store.Store
}

func New(s *store.Store) *Ledger {
	return &Ledger{Store: s}
}

func (l *Ledger) Credit(ctx context.Context, wallet string, amount int64, entryType, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.Store.Credit(ctx, wallet, amount, entryType, "", "", reason)
}

func (l *Ledger) Debit(ctx context.Context, wallet string, amount int64, entryType, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.Store.Debit(ctx, wallet, amount, entryType, "", "", reason)
}

func (l *Ledger) Transfer(ctx context.Context, from, to string, amount int64, reason string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrInvalidAmount
	}
	return l.Store.Transfer(ctx, from, to, amount, EntryTransfer, "", "", reason)
}

// Spend debits a purchase (gacha roll, cosmetic). Referral accrual hangs off
// spends at the service layer.
func (l *Ledger) Spend(ctx context.Context, wallet string, amount int64, itemRef, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.Store.Debit(ctx, wallet, amount, EntryPurchase, "item", itemRef, reason)
}

// Escrow debits stake for a minigame match, tagged for later resolution.
func (l *Ledger) Escrow(ctx context.Context, wallet string, amount int64, matchID string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.Store.Debit(ctx, wallet, amount, EntryEscrow, "match", matchID, "match stake")
}

// SettleEscrow credits the resolved pot to the match winner.
func (l *Ledger) SettleEscrow(ctx context.Context, winner string, amount int64, matchID string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.Store.Credit(ctx, winner, amount, EntryEscrowPayout, "match", matchID, "match payout")
}

// RefundEscrow returns a stake when a match is voided.
func (l *Ledger) RefundEscrow(ctx context.Context, wallet string, amount int64, matchID string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.Store.Credit(ctx, wallet, amount, EntryEscrowRefund, "match", matchID, "match refund")
}
