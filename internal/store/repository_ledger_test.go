package store_test

import (
	"context"
	"errors"
	"testing"

	"voxelworld-economy/internal/store"
	"voxelworld-economy/internal/testutil"
)

func mustEnsure(t *testing.T, st *store.Store, ctx context.Context, wallets ...string) {
	t.Helper()
	for _, w := range wallets {
		if err := st.EnsureAccount(ctx, w); err != nil {
			t.Fatalf("ensure %s: %v", w, err)
		}
	}
}

func TestCreditDebitWithSnapshots(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	mustEnsure(t, st, ctx, "0xaaa")

	bal, err := st.Credit(ctx, "0xaaa", 500, "bonus", "admin", "op-1", "grant")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if bal != 500 {
		t.Fatalf("balance after credit: %d", bal)
	}
	bal, err = st.Debit(ctx, "0xaaa", 120, "purchase", "item", "sword-1", "shop purchase")
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if bal != 380 {
		t.Fatalf("balance after debit: %d", bal)
	}

	a, err := st.GetAccount(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a.LifetimeEarnedVC != 500 || a.LifetimeSpentVC != 120 {
		t.Fatalf("lifetime counters: earned=%d spent=%d", a.LifetimeEarnedVC, a.LifetimeSpentVC)
	}

	entries, err := st.ListLedgerEntries(ctx, store.LedgerFilter{Wallet: "0xaaa"}, 10, 0)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first.
	debit := entries[0]
	if debit.EntryType != "purchase" || debit.AmountVC != 120 {
		t.Fatalf("debit entry: %+v", debit)
	}
	if debit.SrcBeforeVC == nil || *debit.SrcBeforeVC != 500 || debit.SrcAfterVC == nil || *debit.SrcAfterVC != 380 {
		t.Fatalf("debit snapshots: %+v", debit)
	}
	credit := entries[1]
	if credit.DstBeforeVC == nil || *credit.DstBeforeVC != 0 || credit.DstAfterVC == nil || *credit.DstAfterVC != 500 {
		t.Fatalf("credit snapshots: %+v", credit)
	}
}

func TestDebitInsufficientFundsWritesNothing(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	mustEnsure(t, st, ctx, "0xaaa")

	if _, err := st.Credit(ctx, "0xaaa", 100, "bonus", "admin", "op-1", "grant"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := st.Debit(ctx, "0xaaa", 101, "purchase", "item", "x", "too expensive"); !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient_funds, got %v", err)
	}

	a, err := st.GetAccount(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a.BalanceVC != 100 || a.LifetimeSpentVC != 0 {
		t.Fatalf("failed debit must not move balance: %+v", a)
	}
	entries, err := st.ListLedgerEntries(ctx, store.LedgerFilter{Wallet: "0xaaa"}, 10, 0)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("failed debit must not write an entry, got %d", len(entries))
	}
}

func TestTransferBothSides(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	mustEnsure(t, st, ctx, "0xaaa", "0xbbb")

	if _, err := st.Credit(ctx, "0xaaa", 300, "bonus", "admin", "op-1", "grant"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := st.Transfer(ctx, "0xaaa", "0xbbb", 200, "transfer", "gift", "g-1", "gift"); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	src, _ := st.GetAccount(ctx, "0xaaa")
	dst, _ := st.GetAccount(ctx, "0xbbb")
	if src.BalanceVC != 100 || dst.BalanceVC != 200 {
		t.Fatalf("balances after transfer: src=%d dst=%d", src.BalanceVC, dst.BalanceVC)
	}

	entries, err := st.ListLedgerEntries(ctx, store.LedgerFilter{RefType: "gift", RefID: "g-1"}, 10, 0)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("transfer writes a single entry, got %d", len(entries))
	}
	e := entries[0]
	if e.SrcWallet != "0xaaa" || e.DstWallet != "0xbbb" || e.AmountVC != 200 {
		t.Fatalf("transfer entry: %+v", e)
	}
	if *e.SrcBeforeVC != 300 || *e.SrcAfterVC != 100 || *e.DstBeforeVC != 0 || *e.DstAfterVC != 200 {
		t.Fatalf("transfer snapshots: %+v", e)
	}

	if err := st.Transfer(ctx, "0xaaa", "0xbbb", 9999, "transfer", "gift", "g-2", "gift"); !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("overdraft transfer: got %v", err)
	}
}
