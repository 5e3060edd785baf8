package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"voxelworld-economy/internal/store"
	"voxelworld-economy/internal/testutil"
)

func TestAccountsEnsureGetList(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := st.EnsureAccount(ctx, "0xaaa"); err != nil {
		t.Fatalf("ensure account: %v", err)
	}
	// Re-ensuring an existing account is a no-op.
	if err := st.EnsureAccount(ctx, "0xaaa"); err != nil {
		t.Fatalf("re-ensure account: %v", err)
	}

	a, err := st.GetAccount(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a.BalanceVC != 0 || a.PendingWei.Sign() != 0 || a.LastClaimAt != nil {
		t.Fatalf("fresh account not zeroed: %+v", a)
	}

	if _, err := st.GetAccount(ctx, "0xmissing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}

	if err := st.EnsureAccount(ctx, "0xbbb"); err != nil {
		t.Fatalf("ensure second account: %v", err)
	}
	items, err := st.ListAccounts(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(items))
	}
}

func TestSetReferrerOnce(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, w := range []string{"0xaaa", "0xbbb", "0xccc"} {
		if err := st.EnsureAccount(ctx, w); err != nil {
			t.Fatalf("ensure %s: %v", w, err)
		}
	}
	if err := st.SetReferrer(ctx, "0xbbb", "0xaaa"); err != nil {
		t.Fatalf("set referrer: %v", err)
	}
	if err := st.SetReferrer(ctx, "0xbbb", "0xccc"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second referrer must conflict, got %v", err)
	}
	a, err := st.GetAccount(ctx, "0xbbb")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a.ReferrerAddress != "0xaaa" {
		t.Fatalf("referrer: %q", a.ReferrerAddress)
	}
}

func TestAccrueSession(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := st.EnsureAccount(ctx, "0xaaa"); err != nil {
		t.Fatalf("ensure account: %v", err)
	}
	now := time.Now()
	if err := st.AccrueSession(ctx, "0xaaa", 60, now); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if err := st.AccrueSession(ctx, "0xaaa", 90, now.Add(90*time.Second)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	a, err := st.GetAccount(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a.SessionSeconds != 150 || a.LifetimePlaySeconds != 150 {
		t.Fatalf("session accrual: session=%d lifetime=%d", a.SessionSeconds, a.LifetimePlaySeconds)
	}
	if a.SessionUpdatedAt == nil {
		t.Fatal("session_updated_at not set")
	}
}
