package claims

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"voxelworld-economy/internal/settlement"
	"voxelworld-economy/internal/store"
)

type fakeStore struct {
	mu       sync.Mutex
	accounts map[string]*store.Account
	intents  map[string]*store.PayoutIntent
	entries  []store.LedgerEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: map[string]*store.Account{},
		intents:  map[string]*store.PayoutIntent{},
	}
}

func (f *fakeStore) addAccount(a store.Account) {
	if a.PendingWei == nil {
		a.PendingWei = big.NewInt(0)
	}
	if a.PaidOutWei == nil {
		a.PaidOutWei = big.NewInt(0)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[a.WalletAddress] = &a
}

func (f *fakeStore) account(wallet string) store.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.accounts[wallet]
}

func (f *fakeStore) GetAccount(_ context.Context, wallet string) (*store.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[wallet]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) AccrueSession(_ context.Context, wallet string, deltaSeconds int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[wallet]
	if !ok {
		return store.ErrNotFound
	}
	a.SessionSeconds += deltaSeconds
	a.LifetimePlaySeconds += deltaSeconds
	a.SessionUpdatedAt = &at
	return nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (f *fakeStore) ReserveDailyClaim(_ context.Context, acct *store.Account, nonce string, amount *big.Int, now time.Time) (*store.PayoutIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[acct.WalletAddress]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !sameTime(a.LastClaimAt, acct.LastClaimAt) {
		return nil, store.ErrConflict
	}
	intent := &store.PayoutIntent{
		ID:                  store.NewID(),
		WalletAddress:       acct.WalletAddress,
		Kind:                store.IntentKindDailyBonus,
		Nonce:               nonce,
		AmountWei:           amount,
		State:               store.IntentStateReserved,
		PriorLastClaimAt:    acct.LastClaimAt,
		PriorClaimCount:     acct.ClaimCount,
		PriorSessionSeconds: acct.SessionSeconds,
	}
	nowCopy := now
	a.LastClaimAt = &nowCopy
	a.ClaimCount++
	a.SessionSeconds = 0
	f.intents[intent.ID] = intent
	cp := *intent
	return &cp, nil
}

func (f *fakeStore) SettleIntent(_ context.Context, intentID, externalTxID string, entry store.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[intentID]
	if !ok {
		return store.ErrNotFound
	}
	if intent.State != store.IntentStateReserved {
		return store.ErrConflict
	}
	intent.State = store.IntentStateSettled
	intent.ExternalTxID = externalTxID
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeStore) RevertDailyClaim(_ context.Context, intent *store.PayoutIntent, failReason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.intents[intent.ID]
	if !ok {
		return store.ErrNotFound
	}
	if stored.State != store.IntentStateReserved {
		return nil
	}
	stored.State = store.IntentStateReverted
	stored.FailReason = failReason
	a := f.accounts[intent.WalletAddress]
	a.LastClaimAt = intent.PriorLastClaimAt
	a.ClaimCount = intent.PriorClaimCount
	a.SessionSeconds = intent.PriorSessionSeconds
	f.entries = append(f.entries, store.LedgerEntry{
		EntryType: intent.Kind + "_reversal",
		SrcWallet: intent.WalletAddress,
		AmountWei: intent.AmountWei,
		RefType:   "payout_intent",
		RefID:     intent.ID,
		Reason:    failReason,
	})
	return nil
}

type fakeBridge struct {
	mu       sync.Mutex
	failNext int
	calls    []string
}

func (b *fakeBridge) Settle(_ context.Context, _ string, _ *big.Int, idempotencyKey string) (*settlement.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, idempotencyKey)
	if b.failNext > 0 {
		b.failNext--
		return nil, settlement.ErrTransferFailed
	}
	return &settlement.Result{ExternalTxID: "0xtx_" + idempotencyKey}, nil
}

func (b *fakeBridge) Status(_ context.Context, _ string) (string, error) {
	return settlement.StatusUnknown, errors.New("not implemented")
}
