package referral

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"voxelworld-economy/internal/settlement"
	"voxelworld-economy/internal/store"
)

type fakeStore struct {
	mu       sync.Mutex
	accounts map[string]*store.Account
	intents  map[string]*store.PayoutIntent
	entries  []store.LedgerEntry

	// accrualConflicts injects that many spurious write conflicts before
	// ApplyReferralAccrual succeeds.
	accrualConflicts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: map[string]*store.Account{},
		intents:  map[string]*store.PayoutIntent{},
	}
}

func (f *fakeStore) addAccount(a store.Account) {
	for _, p := range []**big.Int{&a.PendingWei, &a.PaidOutWei, &a.Tier1EarnedWei, &a.Tier2EarnedWei, &a.NetworkRevenueWei} {
		if *p == nil {
			*p = big.NewInt(0)
		}
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

func (f *fakeStore) intent(id string) store.PayoutIntent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.intents[id]
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

func (f *fakeStore) SetReferrer(_ context.Context, wallet, referrer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[wallet]
	if !ok {
		return store.ErrNotFound
	}
	if a.ReferrerAddress != "" {
		return store.ErrConflict
	}
	a.ReferrerAddress = referrer
	return nil
}

func (f *fakeStore) ApplyReferralAccrual(_ context.Context, wallet string, prevPending, newPending *big.Int, tier int, shareWei, revenue *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accrualConflicts > 0 {
		f.accrualConflicts--
		return store.ErrConflict
	}
	a, ok := f.accounts[wallet]
	if !ok {
		return store.ErrNotFound
	}
	if a.PendingWei.Cmp(prevPending) != 0 {
		return store.ErrConflict
	}
	a.PendingWei = new(big.Int).Set(newPending)
	switch tier {
	case 1:
		a.Tier1EarnedWei = new(big.Int).Add(a.Tier1EarnedWei, shareWei)
	case 2:
		a.Tier2EarnedWei = new(big.Int).Add(a.Tier2EarnedWei, shareWei)
	}
	a.NetworkRevenueWei = new(big.Int).Add(a.NetworkRevenueWei, revenue)
	return nil
}

func (f *fakeStore) ReserveReferralPayout(_ context.Context, acct *store.Account) (*store.PayoutIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[acct.WalletAddress]
	if !ok {
		return nil, store.ErrNotFound
	}
	if a.PendingWei.Cmp(acct.PendingWei) != 0 {
		return nil, store.ErrConflict
	}
	intent := &store.PayoutIntent{
		ID:              store.NewID(),
		WalletAddress:   acct.WalletAddress,
		Kind:            store.IntentKindReferralPayout,
		AmountWei:       new(big.Int).Set(a.PendingWei),
		State:           store.IntentStateReserved,
		PriorPendingWei: new(big.Int).Set(a.PendingWei),
		PriorPaidOutWei: new(big.Int).Set(a.PaidOutWei),
	}
	a.PaidOutWei = new(big.Int).Add(a.PaidOutWei, a.PendingWei)
	a.PendingWei = big.NewInt(0)
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

func (f *fakeStore) RevertReferralPayout(_ context.Context, intent *store.PayoutIntent, failReason string) error {
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
	a.PendingWei = new(big.Int).Add(a.PendingWei, intent.AmountWei)
	a.PaidOutWei = new(big.Int).Sub(a.PaidOutWei, intent.AmountWei)
	f.entries = append(f.entries, store.LedgerEntry{
		EntryType: "referral_payout_reversal",
		DstWallet: intent.WalletAddress,
		AmountWei: intent.AmountWei,
		RefType:   "payout_intent",
		RefID:     intent.ID,
		Reason:    failReason,
	})
	return nil
}

func (f *fakeStore) ReservePromo(_ context.Context, acct *store.Account, referrer string, referredAmount, referrerAmount *big.Int) (*store.PayoutIntent, *store.PayoutIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[acct.WalletAddress]
	if !ok {
		return nil, nil, store.ErrNotFound
	}
	if a.PromoClaimed {
		return nil, nil, store.ErrConflict
	}
	a.PromoClaimed = true
	referred := &store.PayoutIntent{
		ID:            store.NewID(),
		WalletAddress: acct.WalletAddress,
		Kind:          store.IntentKindPromoReferred,
		AmountWei:     new(big.Int).Set(referredAmount),
		State:         store.IntentStateReserved,
	}
	ref := &store.PayoutIntent{
		ID:            store.NewID(),
		WalletAddress: referrer,
		Kind:          store.IntentKindPromoReferrer,
		AmountWei:     new(big.Int).Set(referrerAmount),
		State:         store.IntentStateReserved,
	}
	f.intents[referred.ID] = referred
	f.intents[ref.ID] = ref
	cp1, cp2 := *referred, *ref
	return &cp1, &cp2, nil
}

func (f *fakeStore) RevertPromoReferred(_ context.Context, intent *store.PayoutIntent, failReason string) error {
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
	f.accounts[intent.WalletAddress].PromoClaimed = false
	return nil
}

func (f *fakeStore) MarkIntentReverted(_ context.Context, intentID, failReason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[intentID]
	if !ok {
		return store.ErrNotFound
	}
	if intent.State != store.IntentStateReserved {
		return nil
	}
	intent.State = store.IntentStateReverted
	intent.FailReason = failReason
	return nil
}

type fakeBridge struct {
	mu       sync.Mutex
	passFirst int
	failNext  int
	calls     []string
}

func (b *fakeBridge) Settle(_ context.Context, _ string, _ *big.Int, idempotencyKey string) (*settlement.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, idempotencyKey)
	if b.passFirst > 0 {
		b.passFirst--
	} else if b.failNext > 0 {
		b.failNext--
		return nil, settlement.ErrTransferFailed
	}
	return &settlement.Result{ExternalTxID: "0xtx_" + idempotencyKey}, nil
}

func (b *fakeBridge) Status(_ context.Context, _ string) (string, error) {
	return settlement.StatusUnknown, errors.New("not implemented")
}
