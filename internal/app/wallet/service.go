package wallet

import (
	"context"

	"voxelworld-economy/internal/ledger"
	"voxelworld-economy/internal/store"

	"github.com/rs/zerolog/log"
)

// SpendAccruer feeds spend events into the referral revenue share.
type SpendAccruer interface {
	AccrueSpend(ctx context.Context, spender string, amountVC int64) error
}

type Service struct {
	store   *store.Store
	ledger  *ledger.Ledger
	accruer SpendAccruer
}

func NewService(st *store.Store, led *ledger.Ledger, accruer SpendAccruer) *Service {
	return &Service{store: st, ledger: led, accruer: accruer}
}

// Authenticate creates the account on first sight and returns it.
func (s *Service) Authenticate(ctx context.Context, wallet string) (*AccountResponse, error) {
	if wallet == "" {
		return nil, ErrInvalidRequest
	}
	if err := s.store.EnsureAccount(ctx, wallet); err != nil {
		return nil, err
	}
	return s.Account(ctx, wallet)
}

func (s *Service) Account(ctx context.Context, wallet string) (*AccountResponse, error) {
	acct, err := s.store.GetAccount(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return &AccountResponse{
		WalletAddress:    acct.WalletAddress,
		BalanceVC:        acct.BalanceVC,
		LifetimeEarnedVC: acct.LifetimeEarnedVC,
		LifetimeSpentVC:  acct.LifetimeSpentVC,
		ClaimCount:       acct.ClaimCount,
		LastClaimAt:      acct.LastClaimAt,
		ReferrerAddress:  acct.ReferrerAddress,
		CreatedAt:        acct.CreatedAt,
	}, nil
}

func (s *Service) Ledger(ctx context.Context, f store.LedgerFilter, limit, offset int) (*LedgerResponse, error) {
	items, err := s.store.ListLedgerEntries(ctx, f, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]LedgerItem, 0, len(items))
	for _, it := range items {
		item := LedgerItem{
			ID:          it.ID,
			EntryType:   it.EntryType,
			SrcWallet:   it.SrcWallet,
			DstWallet:   it.DstWallet,
			AmountVC:    it.AmountVC,
			SrcBeforeVC: it.SrcBeforeVC,
			SrcAfterVC:  it.SrcAfterVC,
			DstBeforeVC: it.DstBeforeVC,
			DstAfterVC:  it.DstAfterVC,
			RefType:     it.RefType,
			RefID:       it.RefID,
			Reason:      it.Reason,
			CreatedAt:   it.CreatedAt,
		}
		if it.AmountWei != nil {
			item.AmountWei = it.AmountWei.String()
		}
		out = append(out, item)
	}
	return &LedgerResponse{Items: out, Limit: limit, Offset: offset}, nil
}

func (s *Service) Credit(ctx context.Context, wallet string, amount int64, reason string) (*BalanceResponse, error) {
	bal, err := s.ledger.Credit(ctx, wallet, amount, ledger.EntryBonus, reason)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{WalletAddress: wallet, BalanceVC: bal}, nil
}

func (s *Service) Debit(ctx context.Context, wallet string, amount int64, reason string) (*BalanceResponse, error) {
	bal, err := s.ledger.Debit(ctx, wallet, amount, ledger.EntryPurchase, reason)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{WalletAddress: wallet, BalanceVC: bal}, nil
}

func (s *Service) Transfer(ctx context.Context, from, to string, amount int64, reason string) error {
	if from == "" || to == "" {
		return ErrInvalidRequest
	}
	return s.ledger.Transfer(ctx, from, to, amount, reason)
}

// Spend debits a purchase and feeds the referral accrual. The debit is the
// authoritative mutation; an accrual that loses all its retries is logged
// for manual repair rather than failing a spend that already committed.
func (s *Service) Spend(ctx context.Context, wallet string, amount int64, itemRef string) (*SpendResponse, error) {
	if itemRef == "" {
		return nil, ErrInvalidRequest
	}
	bal, err := s.ledger.Spend(ctx, wallet, amount, itemRef, "item purchase")
	if err != nil {
		return nil, err
	}
	if err := s.accruer.AccrueSpend(ctx, wallet, amount); err != nil {
		log.Error().Err(err).Str("wallet", wallet).Int64("amount_vc", amount).
			Msg("referral accrual failed for committed spend")
	}
	return &SpendResponse{WalletAddress: wallet, BalanceVC: bal, ItemRef: itemRef}, nil
}

func (s *Service) Escrow(ctx context.Context, wallet string, amount int64, matchID string) (*BalanceResponse, error) {
	if matchID == "" {
		return nil, ErrInvalidRequest
	}
	bal, err := s.ledger.Escrow(ctx, wallet, amount, matchID)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{WalletAddress: wallet, BalanceVC: bal}, nil
}

func (s *Service) ResolveEscrow(ctx context.Context, winner string, amount int64, matchID string) (*BalanceResponse, error) {
	if matchID == "" {
		return nil, ErrInvalidRequest
	}
	bal, err := s.ledger.SettleEscrow(ctx, winner, amount, matchID)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{WalletAddress: winner, BalanceVC: bal}, nil
}

func (s *Service) RefundEscrow(ctx context.Context, wallet string, amount int64, matchID string) (*BalanceResponse, error) {
	if matchID == "" {
		return nil, ErrInvalidRequest
	}
	bal, err := s.ledger.RefundEscrow(ctx, wallet, amount, matchID)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{WalletAddress: wallet, BalanceVC: bal}, nil
}
