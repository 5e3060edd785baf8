package rewards

import (
	"context"
	"time"

	"voxelworld-economy/internal/claims"
	"voxelworld-economy/internal/referral"
	"voxelworld-economy/internal/store"
)

type Service struct {
	store    *store.Store
	coord    *claims.Coordinator
	referral *referral.Engine
}

func NewService(st *store.Store, coord *claims.Coordinator, eng *referral.Engine) *Service {
	return &Service{store: st, coord: coord, referral: eng}
}

func (s *Service) StartSession(wallet string) {
	s.coord.StartSession(wallet)
}

func (s *Service) Heartbeat(ctx context.Context, wallet string) error {
	return s.coord.Heartbeat(ctx, wallet)
}

func (s *Service) Status(ctx context.Context, wallet string) (*StatusResponse, error) {
	acct, err := s.store.GetAccount(ctx, wallet)
	if err != nil {
		return nil, err
	}
	win := s.coord.Status(acct)
	return &StatusResponse{
		Eligible:          win.Eligible,
		SessionMinutes:    win.SessionMinutes,
		RequiredMinutes:   win.RequiredMinutes,
		CooldownRemaining: int(win.CooldownRemaining / time.Second),
		PendingWei:        acct.PendingWei.String(),
		PaidOutWei:        acct.PaidOutWei.String(),
		Tier1EarnedWei:    acct.Tier1EarnedWei.String(),
		Tier2EarnedWei:    acct.Tier2EarnedWei.String(),
		ReferrerAddress:   acct.ReferrerAddress,
		PromoClaimed:      acct.PromoClaimed,
	}, nil
}

func (s *Service) EndSession(wallet string) {
	s.coord.EndSession(wallet)
}

// Referral reports a wallet's referral standing: who referred it, what it
// has earned per tier, and what is still pending settlement.
func (s *Service) Referral(ctx context.Context, wallet string) (*ReferralResponse, error) {
	acct, err := s.store.GetAccount(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return &ReferralResponse{
		ReferrerAddress:   acct.ReferrerAddress,
		PendingWei:        acct.PendingWei.String(),
		PaidOutWei:        acct.PaidOutWei.String(),
		Tier1EarnedWei:    acct.Tier1EarnedWei.String(),
		Tier2EarnedWei:    acct.Tier2EarnedWei.String(),
		NetworkRevenueWei: acct.NetworkRevenueWei.String(),
		PromoClaimed:      acct.PromoClaimed,
	}, nil
}

func (s *Service) ClaimDaily(ctx context.Context, wallet, nonce string) (*ClaimResponse, error) {
	res, err := s.coord.ClaimDailyBonus(ctx, wallet, nonce)
	if err != nil {
		return nil, err
	}
	return &ClaimResponse{
		IntentID:     res.IntentID,
		AmountWei:    res.AmountWei.String(),
		ExternalTxID: res.ExternalTxID,
	}, nil
}

func (s *Service) RegisterReferral(ctx context.Context, wallet, referrer string) error {
	if referrer == "" {
		return ErrInvalidRequest
	}
	return s.referral.Register(ctx, wallet, referrer)
}

func (s *Service) RequestPayout(ctx context.Context, wallet string) (*PayoutResponse, error) {
	res, err := s.referral.RequestPayout(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return &PayoutResponse{
		IntentID:     res.IntentID,
		AmountWei:    res.AmountWei.String(),
		ExternalTxID: res.ExternalTxID,
	}, nil
}

func (s *Service) ClaimPromo(ctx context.Context, wallet string) (*PromoResponse, error) {
	res, err := s.referral.ClaimPromo(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return &PromoResponse{
		ReferredTxID:    res.ReferredTxID,
		ReferrerTxID:    res.ReferrerTxID,
		ReferrerSettled: res.ReferrerSettled,
	}, nil
}
