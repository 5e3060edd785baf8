package main

import (
	"voxelworld-economy/internal/app/rewards"
	"voxelworld-economy/internal/app/wallet"
	"voxelworld-economy/internal/config"
	"voxelworld-economy/internal/settlement"
	"voxelworld-economy/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func newRouter(st *store.Store, cfg config.ServerConfig, walletSvc *wallet.Service, rewardsSvc *rewards.Service, bridge settlement.Bridge) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(st))

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())

		r.Post("/auth/session", authSessionHandler(walletSvc, rewardsSvc))

		r.Group(func(r chi.Router) {
			r.Use(walletAuthMiddleware(st))
			r.Post("/session/heartbeat", heartbeatHandler(rewardsSvc))
			r.Post("/session/end", sessionEndHandler(rewardsSvc))
			r.Get("/wallet", walletHandler(walletSvc))
			r.Get("/wallet/ledger", walletLedgerHandler(walletSvc))
			r.Post("/spend", spendHandler(walletSvc))
			r.Post("/escrow", escrowHandler(walletSvc))
			r.Post("/escrow/resolve", escrowResolveHandler(walletSvc))
			r.Post("/escrow/refund", escrowRefundHandler(walletSvc))
			r.Post("/rewards/daily/claim", dailyClaimHandler(rewardsSvc))
			r.Get("/rewards/status", rewardsStatusHandler(rewardsSvc))
			r.Get("/referral", referralStatusHandler(rewardsSvc))
			r.Post("/referral/register", referralRegisterHandler(rewardsSvc))
			r.Post("/referral/payout", referralPayoutHandler(rewardsSvc))
			r.Post("/referral/promo/claim", promoClaimHandler(rewardsSvc))
		})

		r.Group(func(r chi.Router) {
			r.Use(adminAuthMiddleware(cfg))
			r.Post("/admin/credit", adminCreditHandler(walletSvc))
			r.Post("/admin/debit", adminDebitHandler(walletSvc))
			r.Post("/admin/transfer", adminTransferHandler(walletSvc))
			r.Get("/admin/accounts", adminAccountsHandler(st))
			r.Get("/admin/ledger", adminLedgerHandler(walletSvc))
			r.Get("/admin/intents", adminIntentsHandler(st))
			r.Get("/admin/intents/{intentID}/status", adminIntentStatusHandler(st, bridge))
		})
	})
	return r
}
