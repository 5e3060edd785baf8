package main

import (
	"context"
	"math/big"
	"net/http"
	"time"

	"voxelworld-economy/internal/app/rewards"
	"voxelworld-economy/internal/app/wallet"
	"voxelworld-economy/internal/claims"
	"voxelworld-economy/internal/config"
	"voxelworld-economy/internal/ledger"
	"voxelworld-economy/internal/logging"
	"voxelworld-economy/internal/referral"
	"voxelworld-economy/internal/settlement"
	"voxelworld-economy/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	_ = godotenv.Load()

	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}
	rewardsCfg, err := config.LoadRewards()
	if err != nil {
		log.Fatal().Err(err).Msg("load rewards config failed")
	}

	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	led := ledger.New(st)
	bridge := settlement.NewClient(settlement.ClientConfig{
		BaseURL:      cfg.SignerBaseURL,
		APIKey:       cfg.SignerAPIKey,
		Timeout:      time.Duration(cfg.SignerTimeoutSeconds) * time.Second,
		PollAttempts: cfg.SignerPollAttempts,
		PollInterval: time.Duration(cfg.SignerPollIntervalMS) * time.Millisecond,
	})

	coord := claims.NewCoordinator(st, bridge, claims.Params{
		BonusWei:             mustWei(rewardsCfg.DailyBonusWei, "DAILY_BONUS_WEI"),
		RequiredSession:      time.Duration(rewardsCfg.DailyRequiredMinutes) * time.Minute,
		Cooldown:             time.Duration(rewardsCfg.DailyCooldownHours) * time.Hour,
		HeartbeatInterval:    time.Duration(rewardsCfg.HeartbeatIntervalSeconds) * time.Second,
		HeartbeatMaxMultiple: rewardsCfg.HeartbeatMaxMultiple,
		NonceTTL:             time.Duration(rewardsCfg.NonceTTLMinutes) * time.Minute,
		SessionTTL:           time.Duration(rewardsCfg.SessionTTLMinutes) * time.Minute,
	})
	coord.StartJanitor(context.Background(), time.Minute)

	weiPerVC, err := decimal.NewFromString(rewardsCfg.WeiPerVC)
	if err != nil {
		log.Fatal().Err(err).Str("value", rewardsCfg.WeiPerVC).Msg("invalid WEI_PER_VC")
	}
	refEngine := referral.NewEngine(st, bridge, referral.Params{
		WeiPerVC:           weiPerVC,
		Tier1BPS:           rewardsCfg.Tier1BPS,
		Tier2BPS:           rewardsCfg.Tier2BPS,
		PayoutThresholdWei: mustWei(rewardsCfg.PayoutThresholdWei, "PAYOUT_THRESHOLD_WEI"),
		PromoBonusWei:      mustWei(rewardsCfg.PromoBonusWei, "PROMO_BONUS_WEI"),
		PromoPlaytime:      time.Duration(rewardsCfg.PromoMinutes) * time.Minute,
	})

	walletSvc := wallet.NewService(st, led, refEngine)
	rewardsSvc := rewards.NewService(st, coord, refEngine)

	r := newRouter(st, cfg, walletSvc, rewardsSvc, bridge)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

func mustWei(s, key string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		log.Fatal().Str("key", key).Str("value", s).Msg("invalid wei amount")
	}
	return v
}
