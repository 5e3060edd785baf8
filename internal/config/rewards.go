package config

import "github.com/caarlos0/env/v11"

type RewardsConfig struct {
	DailyBonusWei        string `env:"DAILY_BONUS_WEI" envDefault:"250000000000000000"`
	DailyRequiredMinutes int    `env:"DAILY_REQUIRED_MINUTES" envDefault:"60"`
	DailyCooldownHours   int    `env:"DAILY_COOLDOWN_HOURS" envDefault:"24"`

	HeartbeatIntervalSeconds int `env:"HEARTBEAT_INTERVAL_SECONDS" envDefault:"60"`
	HeartbeatMaxMultiple     int `env:"HEARTBEAT_MAX_MULTIPLE" envDefault:"3"`
	NonceTTLMinutes          int `env:"NONCE_TTL_MINUTES" envDefault:"30"`
	SessionTTLMinutes        int `env:"SESSION_TTL_MINUTES" envDefault:"120"`

	// WeiPerVC is a decimal string so fractional rates survive env parsing.
	WeiPerVC           string `env:"WEI_PER_VC" envDefault:"1000000000000"`
	Tier1BPS           int64  `env:"TIER1_BPS" envDefault:"500"`
	Tier2BPS           int64  `env:"TIER2_BPS" envDefault:"100"`
	PayoutThresholdWei string `env:"PAYOUT_THRESHOLD_WEI" envDefault:"100000000000000000"`

	PromoBonusWei string `env:"PROMO_BONUS_WEI" envDefault:"500000000000000000"`
	PromoMinutes  int    `env:"PROMO_MINUTES" envDefault:"180"`
}

func LoadRewards() (RewardsConfig, error) {
	var cfg RewardsConfig
	err := env.Parse(&cfg)
	return cfg, err
}
