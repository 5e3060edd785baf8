package config

import "testing"

func TestLoadRewardsDefaults(t *testing.T) {
	cfg, err := LoadRewards()
	if err != nil {
		t.Fatalf("LoadRewards() error = %v", err)
	}
	if cfg.DailyBonusWei != "250000000000000000" {
		t.Fatalf("DailyBonusWei = %q", cfg.DailyBonusWei)
	}
	if cfg.DailyRequiredMinutes != 60 || cfg.DailyCooldownHours != 24 {
		t.Fatalf("claim window defaults: %+v", cfg)
	}
	if cfg.Tier1BPS != 500 || cfg.Tier2BPS != 100 {
		t.Fatalf("tier defaults: %+v", cfg)
	}
	if cfg.PromoMinutes != 180 {
		t.Fatalf("PromoMinutes = %d, want 180", cfg.PromoMinutes)
	}
}

func TestLoadRewardsParse(t *testing.T) {
	t.Setenv("DAILY_BONUS_WEI", "42")
	t.Setenv("TIER1_BPS", "750")
	t.Setenv("WEI_PER_VC", "1500000000.5")

	cfg, err := LoadRewards()
	if err != nil {
		t.Fatalf("LoadRewards() error = %v", err)
	}
	if cfg.DailyBonusWei != "42" {
		t.Fatalf("DailyBonusWei = %q, want 42", cfg.DailyBonusWei)
	}
	if cfg.Tier1BPS != 750 {
		t.Fatalf("Tier1BPS = %d, want 750", cfg.Tier1BPS)
	}
	if cfg.WeiPerVC != "1500000000.5" {
		t.Fatalf("WeiPerVC = %q", cfg.WeiPerVC)
	}
}
