package config

type AppConfig struct {
	Server  ServerConfig
	Rewards RewardsConfig
	Log     LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	rewardsCfg, err := LoadRewards()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server:  serverCfg,
		Rewards: rewardsCfg,
		Log:     logCfg,
	}, nil
}
