package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	SignerBaseURL        string `env:"SIGNER_BASE_URL,required,notEmpty"`
	SignerAPIKey         string `env:"SIGNER_API_KEY"`
	SignerTimeoutSeconds int    `env:"SIGNER_TIMEOUT_SECONDS" envDefault:"30"`
	SignerPollAttempts   int    `env:"SIGNER_POLL_ATTEMPTS" envDefault:"10"`
	SignerPollIntervalMS int    `env:"SIGNER_POLL_INTERVAL_MS" envDefault:"2000"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
