package config

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/storefront/pkg/config"
)

type StorefrontConfig struct {
	config.Config
}

func Load() StorefrontConfig {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := config.Load()

	config.MustNonEmpty(cfg.APIBaseURL, "API_BASE_URL")
	config.MustNonEmpty(cfg.SessionDSN, "SESSION_DSN")

	return StorefrontConfig{Config: cfg}
}
