/*
Package config loads runtime configuration from the environment.

PURPOSE:
  Everything the server needs to start lives in environment variables, with
  a .env file honored for local development. Defaults keep the server
  runnable with zero configuration: an in-memory-friendly sqlite cache and
  no remote store or webhook.

VARIABLES:
  PORT             HTTP listen port               (default "8080")
  CACHE_DB_PATH    Local sqlite cache file        (default "leave.db")
  STORE_URL        Remote store base URL          (empty = offline mode)
  STORE_API_KEY    Remote store API key
  STORE_TIMEOUT    Per-call remote store timeout  (default "5s")
  WEBHOOK_URL      Spreadsheet webhook URL        (empty = disabled)
*/
package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port         string
	CacheDBPath  string
	StoreURL     string
	StoreAPIKey  string
	StoreTimeout time.Duration
	WebhookURL   string
}

// Load reads configuration from environment variables and a .env file if
// one is present. Environment variables win over .env values.
func Load() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("CACHE_DB_PATH", "leave.db")
	viper.SetDefault("STORE_URL", "")
	viper.SetDefault("STORE_API_KEY", "")
	viper.SetDefault("STORE_TIMEOUT", "5s")
	viper.SetDefault("WEBHOOK_URL", "")

	viper.AutomaticEnv()

	cfg := &Config{
		Port:        viper.GetString("PORT"),
		CacheDBPath: viper.GetString("CACHE_DB_PATH"),
		StoreURL:    viper.GetString("STORE_URL"),
		StoreAPIKey: viper.GetString("STORE_API_KEY"),
		WebhookURL:  viper.GetString("WEBHOOK_URL"),
	}

	timeoutStr := viper.GetString("STORE_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 5 * time.Second
		if timeoutStr != "" {
			log.Printf("Warning: invalid STORE_TIMEOUT (%q), defaulting to %s", timeoutStr, timeout)
		}
	}
	cfg.StoreTimeout = timeout

	if cfg.StoreURL == "" {
		log.Println("config: STORE_URL not set, running without a remote store")
	}

	return cfg, nil
}
