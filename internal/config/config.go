package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	SMS          SMSConfig
	Dispatcher   DispatcherConfig
	Verification VerificationConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// SMSConfig carries the SMS provider credentials. Configured is derived from
// their presence at load time; when false, verification codes are handed
// back to the caller in dev mode instead of being sent out of band.
type SMSConfig struct {
	Configured bool
	AccountSID string
	AuthToken  string
	FromNumber string
	APIBaseURL string
}

// DispatcherConfig controls the optional in-process delivery worker.
// Branches that run their own WhatsApp bots leave GATEWAY_URL unset.
type DispatcherConfig struct {
	Enabled    bool
	GatewayURL string
	Interval   time.Duration
	BatchSize  int
	BranchCode string
}

type VerificationConfig struct {
	TTL time.Duration
}

func LoadAll() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresURL: os.Getenv("POSTGRES_URL"),
		},
		Redis:      loadRedisConfig(),
		SMS:        loadSMSConfig(),
		Dispatcher: loadDispatcherConfig(),
		Verification: VerificationConfig{
			TTL: time.Duration(getEnvInt("VERIFICATION_TTL_SECONDS", 300)) * time.Second,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvInt("REDIS_DB", 0),
		TTL:      time.Duration(getEnvInt("REDIS_TTL_SECONDS", 86400)) * time.Second,
	}
}

func loadSMSConfig() SMSConfig {
	sid := os.Getenv("TWILIO_ACCOUNT_SID")
	token := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_PHONE_NUMBER")

	return SMSConfig{
		Configured: sid != "" && token != "" && from != "",
		AccountSID: sid,
		AuthToken:  token,
		FromNumber: from,
		APIBaseURL: getEnv("TWILIO_API_URL", "https://api.twilio.com"),
	}
}

func loadDispatcherConfig() DispatcherConfig {
	url := os.Getenv("GATEWAY_URL")
	if url == "" {
		return DispatcherConfig{Enabled: false}
	}

	return DispatcherConfig{
		Enabled:    true,
		GatewayURL: url,
		Interval:   time.Duration(getEnvInt("DISPATCH_INTERVAL_SECONDS", 5)) * time.Second,
		BatchSize:  getEnvInt("DISPATCH_BATCH_SIZE", 10),
		BranchCode: os.Getenv("DISPATCH_BRANCH_CODE"),
	}
}

func validate(cfg *Config) error {
	if cfg.Database.PostgresURL == "" {
		return fmt.Errorf("missing required env var: POSTGRES_URL")
	}
	if cfg.Verification.TTL <= 0 {
		return fmt.Errorf("VERIFICATION_TTL_SECONDS must be > 0")
	}
	if cfg.Dispatcher.Enabled {
		if cfg.Dispatcher.Interval <= 0 {
			return fmt.Errorf("DISPATCH_INTERVAL_SECONDS must be > 0")
		}
		if cfg.Dispatcher.BatchSize <= 0 {
			return fmt.Errorf("DISPATCH_BATCH_SIZE must be > 0")
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
