package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string
	Addr         string
	DBDSN        string
	CookieSecret string
	LogLevel     string

	FCMProjectID   string
	FCMCredentials string

	InternalAPIKeyHash string

	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPTLSMode   string
	EmailFrom     string
	EmailFromName string

	NotifyBatchSize  int
	AudiencePageSize int

	// PushRate caps outbound provider calls per second process-wide;
	// PushBurst is the bucket size. Zero disables the cap.
	PushRate  float64
	PushBurst int
}

// Load reads a .env file when one is present, then the process environment.
// Real environment variables win over .env values.
func Load() (Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:                getenv("APP_ENV"),
		Addr:               getenv("APP_ADDR"),
		DBDSN:              getenv("APP_DB_DSN"),
		LogLevel:           getenv("APP_LOG_LEVEL"),
		CookieSecret:       getenv("APP_COOKIE_SECRET"),
		FCMProjectID:       getenv("APP_FCM_PROJECT_ID"),
		FCMCredentials:     getenv("APP_FCM_CREDENTIALS"),
		InternalAPIKeyHash: getenv("APP_INTERNAL_API_KEY_HASH"),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	var err error
	cfg.NotifyBatchSize, err = intOrDefault(getenv("APP_NOTIFY_BATCH_SIZE"), 100)
	if err != nil {
		return Config{}, fmt.Errorf("APP_NOTIFY_BATCH_SIZE: %w", err)
	}
	cfg.AudiencePageSize, err = intOrDefault(getenv("APP_AUDIENCE_PAGE_SIZE"), 500)
	if err != nil {
		return Config{}, fmt.Errorf("APP_AUDIENCE_PAGE_SIZE: %w", err)
	}

	if raw := getenv("APP_PUSH_RATE"); raw != "" {
		cfg.PushRate, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("APP_PUSH_RATE: %w", err)
		}
		if cfg.PushRate < 0 {
			return Config{}, errors.New("APP_PUSH_RATE: must be >= 0")
		}
	}
	cfg.PushBurst, err = intOrDefault(getenv("APP_PUSH_BURST"), 0)
	if err != nil {
		return Config{}, fmt.Errorf("APP_PUSH_BURST: %w", err)
	}
	if cfg.PushRate > 0 && cfg.PushBurst <= 0 {
		cfg.PushBurst = 1
	}

	cfg.SMTPHost = getenv("APP_SMTP_HOST")
	cfg.SMTPUsername = getenv("APP_SMTP_USERNAME")
	cfg.SMTPPassword = getenv("APP_SMTP_PASSWORD")
	cfg.SMTPTLSMode = getenv("APP_SMTP_TLS")
	cfg.EmailFrom = getenv("APP_EMAIL_FROM")
	cfg.EmailFromName = getenv("APP_EMAIL_FROM_NAME")
	cfg.SMTPPort, err = intOrDefault(getenv("APP_SMTP_PORT"), 587)
	if err != nil {
		return Config{}, fmt.Errorf("APP_SMTP_PORT: %w", err)
	}
	if cfg.SMTPHost != "" && cfg.EmailFrom == "" {
		return Config{}, errors.New("APP_EMAIL_FROM: required when APP_SMTP_HOST is set")
	}

	if cfg.FCMProjectID != "" && cfg.FCMCredentials == "" {
		return Config{}, errors.New("APP_FCM_CREDENTIALS: required when APP_FCM_PROJECT_ID is set")
	}

	if cfg.IsProd() {
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if len(cfg.CookieSecret) < 32 {
			return Config{}, errors.New("APP_COOKIE_SECRET: must be at least 32 bytes in prod")
		}
		if cfg.FCMProjectID == "" {
			return Config{}, errors.New("APP_FCM_PROJECT_ID: required in prod")
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func intOrDefault(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("must be >= 0")
	}
	return n, nil
}
