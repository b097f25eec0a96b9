package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	Port                string
	DBPath              string
	Env                 string
	LogLevel            string
	LogFormat           string
	BcryptCost          int
	PostmarkServerToken string
	EmailFrom           string
	FrontendURL         string
	CORSOrigins         []string
	AuthRateLimit       int
	TrustProxyHeaders   bool
	AllowPrivateLinks   bool
}

// Load reads .env when present, then the process environment, applying defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "5000"),
		DBPath:              getEnv("DB_PATH", "dealfinder.db"),
		Env:                 getEnv("APP_ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		PostmarkServerToken: os.Getenv("POSTMARK_SERVER_TOKEN"),
		EmailFrom:           getEnv("EMAIL_FROM", "noreply@dealfinder.com"),
		FrontendURL:         strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3001"), "/"),
	}

	var err error
	if cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", bcrypt.DefaultCost); err != nil {
		return nil, err
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost)
	}
	if cfg.AuthRateLimit, err = getEnvInt("AUTH_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.AuthRateLimit <= 0 {
		return nil, fmt.Errorf("AUTH_RATE_LIMIT must be positive, got %d", cfg.AuthRateLimit)
	}
	if cfg.TrustProxyHeaders, err = getEnvBool("TRUST_PROXY_HEADERS", false); err != nil {
		return nil, err
	}
	if cfg.AllowPrivateLinks, err = getEnvBool("LINKCHECK_ALLOW_PRIVATE", false); err != nil {
		return nil, err
	}
	if p, err := strconv.Atoi(cfg.Port); err != nil || p <= 0 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", cfg.Port)
	}

	cfg.CORSOrigins = []string{cfg.FrontendURL}
	for _, o := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" && o != cfg.FrontendURL {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg, nil
}

// Production reports whether cookies must be Secure and SameSite=Strict.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
