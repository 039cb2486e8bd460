package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	RatesAPIURL          string
	RatesBaseCurrency    string
	RatesTTL             time.Duration
	RatesRefreshInterval time.Duration
	HTTPClientTimeout    time.Duration
	RedisURL             string

	DisputeWindow          time.Duration
	ValidationRewardAmount float64

	CORSAllowedOrigins []string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from an arbitrary lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DatabaseURL:       getenv("DATABASE_URL"),
		JWTSecretKey:      getenv("JWT_SECRET_KEY"),
		RatesAPIURL:       withDefault(getenv("RATES_API_URL"), "https://open.er-api.com/v6/latest"),
		RatesBaseCurrency: strings.ToUpper(withDefault(getenv("RATES_BASE_CURRENCY"), "XOF")),
		RedisURL:          getenv("REDIS_URL"),
		R2AccountID:       getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   getenv("R2_PUBLIC_BASE_URL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(withDefault(getenv("SERVER_PORT"), "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"RATES_TTL", "1h", &cfg.RatesTTL},
		{"RATES_REFRESH_INTERVAL", "30m", &cfg.RatesRefreshInterval},
		{"HTTP_CLIENT_TIMEOUT", "10s", &cfg.HTTPClientTimeout},
		{"DISPUTE_WINDOW", "30m", &cfg.DisputeWindow},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(withDefault(getenv(d.key), d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s environment variable: %w", d.key, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %s", d.key, v)
		}
		*d.dest = v
	}

	reward, err := strconv.ParseFloat(withDefault(getenv("VALIDATION_REWARD_AMOUNT"), "500"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid VALIDATION_REWARD_AMOUNT environment variable: %w", err)
	}
	if reward < 0 {
		return nil, fmt.Errorf("VALIDATION_REWARD_AMOUNT must not be negative, got %v", reward)
	}
	cfg.ValidationRewardAmount = reward

	for _, origin := range strings.Split(withDefault(getenv("CORS_ALLOWED_ORIGINS"), "*"), ",") {
		if o := strings.TrimSpace(origin); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	r2 := []string{cfg.R2AccountID, cfg.R2AccessKeyID, cfg.R2SecretAccessKey, cfg.R2BucketName, cfg.R2PublicBaseURL}
	set := 0
	for _, v := range r2 {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(r2) {
		return nil, fmt.Errorf("R2 storage is partially configured: set all of R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME, R2_PUBLIC_BASE_URL or none")
	}

	return cfg, nil
}

func withDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
