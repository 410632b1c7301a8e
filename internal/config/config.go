package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pokertable/internal/domain"

	"github.com/joho/godotenv"
)

// devJWTSecret signs tokens outside production when JWT_SECRET is unset
const devJWTSecret = "pokertable-dev-secret"

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	JWTTTL         time.Duration
	Environment    string
	TablePolicy    domain.TablePolicy
	VoteRange      domain.VoteRange
	RateLimitRPS   float64
	RateLimitBurst int
	AutoMigrate    bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtTTL, err := getDurationEnv("JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	voteMin, err := getIntEnv("VOTE_MIN", domain.DefaultMinVote)
	if err != nil {
		return nil, err
	}
	voteMax, err := getIntEnv("VOTE_MAX", domain.DefaultMaxVote)
	if err != nil {
		return nil, err
	}
	rps, err := getFloatEnv("RATE_LIMIT_RPS", 10)
	if err != nil {
		return nil, err
	}
	burst, err := getIntEnv("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, err
	}
	policy, err := domain.ParseTablePolicy(getEnv("TABLE_POLICY", string(domain.TablePolicyMulti)))
	if err != nil {
		return nil, fmt.Errorf("invalid TABLE_POLICY: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4200")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTTTL:         jwtTTL,
		Environment:    getEnv("ENVIRONMENT", "production"),
		TablePolicy:    policy,
		VoteRange:      domain.VoteRange{Min: voteMin, Max: voteMax},
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		AutoMigrate:    getBoolEnv("AUTO_MIGRATE", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.VoteRange.Min > c.VoteRange.Max {
		return fmt.Errorf("invalid vote range: VOTE_MIN %d is greater than VOTE_MAX %d", c.VoteRange.Min, c.VoteRange.Max)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("invalid JWT_TTL: must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("invalid rate limit: RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.JWTSecret = devJWTSecret
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getFloatEnv(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
