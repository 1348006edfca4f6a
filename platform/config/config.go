// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"predpraznik_backend/internal/policy"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides settings for the optional Redis cache.
type RedisConfig interface {
	GetRedisURL() string
	IsRedisEnabled() bool
}

// AdminFunctionsConfig provides settings for the privileged account service.
type AdminFunctionsConfig interface {
	GetAdminFunctionsURL() string
	GetAdminFunctionsToken() string
	IsAdminFunctionsEnabled() bool
}

// PolicyConfig provides lifecycle thresholds and the business timezone.
type PolicyConfig interface {
	GetPolicy() policy.Policy
	GetLocation() *time.Location
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	JWTAccessSecret     string
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	RedisURL            string
	AdminFunctionsURL   string
	AdminFunctionsToken string
	Timezone            string
	Location            *time.Location
	Policy              policy.Policy
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string  { return c.RedisURL }
func (c *Config) IsRedisEnabled() bool { return c.RedisURL != "" }

// AdminFunctionsConfig implementation
func (c *Config) GetAdminFunctionsURL() string   { return c.AdminFunctionsURL }
func (c *Config) GetAdminFunctionsToken() string { return c.AdminFunctionsToken }
func (c *Config) IsAdminFunctionsEnabled() bool {
	return c.AdminFunctionsURL != "" && c.AdminFunctionsToken != ""
}

// PolicyConfig implementation
func (c *Config) GetPolicy() policy.Policy    { return c.Policy }
func (c *Config) GetLocation() *time.Location { return c.Location }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:            getEnv("REDIS_URL", ""),
		AdminFunctionsURL:   strings.TrimRight(getEnv("ADMIN_FUNCTIONS_URL", ""), "/"),
		AdminFunctionsToken: getEnv("ADMIN_FUNCTIONS_TOKEN", ""),
		Timezone:            getEnv("APP_TIMEZONE", "Europe/Ljubljana"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	p, err := LoadPolicy(getEnv("POLICY_FILE", ""))
	if err != nil {
		return nil, err
	}
	cfg.Policy = p

	return cfg, nil
}

// LoadPolicy builds the lifecycle policy from compiled defaults, POLICY_*
// environment overrides and, when path is set, a YAML file applied last.
func LoadPolicy(path string) (policy.Policy, error) {
	p := policy.Defaults()

	p.TrialDays = getIntEnv("POLICY_TRIAL_DAYS", p.TrialDays)
	p.ExtensionDays = getIntEnv("POLICY_EXTENSION_DAYS", p.ExtensionDays)
	p.ExpiringWindow = getDurationEnv("POLICY_EXPIRING_WINDOW", p.ExpiringWindow)
	p.MaxExtensions = getIntEnv("POLICY_MAX_EXTENSIONS", p.MaxExtensions)
	p.WarningDays = getIntEnv("POLICY_WARNING_DAYS", p.WarningDays)
	p.CriticalDays = getIntEnv("POLICY_CRITICAL_DAYS", p.CriticalDays)
	p.StalePickupDays = getIntEnv("POLICY_STALE_PICKUP_DAYS", p.StalePickupDays)
	p.DirtyBacklogThreshold = getIntEnv("POLICY_DIRTY_BACKLOG_THRESHOLD", p.DirtyBacklogThreshold)
	p.ContractFollowupDays = getIntEnv("POLICY_CONTRACT_FOLLOWUP_DAYS", p.ContractFollowupDays)
	p.FollowupHour = getIntEnv("POLICY_FOLLOWUP_HOUR", p.FollowupHour)
	p.ConversionWindowDays = getIntEnv("POLICY_CONVERSION_WINDOW_DAYS", p.ConversionWindowDays)
	p.TrendMonths = getIntEnv("POLICY_TREND_MONTHS", p.TrendMonths)
	p.PickupRequiresAllItems = strings.EqualFold(getEnv("POLICY_PICKUP_REQUIRES_ALL_ITEMS", strconv.FormatBool(p.PickupRequiresAllItems)), "true")

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return policy.Policy{}, fmt.Errorf("read policy file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return policy.Policy{}, fmt.Errorf("parse policy file: %w", err)
		}
	}

	if err := p.Validate(); err != nil {
		return policy.Policy{}, fmt.Errorf("invalid policy: %w", err)
	}
	return p, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
