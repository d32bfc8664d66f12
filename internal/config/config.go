package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"github.com/mtlprog/wealth/internal/domain"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL           string
	HTTPPort              string
	AdminAPIKey           string
	ViewCurrency          string
	StrictFXRates         bool
	AlwaysFundsNames      []string
	LimitedLiquidityNames []string
	EntitiesFile          string
	ReportWorkerInterval  time.Duration
	RateAuditInterval     time.Duration
	RateStaleThreshold    time.Duration
	ReportDir             string
	ReportTop             int
	GoogleSheetsID        string
	GoogleCredentialsJSON string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DatabaseURL:           envOrDefaultWarn("DATABASE_URL", ""),
		HTTPPort:              envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:           envOrDefault("ADMIN_API_KEY", ""),
		ViewCurrency:          strings.ToUpper(envOrDefault("VIEW_CURRENCY", domain.CurrencyUSD)),
		StrictFXRates:         envOrDefaultBool("STRICT_FX_RATES", false),
		AlwaysFundsNames:      envOrDefaultList("ALWAYS_FUNDS_NAMES", nil),
		LimitedLiquidityNames: envOrDefaultList("LIMITED_LIQUIDITY_NAMES", nil),
		EntitiesFile:          envOrDefault("ENTITIES_FILE", ""),
		ReportWorkerInterval:  envOrDefaultDuration("REPORT_WORKER_INTERVAL", 24*time.Hour),
		RateAuditInterval:     envOrDefaultDuration("FX_AUDIT_INTERVAL", 1*time.Hour),
		RateStaleThreshold:    envOrDefaultDuration("FX_STALE_THRESHOLD", 48*time.Hour),
		ReportDir:             envOrDefault("REPORT_DIR", "reports"),
		ReportTop:             envOrDefaultInt("REPORT_TOP", 10),
		GoogleSheetsID:        envOrDefault("GOOGLE_SHEETS_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
	}
}

// Entities returns the entity registry from EntitiesFile, or the built-in table when no file is set.
func (c Config) Entities() (*domain.EntityRegistry, error) {
	if c.EntitiesFile == "" {
		return domain.DefaultEntityRegistry(), nil
	}
	return LoadEntities(c.EntitiesFile)
}

// LoadEntities reads an entity table from a JSON file: [{"name", "beneficiary", "banks": [...]}].
func LoadEntities(path string) (*domain.EntityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading entities file: %w", err)
	}
	var entities []domain.AccountEntity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("decoding entities file %s: %w", path, err)
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("entities file %s is empty", path)
	}
	for _, e := range entities {
		if e.Name == "" || e.Beneficiary == "" {
			return nil, fmt.Errorf("entities file %s: entity needs name and beneficiary", path)
		}
	}
	return domain.NewEntityRegistry(entities), nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return b
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

// envOrDefaultList splits a comma-separated value, trimming blanks. Names may contain spaces.
func envOrDefaultList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return lo.Compact(lo.Map(strings.Split(v, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}
