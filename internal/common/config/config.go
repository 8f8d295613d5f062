// internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"assessment-workers/internal/valuation"

	"github.com/shopspring/decimal"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Server    ServerConfig            `mapstructure:"server"`
	Registry  RegistryConfig          `mapstructure:"registry"`
	Valuation ValuationConfig         `mapstructure:"valuation"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	UsePlaintext   bool   `mapstructure:"use_plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig is optional. An empty address disables the catalog cache.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ServerConfig is the health/readiness/metrics listener.
type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// --- Valuation ---

// CatalogConfig selects where the unit cost schedule comes from.
type CatalogConfig struct {
	Source   string `mapstructure:"source"` // file | postgres
	Path     string `mapstructure:"path"`   // empty: built-in schedule
	Schedule string `mapstructure:"schedule"`
	CacheTTL int    `mapstructure:"cache_ttl"` // milliseconds
	Timeout  int    `mapstructure:"timeout"`   // milliseconds
}

// ValuationConfig holds the policy knobs of the valuation core. Percentages are strings so
// they reach the core without a float conversion.
type ValuationConfig struct {
	Catalog                    CatalogConfig `mapstructure:"catalog"`
	PercentPolicy              string        `mapstructure:"percent_policy"`
	DefaultSMVPercent          string        `mapstructure:"default_smv_percent"`
	DefaultDepreciationPercent string        `mapstructure:"default_depreciation_percent"`
	MinYear                    int           `mapstructure:"min_year"`
	MaxYearsAhead              int           `mapstructure:"max_years_ahead"`
}

// Policy builds the core policy. Unset fields keep the core defaults.
func (v ValuationConfig) Policy() (valuation.Policy, error) {
	p := valuation.DefaultPolicy()

	switch mode := valuation.PercentMode(strings.ToLower(strings.TrimSpace(v.PercentPolicy))); mode {
	case "":
	case valuation.PercentReject, valuation.PercentClamp:
		p.PercentMode = mode
	default:
		return p, fmt.Errorf("valuation.percent_policy: unknown mode %q", v.PercentPolicy)
	}

	if v.DefaultSMVPercent != "" {
		pct, err := parsePercent("valuation.default_smv_percent", v.DefaultSMVPercent)
		if err != nil {
			return p, err
		}
		p.DefaultSMVPercent = pct
	}
	if v.DefaultDepreciationPercent != "" {
		pct, err := parsePercent("valuation.default_depreciation_percent", v.DefaultDepreciationPercent)
		if err != nil {
			return p, err
		}
		p.DefaultDepreciationPercent = pct
	}

	if v.MinYear != 0 {
		p.MinYear = v.MinYear
	}
	if v.MaxYearsAhead != 0 {
		p.MaxYearsAhead = v.MaxYearsAhead
	}
	return p, nil
}

func parsePercent(key, raw string) (decimal.Decimal, error) {
	pct, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("%s: %s is outside 0-100", key, raw)
	}
	return pct, nil
}

// CacheTTL and Timeout as durations.
func (c CatalogConfig) CacheTTLDuration() time.Duration { return GetDuration(c.CacheTTL) }
func (c CatalogConfig) TimeoutDuration() time.Duration  { return GetDuration(c.Timeout) }
