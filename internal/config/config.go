package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
)

// Config is the full runtime configuration. All money values are in minor
// units; rates are fractions (0.10 = 10%).
type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	Env            string   `env:"APP_ENV" envDefault:"development"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	JWTSecret      string   `env:"JWT_SECRET" envDefault:"dev-secret"`
	TimeZone       string   `env:"PLATFORM_TIMEZONE" envDefault:"UTC"`

	DatabaseURL  string   `env:"DATABASE_URL"`
	KafkaBrokers []string `env:"KAFKA_BROKERS"`

	DirectRate         decimal.Decimal `env:"REFERRAL_DIRECT_RATE" envDefault:"0.10"`
	IndirectRate       decimal.Decimal `env:"REFERRAL_INDIRECT_RATE" envDefault:"0.05"`
	MaxCommissionDepth int             `env:"REFERRAL_MAX_DEPTH" envDefault:"2"`
	PayInactiveUplines bool            `env:"REFERRAL_PAY_INACTIVE" envDefault:"true"`

	MaxClicksPerDay        int             `env:"CLICK_MAX_PER_DAY" envDefault:"20"`
	PerClickReward         decimal.Decimal `env:"CLICK_REWARD" envDefault:"50"`
	DailyClickRewardBudget decimal.Decimal `env:"CLICK_DAILY_BUDGET" envDefault:"500"`
	ActivationThreshold    decimal.Decimal `env:"CLICK_ACTIVATION_THRESHOLD" envDefault:"10000"`

	MinimumWithdrawal decimal.Decimal `env:"MINIMUM_WITHDRAWAL" envDefault:"50000"`

	// Catalog is the fixed package tier table; not env-configurable.
	Catalog []models.PackageTier `env:"-"`
	// Location is resolved from TimeZone.
	Location *time.Location `env:"-"`
}

// Load parses the environment into a Config and resolves derived fields.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
	}
	cfg.Location = loc
	cfg.Catalog = models.DefaultCatalog()
	return cfg, nil
}
