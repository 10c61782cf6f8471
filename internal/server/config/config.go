// Package config handles configuration for the ledger server, layered as
// defaults, JSON file, environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/shopspring/decimal"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "LEDGER_"

// Config holds runtime settings for the ledger server.
//
// Fields:
//   - HTTPAddress: bind address for the JSON API.
//   - BotToken: shared secret the identity assertions are signed with.
//   - TokenSecret: HMAC key for the bearer token envelope (HS256).
//   - ProfileDSN: PostgreSQL DSN for profiles and tokens; empty keeps them in memory.
//   - DataDir: root for the file backend and the default SQLite files.
//   - PremiumDBPath: SQLite file for the Premium tier; empty means DataDir/premium.db.
//   - AdminDSN: PostgreSQL DSN for the Admin tier; empty falls back to SQLite at DataDir/admin.db.
//   - S3*: snapshot replica for the Admin tier; replication is off while S3Bucket is empty.
type Config struct {
	HTTPAddress   string        `env:"HTTP_ADDRESS"`
	BotToken      string        `env:"BOT_TOKEN"`
	TokenSecret   string        `env:"TOKEN_SECRET"`
	TokenValidity time.Duration `env:"TOKEN_VALIDITY"`
	PurgeInterval time.Duration `env:"TOKEN_PURGE_INTERVAL"`
	AdminIDs      []int64       `env:"ADMIN_IDS" envSeparator:","`

	ProfileDSN    string `env:"PROFILE_DSN"`
	DataDir       string `env:"DATA_DIR"`
	PremiumDBPath string `env:"PREMIUM_DB_PATH"`
	AdminDSN      string `env:"ADMIN_DSN"`

	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION"`
	S3BaseEndpoint string `env:"S3_BASE_ENDPOINT"`

	HighExpenseThreshold decimal.Decimal `env:"HIGH_EXPENSE_THRESHOLD"`
	LogLevel             slog.Level      `env:"LOG_LEVEL"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: TokenSecret must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddress = ":8080"
	c.TokenSecret = "secretKey"
	c.TokenValidity = common.DefaultTokenValidity
	c.PurgeInterval = 10 * time.Minute
	c.DataDir = "data"
	c.S3Region = "us-east-1"
	c.HighExpenseThreshold = decimal.NewFromInt(1000)
	c.LogLevel = slog.LevelInfo
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("bot token is required"))
	}
	if c.TokenSecret == "" {
		errs = append(errs, errors.New("token secret is required"))
	}
	if c.TokenValidity <= 0 {
		errs = append(errs, fmt.Errorf("token validity must be positive, got %s", c.TokenValidity))
	}
	if c.HighExpenseThreshold.IsNegative() {
		errs = append(errs, errors.New("high expense threshold cannot be negative"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
