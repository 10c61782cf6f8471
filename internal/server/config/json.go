package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/tgledger/internal/flagx"
	"github.com/dmitrijs2005/tgledger/internal/timex"
	"github.com/shopspring/decimal"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "24h" and integer nanoseconds are accepted.
// Absent keys keep whatever value Config already holds.
type JsonConfig struct {
	HTTPAddress          string           `json:"http_address"`
	BotToken             string           `json:"bot_token"`
	TokenSecret          string           `json:"token_secret"`
	TokenValidity        timex.Duration   `json:"token_validity"`
	PurgeInterval        timex.Duration   `json:"token_purge_interval"`
	AdminIDs             []int64          `json:"admin_ids"`
	ProfileDSN           string           `json:"profile_dsn"`
	DataDir              string           `json:"data_dir"`
	PremiumDBPath        string           `json:"premium_db_path"`
	AdminDSN             string           `json:"admin_dsn"`
	S3AccessKey          string           `json:"s3_access_key"`
	S3SecretKey          string           `json:"s3_secret_key"`
	S3Bucket             string           `json:"s3_bucket"`
	S3Region             string           `json:"s3_region"`
	S3BaseEndpoint       string           `json:"s3_base_endpoint"`
	HighExpenseThreshold *decimal.Decimal `json:"high_expense_threshold"`
	LogLevel             string           `json:"log_level"`
}

// parseJson loads the file named by -c / -config into config. Without the
// flag nothing is loaded.
func parseJson(config *Config) error {

	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	setString(&config.HTTPAddress, c.HTTPAddress)
	setString(&config.BotToken, c.BotToken)
	setString(&config.TokenSecret, c.TokenSecret)
	setString(&config.ProfileDSN, c.ProfileDSN)
	setString(&config.DataDir, c.DataDir)
	setString(&config.PremiumDBPath, c.PremiumDBPath)
	setString(&config.AdminDSN, c.AdminDSN)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.TokenValidity.Duration != 0 {
		config.TokenValidity = c.TokenValidity.Duration
	}
	if c.PurgeInterval.Duration != 0 {
		config.PurgeInterval = c.PurgeInterval.Duration
	}
	if c.AdminIDs != nil {
		config.AdminIDs = c.AdminIDs
	}
	if c.HighExpenseThreshold != nil {
		config.HighExpenseThreshold = *c.HighExpenseThreshold
	}
	if c.LogLevel != "" {
		if err := config.LogLevel.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
		}
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
