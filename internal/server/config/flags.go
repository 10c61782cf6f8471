package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/tgledger/internal/flagx"
)

var knownFlags = []string{
	"-a", "-b", "-s", "-t", "-i", "-admins",
	"-d", "-data", "-premium-db", "-admin-dsn",
	"-u", "-p", "-k", "-g", "-e",
	"-x", "-l",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string      HTTP bind address (e.g., ":8080")
//	-b string      bot token the identity assertions are signed with
//	-s string      token signing secret
//	-t duration    token validity (e.g., "24h")
//	-i duration    expired token purge interval
//	-admins list   comma-separated admin identity ids
//	-d string      PostgreSQL DSN for profiles and tokens
//	-data string   data directory
//	-premium-db    SQLite file for the Premium tier
//	-admin-dsn     PostgreSQL DSN for the Admin tier
//	-u, -p         S3 access key and secret
//	-k string      S3 bucket
//	-g string      S3 region
//	-e string      S3 base endpoint
//	-x decimal     high expense alert threshold
//	-l level       log level (debug, info, warn, error)
//
// os.Args is filtered with flagx.FilterArgs first so -c / -config and
// unknown flags never reach the parser.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddress, "a", config.HTTPAddress, "address and port to run server")
	fs.StringVar(&config.BotToken, "b", config.BotToken, "bot token")
	fs.StringVar(&config.TokenSecret, "s", config.TokenSecret, "token signing secret")
	fs.DurationVar(&config.TokenValidity, "t", config.TokenValidity, "token validity")
	fs.DurationVar(&config.PurgeInterval, "i", config.PurgeInterval, "expired token purge interval")
	fs.Func("admins", "comma-separated admin ids", func(s string) error {
		ids, err := parseIDs(s)
		if err != nil {
			return err
		}
		config.AdminIDs = ids
		return nil
	})

	fs.StringVar(&config.ProfileDSN, "d", config.ProfileDSN, "profile database DSN")
	fs.StringVar(&config.DataDir, "data", config.DataDir, "data directory")
	fs.StringVar(&config.PremiumDBPath, "premium-db", config.PremiumDBPath, "premium tier SQLite file")
	fs.StringVar(&config.AdminDSN, "admin-dsn", config.AdminDSN, "admin tier database DSN")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "k", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.TextVar(&config.HighExpenseThreshold, "x", config.HighExpenseThreshold, "high expense alert threshold")
	fs.TextVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad admin id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
