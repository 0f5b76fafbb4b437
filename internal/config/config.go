// Package config collects runtime settings from flags, environment variables
// and an optional .env file, in increasing order of precedence: .env, then
// environment, then flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	str2duration "github.com/xhit/go-str2duration/v2"

	"promanage/internal/blob"
	"promanage/internal/storage/sqlstore"
	"promanage/internal/util"
)

// Config holds runtime settings for the server.
type Config struct {
	Addr        string
	DBDriver    sqlstore.Dialect
	DBDSN       string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
	StaticDir   string
	LogLevel    slog.Level
	Seed        bool
	S3          blob.Config
}

// LoadDotEnv reads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Parse builds a Config from command-line arguments, falling back to
// environment variables for anything not given.
func Parse(args []string) (*Config, error) {
	flags := flag.NewFlagSet("promanage", flag.ContinueOnError)

	addr := flags.String("addr", util.EnvOrDefault("PROMANAGE_ADDR", ":8080"), "HTTP listen address")
	driver := flags.String("db-driver", util.EnvOrDefault("PROMANAGE_DB_DRIVER", string(sqlstore.DialectSQLite)), "Database driver: sqlite3 or pgx")
	dsn := flags.String("db", util.EnvOrDefault("PROMANAGE_DB", "data/promanage.db"), "SQLite file path or PostgreSQL URL")
	secret := flags.String("jwt-secret", util.EnvOrDefault("JWT_SECRET", ""), "Secret used to sign session tokens")
	ttl := flags.String("token-ttl", util.EnvOrDefault("JWT_EXPIRES_IN", "168h"), "Session token lifetime")
	origins := flags.String("cors-origins", util.EnvOrDefault("PROMANAGE_CORS_ORIGINS", "http://localhost:3000"), "Comma separated allowed CORS origins")
	static := flags.String("static", util.EnvOrDefault("PROMANAGE_STATIC_DIR", ""), "Directory with built frontend")
	level := flags.String("log-level", util.EnvOrDefault("PROMANAGE_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	seed := flags.Bool("seed", util.EnvOrDefault("PROMANAGE_SEED", "false") == "true", "Create the default user roster on start")
	s3Endpoint := flags.String("s3-endpoint", util.EnvOrDefault("S3_ENDPOINT", ""), "S3 compatible endpoint, empty for AWS")
	s3Region := flags.String("s3-region", util.EnvOrDefault("S3_REGION", "us-east-1"), "S3 region")
	s3Bucket := flags.String("s3-bucket", util.EnvOrDefault("S3_BUCKET", ""), "Attachment bucket, empty disables attachments")
	s3Access := flags.String("s3-access-key", util.EnvOrDefault("S3_ACCESS_KEY", ""), "S3 access key")
	s3Secret := flags.String("s3-secret-key", util.EnvOrDefault("S3_SECRET_KEY", ""), "S3 secret key")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:        *addr,
		DBDSN:       *dsn,
		JWTSecret:   *secret,
		CORSOrigins: util.SplitList(*origins),
		StaticDir:   *static,
		Seed:        *seed,
		S3: blob.Config{
			Endpoint:  *s3Endpoint,
			Region:    *s3Region,
			Bucket:    *s3Bucket,
			AccessKey: *s3Access,
			SecretKey: *s3Secret,
		},
	}

	var err error
	if cfg.DBDriver, err = sqlstore.ParseDialect(*driver); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = parseTTL(*ttl); err != nil {
		return nil, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(*level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("jwt secret is required (-jwt-secret or JWT_SECRET)")
	}
	return cfg, nil
}

// parseTTL accepts Go durations plus day and week units ("7d", "1w12h").
func parseTTL(raw string) (time.Duration, error) {
	d, err := str2duration.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid token ttl %q", raw)
	}
	return d, nil
}
