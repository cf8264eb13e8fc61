package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

const (
	defaultPort          = 3318
	defaultDatabaseType  = "sqlite"
	defaultBaseURL       = "https://rollcall.example"
	defaultUploadDir     = "uploads"
	defaultMaxUpload     = "5MiB"
	defaultLookupTimeout = 5 * time.Second
	defaultLogLevel      = "info"
	defaultLogFormat     = "auto"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	AdminKeySalt     string
	ElectionSlugSalt string
	RollAdminKey     string

	BaseURL        string
	UploadDir      string
	MaxUploadBytes int64
	LookupTimeout  time.Duration

	LogLevel  string
	LogFormat string
}

// ParseFlags reads flags, then an optional .env file, then the environment.
// Flags win over the environment; the .env file never overrides variables
// that are already set.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile, maxUpload, lookupTimeout string

	flags := flag.NewFlagSet("rollcall", flag.ContinueOnError)

	flags.StringVar(&envFile, "env-file", ".env", "Optional dotenv file")

	// Network config (can be CLI args or env)
	flags.IntVar(&cfg.Port, "p", 0, "Server port")
	flags.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	flags.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	flags.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	flags.StringVar(&cfg.ElectionSlugSalt, "slug-salt", "", "Election slug salt (prefer env)")
	flags.StringVar(&cfg.RollAdminKey, "roll-key", "", "Roll administrator key (prefer env)")

	flags.StringVar(&cfg.BaseURL, "base-url", "", "Public base URL for share links")
	flags.StringVar(&cfg.UploadDir, "upload-dir", "", "Directory for uploaded documents")
	flags.StringVar(&maxUpload, "max-upload", "", "Maximum upload size, e.g. 5MiB")
	flags.StringVar(&lookupTimeout, "lookup-timeout", "", "Roll lookup timeout, e.g. 5s")
	flags.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFormat, "log-format", "", "Log format (auto, text, json)")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = defaultPort
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	cfg.DatabaseType = firstNonEmpty(cfg.DatabaseType, os.Getenv("DATABASE_TYPE"), defaultDatabaseType)
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("DATABASE_TYPE must be sqlite or postgres, got %q", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	cfg.AdminKeySalt = firstNonEmpty(cfg.AdminKeySalt, os.Getenv("ADMIN_KEY_SALT"))
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}
	cfg.ElectionSlugSalt = firstNonEmpty(cfg.ElectionSlugSalt, os.Getenv("ELECTION_SLUG_SALT"))
	if cfg.ElectionSlugSalt == "" {
		return Config{}, errors.New("ELECTION_SLUG_SALT required")
	}
	cfg.RollAdminKey = firstNonEmpty(cfg.RollAdminKey, os.Getenv("ROLL_ADMIN_KEY"))
	if cfg.RollAdminKey == "" {
		return Config{}, errors.New("ROLL_ADMIN_KEY required")
	}

	cfg.BaseURL = firstNonEmpty(cfg.BaseURL, os.Getenv("BASE_URL"), defaultBaseURL)
	cfg.UploadDir = firstNonEmpty(cfg.UploadDir, os.Getenv("UPLOAD_DIR"), defaultUploadDir)
	cfg.LogLevel = firstNonEmpty(cfg.LogLevel, os.Getenv("LOG_LEVEL"), defaultLogLevel)
	cfg.LogFormat = firstNonEmpty(cfg.LogFormat, os.Getenv("LOG_FORMAT"), defaultLogFormat)

	size, err := humanize.ParseBytes(firstNonEmpty(maxUpload, os.Getenv("MAX_UPLOAD_BYTES"), defaultMaxUpload))
	if err != nil {
		return Config{}, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %w", err)
	}
	cfg.MaxUploadBytes = int64(size)

	cfg.LookupTimeout = defaultLookupTimeout
	if v := firstNonEmpty(lookupTimeout, os.Getenv("LOOKUP_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOOKUP_TIMEOUT: %w", err)
		}
		cfg.LookupTimeout = d
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
