// Package config loads pipeline settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/atroinina/sales-pipeline/pkg/client"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvAuthToken   = "AUTH_TOKEN"
	EnvBaseDir     = "BASE_DIR"
	EnvSalesAPIURL = "SALES_API_URL"
	EnvSchemaPath  = "SCHEMA_PATH"
	EnvAvroCodec   = "AVRO_CODEC"
	EnvDefaultDate = "SALES_DEFAULT_DATE"
	EnvFetchAddr   = "FETCH_ADDR"
	EnvConvertAddr = "CONVERT_ADDR"
	EnvHTTPTimeout = "HTTP_TIMEOUT"
	EnvRedisURL    = "REDIS_URL"
	EnvRunTTL      = "RUN_TTL"
	EnvLogLevel    = "LOG_LEVEL"
	EnvLogPretty   = "LOG_PRETTY"
)

// Defaults for optional settings.
const (
	DefaultSalesAPIURL = client.DefaultBaseURL
	DefaultSchemaFile  = "sales_schema.avsc"
	DefaultAvroCodec   = "deflate"
	DefaultFetchAddr   = ":8081"
	DefaultConvertAddr = ":8082"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultRunTTL      = 7 * 24 * time.Hour
	DefaultLogLevel    = "info"
)

const dateLayout = "2006-01-02"

var (
	// ErrMissing indicates a required variable is unset or empty.
	ErrMissing = errors.New("required setting is missing")

	// ErrInvalid indicates a variable is set to a value that cannot be used.
	ErrInvalid = errors.New("invalid setting")
)

// Error reports which variable failed to load.
type Error struct {
	Key string
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds every pipeline setting. It is built once at startup and
// passed to the components that need it.
type Config struct {
	// AuthToken is sent verbatim as the Authorization header.
	AuthToken string

	// BaseDir roots the default raw and staging directories.
	BaseDir string

	SalesAPIURL string
	SchemaPath  string
	AvroCodec   string

	// DefaultDate is used when a trigger request omits the date.
	// Empty means today (UTC).
	DefaultDate string

	FetchAddr   string
	ConvertAddr string
	HTTPTimeout time.Duration

	// RedisURL enables the run ledger when set.
	RedisURL string
	RunTTL   time.Duration

	LogLevel  string
	LogPretty bool
}

// Load reads a .env file from the working directory when one exists, then
// builds the configuration from the process environment. Variables already
// set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromLookup(os.Getenv)
}

// FromLookup builds the configuration from getenv.
func FromLookup(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		AuthToken:   strings.TrimSpace(getenv(EnvAuthToken)),
		BaseDir:     strings.TrimSpace(getenv(EnvBaseDir)),
		SalesAPIURL: get(EnvSalesAPIURL, DefaultSalesAPIURL),
		AvroCodec:   strings.ToLower(get(EnvAvroCodec, DefaultAvroCodec)),
		DefaultDate: get(EnvDefaultDate, ""),
		FetchAddr:   get(EnvFetchAddr, DefaultFetchAddr),
		ConvertAddr: get(EnvConvertAddr, DefaultConvertAddr),
		RedisURL:    get(EnvRedisURL, ""),
		LogLevel:    strings.ToLower(get(EnvLogLevel, DefaultLogLevel)),
	}

	if cfg.AuthToken == "" {
		return Config{}, &Error{Key: EnvAuthToken, Err: ErrMissing}
	}
	if cfg.BaseDir == "" {
		return Config{}, &Error{Key: EnvBaseDir, Err: ErrMissing}
	}

	cfg.SchemaPath = get(EnvSchemaPath, filepath.Join(cfg.BaseDir, DefaultSchemaFile))

	switch cfg.AvroCodec {
	case "null", "deflate", "snappy":
	default:
		return Config{}, invalid(EnvAvroCodec, "want null, deflate or snappy, got %q", cfg.AvroCodec)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return Config{}, invalid(EnvLogLevel, "want debug, info, warn or error, got %q", cfg.LogLevel)
	}

	if cfg.DefaultDate != "" {
		if _, err := time.Parse(dateLayout, cfg.DefaultDate); err != nil {
			return Config{}, invalid(EnvDefaultDate, "want YYYY-MM-DD, got %q", cfg.DefaultDate)
		}
	}

	var err error
	if cfg.HTTPTimeout, err = positiveDuration(EnvHTTPTimeout, get(EnvHTTPTimeout, ""), DefaultHTTPTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RunTTL, err = positiveDuration(EnvRunTTL, get(EnvRunTTL, ""), DefaultRunTTL); err != nil {
		return Config{}, err
	}

	if v := get(EnvLogPretty, ""); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, invalid(EnvLogPretty, "want a boolean, got %q", v)
		}
		cfg.LogPretty = pretty
	}

	return cfg, nil
}

// RawDir returns the default raw directory for a sales date.
func (c Config) RawDir(date string) string {
	return filepath.Join(c.BaseDir, "raw", "sales", date)
}

// StagingDir returns the default staging directory for a sales date.
func (c Config) StagingDir(date string) string {
	return filepath.Join(c.BaseDir, "stg", "sales", date)
}

// DateOrDefault returns date, falling back to DefaultDate and then to today
// in UTC.
func (c Config) DateOrDefault(date string) string {
	if date != "" {
		return date
	}
	if c.DefaultDate != "" {
		return c.DefaultDate
	}
	return time.Now().UTC().Format(dateLayout)
}

func positiveDuration(key, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, invalid(key, "want a positive duration, got %q", raw)
	}
	return d, nil
}

func invalid(key, format string, args ...any) error {
	return &Error{Key: key, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)}
}
