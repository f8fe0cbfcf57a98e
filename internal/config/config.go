// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the catalog reads.
const EnvPrefix = "HOMELIB_"

// Storage backends.
const (
	BackendBadger   = "badger"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Data        DataConfig
	Store       StoreConfig
	Server      ServerConfig
	AI          AIConfig
	OpenLibrary OpenLibraryConfig
	Backup      BackupConfig
	Inbox       InboxConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	Version     string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // pretty or json; empty picks by environment
}

// DataConfig holds where local files live.
type DataConfig struct {
	Dir string // Default ~/.homelib
}

// StoreConfig selects where the catalog document is kept.
type StoreConfig struct {
	Backend string
	// Path is the badger directory, JSON file or sqlite database.
	// Defaults to a backend-specific location under the data dir.
	Path          string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	QuarantineDir string // Default {data}/quarantine
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr         string        // Listen address (default: 127.0.0.1:8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 2m, cover scans are slow)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed browser origins (default: http://localhost:5173)
	RateLimit    float64       // Requests per second per client; 0 disables
	RateBurst    int
}

// AIConfig holds AI provider credentials. Provider choice lives in the catalog.
type AIConfig struct {
	GeminiAPIKey  string
	GeminiBaseURL string
}

// OpenLibraryConfig holds ISBN lookup configuration.
type OpenLibraryConfig struct {
	BaseURL string
}

// BackupConfig holds backup target configuration.
type BackupConfig struct {
	Dir         string // Local backups (default: {data}/backups)
	S3Bucket    string
	S3Region    string
	S3Prefix    string
	S3Endpoint  string
	S3PathStyle bool
	S3AccessKey string
	S3SecretKey string
}

// InboxConfig holds the CSV drop folder configuration.
type InboxConfig struct {
	Dir         string // Empty disables the inbox
	SettleDelay time.Duration
}

// Flags holds command-line values. Empty strings fall through to the
// environment.
type Flags struct {
	Env       string
	EnvFile   string
	LogLevel  string
	DataDir   string
	Store     string
	StorePath string
	Addr      string
	InboxDir  string
	Version   string // Build version, set by the binary
}

// Load builds the configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(flags Flags) (*Config, error) {
	envFile := flags.EnvFile
	if envFile == "" {
		envFile = getConfigValue("", "ENV_FILE", ".env")
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(flags.Env, "ENV", "development"),
			Version:     flags.Version,
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(flags.LogLevel, "LOG_LEVEL", "info"),
			Format: getConfigValue("", "LOG_FORMAT", ""),
		},
		Data: DataConfig{
			Dir: getConfigValue(flags.DataDir, "DATA_DIR", ""),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(getConfigValue(flags.Store, "STORE", BackendBadger)),
			Path:          getConfigValue(flags.StorePath, "STORE_PATH", ""),
			PostgresDSN:   getConfigValue("", "POSTGRES_DSN", ""),
			RedisAddr:     getConfigValue("", "REDIS_ADDR", "localhost:6379"),
			RedisPassword: getConfigValue("", "REDIS_PASSWORD", ""),
			RedisDB:       getIntConfigValue("", "REDIS_DB", 0),
			QuarantineDir: getConfigValue("", "QUARANTINE_DIR", ""),
		},
		Server: ServerConfig{
			Addr:        getConfigValue(flags.Addr, "ADDR", "127.0.0.1:8080"),
			CORSOrigins: splitList(getConfigValue("", "CORS_ORIGINS", "http://localhost:5173")),
			RateBurst:   getIntConfigValue("", "RATE_BURST", 20),
		},
		AI: AIConfig{
			GeminiAPIKey:  firstNonEmpty(getConfigValue("", "GEMINI_API_KEY", ""), os.Getenv("GEMINI_API_KEY")),
			GeminiBaseURL: getConfigValue("", "GEMINI_BASE_URL", ""),
		},
		OpenLibrary: OpenLibraryConfig{
			BaseURL: getConfigValue("", "OPENLIBRARY_URL", "https://openlibrary.org"),
		},
		Backup: BackupConfig{
			Dir:         getConfigValue("", "BACKUP_DIR", ""),
			S3Bucket:    getConfigValue("", "S3_BUCKET", ""),
			S3Region:    getConfigValue("", "S3_REGION", "us-east-1"),
			S3Prefix:    getConfigValue("", "S3_PREFIX", "backups/"),
			S3Endpoint:  getConfigValue("", "S3_ENDPOINT", ""),
			S3PathStyle: getBoolConfigValue("", "S3_PATH_STYLE", false),
			S3AccessKey: getConfigValue("", "S3_ACCESS_KEY_ID", ""),
			S3SecretKey: getConfigValue("", "S3_SECRET_ACCESS_KEY", ""),
		},
		Inbox: InboxConfig{
			Dir: getConfigValue(flags.InboxDir, "INBOX_DIR", ""),
		},
	}

	rate, err := strconv.ParseFloat(getConfigValue("", "RATE_LIMIT", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit: %w", err)
	}
	cfg.Server.RateLimit = rate

	durations := []struct {
		dst *time.Duration
		key string
		def string
	}{
		{&cfg.Server.ReadTimeout, "READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, "WRITE_TIMEOUT", "2m"},
		{&cfg.Server.IdleTimeout, "IDLE_TIMEOUT", "60s"},
		{&cfg.Inbox.SettleDelay, "INBOX_SETTLE_DELAY", "2s"},
	}
	for _, d := range durations {
		raw := getConfigValue("", d.key, d.def)
		v, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, d.key, raw, err)
		}
		*d.dst = v
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, production, or test)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	if f := c.Logger.Format; f != "" && f != "pretty" && f != "json" {
		return fmt.Errorf("invalid log format: %s (must be pretty or json)", f)
	}

	switch c.Store.Backend {
	case BackendBadger, BackendFile, BackendSQLite, BackendMemory:
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New(EnvPrefix + "POSTGRES_DSN is required for the postgres store")
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return errors.New(EnvPrefix + "REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("invalid store: %s (must be badger, file, sqlite, postgres, redis, or memory)", c.Store.Backend)
	}

	if c.Data.Dir == "" {
		return errors.New("data dir cannot be empty after expansion")
	}
	if c.Server.Addr == "" {
		return errors.New("listen address cannot be empty")
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return errors.New("rate limit and burst cannot be negative")
	}
	if (c.Backup.S3AccessKey == "") != (c.Backup.S3SecretKey == "") {
		return errors.New("S3 access key and secret must be set together")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves the data dir and every path that defaults under it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	if c.Data.Dir, err = expandPath(c.Data.Dir, filepath.Join(homeDir, ".homelib")); err != nil {
		return err
	}

	var storeDefault string
	switch c.Store.Backend {
	case BackendBadger:
		storeDefault = filepath.Join(c.Data.Dir, "catalog")
	case BackendFile:
		storeDefault = filepath.Join(c.Data.Dir, "home_librarian.json")
	case BackendSQLite:
		storeDefault = filepath.Join(c.Data.Dir, "homelib.db")
	}

	paths := []struct {
		dst *string
		def string
	}{
		{&c.Store.Path, storeDefault},
		{&c.Store.QuarantineDir, filepath.Join(c.Data.Dir, "quarantine")},
		{&c.Backup.Dir, filepath.Join(c.Data.Dir, "backups")},
		{&c.Inbox.Dir, ""},
	}
	for _, p := range paths {
		if *p.dst, err = expandPath(*p.dst, p.def); err != nil {
			return err
		}
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
// envKey is given without EnvPrefix.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable (set directly or loaded from .env).
	if envValue := os.Getenv(EnvPrefix + envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
