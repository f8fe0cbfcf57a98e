package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{Dir: "/var/lib/homelib"},
		Store:  StoreConfig{Backend: BackendBadger},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

// noEnvFile points Load at a file that does not exist.
func noEnvFile(t *testing.T) Flags {
	return Flags{EnvFile: filepath.Join(t.TempDir(), "missing.env"), DataDir: t.TempDir()}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"production", true},
		{"test", true},
		{"staging", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true}, // case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_Store(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StoreConfig)
		valid  bool
	}{
		{"badger", func(s *StoreConfig) { s.Backend = BackendBadger }, true},
		{"sqlite", func(s *StoreConfig) { s.Backend = BackendSQLite }, true},
		{"postgres without dsn", func(s *StoreConfig) { s.Backend = BackendPostgres }, false},
		{"postgres", func(s *StoreConfig) {
			s.Backend = BackendPostgres
			s.PostgresDSN = "postgres://localhost/homelib"
		}, true},
		{"redis without addr", func(s *StoreConfig) { s.Backend = BackendRedis }, false},
		{"unknown", func(s *StoreConfig) { s.Backend = "mongo" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg.Store)
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_S3CredentialsTogether(t *testing.T) {
	cfg := validConfig()
	cfg.Backup.S3AccessKey = "AKIA"

	assert.Error(t, cfg.Validate())

	cfg.Backup.S3SecretKey = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	flags := noEnvFile(t)

	cfg, err := Load(flags)

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(flags.DataDir, "catalog"), cfg.Store.Path)
	assert.Equal(t, filepath.Join(flags.DataDir, "backups"), cfg.Backup.Dir)
	assert.Equal(t, filepath.Join(flags.DataDir, "quarantine"), cfg.Store.QuarantineDir)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Empty(t, cfg.Inbox.Dir)
}

func TestLoad_Precedence(t *testing.T) {
	flags := noEnvFile(t)
	t.Setenv("HOMELIB_LOG_LEVEL", "warn")
	t.Setenv("HOMELIB_STORE", "sqlite")
	t.Setenv("HOMELIB_ADDR", "0.0.0.0:9000")
	t.Setenv("HOMELIB_CORS_ORIGINS", "http://a.test, http://b.test")

	flags.Addr = "127.0.0.1:7000"
	cfg, err := Load(flags)

	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(flags.DataDir, "homelib.db"), cfg.Store.Path)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr, "flags win over the environment")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(`# local overrides
HOMELIB_INBOX_SETTLE_DELAY=5s
HOMELIB_S3_BUCKET="family-backups"
HOMELIB_LOG_LEVEL=debug
`), 0o600))
	t.Setenv("HOMELIB_LOG_LEVEL", "error")
	t.Cleanup(func() {
		os.Unsetenv("HOMELIB_INBOX_SETTLE_DELAY") //nolint:errcheck // Test cleanup
		os.Unsetenv("HOMELIB_S3_BUCKET")          //nolint:errcheck // Test cleanup
	})

	cfg, err := Load(Flags{EnvFile: envFile, DataDir: t.TempDir()})

	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Inbox.SettleDelay)
	assert.Equal(t, "family-backups", cfg.Backup.S3Bucket)
	assert.Equal(t, "error", cfg.Logger.Level, "the environment wins over .env")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("HOMELIB_READ_TIMEOUT", "soon")

	_, err := Load(noEnvFile(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOMELIB_READ_TIMEOUT")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		in, def, want string
	}{
		{"", "/default", "/default"},
		{"~/library", "", filepath.Join(home, "library")},
		{"/abs/path/", "", "/abs/path"},
		{"relative", "", filepath.Join(wd, "relative")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := expandPath(tt.in, tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_KEY", "default-value"))

	t.Setenv("HOMELIB_TEST_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "TEST_KEY", "default-value"))

	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}
