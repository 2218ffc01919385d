// Package config resolves notecheck settings from config.yaml, NOTECHECK_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	ConfigFileExt  = "config.yaml"

	envPrefix = "NOTECHECK"

	KeyCredentialsFile   = "credentials_file"
	KeySnapshot          = "snapshot"
	KeyBaseURL           = "base_url"
	KeyPageSize          = "page_size"
	KeyRateLimitRetries  = "rate_limit.max_retries"
	KeyRateLimitMaxWait  = "rate_limit.max_wait"
	KeyRequestsPerSecond = "requests_per_second"
	KeyHTTPTimeout       = "http_timeout"
	KeyLogLevel          = "log_level"
	KeySyncState         = "sync_state"

	defaultBaseURL      = "https://api.notes.example.com"
	defaultPageSize     = 250
	defaultMaxRetries   = 1
	defaultLogLevel     = "info"
	snapshotFileName    = "notes-snapshot.json"
	credentialsFileName = "credentials"
)

type RateLimit struct {
	MaxRetries int
	MaxWait    time.Duration
}

type Config struct {
	ConfigDir         string
	CredentialsFile   string
	Snapshot          string
	BaseURL           string
	PageSize          int
	RateLimit         RateLimit
	RequestsPerSecond float64
	HTTPTimeout       time.Duration
	LogLevel          string
	// SyncState logs the account's sync state before listing notes.
	SyncState         bool
}

// Load reads config.yaml from configDir (resolved through ResolveConfigDir
// when empty). A missing file is not an error; every key then takes its
// default or NOTECHECK_* environment value.
func Load(configDir string) (*Config, error) {
	dir, err := ResolveConfigDir(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	dataDir, err := ResolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	v := newViper(dir, dataDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		ConfigDir:       dir,
		CredentialsFile: expandPath(v.GetString(KeyCredentialsFile)),
		Snapshot:        strings.TrimSpace(v.GetString(KeySnapshot)),
		BaseURL:         strings.TrimSpace(v.GetString(KeyBaseURL)),
		PageSize:        v.GetInt(KeyPageSize),
		RateLimit: RateLimit{
			MaxRetries: v.GetInt(KeyRateLimitRetries),
			MaxWait:    v.GetDuration(KeyRateLimitMaxWait),
		},
		RequestsPerSecond: v.GetFloat64(KeyRequestsPerSecond),
		HTTPTimeout:       v.GetDuration(KeyHTTPTimeout),
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		SyncState:         v.GetBool(KeySyncState),
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %d", KeyPageSize, cfg.PageSize)
	}
	if cfg.RateLimit.MaxRetries < 1 {
		return nil, fmt.Errorf("%s must be at least 1, got %d", KeyRateLimitRetries, cfg.RateLimit.MaxRetries)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper(configDir, dataDir string) *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyCredentialsFile, filepath.Join(configDir, credentialsFileName))
	v.SetDefault(KeySnapshot, filepath.Join(dataDir, snapshotFileName))
	v.SetDefault(KeyBaseURL, defaultBaseURL)
	v.SetDefault(KeyPageSize, defaultPageSize)
	v.SetDefault(KeyRateLimitRetries, defaultMaxRetries)
	v.SetDefault(KeyRateLimitMaxWait, time.Duration(0))
	v.SetDefault(KeyRequestsPerSecond, 0.0)
	v.SetDefault(KeyHTTPTimeout, time.Duration(0))
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeySyncState, false)

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ParseLevel maps a log_level value onto a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown %s %q", KeyLogLevel, level)
	}
}

func expandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := platformDir.homeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}
