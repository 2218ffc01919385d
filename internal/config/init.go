package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type rateLimitFile struct {
	MaxRetries int    `yaml:"max_retries"`
	MaxWait    string `yaml:"max_wait"`
}

// configFile is the layout written to config.yaml by WriteDefault.
type configFile struct {
	CredentialsFile   string        `yaml:"credentials_file"`
	Snapshot          string        `yaml:"snapshot"`
	BaseURL           string        `yaml:"base_url"`
	PageSize          int           `yaml:"page_size"`
	RateLimit         rateLimitFile `yaml:"rate_limit"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	HTTPTimeout       string        `yaml:"http_timeout"`
	LogLevel          string        `yaml:"log_level"`
	SyncState         bool          `yaml:"sync_state"`
}

// WriteDefault writes cfg to <ConfigDir>/config.yaml unless the file already
// exists. It reports whether a file was written.
func WriteDefault(cfg *Config) (string, bool, error) {
	if err := ensureConfigDir(cfg.ConfigDir); err != nil {
		return "", false, fmt.Errorf("ensure config dir: %w", err)
	}
	path := filepath.Join(cfg.ConfigDir, ConfigFileExt)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return path, false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&configFile{
		CredentialsFile: cfg.CredentialsFile,
		Snapshot:        cfg.Snapshot,
		BaseURL:         cfg.BaseURL,
		PageSize:        cfg.PageSize,
		RateLimit: rateLimitFile{
			MaxRetries: cfg.RateLimit.MaxRetries,
			MaxWait:    cfg.RateLimit.MaxWait.String(),
		},
		RequestsPerSecond: cfg.RequestsPerSecond,
		HTTPTimeout:       cfg.HTTPTimeout.String(),
		LogLevel:          cfg.LogLevel,
		SyncState:         cfg.SyncState,
	})
	if err != nil {
		return path, false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return path, false, fmt.Errorf("write config: %w", err)
	}
	return path, true, nil
}
