// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Portal   PortalConfig   `mapstructure:"portal" yaml:"portal"`
	Capture  CaptureConfig  `mapstructure:"capture" yaml:"capture"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Notify   NotifyConfig   `mapstructure:"notify" yaml:"notify"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
}

// BrowserConfig controls the Chrome allocator and per-action limits.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	DisableGPU        bool          `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// PortalConfig describes the target portal: entry point, settle behavior,
// per-action retry budget, and the declarative screen-to-locator bindings.
// Bindings are data, not logic; the portal can rename its controls without
// touching the orchestration code.
type PortalConfig struct {
	StartURL      string                    `mapstructure:"start_url" yaml:"start_url"`
	SettleDelay   time.Duration             `mapstructure:"settle_delay" yaml:"settle_delay"`
	RetryAttempts int                       `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryBackoff  time.Duration             `mapstructure:"retry_backoff" yaml:"retry_backoff"`
	Screens       map[string]ScreenBindings `mapstructure:"screens" yaml:"screens"`
}

// ScreenBindings maps logical field names of one screen to locators.
type ScreenBindings map[string]FieldBinding

// FieldBinding is a serializable element locator: a resolution strategy
// plus an identifier. It is re-resolved on every use, never cached as a
// live element reference.
type FieldBinding struct {
	By    string `mapstructure:"by" yaml:"by"`
	Value string `mapstructure:"value" yaml:"value"`
}

// CaptureConfig controls the artifact capture pipeline.
type CaptureConfig struct {
	StagingRoot        string        `mapstructure:"staging_root" yaml:"staging_root"`
	DownloadTimeout    time.Duration `mapstructure:"download_timeout" yaml:"download_timeout"`
	PollInterval       time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	RecoveryLogPath    string        `mapstructure:"recovery_log_path" yaml:"recovery_log_path"`
	RecoveryMaxSizeMB  int           `mapstructure:"recovery_max_size_mb" yaml:"recovery_max_size_mb"`
	RecoveryMaxBackups int           `mapstructure:"recovery_max_backups" yaml:"recovery_max_backups"`
}

// StorageConfig controls the object-storage gateway.
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// NotifyConfig controls the CRM notification gateway. An empty endpoint
// disables outbound notifications entirely.
type NotifyConfig struct {
	Endpoint      string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey        string        `mapstructure:"api_key" yaml:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	Burst         int           `mapstructure:"burst" yaml:"burst"`
}

// DatabaseConfig controls the optional Postgres run ledger. An empty URL
// disables it.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// NewDefaultConfig returns a Config populated with production defaults,
// including the default portal screen bindings.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "formpilot",
			MaxSizeMB:   50,
			MaxBackups:  3,
			MaxAgeDays:  14,
		},
		Browser: BrowserConfig{
			Headless:          true,
			ActionTimeout:     30 * time.Second,
			NavigationTimeout: 90 * time.Second,
		},
		Portal: PortalConfig{
			SettleDelay:   1500 * time.Millisecond,
			RetryAttempts: 2,
			RetryBackoff:  200 * time.Millisecond,
			Screens:       DefaultScreenBindings(),
		},
		Capture: CaptureConfig{
			StagingRoot:        "staging",
			DownloadTimeout:    45 * time.Second,
			PollInterval:       250 * time.Millisecond,
			RecoveryLogPath:    "recovery.log",
			RecoveryMaxSizeMB:  200,
			RecoveryMaxBackups: 5,
		},
		Storage: StorageConfig{
			BaseDir: "artifacts",
		},
		Notify: NotifyConfig{
			Timeout:       10 * time.Second,
			RatePerSecond: 2,
			Burst:         4,
		},
	}
}

// Validate checks the configuration for values that would make a run
// impossible or ambiguous.
func (c *Config) Validate() error {
	if c.Portal.StartURL == "" {
		return fmt.Errorf("portal.start_url is required")
	}
	if c.Portal.RetryAttempts < 1 {
		return fmt.Errorf("portal.retry_attempts must be a positive integer")
	}
	if c.Portal.SettleDelay <= 0 {
		return fmt.Errorf("portal.settle_delay must be positive")
	}
	if c.Capture.DownloadTimeout <= 0 {
		return fmt.Errorf("capture.download_timeout must be positive")
	}
	if c.Capture.PollInterval <= 0 {
		return fmt.Errorf("capture.poll_interval must be positive")
	}
	if c.Capture.RecoveryLogPath == "" {
		return fmt.Errorf("capture.recovery_log_path is required")
	}
	if len(c.Portal.Screens) == 0 {
		return fmt.Errorf("portal.screens must define at least one screen binding")
	}
	return nil
}

// Load reads configuration from viper (file + FORMPILOT_ environment
// variables), layered over the defaults.
func Load(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()

	v.SetEnvPrefix("FORMPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
