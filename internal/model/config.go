package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Identity is the user identity forwarded to the remote mission service.
// Email is the remote partition key; Name is display-only.
type Identity struct {
	Email string `mapstructure:"email" yaml:"email"`
	Name  string `mapstructure:"name" yaml:"name"`
}

// RemoteConfig holds settings for the remote mission service.
type RemoteConfig struct {
	// BaseURL is the root URL of the mission service.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Enabled controls whether sync is attempted at all. When false the
	// session runs fully local.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// TimeoutSec bounds each individual request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// NotifyConfig holds reminder scheduling preferences.
type NotifyConfig struct {
	// Enabled mirrors the platform notification permission; when false
	// no timers are armed.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// LeadTimeMin is how many minutes before a deadline the reminder
	// fires.
	LeadTimeMin int `mapstructure:"lead_time_min" yaml:"lead_time_min"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Identity Identity     `mapstructure:"identity" yaml:"identity"`
	Remote   RemoteConfig `mapstructure:"remote" yaml:"remote"`
	Notify   NotifyConfig `mapstructure:"notify" yaml:"notify"`

	// DatabasePath locates the local SQLite snapshot cache.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	// SeedDemo seeds placeholder tasks into an empty session so the
	// scene is never blank before hydration.
	SeedDemo bool `mapstructure:"seed_demo" yaml:"seed_demo"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/orbit-planner/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "orbit-planner", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	home, _ := os.UserHomeDir()
	return &AppConfig{
		Remote: RemoteConfig{
			Enabled:    true,
			TimeoutSec: 30,
		},
		Notify: NotifyConfig{
			Enabled:     true,
			LeadTimeMin: 15,
		},
		DatabasePath: filepath.Join(home, ".config", "orbit-planner", "orbit.db"),
		SeedDemo:     true,
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	def := defaultAppConfig()
	v.SetDefault("remote.enabled", def.Remote.Enabled)
	v.SetDefault("remote.timeout_sec", def.Remote.TimeoutSec)
	v.SetDefault("notify.enabled", def.Notify.Enabled)
	v.SetDefault("notify.lead_time_min", def.Notify.LeadTimeMin)
	v.SetDefault("database_path", def.DatabasePath)
	v.SetDefault("seed_demo", def.SeedDemo)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("identity", cfg.Identity)
	v.Set("remote", cfg.Remote)
	v.Set("notify", cfg.Notify)
	v.Set("database_path", cfg.DatabasePath)
	v.Set("seed_demo", cfg.SeedDemo)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
