// Package config loads process configuration: flags beat environment beats
// config file beats defaults, via viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is everything the process needs to start. Entity vocabulary
// (statuses, priorities) is not here: that is user data and syncs with it.
type Config struct {
	DataDir        string        `mapstructure:"data_dir"`
	RemoteURL      string        `mapstructure:"remote_url"`
	ListenAddr     string        `mapstructure:"listen_addr"`
	BackupDir      string        `mapstructure:"backup_dir"`
	BackupKeep     int           `mapstructure:"backup_keep"`
	BackupInterval time.Duration `mapstructure:"backup_interval"`

	// Theme selects the markdown rendering style. Empty means the theme
	// last stored in the local database, falling back to "dark".
	Theme string `mapstructure:"theme"`
}

// DatabasePath is the local sqlite file inside the data dir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "daygrid.db")
}

// SyncEnabled reports whether a remote store is configured.
func (c Config) SyncEnabled() bool {
	return c.RemoteURL != ""
}

// Load reads the config file (explicit path, or config.yaml under the data
// dir), applies DAYGRID_* environment overrides, and fills defaults. A
// missing file is fine; a malformed one is an error.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("remote_url", "")
	v.SetDefault("listen_addr", ":8787")
	v.SetDefault("backup_dir", "")
	v.SetDefault("backup_keep", 10)
	v.SetDefault("backup_interval", 15*time.Minute)
	v.SetDefault("theme", "")

	v.SetEnvPrefix("DAYGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("data_dir"))
	}

	if err := v.ReadInConfig(); err != nil {
		// A data dir without a config file is the common case; an explicit
		// --config path that cannot be read is not.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = filepath.Join(cfg.DataDir, "backups")
	}
	if cfg.BackupInterval <= 0 {
		return Config{}, fmt.Errorf("config: backup_interval must be positive, got %s", cfg.BackupInterval)
	}
	if cfg.BackupKeep < 0 {
		return Config{}, fmt.Errorf("config: backup_keep must not be negative, got %d", cfg.BackupKeep)
	}
	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".daygrid"
	}
	return filepath.Join(home, ".daygrid")
}
