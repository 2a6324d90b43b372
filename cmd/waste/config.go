package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/mmcdole/waste/pkg/logging"
)

// Config holds the waste configuration
type Config struct {
	// Storage
	PlayersDir  string `mapstructure:"players_dir"`  // Directory holding one JSON file per player
	CatalogPath string `mapstructure:"catalog_path"` // Optional: catalog YAML, the built-in catalog when empty

	// Logging settings
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`     // console or json
	LogPath      string `mapstructure:"log_path"`       // Optional: application log file, stderr when empty
	AuditLogPath string `mapstructure:"audit_log_path"` // Optional: record of every save and delete
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("players_dir", "players")
	v.SetDefault("catalog_path", "")
	v.SetDefault("log_level", string(logging.LogLevelWarn))
	v.SetDefault("log_format", logging.FormatConsole)
	v.SetDefault("log_path", "")
	v.SetDefault("audit_log_path", "")
}

// LoadConfig reads the optional config file at path, applies WASTE_*
// environment overrides and validates the result. Relative paths are
// resolved against the config file directory.
func LoadConfig(fs afero.Fs, v *viper.Viper, path string) (Config, error) {
	v.SetFs(fs)
	v.SetEnvPrefix("WASTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	baseDir := ""
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to get absolute path: %w", err)
		}
		v.SetConfigFile(abs)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		baseDir = filepath.Dir(abs)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if baseDir != "" {
		cfg.PlayersDir = resolve(baseDir, cfg.PlayersDir)
		cfg.CatalogPath = resolve(baseDir, cfg.CatalogPath)
		cfg.LogPath = resolve(baseDir, cfg.LogPath)
		cfg.AuditLogPath = resolve(baseDir, cfg.AuditLogPath)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// resolve makes a relative path absolute against dir, leaving empty
// paths empty
func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Validate checks the configuration values
func (c Config) Validate() error {
	var errs []string
	if c.PlayersDir == "" {
		errs = append(errs, "players_dir is required")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		errs = append(errs, fmt.Sprintf("log_level must be one of [debug, info, warn, error], got %q", c.LogLevel))
	}
	validFormats := map[string]bool{logging.FormatJSON: true, logging.FormatConsole: true}
	if !validFormats[c.LogFormat] {
		errs = append(errs, fmt.Sprintf("log_format must be one of [json, console], got %q", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// loggingConfig converts the log settings for logging.Initialize
func (c Config) loggingConfig() logging.Config {
	return logging.Config{
		Level:        logging.LogLevel(c.LogLevel),
		Format:       c.LogFormat,
		AppLogPath:   c.LogPath,
		AuditLogPath: c.AuditLogPath,
	}
}
