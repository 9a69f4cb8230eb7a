package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/logiq/internal/model"
	"github.com/tinytelemetry/logiq/internal/observability"
)

// cliConfig holds only TUI-relevant configuration.
type cliConfig struct {
	BaseDir      string        `mapstructure:"base-dir"`
	QueryTimeout time.Duration `mapstructure:"query-timeout"`
	QuickLimit   int           `mapstructure:"quick-limit"`
	DefaultStart string        `mapstructure:"default-start"`
	DefaultEnd   string        `mapstructure:"default-end"`
	ExportPath   string        `mapstructure:"export-path"`
	LogLevel     string        `mapstructure:"log-level"`

	StartDate time.Time `mapstructure:"-"`
	EndDate   time.Time `mapstructure:"-"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("LOGIQ")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("base-dir", model.DefaultBaseDir)
	v.SetDefault("query-timeout", time.Duration(0))
	v.SetDefault("quick-limit", model.DefaultQuickLimit)
	v.SetDefault("default-start", model.DefaultStartDate.Format(model.DateLayout))
	v.SetDefault("default-end", model.DefaultEndDate.Format(model.DateLayout))
	v.SetDefault("export-path", model.DefaultExportName)
	v.SetDefault("log-level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "logiq", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	if cfg.QuickLimit <= 0 {
		return cfg, fmt.Errorf("invalid quick-limit: %d", cfg.QuickLimit)
	}
	if cfg.QueryTimeout < 0 {
		return cfg, fmt.Errorf("invalid query-timeout: %s", cfg.QueryTimeout)
	}
	if strings.TrimSpace(cfg.ExportPath) == "" {
		return cfg, errors.New("invalid export-path: must not be empty")
	}
	if _, err := observability.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, err
	}
	if cfg.StartDate, err = time.Parse(model.DateLayout, cfg.DefaultStart); err != nil {
		return cfg, fmt.Errorf("invalid default-start %q: want YYYY-MM-DD", cfg.DefaultStart)
	}
	if cfg.EndDate, err = time.Parse(model.DateLayout, cfg.DefaultEnd); err != nil {
		return cfg, fmt.Errorf("invalid default-end %q: want YYYY-MM-DD", cfg.DefaultEnd)
	}

	for _, p := range []*string{&cfg.BaseDir, &cfg.ExportPath} {
		if strings.HasPrefix(*p, "~/") {
			*p = filepath.Join(home, (*p)[2:])
		}
	}

	return cfg, nil
}
