package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/logiq/internal/model"
	"github.com/tinytelemetry/logiq/internal/observability"
)

const (
	defaultBindHost     = "127.0.0.1"
	defaultAPIPort      = 8501
	defaultQueryTimeout = time.Duration(0) // no limit
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	BaseDir        string        `mapstructure:"base-dir"`
	APIPort        int           `mapstructure:"api-port"`
	APIAddr        string        `mapstructure:"api-addr"`
	QueryTimeout   time.Duration `mapstructure:"query-timeout"`
	QuickLimit     int           `mapstructure:"quick-limit"`
	DefaultStart   string        `mapstructure:"default-start"`
	DefaultEnd     string        `mapstructure:"default-end"`
	LogLevel       string        `mapstructure:"log-level"`
	LogJSON        bool          `mapstructure:"log-json"`
	MetricsEnabled bool          `mapstructure:"metrics-enabled"`
	ConfigPath     string        `mapstructure:"-"` // not from config file

	StartDate time.Time `mapstructure:"-"`
	EndDate   time.Time `mapstructure:"-"`
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("LOGIQ")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("base-dir", model.DefaultBaseDir)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("api-addr", "")
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("quick-limit", model.DefaultQuickLimit)
	v.SetDefault("default-start", model.DefaultStartDate.Format(model.DateLayout))
	v.SetDefault("default-end", model.DefaultEndDate.Format(model.DateLayout))
	v.SetDefault("log-level", "info")
	v.SetDefault("log-json", false)
	v.SetDefault("metrics-enabled", true)

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
	cfg.ConfigPath = v.ConfigFileUsed()
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		cfg.ConfigPath = ""
	}

	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.QuickLimit <= 0 {
		return cfg, fmt.Errorf("invalid quick-limit: %d", cfg.QuickLimit)
	}
	if cfg.QueryTimeout < 0 {
		return cfg, fmt.Errorf("invalid query-timeout: %s", cfg.QueryTimeout)
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

	// Expand ~ in base-dir
	if strings.HasPrefix(cfg.BaseDir, "~/") {
		cfg.BaseDir = filepath.Join(home, cfg.BaseDir[2:])
	}

	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}
