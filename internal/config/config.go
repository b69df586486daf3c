// Package config provides configuration management for the trading
// application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"krx-trader/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Mode      string          `mapstructure:"mode"` // "live", "paper"
	Logging   LoggingConfig   `mapstructure:"logging"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Strategy  strategy.Config `mapstructure:"strategy"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// BrokerConfig holds brokerage REST API configuration.
type BrokerConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	AppKey    string        `mapstructure:"app_key"`
	AppSecret string        `mapstructure:"app_secret"`
	AccountNo string        `mapstructure:"account_no"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// StreamConfig holds streaming session configuration.
type StreamConfig struct {
	Endpoint             string        `mapstructure:"endpoint"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts"`
	ReconnectDelay       time.Duration `mapstructure:"reconnect_delay"`
}

// EngineConfig holds trading orchestrator configuration.
type EngineConfig struct {
	Market                  string        `mapstructure:"market"`
	AllocationPerInstrument float64       `mapstructure:"allocation_per_instrument"`
	MaxConcurrentPositions  int           `mapstructure:"max_concurrent_positions"`
	BuyInterval             time.Duration `mapstructure:"buy_interval"`
	SellInterval            time.Duration `mapstructure:"sell_interval"`
}

// SchedulerConfig holds the market-hours scheduler configuration.
// Start and Stop are cron specs evaluated in local time.
type SchedulerConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	StartSpec string `mapstructure:"start_spec"`
	StopSpec  string `mapstructure:"stop_spec"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/krx-trader"
	}
	return filepath.Join(home, ".config", "krx-trader")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "paper")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("broker.timeout", 10*time.Second)
	v.SetDefault("stream.max_reconnect_attempts", 5)
	v.SetDefault("stream.reconnect_delay", 3*time.Second)
	v.SetDefault("engine.market", "KOSPI")
	v.SetDefault("engine.allocation_per_instrument", 1_000_000)
	v.SetDefault("engine.max_concurrent_positions", 5)
	v.SetDefault("engine.buy_interval", 3*time.Second)
	v.SetDefault("engine.sell_interval", 2*time.Second)
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.start_spec", "0 9 * * MON-FRI")
	v.SetDefault("scheduler.stop_spec", "30 15 * * MON-FRI")
}

// Load loads configuration from the specified directory, falling back
// to defaults when no config file exists.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("KRX_TRADER")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{Strategy: *strategy.DefaultConfig()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// SaveStrategy persists the strategy configuration to the config file
// in dir, creating the directory when needed.
func SaveStrategy(dir string, cfg *strategy.Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "strategy.yaml"))
	v.Set("strategy", cfg)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("writing strategy config: %w", err)
	}
	return nil
}
