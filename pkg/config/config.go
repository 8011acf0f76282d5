package config

import (
	"os"
	"strconv"
	"strings"

	"outagewatch/pkg/notifier"
)

// Config is the root configuration document.
type Config struct {
	App      *AppConfig               `json:"app" yaml:"app"`
	Browser  *BrowserConfig           `json:"browser" yaml:"browser"`
	Target   *TargetConfig            `json:"target" yaml:"target"`
	Address  *AddressConfig           `json:"address" yaml:"address"`
	Poll     *PollConfig              `json:"poll" yaml:"poll"`
	Database *DatabaseConfig          `json:"database" yaml:"database"`
	Server   *ServerConfig            `json:"server" yaml:"server"`
	Telegram *notifier.TelegramConfig `json:"telegram" yaml:"telegram"`
	Metrics  *MetricsConfig           `json:"metrics" yaml:"metrics"`
}

// getDefaultConfig returns a config with every section at its defaults.
func getDefaultConfig() *Config {
	return &Config{
		App:      NewAppConfig(),
		Browser:  NewBrowserConfig(),
		Target:   NewTargetConfig(),
		Address:  NewAddressConfig(),
		Poll:     NewPollConfig(),
		Database: NewDatabaseConfig(),
		Server:   NewServerConfig(),
		Telegram: NewTelegramConfig(),
		Metrics:  NewMetricsConfig(),
	}
}

// fillDefaults replaces sections the file omitted.
func (c *Config) fillDefaults() {
	def := getDefaultConfig()
	if c.App == nil {
		c.App = def.App
	}
	if c.Browser == nil {
		c.Browser = def.Browser
	}
	if c.Target == nil {
		c.Target = def.Target
	}
	if c.Address == nil {
		c.Address = def.Address
	}
	if c.Poll == nil {
		c.Poll = def.Poll
	}
	if c.Database == nil {
		c.Database = def.Database
	}
	if c.Server == nil {
		c.Server = def.Server
	}
	if c.Telegram == nil {
		c.Telegram = def.Telegram
	}
	if c.Metrics == nil {
		c.Metrics = def.Metrics
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
