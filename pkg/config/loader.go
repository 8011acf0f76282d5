package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the configuration file at configPath. An empty path
// searches the default locations; a missing file yields the defaults.
// Environment variables override file values.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return getDefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigNotFound, err)
	}

	config := &Config{}
	ext := filepath.Ext(configPath)

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: JSON parsing failed: %v", ErrInvalidFormat, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: YAML parsing failed: %v", ErrInvalidFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config file format: %s", ErrInvalidFormat, ext)
	}

	config.fillDefaults()
	mergeEnvVars(config)
	return config, nil
}

// SaveConfig writes the configuration to configPath.
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	ext := filepath.Ext(configPath)
	var data []byte
	var err error

	switch ext {
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		return fmt.Errorf("%w: unsupported config file format: %s", ErrInvalidFormat, ext)
	}

	if err != nil {
		return fmt.Errorf("config serialization failed: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// getDefaultConfigPath checks the working directory, then the user and
// system config directories.
func getDefaultConfigPath() string {
	paths := []string{
		"./config.yaml",
		"./config.json",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".outagewatch", "config.yaml"),
			filepath.Join(homeDir, ".outagewatch", "config.json"),
		)
	}

	paths = append(paths,
		"/etc/outagewatch/config.yaml",
		"/etc/outagewatch/config.json",
	)

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "./config.yaml"
}

// mergeEnvVars applies environment overrides on top of file values.
func mergeEnvVars(config *Config) {
	mergeAppEnvVars(config)
	mergeBrowserEnvVars(config)
	mergeTargetEnvVars(config)
	mergeAddressEnvVars(config)
	mergePollEnvVars(config)
	mergeDatabaseEnvVars(config)
	mergeServerEnvVars(config)
	mergeTelegramEnvVars(config)
}

// applyEnv copies set environment variables into string and int fields.
func applyEnv(mappings map[string]interface{}) {
	for envKey, fieldPtr := range mappings {
		if value := os.Getenv(envKey); value != "" {
			switch ptr := fieldPtr.(type) {
			case *int:
				*ptr = getEnvInt(envKey, *ptr)
			case *float64:
				*ptr = getEnvFloat(envKey, *ptr)
			case *string:
				*ptr = value
			case *bool:
				*ptr = value == "true" || value == "1"
			}
		}
	}
}

func mergeAppEnvVars(config *Config) {
	applyEnv(map[string]interface{}{
		"LOG_LEVEL":       &config.App.LogLevel,
		"LOG_FILE":        &config.App.LogFile,
		"LOG_CALLER":      &config.App.LogCaller,
		"OUTAGEWATCH_ENV": &config.App.Environment,
	})
}

func mergeBrowserEnvVars(config *Config) {
	applyEnv(map[string]interface{}{
		"OUTAGEWATCH_HEADLESS":    &config.Browser.Headless,
		"OUTAGEWATCH_CHROME_PATH": &config.Browser.ChromePath,
		"OUTAGEWATCH_COOKIE_FILE": &config.Browser.CookieFile,
		"OUTAGEWATCH_JITTER":      &config.Browser.Jitter,
	})
}

func mergeTargetEnvVars(config *Config) {
	applyEnv(map[string]interface{}{
		"OUTAGEWATCH_URL": &config.Target.URL,
	})
}

func mergeAddressEnvVars(config *Config) {
	a := config.Address
	applyEnv(map[string]interface{}{
		"OUTAGEWATCH_CITY":           &a.City,
		"OUTAGEWATCH_STREET":         &a.Street,
		"OUTAGEWATCH_HOUSE":          &a.House,
		"OUTAGEWATCH_CITY_ORDINAL":   &a.CityOrdinal,
		"OUTAGEWATCH_STREET_ORDINAL": &a.StreetOrdinal,
		"OUTAGEWATCH_HOUSE_ORDINAL":  &a.HouseOrdinal,
		"OUTAGEWATCH_EXPECT_CITY":    &a.ExpectCity,
		"OUTAGEWATCH_EXPECT_STREET":  &a.ExpectStreet,
		"OUTAGEWATCH_EXPECT_HOUSE":   &a.ExpectHouse,
	})
}

func mergePollEnvVars(config *Config) {
	p := config.Poll
	applyEnv(map[string]interface{}{
		"OUTAGEWATCH_POLL_CRON":       &p.Cron,
		"OUTAGEWATCH_RESTART_CRON":    &p.RestartCron,
		"OUTAGEWATCH_TIMEZONE":        &p.Timezone,
		"OUTAGEWATCH_TICK_TIMEOUT":    &p.TickTimeout,
		"OUTAGEWATCH_CAPTCHA_CEILING": &p.CaptchaCeiling,
	})
}

func mergeDatabaseEnvVars(config *Config) {
	applyEnv(map[string]interface{}{
		"DATABASE_DRIVER": &config.Database.Driver,
		"DATABASE_DSN":    &config.Database.DSN,
	})
}

func mergeServerEnvVars(config *Config) {
	s := config.Server
	if port := getEnvInt("PORT", 0); port != 0 {
		s.Port = port
	}
	applyEnv(map[string]interface{}{
		"SERVER_PORT":             &s.Port,
		"SERVER_ADDRESS":          &s.Address,
		"SERVER_CLICK_RATE":       &s.ClickRate,
		"SERVER_CLICK_BURST":      &s.ClickBurst,
		"SERVER_SHUTDOWN_TIMEOUT": &s.ShutdownTimeout,
	})
}

func mergeTelegramEnvVars(config *Config) {
	t := config.Telegram
	applyEnv(map[string]interface{}{
		"TELEGRAM_ENABLED":   &t.Enabled,
		"TELEGRAM_BOT_TOKEN": &t.BotToken,
		"TELEGRAM_CHAT_ID":   &t.ChatID,
		"TELEGRAM_TIMEOUT":   &t.Timeout,
		"TELEGRAM_API_URL":   &t.APIURL,
	})
}
