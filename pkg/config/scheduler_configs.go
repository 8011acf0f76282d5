package config

import (
	"time"
	_ "time/tzdata"
)

// PollConfig represents the scheduler configuration
type PollConfig struct {
	Cron           string `json:"cron" yaml:"cron"`
	RestartCron    string `json:"restart_cron" yaml:"restart_cron"` // empty disables the daily restart
	Timezone       string `json:"timezone" yaml:"timezone"`
	TickTimeout    int    `json:"tick_timeout" yaml:"tick_timeout"`       // seconds
	CaptchaCeiling int    `json:"captcha_ceiling" yaml:"captcha_ceiling"` // seconds
}

// ServerConfig represents server configuration settings
type ServerConfig struct {
	Port            int     `json:"port" yaml:"port"`
	Address         string  `json:"address" yaml:"address"`
	ClickRate       float64 `json:"click_rate" yaml:"click_rate"` // clicks per second
	ClickBurst      int     `json:"click_burst" yaml:"click_burst"`
	ShutdownTimeout int     `json:"shutdown_timeout" yaml:"shutdown_timeout"` // seconds
}

// AppConfig represents application configuration settings
type AppConfig struct {
	LogLevel    string `json:"log_level" yaml:"log_level"`
	LogFile     string `json:"log_file" yaml:"log_file"`
	// LogCaller is short, medium or full.
	LogCaller   string `json:"log_caller" yaml:"log_caller"`
	Environment string `json:"environment" yaml:"environment"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// NewPollConfig creates a poll configuration populated from environment variables
func NewPollConfig() *PollConfig {
	return &PollConfig{
		Cron:           getEnv("OUTAGEWATCH_POLL_CRON", "@every 5m"),
		RestartCron:    getEnv("OUTAGEWATCH_RESTART_CRON", "0 4 * * *"),
		Timezone:       getEnv("OUTAGEWATCH_TIMEZONE", "Europe/Kyiv"),
		TickTimeout:    getEnvInt("OUTAGEWATCH_TICK_TIMEOUT", 300),
		CaptchaCeiling: getEnvInt("OUTAGEWATCH_CAPTCHA_CEILING", 300),
	}
}

// NewServerConfig creates a server configuration with default values populated from environment variables
func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvInt("SERVER_PORT", getEnvInt("PORT", 8080)),
		Address:         getEnv("SERVER_ADDRESS", "0.0.0.0"),
		ClickRate:       getEnvFloat("SERVER_CLICK_RATE", 2),
		ClickBurst:      getEnvInt("SERVER_CLICK_BURST", 5),
		ShutdownTimeout: getEnvInt("SERVER_SHUTDOWN_TIMEOUT", 15),
	}
}

// NewAppConfig creates an application configuration with default values populated from environment variables
func NewAppConfig() *AppConfig {
	return &AppConfig{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
		LogCaller:   getEnv("LOG_CALLER", "short"),
		Environment: getEnv("OUTAGEWATCH_ENV", "production"),
	}
}

// NewMetricsConfig creates a metrics configuration populated from environment variables
func NewMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled: getEnvBool("METRICS_ENABLED", true),
		Path:    getEnv("METRICS_PATH", "/metrics"),
	}
}

// Location resolves the poll timezone, falling back to UTC for an empty name.
func (p *PollConfig) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(p.Timezone)
}

// IsDevelopment reports whether the development logger should be used.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development" || a.Environment == "dev"
}
