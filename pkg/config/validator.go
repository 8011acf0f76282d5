package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidateConfig validates the complete configuration
func (c *Config) ValidateConfig() error {
	c.fillDefaults()

	switch strings.ToLower(c.App.LogCaller) {
	case "", "short", "medium", "full":
	default:
		return fmt.Errorf("%w: app.log_caller must be short, medium or full", ErrInvalidValue)
	}

	if err := c.validateBrowserConfig(); err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConfig, err)
	}

	if err := c.validateAddressConfig(); err != nil {
		return fmt.Errorf("%w: %v", ErrAddressConfig, err)
	}

	if err := c.validatePollConfig(); err != nil {
		return fmt.Errorf("%w: %w", ErrPollConfig, err)
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseConfig, err)
	}

	if err := c.validateServerConfig(); err != nil {
		return fmt.Errorf("%w: %v", ErrServerConfig, err)
	}

	if err := c.Telegram.Validate(); err != nil {
		return fmt.Errorf("%w: %w: %v", ErrTelegramConfig, ErrMissingRequired, err)
	}

	return nil
}

func (c *Config) validateBrowserConfig() error {
	if c.Target.URL == "" {
		return fmt.Errorf("%w: target.url", ErrMissingRequired)
	}
	if !strings.HasPrefix(c.Target.URL, "http://") && !strings.HasPrefix(c.Target.URL, "https://") {
		return fmt.Errorf("%w: target.url must be http(s)", ErrInvalidValue)
	}
	if c.Browser.CookieFile == "" {
		return fmt.Errorf("%w: cookie_file", ErrMissingRequired)
	}
	if c.Browser.Width < 0 || c.Browser.Height < 0 {
		return fmt.Errorf("%w: window size cannot be negative", ErrInvalidValue)
	}
	if c.Target.CropTop < 0 || c.Target.CropBottom < 0 {
		return fmt.Errorf("%w: crop margins cannot be negative", ErrInvalidValue)
	}
	return nil
}

func (c *Config) validateAddressConfig() error {
	a := c.Address
	if a.City == "" {
		return fmt.Errorf("%w: city", ErrMissingRequired)
	}
	if a.Street == "" {
		return fmt.Errorf("%w: street", ErrMissingRequired)
	}
	if a.House == "" {
		return fmt.Errorf("%w: house", ErrMissingRequired)
	}
	if a.CityOrdinal < 1 || a.StreetOrdinal < 1 || a.HouseOrdinal < 1 {
		return fmt.Errorf("%w: ordinals start at 1", ErrInvalidValue)
	}
	return nil
}

func (c *Config) validatePollConfig() error {
	p := c.Poll
	if p.Cron == "" {
		return fmt.Errorf("%w: cron", ErrMissingRequired)
	}
	if !isValidCronExpression(p.Cron) {
		return fmt.Errorf("%w: %s", ErrInvalidCron, p.Cron)
	}
	if p.RestartCron != "" && !isValidCronExpression(p.RestartCron) {
		return fmt.Errorf("%w: %s", ErrInvalidCron, p.RestartCron)
	}
	if _, err := p.Location(); err != nil {
		return fmt.Errorf("%w: timezone %q", ErrInvalidValue, p.Timezone)
	}
	if p.TickTimeout <= 0 {
		return fmt.Errorf("%w: tick_timeout must be positive", ErrInvalidValue)
	}
	if p.CaptchaCeiling <= 0 {
		return fmt.Errorf("%w: captcha_ceiling must be positive", ErrInvalidValue)
	}
	return nil
}

func (c *Config) validateServerConfig() error {
	s := c.Server
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("%w: port must be in 1-65535", ErrInvalidValue)
	}
	if s.ClickRate <= 0 {
		return fmt.Errorf("%w: click_rate must be positive", ErrInvalidValue)
	}
	if s.ClickBurst < 1 {
		s.ClickBurst = 1
	}
	if s.ShutdownTimeout <= 0 {
		s.ShutdownTimeout = 15
	}
	return nil
}

// isValidCronExpression accepts five-field expressions and descriptors such
// as @every 5m.
func isValidCronExpression(spec string) bool {
	_, err := cron.ParseStandard(spec)
	return err == nil
}
