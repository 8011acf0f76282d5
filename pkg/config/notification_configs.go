package config

import "outagewatch/pkg/notifier"

// NewTelegramConfig creates a Telegram configuration populated from environment variables
func NewTelegramConfig() *notifier.TelegramConfig {
	return &notifier.TelegramConfig{
		Enabled:  getEnvBool("TELEGRAM_ENABLED", false),
		BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		Timeout:  getEnvInt("TELEGRAM_TIMEOUT", 30),
		APIURL:   getEnv("TELEGRAM_API_URL", ""),
	}
}
