package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"outagewatch/pkg/logger"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramConfig represents Telegram notification configuration
type TelegramConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	BotToken string `json:"bot_token" yaml:"bot_token"`
	ChatID   string `json:"chat_id" yaml:"chat_id"`
	Timeout  int    `json:"timeout" yaml:"timeout"`
	// APIURL overrides the Bot API endpoint.
	APIURL string `json:"api_url,omitempty" yaml:"api_url,omitempty"`
}

// Validate validates Telegram configuration
func (c *TelegramConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.BotToken == "" {
		return errors.New("telegram bot token is required when enabled")
	}
	if c.ChatID == "" {
		return errors.New("telegram chat ID is required when enabled")
	}
	return nil
}

// TelegramNotifier handles Telegram notifications
type TelegramNotifier struct {
	config     *TelegramConfig
	httpClient *http.Client
}

// TelegramMessage represents a message to be sent via Telegram
type TelegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// TelegramResponse represents Telegram API response
type TelegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(config *TelegramConfig) *TelegramNotifier {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TelegramNotifier{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Notify sends the Today screenshot with a caption, then Tomorrow's when the
// page had one. Without screenshots a text message is sent instead.
func (t *TelegramNotifier) Notify(ctx context.Context, n Notification) error {
	day := "сьогодні"
	if n.Rollover && n.Today.ReportDate != "" {
		day = "сьогодні, " + n.Today.ReportDate
	}
	caption := Caption(day, n.Report, n.ReportTimestamp)
	if err := t.sendPhotoOrText(ctx, n.TodayPNG, caption); err != nil {
		return err
	}

	if n.Tomorrow == nil || n.TomorrowReport == nil {
		return nil
	}
	day = "завтра"
	if n.Tomorrow.ReportDate != "" {
		day = n.Tomorrow.ReportDate
	}
	return t.sendPhotoOrText(ctx, n.TomorrowPNG, Caption(day, *n.TomorrowReport, ""))
}

func (t *TelegramNotifier) sendPhotoOrText(ctx context.Context, png []byte, caption string) error {
	if len(png) == 0 {
		return t.SendMessage(ctx, caption)
	}
	return t.SendPhoto(ctx, png, caption)
}

// SendMessage sends a message via Telegram
func (t *TelegramNotifier) SendMessage(ctx context.Context, message string) error {
	if !t.config.Enabled {
		logger.Debug("Telegram notifications disabled")
		return nil
	}
	if err := t.config.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(TelegramMessage{ChatID: t.config.ChatID, Text: message})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	logger.Debug("Sending Telegram message",
		zap.String("chat_id", t.config.ChatID),
		zap.String("text", message[:min(100, len(message))]))
	return t.call(ctx, "sendMessage", "application/json", bytes.NewReader(body))
}

// SendPhoto uploads a PNG with a caption.
func (t *TelegramNotifier) SendPhoto(ctx context.Context, png []byte, caption string) error {
	if !t.config.Enabled {
		logger.Debug("Telegram notifications disabled")
		return nil
	}
	if err := t.config.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", t.config.ChatID); err != nil {
		return fmt.Errorf("failed to build photo request: %w", err)
	}
	if err := w.WriteField("caption", caption); err != nil {
		return fmt.Errorf("failed to build photo request: %w", err)
	}
	part, err := w.CreateFormFile("photo", "schedule.png")
	if err != nil {
		return fmt.Errorf("failed to build photo request: %w", err)
	}
	if _, err := part.Write(png); err != nil {
		return fmt.Errorf("failed to build photo request: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to build photo request: %w", err)
	}

	logger.Debug("Sending Telegram photo",
		zap.String("chat_id", t.config.ChatID),
		zap.Int("bytes", len(png)))
	return t.call(ctx, "sendPhoto", w.FormDataContentType(), &buf)
}

func (t *TelegramNotifier) call(ctx context.Context, method, contentType string, body io.Reader) error {
	base := strings.TrimRight(t.config.APIURL, "/")
	if base == "" {
		base = defaultTelegramAPI
	}
	url := fmt.Sprintf("%s/bot%s/%s", base, t.config.BotToken, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var telegramResp TelegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&telegramResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !telegramResp.OK {
		return fmt.Errorf("telegram API error: %s (code: %d)", telegramResp.Description, telegramResp.ErrorCode)
	}

	logger.Info("Telegram message sent successfully", zap.String("method", method))
	return nil
}

// TestConnection tests Telegram bot connection
func (t *TelegramNotifier) TestConnection(ctx context.Context) error {
	if !t.config.Enabled {
		return fmt.Errorf("telegram notifications are disabled")
	}
	return t.SendMessage(ctx, "⚡ Моніторинг графіка відключень запущено")
}
