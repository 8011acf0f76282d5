package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"outagewatch/pkg/logger"
	"outagewatch/pkg/models"
	"outagewatch/pkg/schedule"
)

// sanitizeConfig removes sensitive information from config before returning
func (h *HandlerService) sanitizeConfig() map[string]interface{} {
	cfg := h.config
	if cfg == nil {
		return map[string]interface{}{}
	}
	sanitized := map[string]interface{}{
		"app":     cfg.App,
		"target":  cfg.Target,
		"address": cfg.Address,
		"poll":    cfg.Poll,
		"server":  cfg.Server,
		"metrics": cfg.Metrics,
	}
	if cfg.Browser != nil {
		sanitized["browser"] = map[string]interface{}{
			"headless":    cfg.Browser.Headless,
			"chrome_path": cfg.Browser.ChromePath,
			"cookie_file": cfg.Browser.CookieFile,
		}
	}
	if cfg.Database != nil {
		sanitized["database"] = map[string]interface{}{
			"driver": cfg.Database.Driver,
			"dsn":    maskSecret(cfg.Database.DSN),
		}
	}
	if cfg.Telegram != nil {
		sanitized["telegram"] = map[string]interface{}{
			"enabled":   cfg.Telegram.Enabled,
			"chat_id":   cfg.Telegram.ChatID,
			"bot_token": maskSecret(cfg.Telegram.BotToken),
		}
	}
	return sanitized
}

// maskSecret hides all but the ends of a secret.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) > 12 {
		return secret[:4] + "***" + secret[len(secret)-3:]
	}
	return "***"
}

// runInBackground runs fn against the service context unless the caller
// asked to wait with ?wait=true.
func (h *HandlerService) runInBackground(c *gin.Context, name string, fn func(ctx context.Context) error) (bool, error) {
	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		return false, fn(c.Request.Context())
	}
	go func() {
		if err := fn(h.ctx); err != nil {
			logger.Warn("Background operator action failed", zap.String("action", name), zap.Error(err))
		}
	}()
	return true, nil
}

func summarize(snap schedule.Snapshot) models.SnapshotSummary {
	s := models.SnapshotSummary{
		ID:                    snap.ID,
		CapturedAt:            snap.CapturedAt,
		ReportUpdateTimestamp: snap.ReportUpdateTimestamp,
		ScheduleHash:          snap.ScheduleHash,
		TomorrowHash:          snap.TomorrowHash,
		OutageHoursToday:      snap.Schedule.OutageHours(),
		Anomalies:             len(snap.Schedule.Anomalies),
		SchemaVersion:         snap.SchemaVersion,
	}
	if s.OutageHoursToday == nil {
		s.OutageHoursToday = []string{}
	}
	if snap.ScheduleTomorrow != nil {
		s.TomorrowDate = snap.ScheduleTomorrow.ReportDate
		s.OutageHoursTomorrow = snap.ScheduleTomorrow.OutageHours()
		s.Anomalies += len(snap.ScheduleTomorrow.Anomalies)
	}
	return s
}

// getCurrentTimestamp returns the current UTC time
func getCurrentTimestamp() time.Time {
	return time.Now().UTC()
}

func actionResponse(message, state, outcome string) models.ActionResponse {
	return models.ActionResponse{
		Success:      true,
		Message:      message,
		SessionState: state,
		Outcome:      outcome,
		Timestamp:    getCurrentTimestamp(),
	}
}
