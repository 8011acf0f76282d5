package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"outagewatch/pkg/models"
)

// GetStatus returns the watcher status
// @Summary Get watcher status
// @Description Returns the browser session state, the last known report timestamp, the last check outcome and the baseline outage hours
// @Tags System Management
// @Produce json
// @Success 200 {object} models.SystemStatus
// @Router /status [get]
func (h *HandlerService) GetStatus(c *gin.Context) {
	st := h.monitor.Status()
	status := models.SystemStatus{
		Service:             ServiceName,
		Version:             ServiceVersion,
		Timestamp:           getCurrentTimestamp(),
		Uptime:              time.Since(h.started).Truncate(time.Second).String(),
		SessionState:        st.SessionState,
		LastReportTimestamp: st.LastReportTimestamp,
		LastCheckAt:         st.LastCheckAt,
		LastOutcome:         st.LastOutcome,
		LastError:           st.LastError,
		LastChangeAt:        st.LastChangeAt,
		BaselineHash:        st.BaselineHash,
		BaselineCapturedAt:  st.BaselineCapturedAt,
		OutageHoursToday:    st.OutageHoursToday,
		HasCookies:          st.HasCookies,
		Ticks:               st.Ticks,
	}

	if h.scheduler != nil {
		status.Scheduler = h.schedulerStatus()
	}

	c.JSON(http.StatusOK, status)
}

// GetAppConfig returns the current configuration (sensitive data masked)
// @Summary Get configuration
// @Description Returns the effective configuration with secrets masked
// @Tags System Management
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /config [get]
func (h *HandlerService) GetAppConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.sanitizeConfig())
}

// HealthCheck reports process liveness. The browser session may be down
// while the process stays healthy; its state is reported for information.
// @Summary Health check
// @Description Liveness probe (not under /api/v1)
// @Tags Health Check
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (h *HandlerService) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:       "healthy",
		Timestamp:    getCurrentTimestamp(),
		Service:      ServiceName,
		Version:      ServiceVersion,
		SessionState: h.monitor.Session().State().String(),
	})
}

func (h *HandlerService) schedulerStatus() *models.SchedulerStatus {
	raw := h.scheduler.GetStatus()
	st := &models.SchedulerStatus{}
	st.Running, _ = raw["running"].(bool)
	st.JobCount, _ = raw["job_count"].(int)
	st.Entries, _ = raw["entries"].(int)
	st.Timestamp, _ = raw["timestamp"].(time.Time)
	return st
}
