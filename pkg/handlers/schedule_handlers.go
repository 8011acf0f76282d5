package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"outagewatch/pkg/models"
)

const (
	defaultSnapshotLimit = 20
	maxSnapshotLimit     = 500
)

// GetSchedulerStatus returns scheduler status
// @Summary Get scheduler status
// @Tags Scheduler
// @Produce json
// @Success 200 {object} models.SchedulerStatus
// @Failure 503 {object} models.ErrorResponse
// @Router /scheduler/status [get]
func (h *HandlerService) GetSchedulerStatus(c *gin.Context) {
	if !h.IsSchedulerAvailable() {
		HandleError(c, NewServiceUnavailableError("Scheduler not available", nil))
		return
	}
	c.JSON(http.StatusOK, h.schedulerStatus())
}

// GetScheduledJobs returns all scheduled jobs
// @Summary List scheduled jobs
// @Description Returns the poll and daily restart jobs with their last and next run
// @Tags Scheduler
// @Produce json
// @Success 200 {object} models.JobListResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /scheduler/jobs [get]
func (h *HandlerService) GetScheduledJobs(c *gin.Context) {
	if !h.IsSchedulerAvailable() {
		HandleError(c, NewServiceUnavailableError("Scheduler not available", nil))
		return
	}

	jobs := h.scheduler.GetJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":      jobs,
		"count":     len(jobs),
		"timestamp": getCurrentTimestamp(),
	})
}

// GetSnapshots returns stored snapshots, newest first
// @Summary List stored snapshots
// @Description Returns the baseline and every detected change, newest first
// @Tags Snapshots
// @Produce json
// @Param limit query int false "Maximum number of snapshots (default 20, max 500)"
// @Success 200 {object} models.SnapshotListResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /snapshots [get]
func (h *HandlerService) GetSnapshots(c *gin.Context) {
	limit := defaultSnapshotLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			HandleError(c, fmt.Errorf("%w: limit must be a positive integer", ErrInvalidParam))
			return
		}
		limit = min(n, maxSnapshotLimit)
	}
	if h.snapshots == nil {
		HandleError(c, NewServiceUnavailableError("Snapshot store not available", nil))
		return
	}

	snaps, err := h.snapshots.List(c.Request.Context(), limit)
	if err != nil {
		HandleError(c, WrapError(err, "list snapshots"))
		return
	}

	out := models.SnapshotListResponse{Snapshots: make([]models.SnapshotSummary, 0, len(snaps))}
	for _, snap := range snaps {
		out.Snapshots = append(out.Snapshots, summarize(snap))
	}
	out.Count = len(out.Snapshots)
	c.JSON(http.StatusOK, out)
}
