package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"outagewatch/pkg/browser"
	"outagewatch/pkg/logger"
	"outagewatch/pkg/models"
)

// GetScreenshot returns the live browser tab as PNG
// @Summary Screenshot of the live tab
// @Description Captures the browser tab, including while initialization is waiting on a CAPTCHA
// @Tags Operator
// @Produce png
// @Success 200 {file} binary
// @Failure 503 {object} models.ErrorResponse
// @Router /screenshot [get]
func (h *HandlerService) GetScreenshot(c *gin.Context) {
	png, err := h.monitor.Session().Screenshot(c.Request.Context())
	if err != nil {
		HandleError(c, WrapError(err, "screenshot"))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// Click dispatches a synthetic mouse click on the live tab
// @Summary Click at viewport coordinates
// @Description Sends a mouse click to the browser tab. Used to solve a CAPTCHA by hand.
// @Tags Operator
// @Accept json
// @Produce json
// @Param click body models.ClickRequest true "Viewport coordinates"
// @Success 200 {object} models.ActionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /click [post]
func (h *HandlerService) Click(c *gin.Context) {
	var req models.ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleError(c, NewBadRequestError("Invalid click request", err))
		return
	}
	if *req.X < 0 || *req.Y < 0 {
		HandleError(c, fmt.Errorf("%w: coordinates must not be negative", ErrInvalidParam))
		return
	}

	session := h.monitor.Session()
	if err := session.ClickAt(c.Request.Context(), *req.X, *req.Y); err != nil {
		HandleError(c, WrapError(err, "click"))
		return
	}

	logger.Info("Operator click dispatched", zap.Float64("x", *req.X), zap.Float64("y", *req.Y))
	c.JSON(http.StatusOK, actionResponse(fmt.Sprintf("Clicked at (%.0f, %.0f)", *req.X, *req.Y), session.State().String(), ""))
}

// InitSession starts the browser session
// @Summary Initialize the browser session
// @Description Launches the browser and prepares the report page. Runs in the background unless wait=true.
// @Tags Operator
// @Produce json
// @Param wait query bool false "Block until initialization finishes"
// @Success 200 {object} models.ActionResponse
// @Success 202 {object} models.ActionResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /init [get]
// @Router /init [post]
func (h *HandlerService) InitSession(c *gin.Context) {
	session := h.monitor.Session()
	switch session.State() {
	case browser.StateInitializing:
		HandleError(c, browser.ErrInitInProgress)
		return
	case browser.StateClosed:
		HandleError(c, browser.ErrSessionClosed)
		return
	}

	logger.Info("Operator requested browser init")
	async, err := h.runInBackground(c, "init", h.monitor.Init)
	if err != nil {
		HandleError(c, WrapError(err, "init"))
		return
	}
	if async {
		c.JSON(http.StatusAccepted, actionResponse("Initialization started", session.State().String(), ""))
		return
	}
	c.JSON(http.StatusOK, actionResponse("Browser session initialized", session.State().String(), ""))
}

// RestartSession recycles the browser
// @Summary Restart the browser session
// @Description Saves cookies, closes the browser and initializes again. The baseline is kept.
// @Tags Operator
// @Produce json
// @Param wait query bool false "Block until the restart finishes"
// @Success 200 {object} models.ActionResponse
// @Success 202 {object} models.ActionResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /restart [get]
// @Router /restart [post]
func (h *HandlerService) RestartSession(c *gin.Context) {
	session := h.monitor.Session()
	if session.State() == browser.StateClosed {
		HandleError(c, browser.ErrSessionClosed)
		return
	}

	logger.Info("Operator requested browser restart")
	async, err := h.runInBackground(c, "restart", h.monitor.Restart)
	if err != nil {
		HandleError(c, WrapError(err, "restart"))
		return
	}
	if async {
		c.JSON(http.StatusAccepted, actionResponse("Restart started", session.State().String(), ""))
		return
	}
	c.JSON(http.StatusOK, actionResponse("Browser session restarted", session.State().String(), ""))
}

// ClearCookies empties the browser cookie jar and the cookie file
// @Summary Clear cookies
// @Tags Operator
// @Produce json
// @Success 200 {object} models.ActionResponse
// @Router /cookies/clear [post]
func (h *HandlerService) ClearCookies(c *gin.Context) {
	session := h.monitor.Session()
	if err := session.ClearCookies(c.Request.Context()); err != nil {
		HandleError(c, WrapError(err, "clear cookies"))
		return
	}
	logger.Info("Cookies cleared by operator")
	c.JSON(http.StatusOK, actionResponse("Cookies cleared", session.State().String(), ""))
}

// ForceCheck runs one capture cycle regardless of the report timestamp
// @Summary Force a schedule check
// @Description Captures the schedule now. A notification is still only sent when the schedule content changed.
// @Tags Operator
// @Produce json
// @Success 200 {object} models.ActionResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /check [post]
func (h *HandlerService) ForceCheck(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	outcome, err := h.monitor.ForceCheck(ctx)
	if err != nil {
		HandleError(c, WrapError(err, "check"))
		return
	}
	c.JSON(http.StatusOK, actionResponse("Check finished", h.monitor.Session().State().String(), outcome))
}
