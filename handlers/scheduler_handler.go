package handlers

import (
	"context"
	"math"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/internal/scheduler"
	"github.com/dreamtoapp/amwaj-messaging/pkg/response"
)

const fallbackOutboxMinutes = 2

// outboxWorker is the part of the scheduler the HTTP surface controls.
type outboxWorker interface {
	StartWithParams(ctx context.Context, intervalMinutes int, alertWebhook string, alertThreshold int) error
	Stop() error
	IsRunning() bool
	GetStatus() scheduler.SchedulerStatus
}

// SchedulerHandler starts and stops the outbox drain. The worker runs on the
// server's lifetime context, not the request's, so it outlives the call that
// started it.
type SchedulerHandler struct {
	worker         outboxWorker
	serverCtx      context.Context
	defaultMinutes int
	alertWebhook   string
	alertThreshold int
}

// StartSchedulerRequest overrides the drain cadence for this run. An omitted
// interval uses MESSAGE_SEND_INTERVAL_MINUTES.
type StartSchedulerRequest struct {
	Interval *int `json:"interval,omitempty" validate:"omitempty,min=1,max=1440"`
}

func NewSchedulerHandler(
	worker *scheduler.Scheduler,
	serverCtx context.Context,
	cfg *environments.Config,
) *SchedulerHandler {
	return &SchedulerHandler{
		worker:         worker,
		serverCtx:      serverCtx,
		defaultMinutes: outboxMinutes(cfg.Message.SendInterval),
		alertWebhook:   cfg.Alert.WebhookURL,
		alertThreshold: cfg.Alert.IterationCount,
	}
}

// outboxMinutes turns the configured send interval into the whole-minute
// cadence the worker takes. Sub-minute intervals round up to one minute.
func outboxMinutes(interval time.Duration) int {
	if interval <= 0 {
		return fallbackOutboxMinutes
	}
	return int(math.Ceil(interval.Minutes()))
}

// StartScheduler godoc
// @Summary Start draining the outbox
// @Description Sends one batch of pending queued messages now and then every interval minutes. Calling it while the drain is running changes nothing.
// @Tags scheduler
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for scheduler"
// @Param request body StartSchedulerRequest false "Optional interval override in minutes"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/scheduler/start [post]
func (h *SchedulerHandler) StartScheduler(c echo.Context) error {
	var req StartSchedulerRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	if h.worker.IsRunning() {
		return response.OkWithMessage(c, "Outbox drain is already running", h.worker.GetStatus())
	}

	minutes := h.defaultMinutes
	if req.Interval != nil {
		minutes = *req.Interval
	}

	if err := h.worker.StartWithParams(h.serverCtx, minutes, h.alertWebhook, h.alertThreshold); err != nil {
		return respondError(c, err)
	}

	return response.OkWithMessage(c, "Outbox drain started", h.worker.GetStatus())
}

// StopScheduler godoc
// @Summary Stop draining the outbox
// @Description Waits for the batch in flight to finish. Queued messages stay pending until the drain is started again.
// @Tags scheduler
// @Produce json
// @Param x-api-key header string true "API key for scheduler"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/scheduler/stop [post]
func (h *SchedulerHandler) StopScheduler(c echo.Context) error {
	if !h.worker.IsRunning() {
		return response.OkWithMessage(c, "Outbox drain is not running", h.worker.GetStatus())
	}

	if err := h.worker.Stop(); err != nil {
		return respondError(c, err)
	}

	return response.OkWithMessage(c, "Outbox drain stopped", h.worker.GetStatus())
}

// GetSchedulerStatus godoc
// @Summary Outbox drain status
// @Description Run counters, the current interval and the consecutive all-fail streak that drives the alert webhook
// @Tags scheduler
// @Produce json
// @Param x-api-key header string true "API key for scheduler"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/scheduler/status [get]
func (h *SchedulerHandler) GetSchedulerStatus(c echo.Context) error {
	return response.Ok(c, h.worker.GetStatus())
}
