package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/pkg/geocoding"
	"github.com/dreamtoapp/amwaj-messaging/pkg/redis"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

type mapsReadiness interface {
	Ready(ctx context.Context) (geocoding.Provider, error)
}

// HealthHandler reports whether the message log, the cache and both
// providers can serve requests.
type HealthHandler struct {
	db           pinger
	redis        redisPinger
	whatsapp     environments.WhatsAppConfig
	maps         mapsReadiness
	checkTimeout time.Duration
}

func NewHealthHandler(
	db *sqlx.DB,
	redisClient *redis.Client,
	whatsappCfg environments.WhatsAppConfig,
	maps mapsReadiness,
) *HealthHandler {
	h := &HealthHandler{
		whatsapp:     whatsappCfg,
		maps:         maps,
		checkTimeout: 2 * time.Second,
	}
	if db != nil {
		h.db = db
	}
	if redisClient != nil {
		h.redis = redisClient
	}
	return h
}

type componentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type healthReport struct {
	Status     string                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Components map[string]componentStatus `json:"components"`
}

// Health godoc
// @Summary Health check
// @Description Database down makes the service "down". Redis, WhatsApp credentials or the map provider failing makes it "degraded".
// @Tags health
// @Produce json
// @Success 200 {object} healthReport
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.checkTimeout)
	defer cancel()

	report := healthReport{
		Status:     "ok",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: make(map[string]componentStatus, 4),
	}

	degrade := func() {
		if report.Status == "ok" {
			report.Status = "degraded"
		}
	}

	switch {
	case h.db == nil:
		report.Components["database"] = componentStatus{Status: "down"}
		report.Status = "down"
	default:
		if err := h.db.PingContext(ctx); err != nil {
			report.Components["database"] = componentStatus{Status: "down", Error: err.Error()}
			report.Status = "down"
		} else {
			report.Components["database"] = componentStatus{Status: "up"}
		}
	}

	switch {
	case h.redis == nil:
		report.Components["redis"] = componentStatus{Status: "disabled"}
	default:
		if err := h.redis.Ping(ctx); err != nil {
			report.Components["redis"] = componentStatus{Status: "down", Error: err.Error()}
			degrade()
		} else {
			report.Components["redis"] = componentStatus{Status: "up"}
		}
	}

	if err := h.whatsapp.Validate(); err != nil {
		report.Components["whatsapp"] = componentStatus{Status: "misconfigured", Error: err.Error()}
		degrade()
	} else {
		report.Components["whatsapp"] = componentStatus{Status: "configured"}
	}

	switch {
	case h.maps == nil:
		report.Components["maps"] = componentStatus{Status: "disabled"}
		degrade()
	default:
		if _, err := h.maps.Ready(ctx); err != nil {
			report.Components["maps"] = componentStatus{Status: "unavailable", Error: err.Error()}
			degrade()
		} else {
			report.Components["maps"] = componentStatus{Status: "ready"}
		}
	}

	return c.JSON(http.StatusOK, report)
}
