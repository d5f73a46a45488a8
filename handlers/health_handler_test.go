package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/pkg/geocoding"
)

type fakePinger struct {
	err error
}

func (p fakePinger) PingContext(context.Context) error { return p.err }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeMaps struct {
	err error
}

func (m fakeMaps) Ready(context.Context) (geocoding.Provider, error) { return nil, m.err }

func configuredWhatsApp() environments.WhatsAppConfig {
	return environments.WhatsAppConfig{
		Token:          strings.Repeat("t", 210),
		PhoneNumberID:  "744540948737430",
		APIVersion:     "v23.0",
		MinTokenLength: 200,
		Timeout:        time.Second,
	}
}

func runHealth(t *testing.T, handler *HealthHandler) healthReport {
	t.Helper()

	c, rec := newTestContext(http.MethodGet, "/health", "")
	if err := handler.Health(c); err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	var report healthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	return report
}

func TestHealth_NilDatabaseAndRedis(t *testing.T) {
	mapsErr := &domain.ConfigurationError{Problems: []string{"GOOGLE_MAPS_API_KEY environment variable is missing"}}
	handler := NewHealthHandler(nil, nil, environments.WhatsAppConfig{MinTokenLength: 200}, fakeMaps{err: mapsErr})

	report := runHealth(t, handler)

	if report.Status != "down" {
		t.Fatalf("expected status down, got %q", report.Status)
	}

	want := map[string]string{
		"database": "down",
		"redis":    "disabled",
		"whatsapp": "misconfigured",
		"maps":     "unavailable",
	}
	for name, status := range want {
		if got := report.Components[name].Status; got != status {
			t.Fatalf("expected %s=%s, got %q", name, status, got)
		}
	}
	if !strings.Contains(report.Components["whatsapp"].Error, "WHATSAPP_PERMANENT_TOKEN") {
		t.Fatalf("expected whatsapp problem in report, got %q", report.Components["whatsapp"].Error)
	}
}

func TestHealth_AllUp(t *testing.T) {
	handler := NewHealthHandler(nil, nil, configuredWhatsApp(), fakeMaps{})
	handler.db = fakePinger{}
	handler.redis = fakePinger{}

	report := runHealth(t, handler)

	if report.Status != "ok" {
		t.Fatalf("expected status ok, got %q (%+v)", report.Status, report.Components)
	}
	if report.Components["whatsapp"].Status != "configured" || report.Components["maps"].Status != "ready" {
		t.Fatalf("unexpected components %+v", report.Components)
	}
}

func TestHealth_RedisDownDegrades(t *testing.T) {
	handler := NewHealthHandler(nil, nil, configuredWhatsApp(), fakeMaps{})
	handler.db = fakePinger{}
	handler.redis = fakePinger{err: errors.New("connection refused")}

	report := runHealth(t, handler)

	if report.Status != "degraded" {
		t.Fatalf("expected status degraded, got %q", report.Status)
	}
	if report.Components["redis"].Error != "connection refused" {
		t.Fatalf("expected redis error in report, got %+v", report.Components["redis"])
	}
}
