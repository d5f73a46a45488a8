package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/internal/service"
	"github.com/dreamtoapp/amwaj-messaging/pkg/response"
	validatorpkg "github.com/dreamtoapp/amwaj-messaging/pkg/validator"
)

type stubRepo struct {
	created []*domain.Message
}

func (r *stubRepo) Create(_ context.Context, msg *domain.Message) (*domain.Message, error) {
	stored := *msg
	stored.ID = int64(len(r.created) + 1)
	r.created = append(r.created, &stored)
	return &stored, nil
}

func (r *stubRepo) GetPending(context.Context, int) ([]domain.Message, error) { return nil, nil }

func (r *stubRepo) MarkAsSent(context.Context, int64, string, time.Time) error { return nil }

func (r *stubRepo) MarkAsFailed(context.Context, int64, string) error { return nil }

func (r *stubRepo) GetSent(context.Context, int, int) ([]domain.Message, int64, error) {
	return nil, 0, nil
}

func (r *stubRepo) GetAll(context.Context, *domain.MessageStatus, int, int) ([]domain.Message, int64, error) {
	return nil, 0, nil
}

func (r *stubRepo) GetStats(context.Context) (int64, int64, int64, error) { return 0, 0, 0, nil }

func (r *stubRepo) ReplayFailedByID(_ context.Context, id int64) error {
	return domain.ErrNotFound
}

func (r *stubRepo) ReplayAllFailed(context.Context) (int64, error) { return 0, nil }

type stubWhatsApp struct {
	err  error
	sent []domain.OutboundMessage
}

func (w *stubWhatsApp) SendMessage(_ context.Context, _ string, msg domain.OutboundMessage) (*domain.SendResponse, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.sent = append(w.sent, msg)

	var resp domain.SendResponse
	_ = json.Unmarshal([]byte(`{"messaging_product":"whatsapp","contacts":[{"input":"966500000001","wa_id":"966500000001"}],"messages":[{"id":"wamid.TEST"}]}`), &resp)
	return &resp, nil
}

type stubReceipts map[int64]*domain.SentMessageCache

func (r stubReceipts) CacheSentMessage(_ context.Context, dbID int64, messageID string, sentAt time.Time) error {
	r[dbID] = &domain.SentMessageCache{MessageID: messageID, SentAt: sentAt}
	return nil
}

func (r stubReceipts) GetCachedMessage(_ context.Context, dbID int64) (*domain.SentMessageCache, error) {
	return r[dbID], nil
}

func (r stubReceipts) GetAllCachedMessages(context.Context) (map[int64]*domain.SentMessageCache, error) {
	return r, nil
}

func newMessageHandler(wa *stubWhatsApp) (*MessageHandler, *stubRepo) {
	repo := &stubRepo{}
	svc := service.NewMessageService(repo, wa, nil, environments.MessageConfig{BatchSize: 2, MaxContentLength: 4096})
	return NewMessageHandler(svc), repo
}

// TestSendText_BadJSON verifies that invalid JSON returns 400 Bad Request.
func TestSendText_BadJSON(t *testing.T) {
	handler := NewMessageHandler(nil)

	c, rec := newTestContext(http.MethodPost, "/api/v1/messages/text", `{"message": "Hello", "phoneNumber":`)

	if err := handler.SendText(c); err != nil {
		t.Fatalf("SendText returned error: %v", err)
	}

	expectStatus(t, rec, http.StatusBadRequest)

	var resp response.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if resp.Success {
		t.Fatalf("expected Success=false, got true")
	}
	if resp.Error == "" {
		t.Fatalf("expected Error to be non-empty")
	}
}

// TestQueueMessage_TooLongContent verifies that content over the tag limit
// is rejected with 422 before the service is reached.
func TestQueueMessage_TooLongContent(t *testing.T) {
	handler := NewMessageHandler(nil)

	body := `{"content": "` + strings.Repeat("a", 4097) + `", "phoneNumber": "+966500000001"}`
	c, rec := newTestContext(http.MethodPost, "/api/v1/messages/queue", body)

	if err := handler.QueueMessage(c); err != nil {
		t.Fatalf("QueueMessage returned error: %v", err)
	}

	expectStatus(t, rec, http.StatusUnprocessableEntity)

	var resp validatorpkg.ValidationErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if resp.Error != "Validation failed" {
		t.Fatalf("expected Error=%q, got %q", "Validation failed", resp.Error)
	}
	if _, ok := resp.Details["content"]; !ok {
		t.Fatalf("expected Details to contain 'content' key")
	}
}

func TestSendTemplate_RejectsBadLanguage(t *testing.T) {
	handler := NewMessageHandler(nil)

	body := `{"phoneNumber": "966500000001", "templateName": "confirm", "language": "not a language"}`
	c, rec := newTestContext(http.MethodPost, "/api/v1/messages/template", body)

	if err := handler.SendTemplate(c); err != nil {
		t.Fatalf("SendTemplate returned error: %v", err)
	}

	expectStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestSendText_Success(t *testing.T) {
	wa := &stubWhatsApp{}
	handler, repo := newMessageHandler(wa)

	body := `{"phoneNumber": "+966500000001", "message": "مرحبا"}`
	c, rec := newTestContext(http.MethodPost, "/api/v1/messages/text", body)

	if err := handler.SendText(c); err != nil {
		t.Fatalf("SendText returned error: %v", err)
	}

	expectStatus(t, rec, http.StatusOK)

	var dispatch domain.DispatchResult
	decodeData(t, rec, &dispatch)

	if dispatch.MessageID != "wamid.TEST" {
		t.Fatalf("expected message id wamid.TEST, got %q", dispatch.MessageID)
	}
	if len(repo.created) != 1 || repo.created[0].Status != domain.StatusSent {
		t.Fatalf("expected one sent log row, got %+v", repo.created)
	}
	if repo.created[0].PhoneNumber != "966500000001" {
		t.Fatalf("expected normalized phone, got %q", repo.created[0].PhoneNumber)
	}
}

func TestSendText_ConfigurationErrorIs503(t *testing.T) {
	wa := &stubWhatsApp{err: &domain.ConfigurationError{
		Problems: []string{"WHATSAPP_PERMANENT_TOKEN environment variable is missing"},
	}}
	handler, repo := newMessageHandler(wa)

	c, rec := newTestContext(http.MethodPost, "/api/v1/messages/text", `{"phoneNumber": "966500000001", "message": "hi"}`)

	if err := handler.SendText(c); err != nil {
		t.Fatalf("SendText returned error: %v", err)
	}

	expectStatus(t, rec, http.StatusServiceUnavailable)
	if len(repo.created) != 0 {
		t.Fatalf("expected no log row for a configuration error, got %d", len(repo.created))
	}
}

func TestSendText_RemoteErrorIs502WithProviderMessage(t *testing.T) {
	wa := &stubWhatsApp{err: &domain.RemoteAPIError{
		Service:    "WhatsApp",
		StatusCode: http.StatusBadRequest,
		Message:    "(#131030) Recipient phone number not in allowed list",
	}}
	handler, _ := newMessageHandler(wa)

	c, rec := newTestContext(http.MethodPost, "/api/v1/messages/text", `{"phoneNumber": "966500000001", "message": "hi"}`)

	if err := handler.SendText(c); err != nil {
		t.Fatalf("SendText returned error: %v", err)
	}

	expectStatus(t, rec, http.StatusBadGateway)

	var resp response.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if !strings.Contains(resp.Error, "Recipient phone number not in allowed list") {
		t.Fatalf("expected provider message in error, got %q", resp.Error)
	}
}

func TestSendCanned_UnknownNameIs404(t *testing.T) {
	handler, _ := newMessageHandler(&stubWhatsApp{})

	c, rec := newTestContext(http.MethodPost, "/api/v1/messages/canned/nope", `{"phoneNumber": "966500000001"}`)
	withParam(c, "name", "nope")

	if err := handler.SendCanned(c); err != nil {
		t.Fatalf("SendCanned returned error: %v", err)
	}

	expectStatus(t, rec, http.StatusNotFound)
}

func TestReplayFailedMessage_NotFound(t *testing.T) {
	handler, _ := newMessageHandler(&stubWhatsApp{})

	c, rec := newTestContext(http.MethodPost, "/api/v1/messages/7/replay", "")
	withParam(c, "id", "7")

	if err := handler.ReplayFailedMessage(c); err != nil {
		t.Fatalf("ReplayFailedMessage returned error: %v", err)
	}

	expectStatus(t, rec, http.StatusNotFound)
}

func TestGetCachedMessage(t *testing.T) {
	receipts := stubReceipts{}
	svc := service.NewMessageService(&stubRepo{}, &stubWhatsApp{}, receipts, environments.MessageConfig{BatchSize: 2, MaxContentLength: 4096})
	handler := NewMessageHandler(svc)

	c, rec := newTestContext(http.MethodPost, "/api/v1/messages/text", `{"phoneNumber": "966500000001", "message": "hi"}`)
	if err := handler.SendText(c); err != nil {
		t.Fatalf("SendText returned error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	c, rec = newTestContext(http.MethodGet, "/api/v1/messages/1/cached", "")
	withParam(c, "id", "1")
	if err := handler.GetCachedMessage(c); err != nil {
		t.Fatalf("GetCachedMessage returned error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	var cached domain.SentMessageCache
	decodeData(t, rec, &cached)
	if cached.MessageID != "wamid.TEST" {
		t.Fatalf("expected wamid.TEST, got %q", cached.MessageID)
	}

	c, rec = newTestContext(http.MethodGet, "/api/v1/messages/2/cached", "")
	withParam(c, "id", "2")
	if err := handler.GetCachedMessage(c); err != nil {
		t.Fatalf("GetCachedMessage returned error: %v", err)
	}
	expectStatus(t, rec, http.StatusNotFound)

	c, rec = newTestContext(http.MethodGet, "/api/v1/messages/abc/cached", "")
	withParam(c, "id", "abc")
	if err := handler.GetCachedMessage(c); err != nil {
		t.Fatalf("GetCachedMessage returned error: %v", err)
	}
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestGetCachedMessage_WithoutCacheIs503(t *testing.T) {
	handler, _ := newMessageHandler(&stubWhatsApp{})

	c, rec := newTestContext(http.MethodGet, "/api/v1/messages/1/cached", "")
	withParam(c, "id", "1")
	if err := handler.GetCachedMessage(c); err != nil {
		t.Fatalf("GetCachedMessage returned error: %v", err)
	}

	expectStatus(t, rec, http.StatusServiceUnavailable)
}
