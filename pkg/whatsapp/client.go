package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
)

// Client talks to the WhatsApp Cloud API. Every request carries the bearer
// token and targets the configured sender phone number.
type Client struct {
	httpClient *resty.Client
	config     environments.WhatsAppConfig
}

func NewClient(cfg environments.WhatsAppConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"+cfg.APIVersion).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetAuthToken(cfg.Token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	// Only transport failures are retried. Any HTTP answer, 4xx or 5xx, is final.
	client.AddRetryCondition(func(_ *resty.Response, err error) bool {
		return err != nil
	})

	return &Client{
		httpClient: client,
		config:     cfg,
	}
}

func (c *Client) messagesPath() string {
	return "/" + c.config.PhoneNumberID + "/messages"
}

// Send posts payload. The configuration is validated first so a missing or
// short token never reaches the network.
func (c *Client) Send(ctx context.Context, payload *Payload) (*domain.SendResponse, error) {
	if err := c.config.Validate(); err != nil {
		return nil, err
	}

	var sendResp domain.SendResponse

	startTime := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&sendResp).
		Post(c.messagesPath())

	duration := time.Since(startTime)

	if err != nil {
		return nil, &domain.NetworkError{Service: serviceName, Err: err}
	}

	logger.Infof("WhatsApp %s message to %s completed in %v (status: %d)",
		payload.Type, payload.To, duration, resp.StatusCode())

	if !resp.IsSuccess() {
		return nil, remoteError(resp)
	}

	return &sendResp, nil
}

// SendMessage builds the payload for msg and sends it.
func (c *Client) SendMessage(ctx context.Context, to string, msg domain.OutboundMessage) (*domain.SendResponse, error) {
	payload, err := BuildPayload(to, msg)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, payload)
}

func (c *Client) SendText(ctx context.Context, to, body string) (*domain.SendResponse, error) {
	return c.SendMessage(ctx, to, domain.TextMessage(body))
}

func (c *Client) SendTemplate(
	ctx context.Context,
	to, name, languageCode string,
	parameters ...string,
) (*domain.SendResponse, error) {
	return c.SendMessage(ctx, to, domain.TemplateMessage(name, languageCode, parameters...))
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out any) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(out).
		Get(path)
	if err != nil {
		return &domain.NetworkError{Service: serviceName, Err: err}
	}

	if !resp.IsSuccess() {
		return remoteError(resp)
	}

	return nil
}

// PhoneNumber is the subset of the phone-number node the status check reads.
type PhoneNumber struct {
	ID                     string `json:"id"`
	DisplayPhoneNumber     string `json:"display_phone_number"`
	VerifiedName           string `json:"verified_name"`
	CodeVerificationStatus string `json:"code_verification_status"`
	QualityRating          string `json:"quality_rating"`
	Status                 string `json:"status,omitempty"`
}

func (c *Client) PhoneNumberStatus(ctx context.Context) (*PhoneNumber, error) {
	if err := c.config.Validate(); err != nil {
		return nil, err
	}

	var phone PhoneNumber
	if err := c.get(ctx, "/"+c.config.PhoneNumberID, nil, &phone); err != nil {
		return nil, err
	}
	return &phone, nil
}

type BusinessAccount struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Currency   string `json:"currency"`
	TimezoneID string `json:"timezone_id"`
}

func (c *Client) BusinessAccount(ctx context.Context) (*BusinessAccount, error) {
	if err := c.config.ValidateBusinessAccount(); err != nil {
		return nil, err
	}

	var account BusinessAccount
	if err := c.get(ctx, "/"+c.config.BusinessAccountID, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

type App struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Me resolves the identity behind the token.
func (c *Client) Me(ctx context.Context) (*App, error) {
	if err := c.config.Validate(); err != nil {
		return nil, err
	}

	var app App
	if err := c.get(ctx, "/me", nil, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

type MessageTemplate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Category string `json:"category"`
	Language string `json:"language"`
}

// ListTemplates reads the message templates of the business account.
func (c *Client) ListTemplates(ctx context.Context) ([]MessageTemplate, error) {
	if err := c.config.ValidateBusinessAccount(); err != nil {
		return nil, err
	}

	var page struct {
		Data []MessageTemplate `json:"data"`
	}

	query := map[string]string{"limit": "100"}
	if err := c.get(ctx, "/"+c.config.BusinessAccountID+"/message_templates", query, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// TemplateReport says whether a template can carry authentication codes.
type TemplateReport struct {
	Name                string `json:"name"`
	Status              string `json:"status"`
	Category            string `json:"category"`
	Language            string `json:"language"`
	Approved            bool   `json:"isApproved"`
	CanSendWithoutOptIn bool   `json:"canSendWithoutOptin"`
	AuthenticationReady bool   `json:"authenticationReady"`
}

func (c *Client) TemplateStatus(ctx context.Context, name string) (*TemplateReport, error) {
	templates, err := c.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	for _, t := range templates {
		if t.Name != name {
			continue
		}

		report := &TemplateReport{
			Name:     t.Name,
			Status:   t.Status,
			Category: t.Category,
			Language: t.Language,
			Approved: t.Status == "APPROVED",
		}
		report.CanSendWithoutOptIn = t.Category == "AUTHENTICATION" || t.Category == "UTILITY"
		report.AuthenticationReady = report.Approved && report.CanSendWithoutOptIn
		return report, nil
	}

	return nil, fmt.Errorf("template %q: %w", name, domain.ErrNotFound)
}

// CheckResult is one line of the account diagnostic.
type CheckResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Diagnostic struct {
	Timestamp time.Time              `json:"timestamp"`
	Config    map[string]any         `json:"config"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Diagnose runs every read-only account check and records each outcome
// independently; one failing check does not stop the others.
func (c *Client) Diagnose(ctx context.Context) *Diagnostic {
	diag := &Diagnostic{
		Timestamp: time.Now().UTC(),
		Config: map[string]any{
			"phoneNumberId":     c.config.PhoneNumberID,
			"businessAccountId": c.config.BusinessAccountID,
			"apiVersion":        c.config.APIVersion,
			"tokenLength":       len(c.config.Token),
		},
		Checks: make(map[string]CheckResult),
	}

	record := func(name string, data any, err error) {
		if err != nil {
			logger.Warnf("WhatsApp diagnostic %s failed: %v", name, err)
			diag.Checks[name] = CheckResult{Success: false, Error: err.Error()}
			return
		}
		diag.Checks[name] = CheckResult{Success: true, Data: data}
	}

	phone, err := c.PhoneNumberStatus(ctx)
	record("phoneNumber", phone, err)

	account, err := c.BusinessAccount(ctx)
	record("businessAccount", account, err)

	app, err := c.Me(ctx)
	record("appPermissions", app, err)

	templates, err := c.ListTemplates(ctx)
	record("templates", templates, err)

	return diag
}
