package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
)

// Alert is posted to the operator's webhook when the outbox keeps failing.
type Alert struct {
	Alert               string    `json:"alert"`
	RunNumber           int64     `json:"runNumber"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	MessagesInBatch     int       `json:"messagesInBatch"`
	Message             string    `json:"message"`
	Timestamp           time.Time `json:"timestamp"`
}

type Client struct {
	httpClient *resty.Client
}

func NewClient(timeout time.Duration) *Client {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json")

	client.AddRetryCondition(func(_ *resty.Response, err error) bool {
		return err != nil
	})

	return &Client{httpClient: client}
}

// Post delivers alert to url. Any 2xx answer counts as delivered.
func (c *Client) Post(ctx context.Context, url string, alert Alert) error {
	startTime := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(alert).
		Post(url)
	if err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}

	logger.Infof("Alert webhook %s completed in %v (status: %d)", url, time.Since(startTime), resp.StatusCode())

	if !resp.IsSuccess() {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode())
	}

	return nil
}
