package webhook

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

// Client is a simple HTTP client for making webhook calls
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
}

// New creates a new webhook client with timeout
func New(logger *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// CallCycleWebhook pings the uptime monitor after a reconciliation cycle so a
// silent scheduler shows up as a missed heartbeat.
func (c *Client) CallCycleWebhook(ctx context.Context, webhookURL, status string) {
	if webhookURL == "" {
		return // Skip if webhook URL is not configured
	}

	target := webhookURL
	if u, err := url.Parse(webhookURL); err == nil {
		q := u.Query()
		q.Set("status", status)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		c.logger.Error("Failed to create webhook request", map[string]string{
			"url":   webhookURL,
			"error": err.Error(),
		})
		return
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to call cycle webhook", map[string]string{
			"url":   webhookURL,
			"error": err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	c.logger.Info("Successfully called cycle webhook", map[string]string{
		"url":         webhookURL,
		"status_code": resp.Status,
	})
}
