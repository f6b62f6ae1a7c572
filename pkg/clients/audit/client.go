// Package audit provides the HTTP client for the external audit collaborator.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/farmledger/internal/domain/models"
)

// WebhookClient POSTs audit entries to a configured collaborator endpoint.
type WebhookClient struct {
	httpClient *resty.Client
}

// NewWebhookClient builds a resty-backed audit client.
func NewWebhookClient(endpoint, token string) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(endpoint).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	if token != "" {
		restyClient.SetHeader("Authorization", "Bearer "+token)
	}
	return &WebhookClient{httpClient: restyClient}
}

// Record implements the audit sink contract over HTTP.
func (c *WebhookClient) Record(ctx context.Context, entry models.AuditLog) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(entry).
		Post("")
	if err != nil {
		return fmt.Errorf("post audit entry: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("audit collaborator returned status %d", resp.StatusCode())
	}
	return nil
}
