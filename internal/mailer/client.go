package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// TemplateCustomerCompletedOrder is the notification-service template that
// carries the coupon section for the customer.
const TemplateCustomerCompletedOrder = "customer_completed_order"

// Mailer triggers transactional email templates in notification-service.
type Mailer interface {
	TriggerTemplate(ctx context.Context, templateID, orderID string) error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) TriggerTemplate(ctx context.Context, templateID, orderID string) error {
	body, err := json.Marshal(map[string]string{"order_id": orderID})
	if err != nil {
		return fmt.Errorf("mailer: failed to marshal trigger payload: %w", err)
	}

	reqURL := fmt.Sprintf("%s/emails/%s/trigger", c.baseURL, url.PathEscape(templateID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailer: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailer: failed to trigger template %s for order %s: %w", templateID, orderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mailer: unexpected status %d triggering template %s for order %s", resp.StatusCode, templateID, orderID)
	}

	return nil
}
