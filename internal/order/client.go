package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrOrderNotFound = errors.New("order not found")

// Service is the contract the coupon flow needs from order-service.
type Service interface {
	GetOrder(ctx context.Context, id string) (*Order, error)
	SetMetadata(ctx context.Context, orderID, key string, value []string) error
}

// Client calls order-service over HTTP.
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

func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	reqURL := fmt.Sprintf("%s/orders/%s", c.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("order: failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order: failed to fetch order %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrOrderNotFound
	default:
		log.Warn().Str("order_id", id).Int("status", resp.StatusCode).Msg("order: unexpected status from order-service")
		return nil, fmt.Errorf("order: unexpected status %d fetching order %s", resp.StatusCode, id)
	}

	var ord Order
	if err := json.NewDecoder(resp.Body).Decode(&ord); err != nil {
		return nil, fmt.Errorf("order: failed to decode order %s: %w", id, err)
	}

	return &ord, nil
}

// SetMetadata writes one metadata key on the order. order-service persists the
// order on this call, so a separate save round-trip is not needed.
func (c *Client) SetMetadata(ctx context.Context, orderID, key string, value []string) error {
	body, err := json.Marshal(map[string][]string{"value": value})
	if err != nil {
		return fmt.Errorf("order: failed to marshal metadata value: %w", err)
	}

	reqURL := fmt.Sprintf("%s/orders/%s/metadata/%s", c.baseURL, url.PathEscape(orderID), url.PathEscape(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("order: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("order: failed to set metadata on order %s: %w", orderID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrOrderNotFound
	default:
		return fmt.Errorf("order: unexpected status %d setting metadata on order %s", resp.StatusCode, orderID)
	}
}
