package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crmdash/orders"
)

var (
	// ErrUpstream marks a failed request: unreachable endpoint or non-2xx status.
	ErrUpstream = errors.New("upstream request failed")
	// ErrDecode marks a body that is not the expected JSON shape.
	ErrDecode = errors.New("unexpected response body")
)

// Source is where the dashboard reads its order list and summary from.
type Source interface {
	FetchOrders(ctx context.Context) ([]orders.Order, error)
	FetchSummary(ctx context.Context) (*orders.Summary, error)
}

// Client reads {base}/orders and {base}/summary over plain HTTP GET.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an HTTP source. A zero timeout never times out.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrUpstream, path, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrUpstream, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUpstream, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: HTTP %d: %s", ErrUpstream, path, resp.StatusCode, string(data))
	}
	return data, nil
}

func (c *Client) FetchOrders(ctx context.Context) ([]orders.Order, error) {
	data, err := c.get(ctx, "/orders")
	if err != nil {
		return nil, err
	}
	var body struct {
		Orders *[]orders.Order `json:"orders"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: /orders: %v", ErrDecode, err)
	}
	if body.Orders == nil {
		return nil, fmt.Errorf("%w: /orders: missing orders field", ErrDecode)
	}
	return *body.Orders, nil
}

var summaryFields = []string{"total_orders", "approved_orders", "delivered_orders", "approval_rate", "delivery_rate"}

func (c *Client) FetchSummary(ctx context.Context) (*orders.Summary, error) {
	data, err := c.get(ctx, "/summary")
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: /summary: %v", ErrDecode, err)
	}
	for _, f := range summaryFields {
		if _, ok := fields[f]; !ok {
			return nil, fmt.Errorf("%w: /summary: missing %s", ErrDecode, f)
		}
	}
	var sum orders.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("%w: /summary: %v", ErrDecode, err)
	}
	return &sum, nil
}

// BaseURL returns the upstream base URL.
func (c *Client) BaseURL() string { return c.baseURL }
