package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crmdash/orders"
)

// Client pulls orders from the RetailCRM orders endpoint page by page.
type Client struct {
	apiURL          string
	apiKey          string
	pageLimit       int
	deliveryKeyword string
	httpClient      *http.Client
}

type ClientConfig struct {
	APIURL          string
	APIKey          string
	PageLimit       int
	DeliveryKeyword string
	Timeout         time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	limit := cfg.PageLimit
	if limit <= 0 {
		limit = 100
	}
	return &Client{
		apiURL:          cfg.APIURL,
		apiKey:          cfg.APIKey,
		pageLimit:       limit,
		deliveryKeyword: strings.ToLower(cfg.DeliveryKeyword),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchOrders walks pages starting at 1 until a page comes back with no
// orders, and flattens every raw order into the dashboard shape.
func (c *Client) FetchOrders(ctx context.Context) ([]orders.Order, error) {
	if c.apiURL == "" {
		return nil, fmt.Errorf("crm: api url not configured")
	}
	all := []orders.Order{}
	for page := 1; ; page++ {
		raw, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			break
		}
		for _, o := range raw {
			all = append(all, c.flatten(o))
		}
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) ([]rawOrder, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("crm: parse url: %w", err)
	}
	q := u.Query()
	q.Set("apiKey", c.apiKey)
	q.Set("limit", strconv.Itoa(c.pageLimit))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("crm: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm GET page %d: %w", page, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("crm read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("crm HTTP %d: %s", resp.StatusCode, string(data))
	}
	var body ordersPage
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("crm decode page %d: %w", page, err)
	}
	return body.Orders, nil
}

func (c *Client) flatten(o rawOrder) orders.Order {
	withoutDelivery := 0
	for _, item := range o.Items {
		if c.deliveryKeyword != "" && strings.Contains(strings.ToLower(item.Offer.Name), c.deliveryKeyword) {
			continue
		}
		withoutDelivery++
	}
	return orders.Order{
		Number:               o.Number,
		Status:               o.Status,
		TotalItems:           len(o.Items),
		ItemsWithoutDelivery: withoutDelivery,
	}
}

// APIURL returns the configured CRM endpoint.
func (c *Client) APIURL() string { return c.apiURL }
