package crm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"crmdash/orders"
)

func testServer(handler http.HandlerFunc) (*httptest.Server, *Client) {
	srv := httptest.NewServer(handler)
	client := NewClient(ClientConfig{
		APIURL:          srv.URL + "/api/v5/orders",
		APIKey:          "test-key",
		PageLimit:       100,
		DeliveryKeyword: "Доставка",
		Timeout:         5 * time.Second,
	})
	return srv, client
}

func item(name string) rawItem {
	return rawItem{Offer: rawOffer{Name: name}}
}

func TestFetchOrdersPaginates(t *testing.T) {
	var pages []int
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v5/orders" {
			t.Errorf("path = %q, want /api/v5/orders", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("apiKey") != "test-key" {
			t.Errorf("apiKey = %q, want test-key", q.Get("apiKey"))
		}
		if q.Get("limit") != "100" {
			t.Errorf("limit = %q, want 100", q.Get("limit"))
		}
		page, _ := strconv.Atoi(q.Get("page"))
		pages = append(pages, page)

		var body ordersPage
		switch page {
		case 1:
			body.Orders = []rawOrder{
				{Number: "101A", Status: "new", Items: []rawItem{item("Chair"), item("Доставка курьером")}},
				{Number: "102A", Status: "complete", Items: []rawItem{item("Table")}},
			}
		case 2:
			body.Orders = []rawOrder{
				{Number: "103A", Status: "payoff"},
			}
		}
		json.NewEncoder(w).Encode(body)
	})
	defer srv.Close()

	list, err := client.FetchOrders(context.Background())
	if err != nil {
		t.Fatalf("FetchOrders: %v", err)
	}
	if len(pages) != 3 || pages[0] != 1 || pages[2] != 3 {
		t.Errorf("pages requested = %v, want [1 2 3]", pages)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	first := list[0]
	if first.Number != "101A" || first.Status != "new" {
		t.Errorf("first = %+v", first)
	}
	if first.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", first.TotalItems)
	}
	if first.ItemsWithoutDelivery != 1 {
		t.Errorf("ItemsWithoutDelivery = %d, want 1", first.ItemsWithoutDelivery)
	}
	if list[2].TotalItems != 0 || list[2].ItemsWithoutDelivery != 0 {
		t.Errorf("itemless order = %+v", list[2])
	}
}

func TestFetchOrdersEmpty(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"orders":[]}`))
	})
	defer srv.Close()

	list, err := client.FetchOrders(context.Background())
	if err != nil {
		t.Fatalf("FetchOrders: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("list = %#v, want empty non-nil slice", list)
	}
}

func TestFetchOrdersHTTPError(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errorMsg":"Wrong apiKey value"}`))
	})
	defer srv.Close()

	if _, err := client.FetchOrders(context.Background()); err == nil {
		t.Fatal("expected error for HTTP 403")
	}
}

func TestFetchOrdersDecodeError(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	defer srv.Close()

	if _, err := client.FetchOrders(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFetchOrdersRequiresURL(t *testing.T) {
	client := NewClient(ClientConfig{})
	if _, err := client.FetchOrders(context.Background()); err == nil {
		t.Fatal("expected error for missing api url")
	}
}

// --- Service tests ---

type stubFetcher struct {
	calls int
	list  []orders.Order
	err   error
}

func (f *stubFetcher) FetchOrders(ctx context.Context) ([]orders.Order, error) {
	f.calls++
	return f.list, f.err
}

type memoryCache struct {
	mu   sync.Mutex
	list []orders.Order
	ttl  time.Duration
	hit  bool
}

func (m *memoryCache) GetOrders(ctx context.Context) ([]orders.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list, m.hit, nil
}

func (m *memoryCache) SetOrders(ctx context.Context, list []orders.Order, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list, m.ttl, m.hit = list, ttl, true
	return nil
}

type recordingObserver struct {
	counts []int
	errs   []error
}

func (o *recordingObserver) CRMPulled(orderCount int, started time.Time, err error) {
	o.counts = append(o.counts, orderCount)
	o.errs = append(o.errs, err)
}

func TestServiceSummary(t *testing.T) {
	fetcher := &stubFetcher{list: []orders.Order{
		{Number: "1", Status: "complete"},
		{Number: "2", Status: "assembling"},
		{Number: "3", Status: "new"},
		{Number: "4", Status: "new"},
	}}
	obs := &recordingObserver{}
	svc := NewService(ServiceConfig{Fetcher: fetcher, Observer: obs})

	sum, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	want := orders.Summary{TotalOrders: 4, ApprovedOrders: 2, DeliveredOrders: 1, ApprovalRate: 50, DeliveryRate: 50}
	if *sum != want {
		t.Errorf("Summary = %+v, want %+v", *sum, want)
	}
	if len(obs.counts) != 1 || obs.counts[0] != 4 {
		t.Errorf("observer counts = %v, want [4]", obs.counts)
	}
}

func TestServiceWithoutCachePullsEveryTime(t *testing.T) {
	fetcher := &stubFetcher{list: []orders.Order{{Number: "1"}}}
	svc := NewService(ServiceConfig{Fetcher: fetcher, Cache: &memoryCache{}})

	svc.Orders(context.Background())
	svc.Orders(context.Background())
	if fetcher.calls != 2 {
		t.Errorf("calls = %d, want 2 (zero TTL disables cache)", fetcher.calls)
	}
}

func TestServiceCachesOrders(t *testing.T) {
	fetcher := &stubFetcher{list: []orders.Order{{Number: "1"}, {Number: "2"}}}
	cache := &memoryCache{}
	svc := NewService(ServiceConfig{Fetcher: fetcher, Cache: cache, CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		list, err := svc.Orders(context.Background())
		if err != nil {
			t.Fatalf("Orders: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("len = %d, want 2", len(list))
		}
	}
	if fetcher.calls != 1 {
		t.Errorf("calls = %d, want 1", fetcher.calls)
	}
	if cache.ttl != time.Minute {
		t.Errorf("cache ttl = %v, want 1m", cache.ttl)
	}
}

func TestServicePropagatesError(t *testing.T) {
	boom := errors.New("crm down")
	obs := &recordingObserver{}
	cache := &memoryCache{}
	svc := NewService(ServiceConfig{Fetcher: &stubFetcher{err: boom}, Cache: cache, CacheTTL: time.Minute, Observer: obs})

	if _, err := svc.Summary(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if cache.hit {
		t.Error("failed pull must not populate the cache")
	}
	if len(obs.errs) != 1 || !errors.Is(obs.errs[0], boom) {
		t.Errorf("observer errs = %v", obs.errs)
	}
}
