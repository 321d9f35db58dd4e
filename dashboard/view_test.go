package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"crmdash/orders"
)

// stubSource returns canned results and records call order. If view is set,
// it also records the loading flag observed inside each request.
type stubSource struct {
	mu          sync.Mutex
	list        []orders.Order
	summary     *orders.Summary
	ordersErr   error
	summaryErr  error
	calls       []string
	view        *View
	loadingSeen []bool
}

func (s *stubSource) observe(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	if s.view != nil {
		loading := s.view.Snapshot().Loading
		s.mu.Lock()
		s.loadingSeen = append(s.loadingSeen, loading)
		s.mu.Unlock()
	}
}

func (s *stubSource) FetchOrders(ctx context.Context) ([]orders.Order, error) {
	s.observe("orders")
	return s.list, s.ordersErr
}

func (s *stubSource) FetchSummary(ctx context.Context) (*orders.Summary, error) {
	s.observe("summary")
	return s.summary, s.summaryErr
}

func sampleSummary() *orders.Summary {
	return &orders.Summary{TotalOrders: 10, ApprovedOrders: 6, DeliveredOrders: 4, ApprovalRate: 60, DeliveryRate: 40}
}

func TestNewViewDefaults(t *testing.T) {
	v := NewView(&stubSource{}, Options{})
	s := v.Snapshot()
	if s.ActiveTab != TabAnalytics {
		t.Errorf("ActiveTab = %q, want %q", s.ActiveTab, TabAnalytics)
	}
	if s.Loading {
		t.Error("Loading should start false")
	}
	if len(s.Orders) != 0 {
		t.Errorf("Orders = %v, want empty", s.Orders)
	}
	if s.Summary != nil {
		t.Errorf("Summary = %+v, want nil", s.Summary)
	}
}

func TestFetchDataSuccess(t *testing.T) {
	src := &stubSource{
		list:    []orders.Order{{Number: "1", Status: "new", ItemsWithoutDelivery: 1, TotalItems: 2}},
		summary: sampleSummary(),
	}
	var results []FetchResult
	v := NewView(src, Options{OnFetch: func(r FetchResult) { results = append(results, r) }})
	src.view = v

	if err := v.FetchData(context.Background()); err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	s := v.Snapshot()
	if s.Loading {
		t.Error("Loading should be false after settlement")
	}
	if len(s.Orders) != 1 || s.Orders[0].Number != "1" {
		t.Errorf("Orders = %+v", s.Orders)
	}
	if s.Summary == nil || *s.Summary != *sampleSummary() {
		t.Errorf("Summary = %+v", s.Summary)
	}
	if len(src.calls) != 2 || src.calls[0] != "orders" || src.calls[1] != "summary" {
		t.Errorf("calls = %v, want [orders summary]", src.calls)
	}
	for i, l := range src.loadingSeen {
		if !l {
			t.Errorf("loading during request %d = false, want true", i)
		}
	}
	if len(results) != 1 || results[0].Err != nil || results[0].OrderCount != 1 || !results[0].SummaryLoaded {
		t.Errorf("results = %+v", results)
	}
}

func TestFetchDataOrdersFailure(t *testing.T) {
	boom := errors.New("connection refused")
	src := &stubSource{ordersErr: boom, summary: sampleSummary()}
	v := NewView(src, Options{})
	src.view = v

	err := v.FetchData(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	s := v.Snapshot()
	if s.Loading {
		t.Error("Loading should be false after failure")
	}
	if len(s.Orders) != 0 {
		t.Errorf("Orders = %v, want initial empty", s.Orders)
	}
	if s.Summary != nil {
		t.Error("Summary should stay unset")
	}
	if len(src.calls) != 1 {
		t.Errorf("calls = %v, summary must not be requested", src.calls)
	}
}

func TestFetchDataSummaryFailureKeepsPreviousSummary(t *testing.T) {
	src := &stubSource{list: []orders.Order{{Number: "1"}}, summary: sampleSummary()}
	v := NewView(src, Options{})
	if err := v.FetchData(context.Background()); err != nil {
		t.Fatalf("first FetchData: %v", err)
	}

	src.list = []orders.Order{{Number: "2"}, {Number: "3"}}
	src.summary = &orders.Summary{TotalOrders: 99}
	src.summaryErr = ErrDecode
	src.view = v

	err := v.FetchData(context.Background())
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	s := v.Snapshot()
	if s.Loading {
		t.Error("Loading should be false after failure")
	}
	if len(s.Orders) != 2 {
		t.Errorf("Orders = %v, want replaced by second fetch", s.Orders)
	}
	if s.Summary == nil || s.Summary.TotalOrders != 10 {
		t.Errorf("Summary = %+v, want previous value", s.Summary)
	}
	for i, l := range src.loadingSeen {
		if !l {
			t.Errorf("loading during request %d = false, want true", i)
		}
	}
}

func TestFetchDataNotifiesChanges(t *testing.T) {
	src := &stubSource{list: []orders.Order{}, summary: sampleSummary()}
	changes := 0
	v := NewView(src, Options{OnChange: func() { changes++ }})
	v.FetchData(context.Background())
	// loading on, orders, summary, loading off
	if changes != 4 {
		t.Errorf("changes = %d, want 4", changes)
	}
	v.SelectTab(TabOrders)
	if changes != 5 {
		t.Errorf("changes after tab = %d, want 5", changes)
	}
}

func TestSelectTab(t *testing.T) {
	v := NewView(&stubSource{}, Options{})
	v.SelectTab(TabOrders)
	if got := v.Snapshot().ActiveTab; got != TabOrders {
		t.Errorf("ActiveTab = %q, want orders", got)
	}
	v.SelectTab(TabAnalytics)
	if got := v.Snapshot().ActiveTab; got != TabAnalytics {
		t.Errorf("ActiveTab = %q, want analytics", got)
	}
}

func TestParseTab(t *testing.T) {
	for _, s := range []string{"orders", "analytics"} {
		if tab, err := ParseTab(s); err != nil || string(tab) != s {
			t.Errorf("ParseTab(%q) = %q, %v", s, tab, err)
		}
	}
	if _, err := ParseTab("settings"); err == nil {
		t.Error("ParseTab(settings) should fail")
	}
}

// gatedSource blocks each request until the test releases it. Calls are told
// apart by a context value so overlapping FetchData runs can be ordered.
type callKey struct{}

type gatedResponse struct {
	list    []orders.Order
	summary *orders.Summary
}

type gatedSource struct {
	entered chan string
	release map[string]chan gatedResponse
}

func (g *gatedSource) wait(ctx context.Context) gatedResponse {
	id := ctx.Value(callKey{}).(string)
	g.entered <- id
	return <-g.release[id]
}

func (g *gatedSource) FetchOrders(ctx context.Context) ([]orders.Order, error) {
	return g.wait(ctx).list, nil
}

func (g *gatedSource) FetchSummary(ctx context.Context) (*orders.Summary, error) {
	return g.wait(ctx).summary, nil
}

func TestOverlappingFetchLastSettledWins(t *testing.T) {
	g := &gatedSource{
		entered: make(chan string),
		release: map[string]chan gatedResponse{
			"a": make(chan gatedResponse),
			"b": make(chan gatedResponse),
		},
	}
	v := NewView(g, Options{})

	respA := gatedResponse{
		list:    []orders.Order{{Number: "A1"}, {Number: "A2"}},
		summary: &orders.Summary{TotalOrders: 2},
	}
	respB := gatedResponse{
		list:    []orders.Order{{Number: "B1"}},
		summary: &orders.Summary{TotalOrders: 1},
	}

	var wg sync.WaitGroup
	run := func(id string) {
		defer wg.Done()
		ctx := context.WithValue(context.Background(), callKey{}, id)
		if err := v.FetchData(ctx); err != nil {
			t.Errorf("FetchData(%s): %v", id, err)
		}
	}

	wg.Add(2)
	go run("a")
	if id := <-g.entered; id != "a" {
		t.Fatalf("entered %q, want a", id)
	}
	go run("b")
	if id := <-g.entered; id != "b" {
		t.Fatalf("entered %q, want b", id)
	}

	// b settles completely first.
	g.release["b"] <- respB
	<-g.entered
	g.release["b"] <- respB

	// then a.
	g.release["a"] <- respA
	<-g.entered
	g.release["a"] <- respA
	wg.Wait()

	s := v.Snapshot()
	if len(s.Orders) != 2 || s.Orders[0].Number != "A1" || s.Orders[1].Number != "A2" {
		t.Errorf("Orders = %+v, want a's rows exactly once", s.Orders)
	}
	if s.Summary == nil || s.Summary.TotalOrders != 2 {
		t.Errorf("Summary = %+v, want a's summary", s.Summary)
	}
	if s.Loading {
		t.Error("Loading should be false once both calls settled")
	}
}
