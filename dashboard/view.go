package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crmdash/orders"
)

type Tab string

const (
	TabOrders    Tab = "orders"
	TabAnalytics Tab = "analytics"
)

// ParseTab maps a form value to a Tab.
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case TabOrders, TabAnalytics:
		return Tab(s), nil
	default:
		return "", fmt.Errorf("unknown tab %q", s)
	}
}

// FetchResult describes one settled FetchData call.
type FetchResult struct {
	Started       time.Time
	Finished      time.Time
	OrderCount    int
	SummaryLoaded bool
	Err           error
}

// Options hook a View into its surroundings. Both callbacks run on the
// goroutine that changed the state, outside the view lock.
type Options struct {
	// OnChange fires after every state change (loading, data, tab).
	OnChange func()
	// OnFetch fires once per FetchData call, after loading is released.
	OnFetch func(FetchResult)
}

// View is the dashboard state owned by a single viewer: the fetched order
// list and summary, the loading flag and the selected tab.
type View struct {
	source Source
	opts   Options

	mu      sync.Mutex
	orders  []orders.Order
	summary *orders.Summary
	loading bool
	tab     Tab
}

func NewView(source Source, opts Options) *View {
	return &View{
		source: source,
		opts:   opts,
		orders: []orders.Order{},
		tab:    TabAnalytics,
	}
}

func (v *View) update(fn func()) {
	v.mu.Lock()
	fn()
	v.mu.Unlock()
	if v.opts.OnChange != nil {
		v.opts.OnChange()
	}
}

// FetchData loads orders and then the summary, strictly one after the other.
// loading stays true across both requests and is released on every exit
// path. A failed request leaves the value it would have replaced untouched
// and the error is returned to the caller; a failed orders request means the
// summary is never requested. Overlapping calls are not fenced: whichever
// response lands last wins.
func (v *View) FetchData(ctx context.Context) (err error) {
	result := FetchResult{Started: time.Now()}
	v.update(func() { v.loading = true })
	defer func() {
		v.update(func() { v.loading = false })
		result.Finished = time.Now()
		result.Err = err
		if v.opts.OnFetch != nil {
			v.opts.OnFetch(result)
		}
	}()

	list, err := v.source.FetchOrders(ctx)
	if err != nil {
		return fmt.Errorf("fetch orders: %w", err)
	}
	v.update(func() { v.orders = list })
	result.OrderCount = len(list)

	sum, err := v.source.FetchSummary(ctx)
	if err != nil {
		return fmt.Errorf("fetch summary: %w", err)
	}
	v.update(func() { v.summary = sum })
	result.SummaryLoaded = true
	return nil
}

// SelectTab switches the active render branch.
func (v *View) SelectTab(t Tab) {
	v.update(func() { v.tab = t })
}

// Snapshot is a point-in-time copy of the view state, safe to render.
type Snapshot struct {
	Orders    []orders.Order
	Summary   *orders.Summary
	Loading   bool
	ActiveTab Tab
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := Snapshot{
		Orders:    append([]orders.Order(nil), v.orders...),
		Loading:   v.loading,
		ActiveTab: v.tab,
	}
	if v.summary != nil {
		sum := *v.summary
		s.Summary = &sum
	}
	return s
}
