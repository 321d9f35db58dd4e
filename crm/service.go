package crm

import (
	"context"
	"log"
	"time"

	"crmdash/orders"
)

// Fetcher pulls the full order list from the CRM.
type Fetcher interface {
	FetchOrders(ctx context.Context) ([]orders.Order, error)
}

// OrderCache stores a pulled order list. A miss returns ok=false.
type OrderCache interface {
	GetOrders(ctx context.Context) (list []orders.Order, ok bool, err error)
	SetOrders(ctx context.Context, list []orders.Order, ttl time.Duration) error
}

// PullObserver is told about every CRM pull that actually hit the network.
type PullObserver interface {
	CRMPulled(orderCount int, started time.Time, err error)
}

type ServiceConfig struct {
	Fetcher  Fetcher
	Cache    OrderCache
	CacheTTL time.Duration
	Rules    orders.StatusRules
	Observer PullObserver
}

// Service backs the /orders and /summary endpoints.
type Service struct {
	fetcher  Fetcher
	cache    OrderCache
	cacheTTL time.Duration
	rules    orders.StatusRules
	observer PullObserver
}

func NewService(c ServiceConfig) *Service {
	rules := c.Rules
	if rules.Approved == nil && rules.Delivered == nil {
		rules = orders.DefaultStatusRules()
	}
	return &Service{
		fetcher:  c.Fetcher,
		cache:    c.Cache,
		cacheTTL: c.CacheTTL,
		rules:    rules,
		observer: c.Observer,
	}
}

// SetObserver attaches the pull observer after construction.
func (s *Service) SetObserver(o PullObserver) { s.observer = o }

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.cacheTTL > 0
}

// Orders returns the flattened CRM order list, served from cache when one is
// configured and still fresh.
func (s *Service) Orders(ctx context.Context) ([]orders.Order, error) {
	if s.cacheEnabled() {
		list, ok, err := s.cache.GetOrders(ctx)
		if err != nil {
			log.Printf("crm: cache read: %v", err)
		} else if ok {
			return list, nil
		}
	}

	started := time.Now()
	list, err := s.fetcher.FetchOrders(ctx)
	if s.observer != nil {
		s.observer.CRMPulled(len(list), started, err)
	}
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled() {
		if err := s.cache.SetOrders(ctx, list, s.cacheTTL); err != nil {
			log.Printf("crm: cache write: %v", err)
		}
	}
	return list, nil
}

// Summary derives the aggregate snapshot from a fresh order pull.
func (s *Service) Summary(ctx context.Context) (*orders.Summary, error) {
	list, err := s.Orders(ctx)
	if err != nil {
		return nil, err
	}
	sum := orders.Summarize(list, s.rules)
	return &sum, nil
}
