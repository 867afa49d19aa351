package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/giftlens/backend/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCollectorConcurrency = 4
	defaultPerQueryLimit        = 10
	priorityHigh                = "high"
	priorityMedium              = "medium"
)

// CollectorConfig controls retailer fan-out
type CollectorConfig struct {
	Concurrency   int
	PerQueryLimit int
}

// InventoryCollector builds the inventory pool for a profile by querying
// every retailer for every interest.
type InventoryCollector struct {
	retailers []domain.RetailerSearcher
	config    CollectorConfig
}

// NewInventoryCollector creates a collector over the given retailers
func NewInventoryCollector(retailers []domain.RetailerSearcher, config CollectorConfig) *InventoryCollector {
	if config.Concurrency <= 0 {
		config.Concurrency = defaultCollectorConcurrency
	}
	if config.PerQueryLimit <= 0 {
		config.PerQueryLimit = defaultPerQueryLimit
	}
	return &InventoryCollector{retailers: retailers, config: config}
}

type searchTask struct {
	interest domain.Interest
	retailer domain.RetailerSearcher
	query    string
}

// Collect runs all searches and returns the merged pool. Ordering is
// deterministic: high-priority interests first, then interest order, then
// retailer order. A failing retailer is skipped; an empty pool is
// domain.ErrNoInventory.
func (c *InventoryCollector) Collect(ctx context.Context, profile *domain.Profile) ([]domain.Product, error) {
	tasks := c.plan(profile)
	if len(tasks) == 0 {
		return nil, domain.ErrNoInventory
	}

	results := make([][]domain.Product, len(tasks))
	var failures int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			products, err := task.retailer.Search(gctx, task.query, c.config.PerQueryLimit)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				atomic.AddInt32(&failures, 1)
				log.Warn().
					Err(err).
					Str("retailer", task.retailer.Name()).
					Str("query", task.query).
					Msg("retailer search failed, skipping")
				return nil
			}
			results[i] = products
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var pool []domain.Product
	for i, products := range results {
		task := tasks[i]
		for _, p := range products {
			key := NormalizeLink(p.Link)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true

			if p.InterestMatch == "" {
				p.InterestMatch = task.interest.Name
			}
			p.Priority = task.interest.Priority
			pool = append(pool, p)
		}
	}

	log.Info().
		Int("searches", len(tasks)).
		Int32("failed", atomic.LoadInt32(&failures)).
		Int("products", len(pool)).
		Msg("inventory collected")

	if len(pool) == 0 {
		if int(failures) == len(tasks) {
			return nil, fmt.Errorf("%w: %w", domain.ErrNoInventory, domain.ErrRetailerFailure)
		}
		return nil, domain.ErrNoInventory
	}
	return pool, nil
}

// plan orders (interest, retailer) pairs
func (c *InventoryCollector) plan(profile *domain.Profile) []searchTask {
	interests := orderedInterests(profile)

	tasks := make([]searchTask, 0, len(interests)*len(c.retailers))
	for _, in := range interests {
		query := buildSearchQuery(in.Name)
		for _, r := range c.retailers {
			tasks = append(tasks, searchTask{interest: in, retailer: r, query: query})
		}
	}
	return tasks
}

// orderedInterests puts high-priority interests first, keeping relative order.
// A profile with no interests searches on its occasion instead.
func orderedInterests(profile *domain.Profile) []domain.Interest {
	var high, rest []domain.Interest
	for _, in := range profile.Interests {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			continue
		}
		priority := strings.ToLower(strings.TrimSpace(in.Priority))
		if priority == priorityHigh {
			high = append(high, domain.Interest{Name: name, Priority: priorityHigh})
		} else {
			rest = append(rest, domain.Interest{Name: name, Priority: priorityMedium})
		}
	}

	ordered := append(high, rest...)
	if len(ordered) == 0 {
		topic := strings.TrimSpace(profile.Occasion)
		if topic == "" {
			topic = "unique"
		}
		ordered = []domain.Interest{{Name: topic, Priority: priorityMedium}}
	}
	return ordered
}

func buildSearchQuery(interest string) string {
	q := strings.ToLower(interest)
	if strings.Contains(q, "gift") {
		return interest
	}
	return interest + " gift"
}
