// Package cache decorates repositories with process-local read caches.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/oneeyedreaper/onboard/internal/core/domain"
	"github.com/oneeyedreaper/onboard/internal/core/port"
)

const catalogKey = "onboarding_steps"

// StepLister loads the raw step catalog.
type StepLister interface {
	ListSteps(ctx context.Context) ([]domain.OnboardingStep, error)
}

// StepCatalog serves the onboarding step catalog from memory, reloading it after ttl.
type StepCatalog struct {
	source StepLister
	ttl    time.Duration
	cache  *gocache.Cache
	group  singleflight.Group
}

// NewStepCatalog wraps source. A non-positive ttl keeps the catalog for the life of the process.
func NewStepCatalog(source StepLister, ttl time.Duration) *StepCatalog {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &StepCatalog{
		source: source,
		ttl:    ttl,
		cache:  gocache.New(ttl, 10*time.Minute),
	}
}

// Steps returns the catalog ordered by step number.
func (c *StepCatalog) Steps(ctx context.Context) (domain.StepCatalog, error) {
	if cached, ok := c.cache.Get(catalogKey); ok {
		return cached.(domain.StepCatalog), nil
	}

	v, err, _ := c.group.Do(catalogKey, func() (any, error) {
		steps, err := c.source.ListSteps(ctx)
		if err != nil {
			return nil, fmt.Errorf("load step catalog: %w", err)
		}
		if len(steps) == 0 {
			return nil, errors.New("step catalog is empty")
		}
		catalog := domain.NewStepCatalog(steps)
		c.cache.Set(catalogKey, catalog, c.ttl)
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.StepCatalog), nil
}

// Invalidate drops the cached catalog.
func (c *StepCatalog) Invalidate() {
	c.cache.Delete(catalogKey)
}

var _ port.StepCatalog = (*StepCatalog)(nil)
