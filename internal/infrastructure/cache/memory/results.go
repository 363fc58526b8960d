package memory

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
)

const (
	DefaultResultCapacity = 128
	DefaultResultTTL      = 15 * time.Minute
)

// ResultCache holds reported screenings for a short time so their
// augmented tables can be downloaded after the results page is served.
type ResultCache struct {
	lru *expirable.LRU[string, *domain.Screening]
}

func NewResultCache(capacity int, ttl time.Duration) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultResultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultCache{
		lru: expirable.NewLRU[string, *domain.Screening](capacity, nil, ttl),
	}
}

func (c *ResultCache) Put(screening *domain.Screening) {
	if screening == nil || screening.Augmented == nil {
		return
	}
	c.lru.Add(screening.RunID, screening)
}

func (c *ResultCache) Get(runID string) (*domain.Screening, bool) {
	return c.lru.Get(runID)
}

func (c *ResultCache) Len() int {
	return c.lru.Len()
}
