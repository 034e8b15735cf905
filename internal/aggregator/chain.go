package aggregator

import (
	"context"
	"fmt"

	"go-directory-app/internal/data"
	"go-directory-app/internal/logger"
)

// Chain tries its sources in priority order. The first source returning
// a non-empty result without error wins.
type Chain struct {
	sources []ListingSource
	log     logger.Logger
}

// NewChain builds a chain, skipping nil sources.
func NewChain(log logger.Logger, sources ...ListingSource) *Chain {
	c := &Chain{log: log}
	for _, s := range sources {
		if s != nil {
			c.sources = append(c.sources, s)
		}
	}
	return c
}

// Find never fails: source errors are logged and the next source is tried.
// The result is empty, never nil, when every source comes up empty.
func (c *Chain) Find(ctx context.Context, q data.ListingQuery) []*data.BusinessListing {
	for _, s := range c.sources {
		listings, err := s.Find(ctx, q)
		if err != nil {
			c.log.Warn(fmt.Sprintf("listing source %s failed: %v", s.Name(), err))
			continue
		}
		if len(listings) > 0 {
			return listings
		}
	}
	return []*data.BusinessListing{}
}
