package kv

import (
	"context"
	"log"
	"time"

	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/directions"
)

// CachedProvider decorates a directions provider with the pebble route cache.
// Cache trouble never fails a request, it only falls through to the provider.
type CachedProvider struct {
	inner directions.Provider
	db    *KVDB
	ttl   time.Duration
	now   func() time.Time
}

func NewCachedProvider(inner directions.Provider, db *KVDB, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		db:    db,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *CachedProvider) Route(ctx context.Context, origin, dest datastructure.Coordinate) (*directions.Route, error) {
	key := RouteKey(origin, dest, directions.ModeDriving)

	route, storedAt, err := c.db.GetRoute(key)
	if err == nil && c.now().Sub(storedAt) <= c.ttl {
		return route, nil
	}
	if err != nil && err != ErrRouteNotCached {
		log.Printf("route cache read %s: %v", key, err)
	}

	route, err = c.inner.Route(ctx, origin, dest)
	if err != nil {
		return nil, err
	}
	if saveErr := c.db.SaveRoute(key, route, c.now()); saveErr != nil {
		log.Printf("route cache write %s: %v", key, saveErr)
	}
	return route, nil
}
