package kv

import (
	"errors"
	"fmt"
	"time"

	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/directions"

	"github.com/cockroachdb/pebble"
	"github.com/uber/h3-go/v4"
)

// cell resolution 11 has ~25 m hexagons, close to the tracker's movement
// threshold, so two origins inside one cell share a cached route.
const routeCellResolution = 11

type KVDB struct {
	db *pebble.DB
}

func NewKVDB(db *pebble.DB) *KVDB {
	return &KVDB{db}
}

func (k *KVDB) Close() error {
	return k.db.Close()
}

// RouteKey buckets origin and destination into h3 cells so jittery origins
// below the cell size hit the same entry.
func RouteKey(origin, dest datastructure.Coordinate, mode string) string {
	originCell := h3.LatLngToCell(h3.NewLatLng(origin.Lat, origin.Lon), routeCellResolution)
	destCell := h3.LatLngToCell(h3.NewLatLng(dest.Lat, dest.Lon), routeCellResolution)
	return fmt.Sprintf("route/%s/%s/%s", originCell.String(), destCell.String(), mode)
}

var ErrRouteNotCached = errors.New("route not in cache")

func (k *KVDB) SaveRoute(key string, route *directions.Route, storedAt time.Time) error {
	bb, err := Encode(CachedRoute{Route: route, StoredAt: storedAt})
	if err != nil {
		return err
	}
	val, err := Compress(bb)
	if err != nil {
		return err
	}
	return k.db.Set([]byte(key), val, pebble.Sync)
}

func (k *KVDB) GetRoute(key string) (*directions.Route, time.Time, error) {
	val, closer, err := k.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, time.Time{}, ErrRouteNotCached
		}
		return nil, time.Time{}, err
	}
	defer closer.Close()

	bb, err := Decompress(val)
	if err != nil {
		return nil, time.Time{}, err
	}
	entry, err := Decode(bb)
	if err != nil {
		return nil, time.Time{}, err
	}
	return entry.Route, entry.StoredAt, nil
}
