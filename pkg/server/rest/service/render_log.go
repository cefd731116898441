package service

import (
	"sync"

	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/directions"
	"anukritich/nivaran/pkg/geo"
)

// RenderLog is the server-side map surface: instead of drawing, it records
// the latest markers, rendered path and viewport so API clients can render.
type RenderLog struct {
	mu      sync.RWMutex
	markers map[string]datastructure.Coordinate
	route   []datastructure.Coordinate
	sw, ne  datastructure.Coordinate
	fitted  bool
}

func NewRenderLog() *RenderLog {
	return &RenderLog{markers: map[string]datastructure.Coordinate{}}
}

func (r *RenderLog) SetMarker(id string, c datastructure.Coordinate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[id] = c
}

func (r *RenderLog) RenderRoute(route *directions.Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.route = append([]datastructure.Coordinate{}, route.Path...)
}

func (r *RenderLog) FitBounds(coords []datastructure.Coordinate) {
	sw, ne, ok := geo.Bounds(coords)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sw, r.ne, r.fitted = sw, ne, true
}

func (r *RenderLog) Markers() map[string]datastructure.Coordinate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]datastructure.Coordinate, len(r.markers))
	for k, v := range r.markers {
		out[k] = v
	}
	return out
}

func (r *RenderLog) Route() []datastructure.Coordinate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]datastructure.Coordinate{}, r.route...)
}

func (r *RenderLog) LastBounds() (sw, ne datastructure.Coordinate, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sw, r.ne, r.fitted
}
