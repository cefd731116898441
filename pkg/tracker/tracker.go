// Package tracker keeps an up-to-date driving route between a moving rescuer
// and a fixed case location without flooding the directions provider.
//
// All session state is owned by a single consumer goroutine fed by tagged
// events (position samples, route results, live toggles), so no ordering
// depends on a particular runtime's callback scheduling.
package tracker

import (
	"context"
	"sync"
	"time"

	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/directions"
	"anukritich/nivaran/pkg/geo"
	"anukritich/nivaran/pkg/geoloc"
	"anukritich/nivaran/pkg/server"
)

const (
	// moveThresholdMeters / maxRouteStaleness bound directions-call volume:
	// a moving client recomputes per ~20 m of drift, a stationary-but-jittery
	// one at most every 10 s.
	moveThresholdMeters = 20.0
	maxRouteStaleness   = 10 * time.Second

	originResolveTimeout = 8 * time.Second

	MarkerOrigin      = "origin"
	MarkerDestination = "destination"
)

type State string

const (
	StateAwaitingOrigin State = "awaiting_origin"
	StateIdle           State = "idle"
	StateLiveTracking   State = "live_tracking"
)

// MapSurface is the injected render target. Implementations only record or
// draw; they never feed decisions back into the tracker.
type MapSurface interface {
	SetMarker(id string, c datastructure.Coordinate)
	RenderRoute(route *directions.Route)
	FitBounds(coords []datastructure.Coordinate)
}

type Config struct {
	CaseID      string
	Destination *datastructure.Coordinate
	Origin      *datastructure.Coordinate

	Directions directions.Provider
	Geoloc     geoloc.Provider // optional; positions may come in via SubmitPosition only
	Surface    MapSurface

	// Now overrides the clock, for tests. Samples carrying their own
	// timestamp are gated against that timestamp instead.
	Now func() time.Time
}

// Snapshot is a read-only view of the session for handlers and CLIs.
type Snapshot struct {
	CaseID              string
	State               State
	LiveEnabled         bool
	HasRoute            bool
	Origin              *datastructure.Coordinate
	Destination         datastructure.Coordinate
	Summary             *datastructure.RouteSummary
	LastRouteComputedAt time.Time
	LastError           string
}

type Tracker struct {
	caseID      string
	destination datastructure.Coordinate

	directions directions.Provider
	geoloc     geoloc.Provider
	surface    MapSurface
	now        func() time.Time

	events chan event
	done   chan struct{}
	closed sync.Once

	// all fields below are written only by the run loop, under mu so that
	// Snapshot can read them from other goroutines.
	mu                  sync.RWMutex
	state               State
	liveEnabled         bool
	hasRoute            bool
	origin              *datastructure.Coordinate // lastKnownOrigin
	summary             *datastructure.RouteSummary
	lastRouteComputedAt time.Time
	lastErr             error

	stopWatch func()
	watchGen  int
}

func New(cfg Config) (*Tracker, error) {
	if cfg.Destination == nil {
		return nil, server.WrapErrorf(nil, server.ErrConfiguration, "tracking session has no destination")
	}
	if cfg.Directions == nil || cfg.Surface == nil {
		return nil, server.WrapErrorf(nil, server.ErrConfiguration, "tracking session needs a directions provider and a map surface")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	t := &Tracker{
		caseID:      cfg.CaseID,
		destination: *cfg.Destination,
		directions:  cfg.Directions,
		geoloc:      cfg.Geoloc,
		surface:     cfg.Surface,
		now:         now,
		events:      make(chan event, 16),
		done:        make(chan struct{}),
		state:       StateAwaitingOrigin,
	}

	t.surface.SetMarker(MarkerDestination, t.destination)
	go t.run()

	if cfg.Origin != nil {
		t.post(originResolved{pos: geoloc.Position{Coord: *cfg.Origin, At: now()}})
	} else if t.geoloc != nil {
		go t.resolveOriginOnce()
	}
	return t, nil
}

// SubmitPosition feeds one external position sample into the session, the
// same path watch samples take.
func (t *Tracker) SubmitPosition(c datastructure.Coordinate, at time.Time) {
	t.post(positionSample{pos: geoloc.Position{Coord: c, At: at}})
}

// ToggleLive enables or disables live tracking.
func (t *Tracker) ToggleLive(enabled bool) {
	t.post(toggleLive{enabled: enabled})
}

// Close tears the session down and releases any active watch.
func (t *Tracker) Close() {
	t.closed.Do(func() { close(t.done) })
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Snapshot{
		CaseID:              t.caseID,
		State:               t.state,
		LiveEnabled:         t.liveEnabled,
		HasRoute:            t.hasRoute,
		Destination:         t.destination,
		LastRouteComputedAt: t.lastRouteComputedAt,
	}
	if t.origin != nil {
		o := *t.origin
		s.Origin = &o
	}
	if t.summary != nil {
		sum := *t.summary
		s.Summary = &sum
	}
	if t.lastErr != nil {
		s.LastError = t.lastErr.Error()
	}
	return s
}

func (t *Tracker) post(ev event) {
	select {
	case t.events <- ev:
	case <-t.done:
	}
}

func (t *Tracker) run() {
	for {
		select {
		case <-t.done:
			t.mu.Lock()
			t.releaseWatch()
			t.mu.Unlock()
			return
		case ev := <-t.events:
			t.mu.Lock()
			t.handle(ev)
			t.mu.Unlock()
		}
	}
}

func (t *Tracker) handle(ev event) {
	switch e := ev.(type) {
	case positionSample:
		t.onSample(e.pos)
	case originResolved:
		t.setOrigin(e.pos.Coord)
		t.stageRouteRequest(e.pos.Coord, t.sampleTime(e.pos))
	case originResolveFailed:
		// session proceeds destination-only; user can still toggle live
		t.lastErr = e.err
	case routeResult:
		t.onRouteResult(e)
	case toggleLive:
		t.onToggle(e.enabled)
	case watchFailed:
		if e.gen != t.watchGen {
			return
		}
		t.releaseWatch()
		t.lastErr = e.err
		t.state = t.idleState()
	case watchEnded:
		if e.gen != t.watchGen {
			return
		}
		t.releaseWatch()
		t.state = t.idleState()
	}
}

func (t *Tracker) onSample(pos geoloc.Position) {
	ts := t.sampleTime(pos)

	moved := 0.0
	if t.origin != nil {
		moved = geo.HaversineMeters(*t.origin, pos.Coord)
	}
	t.setOrigin(pos.Coord)

	if moved > moveThresholdMeters || ts.Sub(t.lastRouteComputedAt) > maxRouteStaleness {
		t.stageRouteRequest(pos.Coord, ts)
	}
}

// stageRouteRequest records the request timestamp before the asynchronous
// call resolves, so a slow provider cannot be stormed by following samples.
func (t *Tracker) stageRouteRequest(origin datastructure.Coordinate, requestedAt time.Time) {
	t.lastRouteComputedAt = requestedAt
	dest := t.destination
	go func() {
		route, err := t.directions.Route(context.Background(), origin, dest)
		t.post(routeResult{route: route, err: err, requestedAt: requestedAt})
	}()
}

func (t *Tracker) onRouteResult(r routeResult) {
	if r.requestedAt.Before(t.lastRouteComputedAt) {
		// a newer request has been staged since; drop the stale result
		return
	}
	if r.err != nil {
		// previous summary and rendered route stay as-is
		t.lastErr = r.err
		return
	}
	t.lastErr = nil
	t.hasRoute = true
	t.summary = &r.route.Summary
	t.surface.RenderRoute(r.route)
	if len(r.route.Path) > 0 {
		t.surface.FitBounds(r.route.Path)
	}
}

func (t *Tracker) onToggle(enabled bool) {
	if !enabled {
		t.releaseWatch()
		t.state = t.idleState()
		return
	}
	if t.stopWatch != nil {
		return
	}
	if t.geoloc == nil {
		t.lastErr = geoloc.ErrUnavailable
		return
	}

	w, err := t.geoloc.WatchPosition(context.Background())
	if err != nil {
		t.lastErr = err
		return
	}
	t.stopWatch = w.Stop
	t.watchGen++
	t.liveEnabled = true
	t.state = StateLiveTracking
	go t.pumpWatch(w, t.watchGen)
}

func (t *Tracker) pumpWatch(w *geoloc.Watch, gen int) {
	for {
		select {
		case <-t.done:
			return
		case err := <-w.Errs:
			t.post(watchFailed{err: err, gen: gen})
			return
		case pos, ok := <-w.Samples:
			if !ok {
				t.post(watchEnded{gen: gen})
				return
			}
			t.post(positionSample{pos: pos})
		}
	}
}

// releaseWatch pairs every watch subscription with exactly one stop,
// whichever exit path runs first.
func (t *Tracker) releaseWatch() {
	if t.stopWatch != nil {
		t.stopWatch()
		t.stopWatch = nil
	}
	t.liveEnabled = false
}

func (t *Tracker) resolveOriginOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), originResolveTimeout)
	defer cancel()

	pos, err := t.geoloc.Current(ctx)
	if err != nil {
		t.post(originResolveFailed{err: err})
		return
	}
	t.post(originResolved{pos: pos})
}

func (t *Tracker) setOrigin(c datastructure.Coordinate) {
	t.origin = &c
	t.surface.SetMarker(MarkerOrigin, c)
	if t.state == StateAwaitingOrigin {
		t.state = t.idleState()
	}
}

func (t *Tracker) idleState() State {
	if t.origin == nil {
		return StateAwaitingOrigin
	}
	if t.liveEnabled {
		return StateLiveTracking
	}
	return StateIdle
}

func (t *Tracker) sampleTime(pos geoloc.Position) time.Time {
	if !pos.At.IsZero() {
		return pos.At
	}
	return t.now()
}
