// Package geoloc is the geolocation-provider port: a one-shot position read
// and a continuous watch, mirroring getCurrentPosition/watchPosition of the
// device APIs this service fronts for.
package geoloc

import (
	"context"
	"errors"
	"sync"
	"time"

	"anukritich/nivaran/pkg/datastructure"
)

var (
	ErrPermissionDenied = errors.New("geolocation permission denied")
	ErrUnavailable      = errors.New("geolocation unavailable")
	ErrTimeout          = errors.New("geolocation timed out")
)

type Position struct {
	Coord datastructure.Coordinate
	At    time.Time
}

// Watch is a live position subscription. Samples may close when the stream
// ends; Errs delivers at most one fatal stream error. Stop is safe to call
// more than once but releases the underlying subscription exactly once.
type Watch struct {
	Samples <-chan Position
	Errs    <-chan error

	stopOnce sync.Once
	stop     func()
}

func NewWatch(samples <-chan Position, errs <-chan error, stop func()) *Watch {
	return &Watch{Samples: samples, Errs: errs, stop: stop}
}

func (w *Watch) Stop() {
	w.stopOnce.Do(func() {
		if w.stop != nil {
			w.stop()
		}
	})
}

type Provider interface {
	// Current resolves a single position; honors ctx deadline.
	Current(ctx context.Context) (Position, error)
	// WatchPosition starts a continuous stream at provider cadence.
	WatchPosition(ctx context.Context) (*Watch, error)
}
