package geoloc

import (
	"context"
	"time"

	"anukritich/nivaran/pkg/datastructure"
)

// ReplayProvider walks a fixed path at a fixed cadence, one sample per point.
// Used by cmd/replay and tests in place of a device geolocation source.
type ReplayProvider struct {
	path     []datastructure.Coordinate
	interval time.Duration
	now      func() time.Time
}

func NewReplayProvider(path []datastructure.Coordinate, interval time.Duration) *ReplayProvider {
	return &ReplayProvider{
		path:     path,
		interval: interval,
		now:      time.Now,
	}
}

func (p *ReplayProvider) Current(ctx context.Context) (Position, error) {
	if len(p.path) == 0 {
		return Position{}, ErrUnavailable
	}
	select {
	case <-ctx.Done():
		return Position{}, ErrTimeout
	default:
	}
	return Position{Coord: p.path[0], At: p.now()}, nil
}

func (p *ReplayProvider) WatchPosition(ctx context.Context) (*Watch, error) {
	if len(p.path) == 0 {
		return nil, ErrUnavailable
	}

	samples := make(chan Position)
	errs := make(chan error, 1)
	watchCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(samples)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for _, c := range p.path {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
			}
			select {
			case <-watchCtx.Done():
				return
			case samples <- Position{Coord: c, At: p.now()}:
			}
		}
	}()

	return NewWatch(samples, errs, cancel), nil
}
