package tracker

import (
	"time"

	"anukritich/nivaran/pkg/directions"
	"anukritich/nivaran/pkg/geoloc"
)

// tagged events consumed by the run loop; one consumer, sequential order
type event interface {
	isEvent()
}

type positionSample struct {
	pos geoloc.Position
}

type originResolved struct {
	pos geoloc.Position
}

type originResolveFailed struct {
	err error
}

type routeResult struct {
	route       *directions.Route
	err         error
	requestedAt time.Time
}

type toggleLive struct {
	enabled bool
}

// watchFailed/watchEnded carry the generation of the watch that produced
// them, so a pump draining an already-released watch cannot tear down its
// successor.
type watchFailed struct {
	err error
	gen int
}

type watchEnded struct {
	gen int
}

func (positionSample) isEvent()      {}
func (originResolved) isEvent()      {}
func (originResolveFailed) isEvent() {}
func (routeResult) isEvent()         {}
func (toggleLive) isEvent()          {}
func (watchFailed) isEvent()         {}
func (watchEnded) isEvent()          {}
