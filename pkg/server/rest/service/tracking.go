package service

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/directions"
	"anukritich/nivaran/pkg/geoloc"
	"anukritich/nivaran/pkg/server"
	"anukritich/nivaran/pkg/tracker"
)

// SessionView is what the API returns for a tracking session: the tracker
// snapshot plus the current render state of its map surface.
type SessionView struct {
	ID       string
	Snapshot tracker.Snapshot
	Markers  map[string]datastructure.Coordinate
	Route    []datastructure.Coordinate
	BoundsSW *datastructure.Coordinate
	BoundsNE *datastructure.Coordinate
}

type trackedSession struct {
	tracker *tracker.Tracker
	surface *RenderLog
}

type TrackingService struct {
	directions directions.Provider
	geoloc     geoloc.Provider

	mu       sync.RWMutex
	sessions map[string]*trackedSession
}

func NewTrackingService(dir directions.Provider, geo geoloc.Provider) *TrackingService {
	return &TrackingService{
		directions: dir,
		geoloc:     geo,
		sessions:   map[string]*trackedSession{},
	}
}

func (s *TrackingService) CreateSession(caseID string, dest datastructure.Coordinate, origin *datastructure.Coordinate) (string, error) {
	surface := NewRenderLog()
	tr, err := tracker.New(tracker.Config{
		CaseID:      caseID,
		Destination: &dest,
		Origin:      origin,
		Directions:  s.directions,
		Geoloc:      s.geoloc,
		Surface:     surface,
	})
	if err != nil {
		return "", err
	}

	id := newSessionID()
	s.mu.Lock()
	s.sessions[id] = &trackedSession{tracker: tr, surface: surface}
	s.mu.Unlock()
	return id, nil
}

func (s *TrackingService) Session(id string) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}

	view := SessionView{
		ID:       id,
		Snapshot: sess.tracker.Snapshot(),
		Markers:  sess.surface.Markers(),
		Route:    sess.surface.Route(),
	}
	if sw, ne, ok := sess.surface.LastBounds(); ok {
		view.BoundsSW, view.BoundsNE = &sw, &ne
	}
	return view, nil
}

func (s *TrackingService) ToggleLive(id string, enabled bool) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.tracker.ToggleLive(enabled)
	return nil
}

func (s *TrackingService) SubmitPosition(id string, c datastructure.Coordinate) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.tracker.SubmitPosition(c, time.Now())
	return nil
}

// CloseSession tears the tracker down; its geolocation watch is released on
// this path even if the caller never toggled live tracking off.
func (s *TrackingService) CloseSession(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return server.WrapErrorf(nil, server.ErrNotFound, "tracking session %s not found", id)
	}
	sess.tracker.Close()
	return nil
}

func (s *TrackingService) lookup(id string) (*trackedSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, server.WrapErrorf(nil, server.ErrNotFound, "tracking session %s not found", id)
	}
	return sess, nil
}

func newSessionID() string {
	bb := make([]byte, 8)
	rand.Read(bb)
	return hex.EncodeToString(bb)
}
