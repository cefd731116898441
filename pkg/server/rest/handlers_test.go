package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/server"
	"anukritich/nivaran/pkg/server/rest"
	"anukritich/nivaran/pkg/server/rest/service"
	"anukritich/nivaran/pkg/tracker"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracking struct {
	created   []string
	toggled   map[string]bool
	positions []datastructure.Coordinate
	closed    []string
}

func newFakeTracking() *fakeTracking {
	return &fakeTracking{toggled: map[string]bool{}}
}

func (f *fakeTracking) CreateSession(caseID string, dest datastructure.Coordinate, origin *datastructure.Coordinate) (string, error) {
	f.created = append(f.created, caseID)
	return "sess-1", nil
}

func (f *fakeTracking) Session(id string) (service.SessionView, error) {
	if id != "sess-1" {
		return service.SessionView{}, server.WrapErrorf(nil, server.ErrNotFound, "tracking session %s not found", id)
	}
	dest := datastructure.NewCoordinate(12.9352, 77.6245)
	return service.SessionView{
		ID: id,
		Snapshot: tracker.Snapshot{
			CaseID:      "case-7",
			State:       tracker.StateIdle,
			Destination: dest,
		},
		Markers: map[string]datastructure.Coordinate{tracker.MarkerDestination: dest},
	}, nil
}

func (f *fakeTracking) ToggleLive(id string, enabled bool) error {
	if id != "sess-1" {
		return server.WrapErrorf(nil, server.ErrNotFound, "tracking session %s not found", id)
	}
	f.toggled[id] = enabled
	return nil
}

func (f *fakeTracking) SubmitPosition(id string, c datastructure.Coordinate) error {
	if id != "sess-1" {
		return server.WrapErrorf(nil, server.ErrNotFound, "tracking session %s not found", id)
	}
	f.positions = append(f.positions, c)
	return nil
}

func (f *fakeTracking) CloseSession(id string) error {
	if id != "sess-1" {
		return server.WrapErrorf(nil, server.ErrNotFound, "tracking session %s not found", id)
	}
	f.closed = append(f.closed, id)
	return nil
}

type fakeDispatch struct {
	cases    []datastructure.Case
	statuses map[string]datastructure.CaseStatus
}

func newFakeDispatch() *fakeDispatch {
	return &fakeDispatch{statuses: map[string]datastructure.CaseStatus{}}
}

func (f *fakeDispatch) CaseLocation(ctx context.Context, id string) (datastructure.Coordinate, error) {
	if id != "case-7" {
		return datastructure.Coordinate{}, server.WrapErrorf(nil, server.ErrNotFound, "case %s not found", id)
	}
	return datastructure.NewCoordinate(12.9352, 77.6245), nil
}

func (f *fakeDispatch) NearbyCases(ctx context.Context, at datastructure.Coordinate, radiusKM float64) ([]datastructure.Case, error) {
	return f.cases, nil
}

func (f *fakeDispatch) NearestNGO(ctx context.Context, at datastructure.Coordinate) (datastructure.NGO, error) {
	return datastructure.NGO{ID: "ngo-1", Name: "Paws Trust", Location: datastructure.NewCoordinate(12.94, 77.61)}, nil
}

func (f *fakeDispatch) UpdateCaseStatus(ctx context.Context, id string, status datastructure.CaseStatus) error {
	f.statuses[id] = status
	return nil
}

func newTestRouter(t *testing.T) (*chi.Mux, *fakeTracking, *fakeDispatch) {
	t.Helper()
	r := chi.NewRouter()
	tracking := newFakeTracking()
	dispatch := newFakeDispatch()
	m := rest.NewMetrics(prometheus.NewRegistry())
	rest.DispatchRouter(r, tracking, dispatch, m)
	return r, tracking, dispatch
}

func TestCreateSession(t *testing.T) {
	r, tracking, _ := newTestRouter(t)

	body := []byte(`{"case_id":"case-7","dest_lat":12.9352,"dest_lon":77.6245}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp rest.CreateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, []string{"case-7"}, tracking.created)
}

func TestCreateSessionDestinationFromCase(t *testing.T) {
	r, tracking, _ := newTestRouter(t)

	body := []byte(`{"case_id":"case-7"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"case-7"}, tracking.created)
}

func TestCreateSessionUnknownCase(t *testing.T) {
	r, tracking, _ := newTestRouter(t)

	body := []byte(`{"case_id":"case-404"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, tracking.created)
}

func TestCreateSessionHalfDestinationRejected(t *testing.T) {
	r, tracking, _ := newTestRouter(t)

	body := []byte(`{"case_id":"case-7","dest_lat":12.9352}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, tracking.created)
}

func TestCreateSessionHalfOriginRejected(t *testing.T) {
	r, _, _ := newTestRouter(t)

	body := []byte(`{"case_id":"case-7","dest_lat":12.9352,"dest_lon":77.6245,"origin_lat":12.97}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSessionNotFound(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/unknown", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleLive(t *testing.T) {
	r, tracking, _ := newTestRouter(t)

	body := []byte(`{"enabled":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/sess-1/toggle", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, tracking.toggled["sess-1"])
}

func TestSubmitPosition(t *testing.T) {
	r, tracking, _ := newTestRouter(t)

	body := []byte(`{"lat":12.9718,"lon":77.5948}`)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/sess-1/position", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, tracking.positions, 1)
	assert.InDelta(t, 12.9718, tracking.positions[0].Lat, 1e-9)
}

func TestCloseSession(t *testing.T) {
	r, tracking, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/sess-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"sess-1"}, tracking.closed)
}

func TestNearbyCasesRequiresCoordinate(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/cases/nearby", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNearbyCases(t *testing.T) {
	r, _, dispatch := newTestRouter(t)
	dispatch.cases = []datastructure.Case{
		{ID: "case-7", Animal: "dog", Status: datastructure.CaseOpen, Location: datastructure.NewCoordinate(12.9352, 77.6245)},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/cases/nearby?lat=12.9716&lon=77.5946&radius_km=10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp rest.NearbyCasesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Cases, 1)
	assert.Equal(t, "case-7", resp.Cases[0].ID)
}

func TestNearestNGO(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ngos/nearest?lat=12.9716&lon=77.5946", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var ngo datastructure.NGO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ngo))
	assert.Equal(t, "Paws Trust", ngo.Name)
}

func TestUpdateCaseStatus(t *testing.T) {
	r, _, dispatch := newTestRouter(t)

	body := []byte(`{"status":"in_progress"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/cases/case-7/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, datastructure.CaseInProgress, dispatch.statuses["case-7"])
}

func TestUpdateCaseStatusRejectsUnknownValue(t *testing.T) {
	r, _, dispatch := newTestRouter(t)

	body := []byte(`{"status":"resolved"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/cases/case-7/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, dispatch.statuses)
}
