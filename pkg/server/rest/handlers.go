package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/server"
	"anukritich/nivaran/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

type TrackingService interface {
	CreateSession(caseID string, dest datastructure.Coordinate, origin *datastructure.Coordinate) (string, error)
	Session(id string) (service.SessionView, error)
	ToggleLive(id string, enabled bool) error
	SubmitPosition(id string, c datastructure.Coordinate) error
	CloseSession(id string) error
}

type DispatchService interface {
	CaseLocation(ctx context.Context, id string) (datastructure.Coordinate, error)
	NearbyCases(ctx context.Context, at datastructure.Coordinate, radiusKM float64) ([]datastructure.Case, error)
	NearestNGO(ctx context.Context, at datastructure.Coordinate) (datastructure.NGO, error)
	UpdateCaseStatus(ctx context.Context, id string, status datastructure.CaseStatus) error
}

type DispatchHandler struct {
	tracking     TrackingService
	dispatch     DispatchService
	promeMetrics *metrics
}

func DispatchRouter(r *chi.Mux, tracking TrackingService, dispatch DispatchService, m *metrics) {
	handler := &DispatchHandler{tracking: tracking, dispatch: dispatch, promeMetrics: m}

	r.Group(func(r chi.Router) {
		r.Route("/api/sessions", func(r chi.Router) {
			r.Post("/", handler.createSession)
			r.Get("/{sessionID}", handler.getSession)
			r.Post("/{sessionID}/toggle", handler.toggleLive)
			r.Post("/{sessionID}/position", handler.submitPosition)
			r.Delete("/{sessionID}", handler.closeSession)
		})
		r.Route("/api/cases", func(r chi.Router) {
			r.Get("/nearby", handler.nearbyCases)
			r.Post("/{caseID}/status", handler.updateCaseStatus)
		})
		r.Route("/api/ngos", func(r chi.Router) {
			r.Get("/nearest", handler.nearestNGO)
		})
	})
}

// CreateSessionRequest model info
//
//	@Description	request body to open a tracking session toward a reported case
type CreateSessionRequest struct {
	CaseID    string   `json:"case_id" validate:"required"`
	DestLat   *float64 `json:"dest_lat" validate:"omitempty,lt=90,gt=-90"`
	DestLon   *float64 `json:"dest_lon" validate:"omitempty,lt=180,gt=-180"`
	OriginLat *float64 `json:"origin_lat" validate:"omitempty,lt=90,gt=-90"`
	OriginLon *float64 `json:"origin_lon" validate:"omitempty,lt=180,gt=-180"`
}

func (s *CreateSessionRequest) Bind(r *http.Request) error {
	if s.CaseID == "" {
		return errors.New("invalid request")
	}
	if (s.DestLat == nil) != (s.DestLon == nil) {
		return errors.New("destination needs both lat and lon")
	}
	if (s.OriginLat == nil) != (s.OriginLon == nil) {
		return errors.New("origin needs both lat and lon")
	}
	return nil
}

// CreateSessionResponse model info
//
//	@Description	response body carrying the new session id
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// createSession
//
//	@Summary		open a tracking session from an optional origin to a case location.
//	@Description	open a tracking session. destination comes from the reported case, origin is optional and can be resolved later
//	@Tags			sessions
//	@Param			body	body	CreateSessionRequest	true	"request body to open a tracking session"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/sessions [post]
//	@Success		200	{object}	CreateSessionResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *DispatchHandler) createSession(w http.ResponseWriter, r *http.Request) {
	data := &CreateSessionRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	var origin *datastructure.Coordinate
	if data.OriginLat != nil && data.OriginLon != nil {
		o := datastructure.NewCoordinate(*data.OriginLat, *data.OriginLon)
		origin = &o
	}

	// destination defaults to the reported case location
	var dest datastructure.Coordinate
	if data.DestLat != nil && data.DestLon != nil {
		dest = datastructure.NewCoordinate(*data.DestLat, *data.DestLon)
	} else {
		var err error
		dest, err = h.dispatch.CaseLocation(r.Context(), data.CaseID)
		if err != nil {
			render.Render(w, r, ErrChi(err))
			return
		}
	}

	id, err := h.tracking.CreateSession(data.CaseID, dest, origin)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}

	h.promeMetrics.routeSessionCount.WithLabelValues("false").Inc()
	render.Status(r, http.StatusOK)
	render.JSON(w, r, CreateSessionResponse{SessionID: id})
}

// SessionResponse model info
//
//	@Description	response body describing a tracking session and its render state
type SessionResponse struct {
	SessionID   string                               `json:"session_id"`
	CaseID      string                               `json:"case_id"`
	State       string                               `json:"state"`
	LiveEnabled bool                                 `json:"live_enabled"`
	HasRoute    bool                                 `json:"has_route"`
	Origin      *datastructure.Coordinate            `json:"origin,omitempty"`
	Destination datastructure.Coordinate             `json:"destination"`
	Summary     *datastructure.RouteSummary          `json:"summary,omitempty"`
	Markers     map[string]datastructure.Coordinate  `json:"markers"`
	Route       []datastructure.Coordinate           `json:"route,omitempty"`
	BoundsSW    *datastructure.Coordinate            `json:"bounds_sw,omitempty"`
	BoundsNE    *datastructure.Coordinate            `json:"bounds_ne,omitempty"`
	LastError   string                               `json:"last_error,omitempty"`
}

func NewSessionResponse(v service.SessionView) *SessionResponse {
	return &SessionResponse{
		SessionID:   v.ID,
		CaseID:      v.Snapshot.CaseID,
		State:       string(v.Snapshot.State),
		LiveEnabled: v.Snapshot.LiveEnabled,
		HasRoute:    v.Snapshot.HasRoute,
		Origin:      v.Snapshot.Origin,
		Destination: v.Snapshot.Destination,
		Summary:     v.Snapshot.Summary,
		Markers:     v.Markers,
		Route:       v.Route,
		BoundsSW:    v.BoundsSW,
		BoundsNE:    v.BoundsNE,
		LastError:   v.Snapshot.LastError,
	}
}

// getSession
//
//	@Summary		read a tracking session.
//	@Description	tracking state, last origin, route summary and render state for one session
//	@Tags			sessions
//	@Produce		application/json
//	@Router			/sessions/{sessionID} [get]
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	ErrResponse
func (h *DispatchHandler) getSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.tracking.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewSessionResponse(view))
}

// ToggleLiveRequest model info
//
//	@Description	request body to switch live tracking on or off
type ToggleLiveRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func (s *ToggleLiveRequest) Bind(r *http.Request) error {
	if s.Enabled == nil {
		return errors.New("invalid request")
	}
	return nil
}

// toggleLive
//
//	@Summary		enable or disable live tracking for a session.
//	@Description	enabling subscribes to the geolocation stream, disabling releases it; the last rendered route stays
//	@Tags			sessions
//	@Param			body	body	ToggleLiveRequest	true	"live tracking toggle"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/sessions/{sessionID}/toggle [post]
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	ErrResponse
func (h *DispatchHandler) toggleLive(w http.ResponseWriter, r *http.Request) {
	data := &ToggleLiveRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	id := chi.URLParam(r, "sessionID")
	if err := h.tracking.ToggleLive(id, *data.Enabled); err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	if *data.Enabled {
		h.promeMetrics.routeSessionCount.WithLabelValues("true").Inc()
	}

	view, err := h.tracking.Session(id)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewSessionResponse(view))
}

// SubmitPositionRequest model info
//
//	@Description	request body carrying one external position sample
type SubmitPositionRequest struct {
	Lat float64 `json:"lat" validate:"required,lt=90,gt=-90"`
	Lon float64 `json:"lon" validate:"required,lt=180,gt=-180"`
}

func (s *SubmitPositionRequest) Bind(r *http.Request) error {
	if s.Lat == 0 || s.Lon == 0 {
		return errors.New("invalid request")
	}
	return nil
}

// submitPosition
//
//	@Summary		feed one position sample into a session.
//	@Description	same path watch samples take: marker always follows, route recomputes only past the movement/staleness gates
//	@Tags			sessions
//	@Param			body	body	SubmitPositionRequest	true	"position sample"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/sessions/{sessionID}/position [post]
//	@Success		202	{object}	SessionResponse
//	@Failure		404	{object}	ErrResponse
func (h *DispatchHandler) submitPosition(w http.ResponseWriter, r *http.Request) {
	data := &SubmitPositionRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	id := chi.URLParam(r, "sessionID")
	if err := h.tracking.SubmitPosition(id, datastructure.NewCoordinate(data.Lat, data.Lon)); err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}

	view, err := h.tracking.Session(id)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, NewSessionResponse(view))
}

// closeSession
//
//	@Summary		tear a tracking session down.
//	@Description	releases the geolocation watch on every exit path
//	@Tags			sessions
//	@Router			/sessions/{sessionID} [delete]
//	@Success		204
//	@Failure		404	{object}	ErrResponse
func (h *DispatchHandler) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.tracking.CloseSession(chi.URLParam(r, "sessionID")); err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}

// NearbyCasesResponse model info
//
//	@Description	response body listing open cases around a coordinate
type NearbyCasesResponse struct {
	Cases []datastructure.Case `json:"cases"`
}

// nearbyCases
//
//	@Summary		open cases around a coordinate, closest first.
//	@Tags			cases
//	@Produce		application/json
//	@Router			/cases/nearby [get]
//	@Success		200	{object}	NearbyCasesResponse
//	@Failure		400	{object}	ErrResponse
func (h *DispatchHandler) nearbyCases(w http.ResponseWriter, r *http.Request) {
	at, err := coordFromQuery(r)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	radiusKM := floatFromQuery(r, "radius_km", 5)

	cases, err := h.dispatch.NearbyCases(r.Context(), at, radiusKM)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, NearbyCasesResponse{Cases: cases})
}

// nearestNGO
//
//	@Summary		the NGO closest to a coordinate.
//	@Tags			ngos
//	@Produce		application/json
//	@Router			/ngos/nearest [get]
//	@Success		200	{object}	datastructure.NGO
//	@Failure		404	{object}	ErrResponse
func (h *DispatchHandler) nearestNGO(w http.ResponseWriter, r *http.Request) {
	at, err := coordFromQuery(r)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	ngo, err := h.dispatch.NearestNGO(r.Context(), at)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, ngo)
}

// UpdateCaseStatusRequest model info
//
//	@Description	request body carrying the target case status
type UpdateCaseStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress closed"`
}

func (s *UpdateCaseStatusRequest) Bind(r *http.Request) error {
	if s.Status == "" {
		return errors.New("invalid request")
	}
	return nil
}

// updateCaseStatus
//
//	@Summary		update the status of a case through the backend case service.
//	@Description	no automatic retry; a failed update is retried by the user repeating the action
//	@Tags			cases
//	@Param			body	body	UpdateCaseStatusRequest	true	"target status"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/cases/{caseID}/status [post]
//	@Success		200
//	@Failure		400	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *DispatchHandler) updateCaseStatus(w http.ResponseWriter, r *http.Request) {
	data := &UpdateCaseStatusRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	err := h.dispatch.UpdateCaseStatus(r.Context(), chi.URLParam(r, "caseID"), datastructure.CaseStatus(data.Status))
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func coordFromQuery(r *http.Request) (datastructure.Coordinate, error) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		return datastructure.Coordinate{}, errors.New("lat and lon query params are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return datastructure.Coordinate{}, fmt.Errorf("bad lat %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return datastructure.Coordinate{}, fmt.Errorf("bad lon %q", lonStr)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return datastructure.Coordinate{}, errors.New("lat/lon out of range")
	}
	return datastructure.NewCoordinate(lat, lon), nil
}

func floatFromQuery(r *http.Request, key string, def float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return def
	}
	return v
}

type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 500,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrChi(err error) render.Renderer {
	statusText := ""
	switch getStatusCode(err) {
	case http.StatusNotFound:
		statusText = "Resource not found."
	case http.StatusInternalServerError:
		statusText = "Internal server error."
	case http.StatusConflict:
		statusText = "Resource conflict."
	case http.StatusBadRequest:
		statusText = "Bad request."
	case http.StatusBadGateway:
		statusText = "Upstream provider error."
	default:
		statusText = "Error."
	}

	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: getStatusCode(err),
		StatusText:     statusText,
		ErrorText:      err.Error(),
	}
}

func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ierr *server.Error
	if !errors.As(err, &ierr) {
		return http.StatusInternalServerError
	} else {
		switch ierr.Code() {
		case server.ErrInternalServerError:
			return http.StatusInternalServerError
		case server.ErrNotFound:
			return http.StatusNotFound
		case server.ErrConflict:
			return http.StatusConflict
		case server.ErrBadParamInput:
			return http.StatusBadRequest
		case server.ErrProvider:
			return http.StatusBadGateway
		default:
			return http.StatusInternalServerError
		}
	}

}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}
