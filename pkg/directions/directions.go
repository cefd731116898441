package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/server"

	"github.com/twpayne/go-polyline"
)

const (
	ModeDriving = "driving"

	StatusOK = "OK"
)

// Route is one computed driving route. Summary comes from the first leg,
// Path is the decoded overview polyline for rendering and viewport fitting.
type Route struct {
	Summary         datastructure.RouteSummary   `json:"summary"`
	DistanceMeters  int                          `json:"distance_meters"`
	DurationSeconds int                          `json:"duration_seconds"`
	Path            []datastructure.Coordinate   `json:"path"`
}

// Provider issues a single driving-route request, no alternatives.
type Provider interface {
	Route(ctx context.Context, origin, dest datastructure.Coordinate) (*Route, error)
}

// StatusError carries the provider's non-success status string ("ZERO_RESULTS",
// "OVER_QUERY_LIMIT", ...). Callers keep their previous route on this error.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("directions provider status %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("directions provider status %s", e.Status)
}

type wireResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Text  string `json:"text"`
				Value int    `json:"value"`
			} `json:"distance"`
			Duration struct {
				Text  string `json:"text"`
				Value int    `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

type Client struct {
	baseURL      string
	apiKey       string
	trafficModel string
	httpClient   *http.Client
}

func NewClient(baseURL, apiKey, trafficModel string) (*Client, error) {
	if baseURL == "" || apiKey == "" {
		return nil, server.WrapErrorf(nil, server.ErrConfiguration, "directions base url and api key are required")
	}
	if trafficModel == "" {
		trafficModel = "best_guess"
	}
	return &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		trafficModel: trafficModel,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *Client) Route(ctx context.Context, origin, dest datastructure.Coordinate) (*Route, error) {
	q := url.Values{}
	q.Set("origin", fmt.Sprintf("%.6f,%.6f", origin.Lat, origin.Lon))
	q.Set("destination", fmt.Sprintf("%.6f,%.6f", dest.Lat, dest.Lon))
	q.Set("mode", ModeDriving)
	q.Set("alternatives", "false")
	q.Set("departure_time", "now")
	q.Set("traffic_model", c.trafficModel)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/directions/json?"+q.Encode(), nil)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "build directions request")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrProvider, "directions request failed")
	}
	defer res.Body.Close()

	var parsed wireResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, server.WrapErrorf(err, server.ErrProvider, "decode directions response")
	}
	if parsed.Status != StatusOK {
		return nil, &StatusError{Status: parsed.Status, Message: parsed.ErrorMessage}
	}
	if len(parsed.Routes) == 0 || len(parsed.Routes[0].Legs) == 0 {
		return nil, &StatusError{Status: "EMPTY_ROUTE", Message: "status OK but no route legs"}
	}

	leg := parsed.Routes[0].Legs[0]
	route := &Route{
		Summary: datastructure.RouteSummary{
			DistanceText: leg.Distance.Text,
			DurationText: leg.Duration.Text,
		},
		DistanceMeters:  leg.Distance.Value,
		DurationSeconds: leg.Duration.Value,
	}

	coords, _, err := polyline.DecodeCoords([]byte(parsed.Routes[0].OverviewPolyline.Points))
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrProvider, "decode overview polyline")
	}
	for _, pair := range coords {
		route.Path = append(route.Path, datastructure.NewCoordinate(pair[0], pair[1]))
	}

	return route, nil
}
