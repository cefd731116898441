package directions_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/directions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
)

var (
	bangaloreOrigin = datastructure.NewCoordinate(12.9716, 77.5946)
	bangaloreDest   = datastructure.NewCoordinate(12.9352, 77.6245)
)

func okResponse() map[string]interface{} {
	points := string(polyline.EncodeCoords([][]float64{
		{12.9716, 77.5946},
		{12.9550, 77.6100},
		{12.9352, 77.6245},
	}))
	return map[string]interface{}{
		"status": "OK",
		"routes": []map[string]interface{}{
			{
				"overview_polyline": map[string]string{"points": points},
				"legs": []map[string]interface{}{
					{
						"distance": map[string]interface{}{"text": "6.2 km", "value": 6200},
						"duration": map[string]interface{}{"text": "18 mins", "value": 1080},
					},
				},
			},
		},
	}
}

func TestClientRoute(t *testing.T) {
	t.Run("issues a driving request with no alternatives", func(t *testing.T) {
		var gotQuery map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = map[string]string{}
			for k := range r.URL.Query() {
				gotQuery[k] = r.URL.Query().Get(k)
			}
			json.NewEncoder(w).Encode(okResponse())
		}))
		defer srv.Close()

		c, err := directions.NewClient(srv.URL, "test-key", "")
		require.NoError(t, err)

		route, err := c.Route(context.Background(), bangaloreOrigin, bangaloreDest)
		require.NoError(t, err)

		assert.Equal(t, "driving", gotQuery["mode"])
		assert.Equal(t, "false", gotQuery["alternatives"])
		assert.Equal(t, "best_guess", gotQuery["traffic_model"])
		assert.Equal(t, "12.971600,77.594600", gotQuery["origin"])
		assert.Equal(t, "12.935200,77.624500", gotQuery["destination"])
		assert.Equal(t, "test-key", gotQuery["key"])

		assert.Equal(t, "6.2 km", route.Summary.DistanceText)
		assert.Equal(t, "18 mins", route.Summary.DurationText)
		assert.Equal(t, 6200, route.DistanceMeters)
		require.Len(t, route.Path, 3)
		assert.InDelta(t, 12.9716, route.Path[0].Lat, 1e-5)
		assert.InDelta(t, 77.6245, route.Path[2].Lon, 1e-5)
	})

	t.Run("non-OK status surfaces the status string", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"status": "ZERO_RESULTS"})
		}))
		defer srv.Close()

		c, err := directions.NewClient(srv.URL, "test-key", "")
		require.NoError(t, err)

		_, err = c.Route(context.Background(), bangaloreOrigin, bangaloreDest)
		var statusErr *directions.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, "ZERO_RESULTS", statusErr.Status)
		assert.Contains(t, err.Error(), "ZERO_RESULTS")
	})

	t.Run("OK with no legs is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"status": "OK", "routes": []interface{}{}})
		}))
		defer srv.Close()

		c, err := directions.NewClient(srv.URL, "test-key", "")
		require.NoError(t, err)

		_, err = c.Route(context.Background(), bangaloreOrigin, bangaloreDest)
		require.Error(t, err)
	})

	t.Run("missing credentials is a configuration error", func(t *testing.T) {
		_, err := directions.NewClient("", "", "")
		require.Error(t, err)
	})
}
