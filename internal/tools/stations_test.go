package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-orchestrator/internal/common/logger"
	"travel-orchestrator/internal/models"
)

func newIndexServer(t *testing.T, handler func(t *testing.T, query map[string]interface{}) (int, string)) (*StationIndex, func()) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if !strings.HasSuffix(r.URL.Path, "/stations/_search") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var query map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&query))
		status, body := handler(t, query)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewStationIndex(client, "stations", logger.NewTestLogger(t)), srv.Close
}

const bernHits = `{"hits":{"hits":[
	{"_source":{"id":"8507000","name":"Bern","location":{"lat":46.948,"lon":7.439}},"sort":[0.42]},
	{"_source":{"id":"8507100","name":"Bern Wankdorf","location":{"lat":46.967,"lon":7.464}},"sort":[2.9]}
]}}`

// ==========================
// Station index
// ==========================

func TestStationIndex_ByName(t *testing.T) {
	idx, closeFn := newIndexServer(t, func(t *testing.T, q map[string]interface{}) (int, string) {
		mm := q["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
		assert.Equal(t, "bern", mm["query"])
		assert.Equal(t, float64(defaultStationLimit), q["size"])
		return http.StatusOK, bernHits
	})
	defer closeFn()

	res := idx.Invoke(context.Background(), models.ToolFindStations, models.FindStationsParams{Query: "bern"})
	require.True(t, res.Success, res.Error)

	out, err := models.DecodeOutput(models.ToolFindStations, res.Data)
	require.NoError(t, err)
	first, ok := out.(models.StationsOutput).First()
	require.True(t, ok)
	assert.Equal(t, "8507000", first.ID)
	assert.Zero(t, first.Distance, "distance only reported for coordinate searches")
}

func TestStationIndex_ByCoordinates(t *testing.T) {
	idx, closeFn := newIndexServer(t, func(t *testing.T, q map[string]interface{}) (int, string) {
		sort := q["sort"].([]interface{})
		require.Len(t, sort, 1)
		geo := sort[0].(map[string]interface{})["_geo_distance"].(map[string]interface{})
		assert.Equal(t, "asc", geo["order"])
		assert.Equal(t, float64(2), q["size"])
		return http.StatusOK, bernHits
	})
	defer closeFn()

	lat, lon := 46.95, 7.44
	stations, err := idx.Search(context.Background(), models.FindStationsParams{Latitude: &lat, Longitude: &lon, Limit: 2})
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, 0.42, stations[0].Distance)
	assert.Equal(t, "Bern Wankdorf", stations[1].Name)
}

func TestStationIndex_Errors(t *testing.T) {
	idx, closeFn := newIndexServer(t, func(t *testing.T, q map[string]interface{}) (int, string) {
		return http.StatusBadRequest, `{"error":{"type":"search_phase_execution_exception"}}`
	})
	defer closeFn()

	res := idx.Invoke(context.Background(), models.ToolFindStations, models.FindStationsParams{Query: "bern"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "TOOL_INVOCATION_FAILED")

	res = idx.Invoke(context.Background(), models.ToolFindStations, models.WeatherParams{Location: "bern"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "TOOL_PARAMS_INVALID")

	res = idx.Invoke(context.Background(), models.ToolFindStations, models.FindStationsParams{})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "TOOL_PARAMS_INVALID")
}
