package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-orchestrator/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

// ==========================
// Loading
// ==========================

func TestDefault(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	for _, name := range []string{
		models.ToolFindStations, models.ToolFindTrips, models.ToolEcoComparison,
		models.ToolWeather, models.ToolSnowConditions, models.ToolStationBoard, models.ToolTrainFormation,
	} {
		_, ok := cat.Lookup(name)
		assert.True(t, ok, name)
	}

	for _, taskType := range []string{"analyze-message", "execute-travel-plan"} {
		_, ok := cat.Activity(taskType)
		assert.True(t, ok, taskType)
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`{"tools":[{"name":"a"},{"name":"a"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = Parse([]byte(`{"tools":[{"description":"nameless"}]}`))
	require.Error(t, err)

	_, err = Parse([]byte(`not json`))
	require.Error(t, err)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry("/nonexistent/registry.json")
	require.Error(t, err)
}

func TestTool_Timeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, Tool{Timeout: "5s"}.ToolTimeout(time.Second))
	assert.Equal(t, time.Second, Tool{}.ToolTimeout(time.Second))
	assert.Equal(t, time.Second, Tool{Timeout: "soon"}.ToolTimeout(time.Second))
}

// ==========================
// Validation
// ==========================

func TestValidateToolParams(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	tests := []struct {
		name   string
		tool   string
		params models.ToolParams
		valid  bool
	}{
		{"stations by name", models.ToolFindStations, models.FindStationsParams{Query: "bern"}, true},
		{"stations by coordinates", models.ToolFindStations, models.FindStationsParams{Latitude: floatPtr(46.9), Longitude: floatPtr(7.4)}, true},
		{"stations without query", models.ToolFindStations, models.FindStationsParams{Limit: 3}, false},
		{"latitude out of range", models.ToolFindStations, models.FindStationsParams{Latitude: floatPtr(120), Longitude: floatPtr(7.4)}, false},
		{"trips", models.ToolFindTrips, models.FindTripsParams{Origin: "8503000", Destination: "8507000"}, true},
		{"trips missing origin", models.ToolFindTrips, models.FindTripsParams{Destination: "8507000"}, false},
		{"eco by trip", models.ToolEcoComparison, models.EcoComparisonParams{TripID: "t1"}, true},
		{"eco without anything", models.ToolEcoComparison, models.EcoComparisonParams{}, false},
		{"unknown tool passes", "get_parking", models.UnknownToolParams{Name: "get_parking"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := cat.ValidateToolParams(tt.tool, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid, res.Error())
		})
	}
}

func TestValidateActivityInput(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	res, err := cat.ValidateActivityInput("analyze-message", map[string]interface{}{
		"sessionId": "s1",
		"message":   "Zurich to Bern",
		"language":  "de",
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = cat.ValidateActivityInput("analyze-message", map[string]interface{}{
		"sessionId": "s1",
		"message":   "Zurich to Bern",
		"language":  "xx",
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = cat.ValidateActivityInput("execute-travel-plan", map[string]interface{}{
		"sessionId":     "s1",
		"primaryIntent": map[string]interface{}{"type": "teleport"},
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

// ==========================
// Check
// ==========================

func TestCatalog_Check(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)
	assert.NoError(t, cat.Check())

	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"no activities", `{"tools":[]}`, "no activities"},
		{"missing id", `{"activities":[{"displayName":"X","taskType":"x","category":"c"}]}`, "id"},
		{"duplicate id", `{"activities":[
			{"id":"a","displayName":"A","taskType":"a","category":"c"},
			{"id":"a","displayName":"A","taskType":"b","category":"c"}]}`, "duplicate activity id: a"},
		{"missing task type", `{"activities":[{"id":"a","displayName":"A","category":"c"}]}`, "taskType"},
		{"missing category", `{"activities":[{"id":"a","displayName":"A","taskType":"a"}]}`, "category"},
		{"bad activity timeout", `{"activities":[{"id":"a","displayName":"A","taskType":"a","category":"c","timeout":"soon"}]}`, "invalid timeout"},
		{"bad tool timeout", `{"activities":[{"id":"a","displayName":"A","taskType":"a","category":"c"}],
			"tools":[{"name":"t","timeout":"-1s"}]}`, "tool t"},
		{"bad schema", `{"activities":[{"id":"a","displayName":"A","taskType":"a","category":"c",
			"inputSchema":{"type":"no-such-type"}}]}`, "activity:a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			err = c.Check()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
