package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-orchestrator/internal/models"
)

func okResult(v string) models.ToolResult {
	return models.ToolResult{Success: true, Data: json.RawMessage(fmt.Sprintf(`{"value":%q}`, v))}
}

// ==========================
// Tool cache
// ==========================

func TestConversationContext_CacheExactParams(t *testing.T) {
	c := New("s1")
	params := models.FindStationsParams{Query: "bern"}

	require.NoError(t, c.CacheToolResult(models.ToolFindStations, params, okResult("bern")))

	got, ok := c.GetCachedResult(models.ToolFindStations, models.FindStationsParams{Query: "bern"})
	require.True(t, ok)
	assert.JSONEq(t, `{"value":"bern"}`, string(got.Data))

	_, ok = c.GetCachedResult(models.ToolFindStations, models.FindStationsParams{Query: "bern", Limit: 1})
	assert.False(t, ok, "different params must miss")

	_, ok = c.GetCachedResult(models.ToolFindTrips, models.FindTripsParams{Origin: "bern"})
	assert.False(t, ok)
}

func TestConversationContext_CacheOverwrite(t *testing.T) {
	c := New("s1")
	params := models.WeatherParams{Location: "zermatt"}

	require.NoError(t, c.CacheToolResult(models.ToolWeather, params, okResult("old")))
	require.NoError(t, c.CacheToolResult(models.ToolWeather, params, okResult("new")))

	got, ok := c.GetCachedResult(models.ToolWeather, params)
	require.True(t, ok)
	assert.JSONEq(t, `{"value":"new"}`, string(got.Data))
	assert.Equal(t, 1, c.CachedResults())
}

func TestConversationContext_CacheEviction(t *testing.T) {
	c := New("s1")
	for i := 0; i < MaxCachedResults+5; i++ {
		params := models.FindStationsParams{Query: fmt.Sprintf("q%d", i)}
		require.NoError(t, c.CacheToolResult(models.ToolFindStations, params, okResult("x")))
	}

	assert.Equal(t, MaxCachedResults, c.CachedResults())
	_, ok := c.GetCachedResult(models.ToolFindStations, models.FindStationsParams{Query: "q0"})
	assert.False(t, ok, "oldest entry evicted")
	_, ok = c.GetCachedResult(models.ToolFindStations, models.FindStationsParams{Query: fmt.Sprintf("q%d", MaxCachedResults+4)})
	assert.True(t, ok)
	_, ok = c.GetCachedResult(models.ToolFindStations, models.FindStationsParams{Query: "q5"})
	assert.True(t, ok)
}

func TestConversationContext_ConcurrentCache(t *testing.T) {
	c := New("s1")
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			params := models.SnowConditionsParams{Location: fmt.Sprintf("resort-%d", i%8)}
			_ = c.CacheToolResult(models.ToolSnowConditions, params, okResult("x"))
			c.GetCachedResult(models.ToolSnowConditions, params)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, c.CachedResults())
}

func TestCacheKey(t *testing.T) {
	key, err := CacheKey(models.ToolFindTrips, models.FindTripsParams{Origin: "zurich", Destination: "bern"})
	require.NoError(t, err)
	assert.Equal(t, `find_trips:{"origin":"zurich","destination":"bern"}`, key)
}

// ==========================
// Remembered state
// ==========================

func TestConversationContext_RememberEntities(t *testing.T) {
	c := New("s1")

	c.RememberEntities(models.EntityBag{Origin: "zurich", Destination: "bern", Date: "tomorrow"})
	c.RememberEntities(models.EntityBag{Destination: "basel", Time: "08:00"})

	got := c.Entities()
	assert.Equal(t, "zurich", got.Origin)
	assert.Equal(t, "basel", got.Destination)
	assert.Equal(t, "tomorrow", got.Date)
	assert.Equal(t, "08:00", got.Time)
	assert.False(t, got.RequiresUserLocation)
}

func TestConversationContext_RememberUserLocationSentinel(t *testing.T) {
	c := New("s1")
	c.RememberEntities(models.EntityBag{Origin: "zurich"})

	c.RememberEntities(models.EntityBag{Origin: models.UserLocation, Destination: "bern", RequiresUserLocation: true})

	got := c.Entities()
	assert.Equal(t, "zurich", got.Origin, "sentinel never stored as a place")
	assert.Equal(t, "bern", got.Destination)
	assert.True(t, got.RequiresUserLocation)
}

func TestConversationContext_UserLocationFlagClearedByNamedPlaces(t *testing.T) {
	c := New("s1")
	c.RememberEntities(models.EntityBag{Origin: models.UserLocation, Destination: "bern", RequiresUserLocation: true})
	require.True(t, c.Entities().RequiresUserLocation)

	c.RememberEntities(models.EntityBag{Destination: "basel"})
	assert.True(t, c.Entities().RequiresUserLocation, "one named place keeps the flag")

	c.RememberEntities(models.EntityBag{Origin: "zurich", Destination: "geneva"})

	got := c.Entities()
	assert.False(t, got.RequiresUserLocation)
	assert.Equal(t, "zurich", got.Origin)
	assert.Equal(t, "geneva", got.Destination)
}

func TestConversationContext_Preferences(t *testing.T) {
	c := New("s1")
	c.MergePreferences(Preferences{TravelStyle: "eco"})
	c.MergePreferences(Preferences{Language: models.LanguageGerman})

	assert.Equal(t, Preferences{TravelStyle: "eco", Language: models.LanguageGerman}, c.Preferences())
}

func TestConversationContext_UserLocationCopy(t *testing.T) {
	c := New("s1")
	p := &models.GeoPoint{Latitude: 46.948, Longitude: 7.439}
	c.SetUserLocation(p)
	p.Latitude = 0

	got := c.UserLocation()
	require.NotNil(t, got)
	assert.Equal(t, 46.948, got.Latitude)
}

func TestConversationContext_JSONRoundTrip(t *testing.T) {
	c := New("s1")
	c.RememberEntities(models.EntityBag{Origin: "zurich"})
	c.SetUserLocation(&models.GeoPoint{Latitude: 1, Longitude: 2})
	require.NoError(t, c.CacheToolResult(models.ToolWeather, models.WeatherParams{Location: "bern"}, okResult("sunny")))

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	restored := &ConversationContext{}
	require.NoError(t, json.Unmarshal(raw, restored))

	assert.Equal(t, "s1", restored.SessionID())
	assert.Equal(t, "zurich", restored.Entities().Origin)
	got, ok := restored.GetCachedResult(models.ToolWeather, models.WeatherParams{Location: "bern"})
	require.True(t, ok)
	assert.JSONEq(t, `{"value":"sunny"}`, string(got.Data))
}
