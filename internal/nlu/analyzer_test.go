package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-orchestrator/internal/common/logger"
	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/nlu/lexicon"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	return NewAnalyzer(lexicon.MustDefault(), logger.NewTestLogger(t))
}

// ==========================
// Analyze
// ==========================

func TestAnalyzer_Analyze_Compound(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Analyze("Trains from Zurich to Bern tomorrow at 8:15 and what is the weather in Bern", models.LanguageEnglish)

	require.Len(t, got.Segments, 2)
	require.Len(t, got.Intents, 2)
	assert.Equal(t, models.IntentTripPlanning, got.Intents[0].Type)
	assert.Equal(t, 1, got.Intents[0].Priority)
	assert.Equal(t, "Trains from Zurich to Bern tomorrow at 8:15", got.Intents[0].Segment)
	assert.Equal(t, models.IntentWeatherCheck, got.Intents[1].Type)
	assert.Equal(t, 2, got.Intents[1].Priority)

	assert.Equal(t, models.IntentTripPlanning, got.Primary.Type)
	assert.Equal(t, 0.7, got.Primary.Confidence)
	assert.Equal(t, "zurich", got.Primary.ExtractedEntities.Origin)
	assert.Equal(t, "bern", got.Primary.ExtractedEntities.Destination)
	assert.Equal(t, "tomorrow", got.Primary.ExtractedEntities.Date)
	assert.Equal(t, "08:15", got.Primary.ExtractedEntities.Time)

	for _, seg := range got.Segments {
		assert.Equal(t, seg.Text, got.Message[seg.StartIndex:seg.EndIndex])
	}
}

func TestAnalyzer_Analyze_PrimaryIsMostConfident(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Analyze("What's the weather in Davos? Any fresh snow there?", models.LanguageEnglish)

	require.Len(t, got.Intents, 2)
	assert.Equal(t, models.IntentWeatherCheck, got.Intents[0].Type)
	assert.Equal(t, models.IntentSnowConditions, got.Intents[1].Type)
	assert.Equal(t, models.IntentSnowConditions, got.Primary.Type)
}

func TestAnalyzer_Analyze_Single(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Analyze("  Zurich to Bern  ", models.LanguageEnglish)

	require.Len(t, got.Segments, 1)
	assert.Equal(t, "Zurich to Bern", got.Segments[0].Text)
	assert.Equal(t, models.IntentTripPlanning, got.Primary.Type)
	assert.Equal(t, []models.Language{models.LanguageEnglish}, got.Languages)
}

func TestAnalyzer_Analyze_Empty(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Analyze("", "")

	require.Len(t, got.Segments, 1)
	require.Len(t, got.Intents, 1)
	assert.Equal(t, models.IntentGeneralInfo, got.Primary.Type)
	assert.Less(t, got.Primary.Confidence, 0.7)
}

func TestAnalyzer_Analyze_DuplicateIntents(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.Analyze("Trains from Zurich to Bern tomorrow at 9:00 and also trains from Basel to Bern", models.LanguageEnglish)

	require.Len(t, got.Segments, 2)
	require.Len(t, got.Intents, 1)
	assert.Equal(t, "zurich", got.Primary.ExtractedEntities.Origin)
	assert.Equal(t, 1, got.Primary.Priority)
}
