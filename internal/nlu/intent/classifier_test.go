package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/nlu/lexicon"
)

func newTestClassifier() *Classifier {
	return NewClassifier(lexicon.MustDefault())
}

// ==========================
// Intent type
// ==========================

func TestClassifier_Type(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name string
		text string
		lang models.Language
		want models.IntentType
	}{
		{"route without keyword", "Zurich to Bern", models.LanguageEnglish, models.IntentTripPlanning},
		{"departures", "Show departures from Bern", models.LanguageEnglish, models.IntentStationSearch},
		{"snow beats weather", "Weather and snow in Davos", models.LanguageEnglish, models.IntentSnowConditions},
		{"station beats trip", "Which platform does the train to Bern leave from?", models.LanguageEnglish, models.IntentStationSearch},
		{"formation", "Where is the dining car on the IC 8?", models.LanguageEnglish, models.IntentTrainFormation},
		{"german weather", "Wie ist das Wetter in Zermatt morgen?", "", models.IntentWeatherCheck},
		{"chinese weather", "明天苏黎世的天气怎么样", "", models.IntentWeatherCheck},
		{"hindi trip", "दिल्ली से मुंबई ट्रेन", "", models.IntentTripPlanning},
		{"general keyword", "Can you help me?", models.LanguageEnglish, models.IntentGeneralInfo},
		{"keyword inside a word", "Trainspotting in Bern", models.LanguageEnglish, models.IntentGeneralInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text, tt.lang).Type)
		})
	}
}

func TestExtract_Empty(t *testing.T) {
	got := Extract("", "")

	assert.Equal(t, models.IntentGeneralInfo, got.Type)
	assert.Less(t, got.Confidence, 0.7)
	assert.Empty(t, got.MatchedKeywords)
	assert.Equal(t, []models.Language{models.LanguageEnglish}, got.DetectedLanguages)
}

func TestExtract_ZurichToBern(t *testing.T) {
	got := Extract("Zurich to Bern", models.LanguageEnglish)

	assert.Equal(t, models.IntentTripPlanning, got.Type)
	assert.Equal(t, "zurich", got.ExtractedEntities.Origin)
	assert.Equal(t, "bern", got.ExtractedEntities.Destination)
	assert.InDelta(t, 0.6, got.Confidence, 1e-9)
}

func TestExtract_ShowDepartures(t *testing.T) {
	got := Extract("Show departures from Bern", models.LanguageEnglish)

	assert.Equal(t, models.IntentStationSearch, got.Type)
	assert.Equal(t, models.EventDepartures, got.ExtractedEntities.EventType)
	assert.Equal(t, []string{"departures"}, got.MatchedKeywords)
}

// ==========================
// Confidence
// ==========================

func TestClassifier_Confidence(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"single keyword", "Show departures from Bern", 0.6},
		{"keyword and phrase", "Which platform does the train to Bern leave from?", 0.7},
		{"date and time boost", "Train from Zurich to Bern tomorrow at 10:30", 0.7},
		{"no keyword", "Trainspotting in Bern", 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.Classify(tt.text, models.LanguageEnglish).Confidence, 1e-9)
		})
	}
}

func TestClassifier_ConfidenceNeverAboveCap(t *testing.T) {
	c := newTestClassifier()

	inputs := []string{
		"train trip journey connection travel route ticket trains trips from Zurich to Bern tomorrow at 10:00",
		"weather forecast temperature rain sunny cloudy wind storm raining rainy tomorrow at 9am",
		"snow ski skiing slopes piste avalanche snowfall snow depth ski conditions powder day",
		"Wetter Wettervorhersage Temperatur Regen sonnig Wind Gewitter regnet Sonne morgen um 10 Uhr",
	}
	for _, in := range inputs {
		got := c.Classify(in, "")
		assert.LessOrEqual(t, got.Confidence, models.MaxConfidence, in)
	}
	assert.InDelta(t, models.MaxConfidence, c.Classify(inputs[0], models.LanguageEnglish).Confidence, 1e-9)
}

// ==========================
// Metadata
// ==========================

func TestClassifier_LanguagesAndTimestamp(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	c := NewClassifier(lexicon.MustDefault(), WithClock(func() time.Time { return fixed }))

	got := c.Classify("Trains from Zurich to Bern", models.LanguageGerman)

	require.Equal(t, []models.Language{models.LanguageGerman, models.LanguageEnglish}, got.DetectedLanguages)
	assert.Equal(t, fixed, got.Timestamp)
	assert.Equal(t, models.IntentTripPlanning, got.Type)
}

func TestClassifier_ClassifyWithSkipsDetection(t *testing.T) {
	c := newTestClassifier()

	got := c.ClassifyWith("Wetter in Zermatt", []models.Language{models.LanguageGerman})

	assert.Equal(t, models.IntentWeatherCheck, got.Type)
	assert.Equal(t, "zermatt", got.ExtractedEntities.Location)
}
