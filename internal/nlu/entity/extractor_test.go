package entity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/nlu/lexicon"
)

var (
	en = []models.Language{models.LanguageEnglish}
	de = []models.Language{models.LanguageGerman}
	fr = []models.Language{models.LanguageFrench}
	it = []models.Language{models.LanguageItalian}
	zh = []models.Language{models.LanguageChinese}
	hi = []models.Language{models.LanguageHindi}
)

func newTestExtractor() *Extractor {
	return NewExtractor(lexicon.MustDefault())
}

// ==========================
// Places
// ==========================

func TestExtractor_Places(t *testing.T) {
	x := newTestExtractor()

	tests := []struct {
		name        string
		text        string
		langs       []models.Language
		origin      string
		destination string
	}{
		{"implicit route", "Zurich to Bern", en, "zurich", "bern"},
		{"explicit english", "Trains from Zurich to Bern tomorrow at 10:30", en, "zurich", "bern"},
		{"german", "Von Zürich nach Bern morgen früh", de, "zürich", "bern"},
		{"french", "De Genève à Lausanne demain matin", fr, "genève", "lausanne"},
		{"italian", "Da Milano a Roma domani", it, "milano", "roma"},
		{"chinese unspaced", "从苏黎世到伯尔尼", zh, "苏黎世", "伯尔尼"},
		{"hindi postpositions", "दिल्ली से मुंबई तक", hi, "दिल्ली", "मुंबई"},
		{"hindi destination after origin", "दिल्ली से मुंबई जाना है", hi, "दिल्ली", "मुंबई"},
		{"protected phrase", "Trains from St. Gallen to Zurich", en, "st. gallen", "zurich"},
		{"sentence is not an origin", "I want to go to Bern", en, "", "bern"},
		{"implicit origin too many words", "one two three four to Bern", en, "", "bern"},
		{"reversed order", "Trains to Bern from Zurich", en, "zurich", "bern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag := x.Extract(tt.text, tt.langs)
			assert.Equal(t, tt.origin, bag.Origin)
			assert.Equal(t, tt.destination, bag.Destination)
			assert.False(t, bag.RequiresUserLocation)
		})
	}
}

func TestExtractor_ImplicitOnlyForShortMessages(t *testing.T) {
	x := newTestExtractor()

	bag := x.Extract("Lausanne Ouchy Flon Gare to Bern", en)

	assert.Empty(t, bag.Origin)
	assert.Equal(t, "bern", bag.Destination)
}

// ==========================
// Deictic words
// ==========================

func TestExtractor_Deictic(t *testing.T) {
	x := newTestExtractor()

	tests := []struct {
		name        string
		text        string
		langs       []models.Language
		origin      string
		destination string
	}{
		{"from here", "Trains from here to Bern", en, models.UserLocation, "bern"},
		{"to here", "Trains from Bern to here", en, "bern", models.UserLocation},
		{"my location", "How do I get to Bern from my location", en, models.UserLocation, "bern"},
		{"german hier", "Von hier nach Luzern", de, models.UserLocation, "luzern"},
		{"french ici", "D'ici à Lausanne", fr, models.UserLocation, "lausanne"},
		{"chinese", "从这里到苏黎世", zh, models.UserLocation, "苏黎世"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag := x.Extract(tt.text, tt.langs)
			assert.Equal(t, tt.origin, bag.Origin)
			assert.Equal(t, tt.destination, bag.Destination)
			assert.True(t, bag.RequiresUserLocation)
		})
	}
}

// ==========================
// Date, time, event type
// ==========================

func TestExtractor_DateAndTime(t *testing.T) {
	x := newTestExtractor()

	tests := []struct {
		name  string
		text  string
		langs []models.Language
		date  string
		time  string
	}{
		{"english clock", "Trains from Zurich to Bern tomorrow at 10:30", en, "tomorrow", "10:30"},
		{"english pm", "Arrivals at Zürich HB at 3pm", en, "", "15:00"},
		{"hour after preposition", "Weather in Zermatt at 9", en, "", "09:00"},
		{"day after tomorrow beats tomorrow", "Trains to Bern the day after tomorrow", en, "day_after_tomorrow", ""},
		{"weekday", "Trains to Bern next friday evening", en, "friday", "evening"},
		{"german relative", "Von Zürich nach Bern morgen früh", de, "tomorrow", "morning"},
		{"german numeric date is not a time", "Züge nach Genf am 24.12.2025", de, "2025-12-24", ""},
		{"german uhr", "Zug nach Basel um 14.30 Uhr", de, "", "14:30"},
		{"french", "De Genève à Lausanne demain matin", fr, "tomorrow", "morning"},
		{"french hours", "Un train pour Sion à 8h15", fr, "", "08:15"},
		{"italian", "Da Milano a Roma domani alle 9", it, "tomorrow", "09:00"},
		{"chinese afternoon hour", "明天下午3点从苏黎世到伯尔尼", zh, "tomorrow", "15:00"},
		{"hindi", "कल सुबह दिल्ली से मुंबई", hi, "tomorrow", "morning"},
		{"nothing", "Zurich to Bern", en, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag := x.Extract(tt.text, tt.langs)
			assert.Equal(t, tt.date, bag.Date)
			assert.Equal(t, tt.time, bag.Time)
		})
	}
}

func TestExtractor_EventTypeAndStation(t *testing.T) {
	x := newTestExtractor()

	bag := x.Extract("Show departures from Bern", en)
	assert.Equal(t, models.EventDepartures, bag.EventType)
	assert.Equal(t, "bern", bag.Station)

	bag = x.Extract("Arrivals at Zürich HB at 3pm", en)
	assert.Equal(t, models.EventArrivals, bag.EventType)
	assert.Equal(t, "zürich hb", bag.Location)
	assert.Equal(t, "zürich hb", bag.Station)

	bag = x.Extract("Abfahrten ab Olten", de)
	assert.Equal(t, models.EventDepartures, bag.EventType)
	assert.Equal(t, "olten", bag.Station)

	bag = x.Extract("Zurich to Bern", en)
	assert.Empty(t, bag.EventType)
	assert.Empty(t, bag.Station)
}

func TestExtractor_Location(t *testing.T) {
	x := newTestExtractor()

	assert.Equal(t, "zermatt", x.Extract("Weather in Zermatt tomorrow", en).Location)
	assert.Equal(t, "davos", x.Extract("Wie viel Schnee liegt in Davos?", de).Location)
	assert.Empty(t, x.Extract("Trains to Bern in the morning", en).Location)
}

func TestExtractor_Empty(t *testing.T) {
	assert.Equal(t, models.EntityBag{}, newTestExtractor().Extract("   ", en))
}

// ==========================
// Caching and concurrency
// ==========================

func TestExtractor_PatternsCachedPerLanguageList(t *testing.T) {
	x := newTestExtractor()

	a := x.patternsFor([]models.Language{models.LanguageGerman, models.LanguageEnglish})
	b := x.patternsFor([]models.Language{models.LanguageGerman, models.LanguageEnglish})
	c := x.patternsFor(en)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestExtractor_ConcurrentUse(t *testing.T) {
	x := newTestExtractor()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bag := x.Extract("Zurich to Bern", en)
			assert.Equal(t, "zurich", bag.Origin)
		}()
	}
	wg.Wait()
}

func TestNormalizeClock(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"9:05", "09:05", true},
		{"12am", "00:00", true},
		{"12pm", "12:00", true},
		{"11:30pm", "23:30", true},
		{"24:12", "", false},
		{"13pm", "", false},
		{"evening", "evening", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := normalizeClock(tt.in)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-1-5", "2025-01-05", true},
		{"12-24", "12-24", true},
		{"december-24", "12-24", true},
		{"2025-13-01", "", false},
		{"tomorrow", "tomorrow", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := normalizeDate(tt.in)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
