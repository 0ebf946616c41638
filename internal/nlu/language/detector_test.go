package language

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/nlu/lexicon"
)

func newTestDetector() *Detector {
	return NewDetector(lexicon.MustDefault())
}

func TestDetector_Detect(t *testing.T) {
	d := newTestDetector()

	tests := []struct {
		name     string
		text     string
		declared models.Language
		want     []models.Language
	}{
		{"english", "Trains from Zurich to Bern", "", []models.Language{models.LanguageEnglish}},
		{"german", "Ich möchte morgen nach Bern", "", []models.Language{models.LanguageGerman}},
		{"french", "Je voudrais aller à Genève demain", "", []models.Language{models.LanguageFrench}},
		{"italian", "Vorrei andare a Milano domani", "", []models.Language{models.LanguageItalian}},
		{"chinese script", "苏黎世到伯尔尼", "", []models.Language{models.LanguageChinese}},
		{"hindi script", "दिल्ली से मुंबई", "", []models.Language{models.LanguageHindi}},
		{"declared promoted", "Trains from Zurich to Bern", models.LanguageGerman, []models.Language{models.LanguageGerman, models.LanguageEnglish}},
		{"declared already first", "Trains from Zurich", models.LanguageEnglish, []models.Language{models.LanguageEnglish}},
		{"nothing matched uses declared", "Zermatt", models.LanguageItalian, []models.Language{models.LanguageItalian}},
		{"nothing matched nothing declared", "Zermatt", "", []models.Language{models.LanguageEnglish}},
		{"unsupported declared ignored", "Zermatt", "es", []models.Language{models.LanguageEnglish}},
		{"empty", "", "", []models.Language{models.LanguageEnglish}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.text, tt.declared))
		})
	}
}

func TestDetector_MixedLanguagesKeepFixedOrder(t *testing.T) {
	d := newTestDetector()

	got := d.Detect("Wetter in Zermatt and trains from Bern", "")

	assert.Equal(t, []models.Language{models.LanguageEnglish, models.LanguageGerman}, got)
}

func TestDetector_IndicatorInsideWordDoesNotMatch(t *testing.T) {
	d := newTestDetector()

	// "ich" inside a place name is not an indicator.
	got := d.Detect("Lichtensteig", "")

	assert.Equal(t, []models.Language{models.LanguageEnglish}, got)
}
