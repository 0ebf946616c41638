// Package intent classifies a message or segment into one intent type by
// keyword tables, in a fixed priority order.
package intent

import (
	"math"
	"strings"
	"time"

	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/nlu/entity"
	"travel-orchestrator/internal/nlu/language"
	"travel-orchestrator/internal/nlu/lexicon"
)

const (
	baseConfidence      = 0.6
	perKeywordBoost     = 0.1
	dateTimeBoost       = 0.1
	routeOnlyConfidence = 0.6
	fallbackConfidence  = 0.3
)

// Classifier is safe for concurrent use.
type Classifier struct {
	lex       *lexicon.Lexicon
	detector  *language.Detector
	extractor *entity.Extractor
	now       func() time.Time
}

type Option func(*Classifier)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

func NewClassifier(lex *lexicon.Lexicon, opts ...Option) *Classifier {
	c := &Classifier{
		lex:       lex,
		detector:  language.NewDetector(lex),
		extractor: entity.NewExtractor(lex),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Detector exposes the language detector used by the classifier.
func (c *Classifier) Detector() *language.Detector { return c.detector }

// Classify detects candidate languages for text and classifies it.
func (c *Classifier) Classify(text string, userLang models.Language) models.Intent {
	langs := c.detector.Detect(text, userLang)
	return c.ClassifyWith(text, langs)
}

// ClassifyWith classifies text against an already detected language list.
func (c *Classifier) ClassifyWith(text string, langs []models.Language) models.Intent {
	entities := c.extractor.Extract(text, langs)
	lowered := strings.ToLower(lexicon.Normalize(text))

	result := models.Intent{
		Type:              models.IntentGeneralInfo,
		Confidence:        fallbackConfidence,
		ExtractedEntities: entities,
		DetectedLanguages: langs,
		MatchedKeywords:   []string{},
		Timestamp:         c.now(),
	}

	for _, it := range models.IntentPriority {
		matched := c.match(lowered, langs, it)
		if len(matched) == 0 {
			continue
		}
		result.Type = it
		result.MatchedKeywords = matched
		result.Confidence = confidence(len(matched), entities)
		break
	}

	if result.Type == models.IntentGeneralInfo && entities.HasRoute() {
		result.Type = models.IntentTripPlanning
		result.Confidence = routeOnlyConfidence
	}
	return result
}

// match returns the distinct terms of intent type it found in text.
func (c *Classifier) match(text string, langs []models.Language, it models.IntentType) []string {
	var matched []string
	seen := make(map[string]struct{})
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		matched = append(matched, t)
	}

	for _, lang := range langs {
		ls := c.lex.For(lang)
		if ls == nil {
			continue
		}
		ks, ok := ls.Intents[it]
		if !ok {
			continue
		}
		for _, w := range ks.Words() {
			if lexicon.ContainsTerm(text, w, ls.Bounded()) {
				add(w)
			}
		}
		for _, p := range ks.Phrases {
			if strings.Contains(text, p) {
				add(p)
			}
		}
	}
	return matched
}

func confidence(matches int, entities models.EntityBag) float64 {
	score := baseConfidence + perKeywordBoost*float64(matches-1)
	if entities.Date != "" && entities.Time != "" {
		score += dateTimeBoost
	}
	score = math.Round(score*100) / 100
	return math.Min(score, models.MaxConfidence)
}
