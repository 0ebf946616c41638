// Package lexicon holds the per-language word tables that drive language
// detection, entity extraction, intent classification and segmentation.
// The tables are data: an embedded YAML file validated against a JSON schema
// at load time, so a missing language or intent is caught on startup.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	apperrors "travel-orchestrator/internal/common/errors"
	"travel-orchestrator/internal/common/validation"
	"travel-orchestrator/internal/models"
)

//go:embed lexicon.yaml
var embeddedLexicon []byte

//go:embed lexicon.schema.json
var embeddedSchema []byte

// SupportedLanguages is the fixed order in which languages are tested.
var SupportedLanguages = []models.Language{
	models.LanguageEnglish,
	models.LanguageGerman,
	models.LanguageFrench,
	models.LanguageItalian,
	models.LanguageChinese,
	models.LanguageHindi,
}

// PatternRule maps a regular expression to a normalized value. Value is a
// regexp.Expand template; empty means the matched text itself.
type PatternRule struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Value   string `yaml:"value,omitempty" json:"value,omitempty"`

	re *regexp.Regexp
}

// Regexp returns the compiled, case-insensitive pattern.
func (r *PatternRule) Regexp() *regexp.Regexp { return r.re }

type Prepositions struct {
	Origin      []string `yaml:"origin"`
	Destination []string `yaml:"destination"`
	Location    []string `yaml:"location"`
	Time        []string `yaml:"time"`
}

// All returns every preposition of the language.
func (p Prepositions) All() []string {
	out := make([]string, 0, len(p.Origin)+len(p.Destination)+len(p.Location)+len(p.Time))
	out = append(out, p.Origin...)
	out = append(out, p.Destination...)
	out = append(out, p.Location...)
	return append(out, p.Time...)
}

type EventTypes struct {
	Arrivals   []string `yaml:"arrivals"`
	Departures []string `yaml:"departures"`
}

// KeywordSet lists the terms for one intent type. Keywords and variants are
// matched on word boundaries, phrases as substrings.
type KeywordSet struct {
	Keywords []string `yaml:"keywords"`
	Variants []string `yaml:"variants"`
	Phrases  []string `yaml:"phrases"`
}

// Words returns keywords followed by variants.
func (k KeywordSet) Words() []string {
	out := make([]string, 0, len(k.Keywords)+len(k.Variants))
	out = append(out, k.Keywords...)
	return append(out, k.Variants...)
}

type LanguageSet struct {
	Script         string                            `yaml:"script"`
	Unspaced       bool                              `yaml:"unspaced"`
	Postpositional bool                              `yaml:"postpositional"`
	Indicators     []string                          `yaml:"indicators"`
	Deictic        []string                          `yaml:"deictic"`
	Conjunctions   []string                          `yaml:"conjunctions"`
	NonPlaceWords  []string                          `yaml:"nonPlaceWords"`
	StopWords      []string                          `yaml:"stopWords"`
	Prepositions   Prepositions                      `yaml:"prepositions"`
	Dates          []PatternRule                     `yaml:"dates"`
	Times          []PatternRule                     `yaml:"times"`
	EventTypes     EventTypes                        `yaml:"eventTypes"`
	Intents        map[models.IntentType]KeywordSet `yaml:"intents"`
}

// Bounded reports whether terms of this language are matched on word boundaries.
func (ls *LanguageSet) Bounded() bool { return !ls.Unspaced }

type Lexicon struct {
	Version          string                             `yaml:"version"`
	ProtectedPhrases []string                           `yaml:"protectedPhrases"`
	Languages        map[models.Language]*LanguageSet `yaml:"languages"`

	protectedRe *regexp.Regexp
}

// For returns the table of a language, or nil when it is not supported.
func (l *Lexicon) For(lang models.Language) *LanguageSet {
	return l.Languages[lang]
}

// Supports reports whether lang has a table.
func (l *Lexicon) Supports(lang models.Language) bool {
	_, ok := l.Languages[lang]
	return ok
}

// ProtectedSpans returns the byte ranges of protected phrases in text.
func (l *Lexicon) ProtectedSpans(text string) [][2]int {
	if l.protectedRe == nil {
		return nil
	}
	var spans [][2]int
	for _, loc := range l.protectedRe.FindAllStringIndex(text, -1) {
		if !BoundaryAt(text, loc[0], loc[1]) {
			continue
		}
		spans = append(spans, [2]int{loc[0], loc[1]})
	}
	return spans
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
	defaultErr  error
)

// Default returns the embedded lexicon. It is parsed once.
func Default() (*Lexicon, error) {
	defaultOnce.Do(func() {
		defaultLex, defaultErr = Load(embeddedLexicon)
	})
	return defaultLex, defaultErr
}

// MustDefault panics when the embedded lexicon is invalid.
func MustDefault() *Lexicon {
	lex, err := Default()
	if err != nil {
		panic(err)
	}
	return lex
}

// LoadFile loads a lexicon from path; an empty path yields the embedded one.
func LoadFile(path string) (*Lexicon, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return Load(data)
}

// Embedded returns the raw embedded lexicon document.
func Embedded() []byte { return embeddedLexicon }

// Load parses, schema-validates and compiles a lexicon document.
func Load(data []byte) (*Lexicon, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}

	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, apperrors.NewLexiconInvalidError(err.Error())
	}
	if err := lex.compile(); err != nil {
		return nil, err
	}
	return &lex, nil
}

func validateDocument(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return apperrors.NewLexiconInvalidError(fmt.Sprintf("parse yaml: %v", err))
	}

	schema, err := validation.NewSchema(embeddedSchema)
	if err != nil {
		return err
	}
	result, err := schema.Validate(doc)
	if err != nil {
		return apperrors.NewLexiconInvalidError(err.Error())
	}
	if !result.Valid {
		return apperrors.NewLexiconInvalidError(result.Error()).
			WithMetadata("errors", result.GetErrorMessages())
	}
	return nil
}

func (l *Lexicon) compile() error {
	for i, p := range l.ProtectedPhrases {
		l.ProtectedPhrases[i] = Normalize(p)
	}
	if len(l.ProtectedPhrases) > 0 {
		l.protectedRe = regexp.MustCompile(`(?i)(?:` + Alternation(l.ProtectedPhrases) + `)`)
	}

	for lang, ls := range l.Languages {
		lowerAll(ls.Indicators, ls.Deictic, ls.Conjunctions, ls.NonPlaceWords, ls.StopWords,
			ls.Prepositions.Origin, ls.Prepositions.Destination, ls.Prepositions.Location, ls.Prepositions.Time,
			ls.EventTypes.Arrivals, ls.EventTypes.Departures)
		for _, ks := range ls.Intents {
			lowerAll(ks.Keywords, ks.Variants, ks.Phrases)
		}

		for i := range ls.Dates {
			if err := ls.Dates[i].compile(); err != nil {
				return apperrors.NewLexiconInvalidError(fmt.Sprintf("%s.dates[%d]: %v", lang, i, err))
			}
		}
		for i := range ls.Times {
			if err := ls.Times[i].compile(); err != nil {
				return apperrors.NewLexiconInvalidError(fmt.Sprintf("%s.times[%d]: %v", lang, i, err))
			}
		}
	}
	return nil
}

func (r *PatternRule) compile() error {
	re, err := regexp.Compile(`(?i)` + r.Pattern)
	if err != nil {
		return err
	}
	r.re = re
	return nil
}

func lowerAll(lists ...[]string) {
	for _, list := range lists {
		for i, term := range list {
			list[i] = strings.ToLower(Normalize(term))
		}
	}
}
