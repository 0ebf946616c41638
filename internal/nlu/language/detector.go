// Package language guesses which supported languages a message is written in.
package language

import (
	"regexp"

	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/nlu/lexicon"
)

type indicator struct {
	lang models.Language
	re   *regexp.Regexp
}

// Detector tests a message against one indicator regex per language.
type Detector struct {
	indicators []indicator
}

func NewDetector(lex *lexicon.Lexicon) *Detector {
	d := &Detector{}
	for _, lang := range lexicon.SupportedLanguages {
		ls := lex.For(lang)
		if ls == nil {
			continue
		}
		d.indicators = append(d.indicators, indicator{lang: lang, re: indicatorRegexp(ls)})
	}
	return d
}

func indicatorRegexp(ls *lexicon.LanguageSet) *regexp.Regexp {
	words := lexicon.Alternation(ls.Indicators)
	pattern := lexicon.Leading + `(?:` + words + `)` + lexicon.Trailing
	if ls.Unspaced {
		pattern = `(?:` + words + `)`
	}
	switch ls.Script {
	case "Han":
		pattern += `|\p{Han}`
	case "Devanagari":
		pattern += `|\p{Devanagari}`
	}
	return regexp.MustCompile(`(?i)` + pattern)
}

// Detect returns the candidate languages in lexicon order, with the declared
// language promoted to the front. It never returns an empty list.
func (d *Detector) Detect(text string, declared models.Language) []models.Language {
	var detected []models.Language
	for _, ind := range d.indicators {
		if ind.re.MatchString(text) {
			detected = append(detected, ind.lang)
		}
	}

	if declared == "" || !d.supports(declared) {
		if len(detected) == 0 {
			return []models.Language{models.DefaultLanguage}
		}
		return detected
	}

	out := make([]models.Language, 0, len(detected)+1)
	out = append(out, declared)
	for _, lang := range detected {
		if lang != declared {
			out = append(out, lang)
		}
	}
	return out
}

func (d *Detector) supports(lang models.Language) bool {
	for _, ind := range d.indicators {
		if ind.lang == lang {
			return true
		}
	}
	return false
}
