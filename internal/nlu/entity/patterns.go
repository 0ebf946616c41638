package entity

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/nlu/lexicon"
)

// family groups candidate languages that share a sentence shape: spaced
// prepositional (en, de, fr, it), unspaced prepositional (zh) and spaced
// postpositional (hi).
type family struct {
	bounded        bool
	postpositional bool

	origin      *regexp.Regexp
	destination *regexp.Regexp
	location    *regexp.Regexp
	follow      *regexp.Regexp
	implicit    *regexp.Regexp
	timePrep    *regexp.Regexp
}

type familyKind int

const (
	kindSpaced familyKind = iota
	kindUnspaced
	kindPostpositional
)

func kindOf(ls *lexicon.LanguageSet) familyKind {
	switch {
	case ls.Unspaced:
		return kindUnspaced
	case ls.Postpositional:
		return kindPostpositional
	default:
		return kindSpaced
	}
}

type term struct {
	text    string
	bounded bool
}

// patterns is everything compiled for one ordered candidate-language list.
type patterns struct {
	families []*family
	filler   map[string]struct{}
	nonPlace []term
}

const placeToken = `([^\s,;:!?।]+)`

// prepPattern renders prepositions longest first. Elided forms like "d'"
// attach directly to the next word; multi-word forms allow any spacing.
func prepPattern(preps []string, spaced bool) string {
	uniq := make(map[string]struct{}, len(preps))
	sorted := make([]string, 0, len(preps))
	for _, p := range preps {
		if _, ok := uniq[p]; ok || p == "" {
			continue
		}
		uniq[p] = struct{}{}
		sorted = append(sorted, p)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i]) > utf8.RuneCountInString(sorted[j])
	})

	parts := make([]string, len(sorted))
	for i, p := range sorted {
		q := strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`)
		switch {
		case !spaced:
			q += `\s*`
		case strings.HasSuffix(p, "'"):
			q += `\s*`
		default:
			q += `\s+`
		}
		parts[i] = q
	}
	return strings.Join(parts, "|")
}

func spacedStop(stops []string) string {
	return `(?:\s+(?:` + lexicon.Alternation(stops) + `)` + lexicon.Trailing +
		`|\s*[,;:!?]|\s*\.(?:\s|$)|$)`
}

func unspacedStop(stops []string) string {
	return `(?:` + lexicon.Alternation(stops) + `|\s*[,;:!?，。！？；]|$)`
}

func compilePatterns(lex *lexicon.Lexicon, langs []models.Language) *patterns {
	p := &patterns{filler: make(map[string]struct{})}

	type group struct {
		kind                             familyKind
		origin, destination, location    []string
		time, stops                      []string
	}
	var groups []*group
	byKind := make(map[familyKind]*group)

	for _, lang := range langs {
		ls := lex.For(lang)
		if ls == nil {
			continue
		}
		k := kindOf(ls)
		g, ok := byKind[k]
		if !ok {
			g = &group{kind: k}
			byKind[k] = g
			groups = append(groups, g)
		}
		g.origin = append(g.origin, ls.Prepositions.Origin...)
		g.destination = append(g.destination, ls.Prepositions.Destination...)
		g.location = append(g.location, ls.Prepositions.Location...)
		g.time = append(g.time, ls.Prepositions.Time...)
		g.stops = append(g.stops, ls.StopWords...)
		g.stops = append(g.stops, ls.Prepositions.All()...)
		g.stops = append(g.stops, ls.Conjunctions...)

		for _, lists := range [][]string{ls.StopWords, ls.NonPlaceWords, ls.Prepositions.All(), ls.Conjunctions, ls.Deictic} {
			for _, w := range lists {
				p.filler[w] = struct{}{}
			}
		}
		for _, w := range ls.NonPlaceWords {
			p.nonPlace = append(p.nonPlace, term{text: w, bounded: ls.Bounded()})
		}
	}

	for _, g := range groups {
		switch g.kind {
		case kindSpaced:
			stop := spacedStop(g.stops)
			f := &family{bounded: true}
			f.origin = regexp.MustCompile(`(?i)` + lexicon.Leading + `(?:` + prepPattern(g.origin, true) + `)(.+?)` + stop)
			f.destination = regexp.MustCompile(`(?i)` + lexicon.Leading + `(?:` + prepPattern(g.destination, true) + `)(.+?)` + stop)
			if len(g.location) > 0 {
				f.location = regexp.MustCompile(`(?i)` + lexicon.Leading + `(?:` + prepPattern(g.location, true) + `)(.+?)` + stop)
			}
			f.implicit = regexp.MustCompile(`(?i)^\s*(.+?)\s+(?:` + prepPattern(g.destination, true) + `)(.+?)` + stop)
			if len(g.time) > 0 {
				f.timePrep = regexp.MustCompile(`(?i)` + lexicon.Leading + `(?:` + prepPattern(g.time, true) + `)(\d{1,2})(?:[^\d:.]|$)`)
			}
			p.families = append(p.families, f)

		case kindUnspaced:
			stop := unspacedStop(g.stops)
			f := &family{}
			f.origin = regexp.MustCompile(`(?:` + prepPattern(g.origin, false) + `)(.+?)` + stop)
			f.destination = regexp.MustCompile(`(?:` + prepPattern(g.destination, false) + `)(.+?)` + stop)
			if len(g.location) > 0 {
				f.location = regexp.MustCompile(`(?:` + prepPattern(g.location, false) + `)(.+?)` + stop)
			}
			f.implicit = regexp.MustCompile(`^\s*(.+?)(?:` + prepPattern(g.destination, false) + `)(.+?)` + stop)
			p.families = append(p.families, f)

		case kindPostpositional:
			f := &family{bounded: true, postpositional: true}
			post := func(preps []string) *regexp.Regexp {
				alt := strings.ReplaceAll(lexicon.Alternation(preps), " ", `\s+`)
				return regexp.MustCompile(`(?:^|\s)` + placeToken + `\s+(?:` + alt + `)` + lexicon.Trailing)
			}
			f.origin = post(g.origin)
			f.destination = post(g.destination)
			if len(g.location) > 0 {
				f.location = post(g.location)
			}
			f.follow = regexp.MustCompile(`(?:^|\s)(?:` + lexicon.Alternation(g.origin) + `)\s+` + placeToken)
			p.families = append(p.families, f)
		}
	}
	return p
}

// span is a capture group position in the searched text.
type span struct {
	start, end int
}

// captures returns every capture of re in text. Each search resumes at the
// end of the previous capture so that the stop word of one match can start
// the next one ("to go to Bern").
func captures(re *regexp.Regexp, text string) []span {
	if re == nil {
		return nil
	}
	var out []span
	pos := 0
	for pos < len(text) {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil || loc[2] < 0 {
			break
		}
		out = append(out, span{start: pos + loc[2], end: pos + loc[3]})
		next := pos + loc[3]
		if next <= pos {
			next = pos + 1
		}
		pos = next
	}
	return out
}
