// Package entity pulls origin, destination, date, time, event type and
// station/location fields out of free text using the lexicon's
// preposition tables and date/time pattern lists.
package entity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/nlu/lexicon"
)

// ImplicitMaxLength bounds the "X to Y" fallback so that whole sentences
// are not read as an origin.
const ImplicitMaxLength = 30

// implicitMaxWords bounds the X part of "X to Y".
const implicitMaxWords = 3

const (
	placeholderOpen  = '\uE000'
	placeholderClose = '\uE001'
)

// Extractor is safe for concurrent use. Compiled patterns are cached per
// candidate-language list.
type Extractor struct {
	lex   *lexicon.Lexicon
	cache sync.Map
}

func NewExtractor(lex *lexicon.Lexicon) *Extractor {
	return &Extractor{lex: lex}
}

func (e *Extractor) patternsFor(langs []models.Language) *patterns {
	key := joinLanguages(langs)
	if v, ok := e.cache.Load(key); ok {
		return v.(*patterns)
	}
	v, _ := e.cache.LoadOrStore(key, compilePatterns(e.lex, langs))
	return v.(*patterns)
}

func joinLanguages(langs []models.Language) string {
	parts := make([]string, len(langs))
	for i, l := range langs {
		parts[i] = string(l)
	}
	return strings.Join(parts, ",")
}

// Extract returns the entities found in text, trying candidate languages in
// order. Place values are lowercased.
func (e *Extractor) Extract(text string, langs []models.Language) models.EntityBag {
	var bag models.EntityBag
	normalized := lexicon.Normalize(text)
	if normalized == "" {
		return bag
	}

	masked, phrases := e.protect(normalized)
	lowered := strings.ToLower(masked)
	pats := e.patternsFor(langs)
	x := &extraction{text: lowered, phrases: phrases, pats: pats}

	e.detectDeictic(lowered, langs, &bag)
	x.places(&bag)

	plain := strings.ToLower(normalized)
	bag.Date = e.findDate(plain, langs)
	bag.Time = e.findTime(plain, langs, pats)
	bag.EventType = e.findEventType(plain, langs)
	if bag.EventType != "" {
		bag.Station = firstNonEmpty(bag.Location, bag.Origin, bag.Destination)
	}
	return bag
}

// protect swaps protected phrases for placeholders so their punctuation
// cannot end a capture.
func (e *Extractor) protect(text string) (string, []string) {
	spans := e.lex.ProtectedSpans(text)
	if len(spans) == 0 {
		return text, nil
	}
	var b strings.Builder
	phrases := make([]string, 0, len(spans))
	last := 0
	for i, sp := range spans {
		b.WriteString(text[last:sp[0]])
		b.WriteRune(placeholderOpen)
		b.WriteString(strconv.Itoa(i))
		b.WriteRune(placeholderClose)
		phrases = append(phrases, strings.ToLower(text[sp[0]:sp[1]]))
		last = sp[1]
	}
	b.WriteString(text[last:])
	return b.String(), phrases
}

var placeholderRe = regexp.MustCompile("\uE000(\\d+)\uE001")

func restore(s string, phrases []string) string {
	if len(phrases) == 0 {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		idx, err := strconv.Atoi(m[len(string(placeholderOpen)) : len(m)-len(string(placeholderClose))])
		if err != nil || idx >= len(phrases) {
			return m
		}
		return phrases[idx]
	})
}

// detectDeictic resolves words like "here" to the USER_LOCATION sentinel.
// The role comes from the preposition next to the word; a bare deictic is
// read as the origin.
func (e *Extractor) detectDeictic(text string, langs []models.Language, bag *models.EntityBag) {
	best := -1
	var bestEnd int
	var bestLang *lexicon.LanguageSet
	for _, lang := range langs {
		ls := e.lex.For(lang)
		if ls == nil {
			continue
		}
		for _, d := range ls.Deictic {
			i := lexicon.IndexTerm(text, d, ls.Bounded())
			if i >= 0 && (best < 0 || i < best) {
				best, bestEnd, bestLang = i, i+len(d), ls
			}
		}
	}
	if best < 0 {
		return
	}

	asDestination := false
	if bestLang.Postpositional {
		after := strings.TrimSpace(text[bestEnd:])
		for _, p := range bestLang.Prepositions.Destination {
			if lexicon.IndexTerm(after, p, true) == 0 {
				asDestination = true
				break
			}
		}
	} else {
		before := strings.TrimSpace(text[:best])
		for _, lang := range langs {
			ls := e.lex.For(lang)
			if ls == nil {
				continue
			}
			for _, p := range ls.Prepositions.Destination {
				if endsWithTerm(before, p, ls.Bounded()) {
					asDestination = true
				}
			}
		}
	}

	if asDestination {
		bag.Destination = models.UserLocation
	} else {
		bag.Origin = models.UserLocation
	}
	bag.RequiresUserLocation = true
}

func endsWithTerm(text, t string, bounded bool) bool {
	if !strings.HasSuffix(text, t) {
		return false
	}
	if !bounded {
		return true
	}
	return lexicon.BoundaryAt(text, len(text)-len(t), len(text))
}

type extraction struct {
	text    string
	phrases []string
	pats    *patterns
}

type place struct {
	value string
	start int
}

func (x *extraction) places(bag *models.EntityBag) {
	var origins, destinations []place
	originPrepSeen := false

	for _, f := range x.pats.families {
		spans := captures(f.origin, x.text)
		if len(spans) > 0 {
			originPrepSeen = true
		}
		for _, sp := range spans {
			if v, ok := x.clean(sp, f); ok {
				origins = append(origins, place{v, sp.start})
			}
		}
		for _, sp := range captures(f.destination, x.text) {
			if v, ok := x.clean(sp, f); ok {
				destinations = append(destinations, place{v, sp.start})
			}
		}
		if bag.Location == "" {
			for _, sp := range captures(f.location, x.text) {
				if v, ok := x.clean(sp, f); ok {
					bag.Location = v
					break
				}
			}
		}
	}

	if bag.Origin == "" {
		if o, ok := earliest(origins); ok {
			bag.Origin = o.value
		}
	}
	if bag.Destination == "" {
		if d, ok := latest(destinations, bag.Origin); ok {
			bag.Destination = d.value
		}
	}

	if bag.Destination == "" && bag.Origin != "" {
		for _, f := range x.pats.families {
			if f.follow == nil {
				continue
			}
			for _, sp := range captures(f.follow, x.text) {
				if v, ok := x.clean(sp, f); ok && v != bag.Origin {
					bag.Destination = v
					break
				}
			}
		}
	}

	if !originPrepSeen && bag.Origin == "" {
		x.implicit(bag)
	}
}

// implicit handles "Zurich to Bern" when no origin preposition was used.
func (x *extraction) implicit(bag *models.EntityBag) {
	if utf8.RuneCountInString(restore(x.text, x.phrases)) >= ImplicitMaxLength {
		return
	}
	for _, f := range x.pats.families {
		if f.implicit == nil {
			continue
		}
		m := f.implicit.FindStringSubmatchIndex(x.text)
		if m == nil {
			continue
		}
		rawOrigin := restore(strings.TrimSpace(x.text[m[2]:m[3]]), x.phrases)
		if lexicon.CountWords(rawOrigin) > implicitMaxWords || x.hasNonPlaceWord(rawOrigin) {
			continue
		}
		origin, ok := x.clean(span{m[2], m[3]}, f)
		if !ok {
			continue
		}
		dest, ok := x.clean(span{m[4], m[5]}, f)
		if !ok {
			continue
		}
		bag.Origin = origin
		if bag.Destination == "" {
			bag.Destination = dest
		}
		return
	}
}

func (x *extraction) hasNonPlaceWord(s string) bool {
	for _, t := range x.pats.nonPlace {
		if lexicon.ContainsTerm(s, t.text, t.bounded) {
			return true
		}
	}
	return false
}

const trimChars = " \t\n.,;:!?\"'()«»“”，。！？；："

// clean validates a captured place: it must not start with a digit and must
// contain at least one word that is not filler.
func (x *extraction) clean(sp span, f *family) (string, bool) {
	v := restore(strings.Trim(x.text[sp.start:sp.end], trimChars), x.phrases)
	v = strings.Trim(v, trimChars)
	if v == "" {
		return "", false
	}
	if r, _ := utf8.DecodeRuneInString(v); unicode.IsDigit(r) {
		return "", false
	}
	if _, ok := x.pats.filler[v]; ok {
		return "", false
	}
	if f.bounded {
		meaningful := false
		for _, w := range strings.Fields(v) {
			if _, ok := x.pats.filler[strings.Trim(w, trimChars)]; !ok {
				meaningful = true
				break
			}
		}
		if !meaningful {
			return "", false
		}
	}
	return v, true
}

func earliest(ps []place) (place, bool) {
	if len(ps) == 0 {
		return place{}, false
	}
	best := ps[0]
	for _, p := range ps[1:] {
		if p.start < best.start {
			best = p
		}
	}
	return best, true
}

// latest picks the last destination mentioned, ignoring one that merely
// repeats the origin.
func latest(ps []place, origin string) (place, bool) {
	found := false
	var best place
	for _, p := range ps {
		if p.value == origin {
			continue
		}
		if !found || p.start > best.start {
			best, found = p, true
		}
	}
	return best, found
}

func (e *Extractor) findDate(text string, langs []models.Language) string {
	for _, lang := range langs {
		ls := e.lex.For(lang)
		if ls == nil {
			continue
		}
		for i := range ls.Dates {
			if v, ok := matchRule(&ls.Dates[i], text, ls.Bounded(), normalizeDate); ok {
				return v
			}
		}
	}
	return ""
}

func (e *Extractor) findTime(text string, langs []models.Language, pats *patterns) string {
	for _, lang := range langs {
		ls := e.lex.For(lang)
		if ls == nil {
			continue
		}
		for i := range ls.Times {
			if v, ok := matchRule(&ls.Times[i], text, ls.Bounded(), normalizeClock); ok {
				return v
			}
		}
	}
	for _, f := range pats.families {
		if f.timePrep == nil {
			continue
		}
		if m := f.timePrep.FindStringSubmatch(text); m != nil {
			if v, ok := normalizeClock(m[1] + ":00"); ok {
				return v
			}
		}
	}
	return ""
}

// matchRule returns the normalized value of the first bounded match of rule.
func matchRule(rule *lexicon.PatternRule, text string, bounded bool, normalize func(string) (string, bool)) (string, bool) {
	re := rule.Regexp()
	if re == nil {
		return "", false
	}
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if bounded && !matchBounded(text, m[0], m[1]) {
			continue
		}
		var value string
		if rule.Value == "" {
			value = text[m[0]:m[1]]
		} else {
			value = string(re.ExpandString(nil, rule.Value, text, m))
		}
		if v, ok := normalize(strings.TrimSpace(value)); ok {
			return v, true
		}
	}
	return "", false
}

// matchBounded is BoundaryAt, except that a match whose last rune is already
// a delimiter needs no check on its right side.
func matchBounded(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if lexicon.IsWordRune(r) {
			return false
		}
	}
	if end < len(text) && end > start {
		last, _ := utf8.DecodeLastRuneInString(text[start:end])
		if !lexicon.IsWordRune(last) {
			return true
		}
		r, _ := utf8.DecodeRuneInString(text[end:])
		return !lexicon.IsWordRune(r)
	}
	return true
}

func (e *Extractor) findEventType(text string, langs []models.Language) models.EventType {
	best := -1
	var found models.EventType
	try := func(terms []string, bounded bool, et models.EventType) {
		for _, t := range terms {
			if i := lexicon.IndexTerm(text, t, bounded); i >= 0 && (best < 0 || i < best) {
				best, found = i, et
			}
		}
	}
	for _, lang := range langs {
		ls := e.lex.For(lang)
		if ls == nil {
			continue
		}
		try(ls.EventTypes.Departures, ls.Bounded(), models.EventDepartures)
		try(ls.EventTypes.Arrivals, ls.Bounded(), models.EventArrivals)
	}
	return found
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	monthDayRe  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})$`)
	namedDateRe = regexp.MustCompile(`^([a-z]+)-(\d{1,2})$`)
	clockRe     = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
}

// normalizeDate zero-pads numeric dates to YYYY-MM-DD or MM-DD and rejects
// impossible months or days. Relative words pass through.
func normalizeDate(v string) (string, bool) {
	if m := isoDateRe.FindStringSubmatch(v); m != nil {
		month, day := atoi(m[2]), atoi(m[3])
		if !validMonthDay(month, day) {
			return "", false
		}
		return fmt.Sprintf("%s-%02d-%02d", m[1], month, day), true
	}
	if m := monthDayRe.FindStringSubmatch(v); m != nil {
		month, day := atoi(m[1]), atoi(m[2])
		if !validMonthDay(month, day) {
			return "", false
		}
		return fmt.Sprintf("%02d-%02d", month, day), true
	}
	if m := namedDateRe.FindStringSubmatch(v); m != nil {
		month, ok := monthNumbers[m[1]]
		day := atoi(m[2])
		if !ok || !validMonthDay(month, day) {
			return "", false
		}
		return fmt.Sprintf("%02d-%02d", month, day), true
	}
	return v, v != ""
}

// normalizeClock renders numeric times as HH:MM; day parts pass through.
func normalizeClock(v string) (string, bool) {
	m := clockRe.FindStringSubmatch(v)
	if m == nil {
		return v, v != "" && !startsWithDigit(v)
	}
	hour, minute := atoi(m[1]), 0
	if m[2] != "" {
		minute = atoi(m[2])
	}
	switch m[3] {
	case "am":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour != 12 {
			hour += 12
		}
	}
	if hour > 23 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func validMonthDay(month, day int) bool {
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

func startsWithDigit(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsDigit(r)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
