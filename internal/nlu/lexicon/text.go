package lexicon

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NonWord matches a single rune that is not part of a word. RE2's \b only
// knows ASCII, so boundaries are spelled out with this class.
const NonWord = `[^\p{L}\p{M}\p{N}]`

// Leading and Trailing wrap an alternation so it only matches whole words.
const (
	Leading  = `(?:^|` + NonWord + `)`
	Trailing = `(?:` + NonWord + `|$)`
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// Normalize trims s, composes it to NFC and folds typographic apostrophes.
func Normalize(s string) string {
	return apostrophes.Replace(norm.NFC.String(strings.TrimSpace(s)))
}

// IsWordRune reports whether r can be part of a word.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r)
}

// BoundaryAt reports whether text[start:end] is delimited by non-word runes
// or the ends of text.
func BoundaryAt(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if IsWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if IsWordRune(r) {
			return false
		}
	}
	return true
}

// IndexTerm returns the byte offset of the first occurrence of term in text,
// or -1. With bounded set, occurrences inside a longer word are ignored.
// Both arguments are expected in the same case.
func IndexTerm(text, term string, bounded bool) int {
	if term == "" {
		return -1
	}
	offset := 0
	for offset <= len(text) {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(term)
		if !bounded || BoundaryAt(text, start, end) {
			return start
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return -1
}

// ContainsTerm reports whether IndexTerm finds term.
func ContainsTerm(text, term string, bounded bool) bool {
	return IndexTerm(text, term, bounded) >= 0
}

// Alternation quotes terms and joins them longest first, so a longer
// preposition is preferred over its prefix.
func Alternation(terms []string) string {
	uniq := make(map[string]struct{}, len(terms))
	sorted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		if _, ok := uniq[t]; ok {
			continue
		}
		uniq[t] = struct{}{}
		sorted = append(sorted, t)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(sorted[i]), utf8.RuneCountInString(sorted[j])
		if li != lj {
			return li > lj
		}
		return sorted[i] < sorted[j]
	})
	quoted := make([]string, len(sorted))
	for i, t := range sorted {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return strings.Join(quoted, "|")
}

// CountWords counts whitespace-delimited words. Han characters count one
// word each since Chinese is written without spaces.
func CountWords(s string) int {
	n := 0
	for _, field := range strings.Fields(s) {
		han := 0
		other := false
		for _, r := range field {
			if unicode.Is(unicode.Han, r) {
				han++
			} else if IsWordRune(r) {
				other = true
			}
		}
		switch {
		case han > 0 && other:
			n += han + 1
		case han > 0:
			n += han
		case other:
			n++
		}
	}
	return n
}
