// Package segment splits compound messages into sub-queries and merges the
// per-segment intents back into one ordered list.
package segment

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/nlu/lexicon"
)

// MinSegmentWords is the smallest segment kept; shorter fragments are noise.
const MinSegmentWords = 3

const segmentTrim = " \t\r\n,;:"

// Segmenter is safe for concurrent use.
type Segmenter struct {
	lex          *lexicon.Lexicon
	conjunctions sync.Map
}

func NewSegmenter(lex *lexicon.Lexicon) *Segmenter {
	return &Segmenter{lex: lex}
}

// cut is a byte range of the message that separates two segments. Sentence
// punctuation yields an empty range after the mark; a conjunction yields its
// own range, which is dropped.
type cut struct {
	start, end int
}

// Segment splits message on sentence punctuation and on the coordinating
// conjunctions of langs, never inside a protected phrase. It always returns
// at least one segment.
func (s *Segmenter) Segment(message string, langs []models.Language) []models.QuerySegment {
	protected := s.lex.ProtectedSpans(message)
	inProtected := func(start, end int) bool {
		for _, sp := range protected {
			if start < sp[1] && end > sp[0] {
				return true
			}
		}
		return false
	}

	var cuts []cut
	for i, r := range message {
		size := utf8.RuneLen(r)
		switch r {
		case '?', '!', '？', '！', '。':
		case '.':
			if i+size < len(message) {
				next, _ := utf8.DecodeRuneInString(message[i+size:])
				if next != ' ' && next != '\n' && next != '\t' {
					continue
				}
			}
		default:
			continue
		}
		if inProtected(i, i+size) {
			continue
		}
		cuts = append(cuts, cut{start: i + size, end: i + size})
	}

	for _, entry := range s.conjunctionsFor(langs) {
		for _, loc := range entry.re.FindAllStringIndex(message, -1) {
			if entry.bounded && !lexicon.BoundaryAt(message, loc[0], loc[1]) {
				continue
			}
			if inProtected(loc[0], loc[1]) {
				continue
			}
			cuts = append(cuts, cut{start: loc[0], end: loc[1]})
		}
	}

	segments := carve(message, mergeCuts(cuts))
	if len(segments) == 0 {
		trimmed := strings.TrimSpace(message)
		start := strings.Index(message, trimmed)
		if trimmed == "" {
			start = 0
		}
		return []models.QuerySegment{{Text: trimmed, StartIndex: start, EndIndex: start + len(trimmed)}}
	}
	return segments
}

func mergeCuts(cuts []cut) []cut {
	if len(cuts) == 0 {
		return nil
	}
	sort.Slice(cuts, func(i, j int) bool {
		if cuts[i].start != cuts[j].start {
			return cuts[i].start < cuts[j].start
		}
		return cuts[i].end < cuts[j].end
	})
	merged := []cut{cuts[0]}
	for _, c := range cuts[1:] {
		last := &merged[len(merged)-1]
		if c.start <= last.end {
			if c.end > last.end {
				last.end = c.end
			}
			continue
		}
		merged = append(merged, c)
	}
	return merged
}

func carve(message string, cuts []cut) []models.QuerySegment {
	var out []models.QuerySegment
	pos := 0
	emit := func(start, end int) {
		piece := message[start:end]
		lead := len(piece) - len(strings.TrimLeft(piece, segmentTrim))
		text := strings.Trim(piece, segmentTrim)
		if lexicon.CountWords(text) < MinSegmentWords {
			return
		}
		out = append(out, models.QuerySegment{
			Text:       text,
			StartIndex: start + lead,
			EndIndex:   start + lead + len(text),
		})
	}
	for _, c := range cuts {
		if c.start > pos {
			emit(pos, c.start)
		}
		if c.end > pos {
			pos = c.end
		}
	}
	if pos < len(message) {
		emit(pos, len(message))
	}
	return out
}

type conjunctionSet struct {
	re      *regexp.Regexp
	bounded bool
}

func (s *Segmenter) conjunctionsFor(langs []models.Language) []conjunctionSet {
	key := make([]string, len(langs))
	for i, l := range langs {
		key[i] = string(l)
	}
	k := strings.Join(key, ",")
	if v, ok := s.conjunctions.Load(k); ok {
		return v.([]conjunctionSet)
	}

	var bounded, unbounded []string
	for _, lang := range langs {
		ls := s.lex.For(lang)
		if ls == nil {
			continue
		}
		if ls.Bounded() {
			bounded = append(bounded, ls.Conjunctions...)
		} else {
			unbounded = append(unbounded, ls.Conjunctions...)
		}
	}
	var sets []conjunctionSet
	if len(bounded) > 0 {
		sets = append(sets, conjunctionSet{re: regexp.MustCompile(`(?i)(?:` + spaced(lexicon.Alternation(bounded)) + `)`), bounded: true})
	}
	if len(unbounded) > 0 {
		sets = append(sets, conjunctionSet{re: regexp.MustCompile(`(?:` + lexicon.Alternation(unbounded) + `)`)})
	}
	v, _ := s.conjunctions.LoadOrStore(k, sets)
	return v.([]conjunctionSet)
}

func spaced(alt string) string {
	return strings.ReplaceAll(alt, " ", `\s+`)
}
