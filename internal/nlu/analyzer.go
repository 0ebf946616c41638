// Package nlu runs the message analysis pipeline: language detection,
// segmentation, per-segment classification and deduplication.
package nlu

import (
	"travel-orchestrator/internal/common/logger"
	"travel-orchestrator/internal/common/metrics"
	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/nlu/intent"
	"travel-orchestrator/internal/nlu/lexicon"
	"travel-orchestrator/internal/nlu/segment"
)

// Analysis is the outcome of analysing one user message.
type Analysis struct {
	Message   string                `json:"message"`
	Languages []models.Language     `json:"languages"`
	Segments  []models.QuerySegment `json:"segments"`
	Intents   []models.Intent       `json:"intents"`
	Primary   models.Intent         `json:"primaryIntent"`
}

// Analyzer is safe for concurrent use.
type Analyzer struct {
	classifier *intent.Classifier
	segmenter  *segment.Segmenter
	logger     logger.Logger
}

func NewAnalyzer(lex *lexicon.Lexicon, log logger.Logger, opts ...intent.Option) *Analyzer {
	return &Analyzer{
		classifier: intent.NewClassifier(lex, opts...),
		segmenter:  segment.NewSegmenter(lex),
		logger:     log,
	}
}

// Classifier exposes the underlying single-text classifier.
func (a *Analyzer) Classifier() *intent.Classifier { return a.classifier }

// Analyze segments message, classifies each segment and merges the results.
// Segment offsets refer to the normalized message returned in Analysis.Message.
func (a *Analyzer) Analyze(message string, userLang models.Language) *Analysis {
	normalized := lexicon.Normalize(message)
	langs := a.classifier.Detector().Detect(normalized, userLang)
	segments := a.segmenter.Segment(normalized, langs)

	perSegment := make([]models.Intent, 0, len(segments))
	for i, seg := range segments {
		it := a.classifier.Classify(seg.Text, userLang)
		it.Segment = seg.Text
		it.Priority = i + 1
		perSegment = append(perSegment, it)
	}
	intents := segment.Deduplicate(perSegment)

	analysis := &Analysis{
		Message:   normalized,
		Languages: langs,
		Segments:  segments,
		Intents:   intents,
		Primary:   primary(intents),
	}

	metrics.SegmentsPerMessage.Observe(float64(len(segments)))
	for _, it := range intents {
		metrics.IntentsClassified.WithLabelValues(string(it.Type)).Inc()
	}
	a.logger.Debug("Message analyzed", map[string]interface{}{
		"languages":     langs,
		"segments":      len(segments),
		"intents":       len(intents),
		"primaryIntent": analysis.Primary.Type,
		"confidence":    analysis.Primary.Confidence,
	})
	return analysis
}

// primary picks the most confident intent; the earlier segment wins a tie.
func primary(intents []models.Intent) models.Intent {
	best := intents[0]
	for _, it := range intents[1:] {
		if it.Confidence > best.Confidence {
			best = it
		}
	}
	return best
}
