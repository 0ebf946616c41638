package intent

import (
	"sync"

	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/nlu/lexicon"
)

var defaultClassifier = sync.OnceValue(func() *Classifier {
	return NewClassifier(lexicon.MustDefault())
})

// Extract classifies text with the embedded lexicon.
func Extract(text string, userLang models.Language) models.Intent {
	return defaultClassifier().Classify(text, userLang)
}
