package segment

import (
	"sort"

	"travel-orchestrator/internal/models"
)

// Deduplicate keeps, per intent type, the highest-confidence intent (the
// earlier segment wins a tie) and returns the survivors in segment order.
// Intents of different types never displace each other, so weather_check and
// snow_conditions asked together are both retained.
// Intents are expected to carry their segment's 1-based Priority.
func Deduplicate(intents []models.Intent) []models.Intent {
	if len(intents) == 0 {
		return nil
	}
	ranked := make([]models.Intent, len(intents))
	copy(ranked, intents)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	seen := make(map[models.IntentType]bool, len(ranked))
	kept := make([]models.Intent, 0, len(ranked))
	for _, candidate := range ranked {
		if seen[candidate.Type] {
			continue
		}
		seen[candidate.Type] = true
		kept = append(kept, candidate)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Priority < kept[j].Priority
	})
	return kept
}
