// internal/workers/travel/analyze-message/models.go
package analyzemessage

import "travel-orchestrator/internal/models"

type Input struct {
	SessionID    string           `json:"sessionId"`
	Message      string           `json:"message"`
	Language     models.Language  `json:"language,omitempty"`
	UserLocation *models.GeoPoint `json:"userLocation,omitempty"`
}

type Output struct {
	Languages     []models.Language     `json:"languages"`
	Segments      []models.QuerySegment `json:"segments"`
	Intents       []models.Intent       `json:"intents"`
	PrimaryIntent models.Intent         `json:"primaryIntent"`
}
