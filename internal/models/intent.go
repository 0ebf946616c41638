// internal/models/intent.go
package models

import "time"

// Language is an ISO 639-1 code of a supported natural language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageGerman  Language = "de"
	LanguageFrench  Language = "fr"
	LanguageItalian Language = "it"
	LanguageChinese Language = "zh"
	LanguageHindi   Language = "hi"
)

// DefaultLanguage is assumed when nothing was detected or declared.
const DefaultLanguage = LanguageEnglish

// IntentType is the classified purpose of a user utterance.
type IntentType string

const (
	IntentTripPlanning   IntentType = "trip_planning"
	IntentWeatherCheck   IntentType = "weather_check"
	IntentSnowConditions IntentType = "snow_conditions"
	IntentStationSearch  IntentType = "station_search"
	IntentTrainFormation IntentType = "train_formation"
	IntentGeneralInfo    IntentType = "general_info"
)

// IntentPriority is the order in which intent types are tested. The first
// type with a keyword hit wins, so snow beats weather and station beats trip.
var IntentPriority = []IntentType{
	IntentStationSearch,
	IntentTrainFormation,
	IntentSnowConditions,
	IntentWeatherCheck,
	IntentTripPlanning,
	IntentGeneralInfo,
}

// MaxConfidence caps every rule-based confidence score.
const MaxConfidence = 0.95

// UserLocation is the sentinel place value meaning "use the caller's geolocation".
const UserLocation = "USER_LOCATION"

type EventType string

const (
	EventArrivals   EventType = "arrivals"
	EventDepartures EventType = "departures"
)

// EntityBag holds the structured fields pulled out of free text.
type EntityBag struct {
	Origin               string    `json:"origin,omitempty"`
	Destination          string    `json:"destination,omitempty"`
	Date                 string    `json:"date,omitempty"`
	Time                 string    `json:"time,omitempty"`
	EventType            EventType `json:"eventType,omitempty"`
	Station              string    `json:"station,omitempty"`
	Location             string    `json:"location,omitempty"`
	RequiresUserLocation bool      `json:"requiresUserLocation,omitempty"`
}

// HasRoute reports whether both ends of a journey are known.
func (e EntityBag) HasRoute() bool {
	return e.Origin != "" && e.Destination != ""
}

// Intent is the result of classifying one message or segment.
type Intent struct {
	Type              IntentType `json:"type"`
	Confidence        float64    `json:"confidence"`
	ExtractedEntities EntityBag  `json:"extractedEntities"`
	DetectedLanguages []Language `json:"detectedLanguages"`
	MatchedKeywords   []string   `json:"matchedKeywords"`
	Segment           string     `json:"segment,omitempty"`
	Priority          int        `json:"priority,omitempty"`
	Timestamp         time.Time  `json:"timestamp"`
}

// QuerySegment is a contiguous slice of the original message. Indices are
// byte offsets into the original string.
type QuerySegment struct {
	Text       string `json:"text"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
}

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
