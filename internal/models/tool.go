// internal/models/tool.go
package models

import (
	"encoding/json"
	"fmt"
)

// Tool names understood by the transit/weather tool proxy.
const (
	ToolFindStations   = "find_stations"
	ToolFindTrips      = "find_trips"
	ToolEcoComparison  = "get_eco_comparison"
	ToolWeather        = "get_weather"
	ToolSnowConditions = "get_snow_conditions"
	ToolStationBoard   = "get_station_board"
	ToolTrainFormation = "get_train_formation"
)

// ToolParams is the closed set of parameter payloads, one variant per known
// tool plus UnknownToolParams for anything else.
type ToolParams interface {
	ToolName() string
}

type FindStationsParams struct {
	Query     string   `json:"query,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

func (FindStationsParams) ToolName() string { return ToolFindStations }

// ByCoordinates reports whether the lookup is a nearby search.
func (p FindStationsParams) ByCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

type FindTripsParams struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
}

func (FindTripsParams) ToolName() string { return ToolFindTrips }

type EcoComparisonParams struct {
	TripID      string `json:"tripId,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
}

func (EcoComparisonParams) ToolName() string { return ToolEcoComparison }

type WeatherParams struct {
	Location string `json:"location"`
	Date     string `json:"date,omitempty"`
}

func (WeatherParams) ToolName() string { return ToolWeather }

type SnowConditionsParams struct {
	Location string `json:"location"`
}

func (SnowConditionsParams) ToolName() string { return ToolSnowConditions }

type StationBoardParams struct {
	Station   string    `json:"station"`
	EventType EventType `json:"eventType,omitempty"`
	Date      string    `json:"date,omitempty"`
	Time      string    `json:"time,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}

func (StationBoardParams) ToolName() string { return ToolStationBoard }

type TrainFormationParams struct {
	TrainNumber string `json:"trainNumber,omitempty"`
	Station     string `json:"station,omitempty"`
	Date        string `json:"date,omitempty"`
}

func (TrainFormationParams) ToolName() string { return ToolTrainFormation }

// UnknownToolParams carries parameters for tools this module has no type for.
type UnknownToolParams struct {
	Name      string
	RawParams map[string]interface{}
}

func (p UnknownToolParams) ToolName() string { return p.Name }

func (p UnknownToolParams) MarshalJSON() ([]byte, error) {
	if p.RawParams == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.RawParams)
}

// ToolResult is the raw answer of one tool invocation.
type ToolResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ToolOutput is the decoded payload of a successful tool call.
type ToolOutput interface {
	OutputOf() string
}

type Station struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Distance  float64 `json:"distance,omitempty"`
}

type StationsOutput struct {
	Stations []Station `json:"stations"`
}

func (StationsOutput) OutputOf() string { return ToolFindStations }

// First returns the best match, if any.
func (o StationsOutput) First() (Station, bool) {
	if len(o.Stations) == 0 {
		return Station{}, false
	}
	return o.Stations[0], true
}

type Trip struct {
	ID              string `json:"id"`
	Origin          string `json:"origin,omitempty"`
	Destination     string `json:"destination,omitempty"`
	Departure       string `json:"departure"`
	Arrival         string `json:"arrival"`
	DurationMinutes int    `json:"durationMinutes"`
	Transfers       int    `json:"transfers"`
}

type TripsOutput struct {
	Trips []Trip `json:"trips"`
}

func (TripsOutput) OutputOf() string { return ToolFindTrips }

type EcoComparisonOutput struct {
	TrainCO2Kg     float64 `json:"trainCo2Kg"`
	CarCO2Kg       float64 `json:"carCo2Kg"`
	SavingsKg      float64 `json:"savingsKg"`
	SavingsPercent float64 `json:"savingsPercent"`
	Summary        string  `json:"summary,omitempty"`
}

func (EcoComparisonOutput) OutputOf() string { return ToolEcoComparison }

// UnknownOutput keeps the payload of tools without a typed variant.
type UnknownOutput struct {
	Tool string
	Raw  json.RawMessage
}

func (o UnknownOutput) OutputOf() string { return o.Tool }

func (o UnknownOutput) MarshalJSON() ([]byte, error) {
	if len(o.Raw) == 0 {
		return []byte("null"), nil
	}
	return o.Raw, nil
}

// DecodeOutput turns the raw data of a successful call into its typed variant.
func DecodeOutput(toolName string, raw json.RawMessage) (ToolOutput, error) {
	switch toolName {
	case ToolFindStations:
		var v StationsOutput
		if err := unmarshalData(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s output: %w", toolName, err)
		}
		return v, nil
	case ToolFindTrips:
		var v TripsOutput
		if err := unmarshalData(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s output: %w", toolName, err)
		}
		return v, nil
	case ToolEcoComparison:
		var v EcoComparisonOutput
		if err := unmarshalData(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s output: %w", toolName, err)
		}
		return v, nil
	default:
		return UnknownOutput{Tool: toolName, Raw: raw}, nil
	}
}

func unmarshalData(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
