// Package orchestration turns a primary intent into a DAG of tool calls and
// runs it.
package orchestration

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/session"
)

// Well-known step ids. The summary is compiled from these.
const (
	StepFindOrigin      = "find-origin"
	StepFindDestination = "find-destination"
	StepFindTrips       = "find-trips"
	StepEcoComparison   = "eco-comparison"
)

const TravelStyleEco = "eco"

// Builder produces execution plans. It is stateless apart from the id source.
type Builder struct {
	newID func() string
}

func NewBuilder() *Builder {
	return &Builder{newID: uuid.NewString}
}

// place is one resolved end of a journey: the station lookup to run and the
// raw value find-trips falls back to when the lookup fails.
type place struct {
	lookup   models.FindStationsParams
	fallback string
	label    string
}

// Build returns the plan for intent. Entities missing from the intent are
// taken from sc. Only trip_planning produces steps; a plan without steps
// means no orchestration is possible.
func (b *Builder) Build(intent models.Intent, sc *session.ConversationContext) *models.ExecutionPlan {
	plan := &models.ExecutionPlan{
		ID:          b.newID(),
		Name:        string(intent.Type),
		Description: "no orchestration available",
		Steps:       []models.ExecutionStep{},
	}
	if intent.Type != models.IntentTripPlanning {
		return plan
	}

	entities := intent.ExtractedEntities
	var (
		remembered session.Remembered
		loc        *models.GeoPoint
		prefs      session.Preferences
	)
	if sc != nil {
		remembered = sc.Entities()
		loc = sc.UserLocation()
		prefs = sc.Preferences()
	}

	origin, ok := resolvePlace(firstNonEmpty(entities.Origin, remembered.Origin), loc)
	if !ok {
		return plan
	}
	destination, ok := resolvePlace(firstNonEmpty(entities.Destination, remembered.Destination), loc)
	if !ok {
		return plan
	}
	date := firstNonEmpty(entities.Date, remembered.Date)
	clock := firstNonEmpty(entities.Time, remembered.Time)

	plan.Name = "trip-planning"
	plan.Description = fmt.Sprintf("Trip from %s to %s", origin.label, destination.label)
	plan.Steps = []models.ExecutionStep{
		{
			ID:       StepFindOrigin,
			ToolName: models.ToolFindStations,
			Params:   origin.lookup,
		},
		{
			ID:       StepFindDestination,
			ToolName: models.ToolFindStations,
			Params:   destination.lookup,
		},
		{
			ID:        StepFindTrips,
			ToolName:  models.ToolFindTrips,
			DependsOn: []string{StepFindOrigin, StepFindDestination},
			ParamsFunc: func(deps models.DependencyResults) models.ToolParams {
				return models.FindTripsParams{
					Origin:      stationRef(deps, StepFindOrigin, origin.fallback),
					Destination: stationRef(deps, StepFindDestination, destination.fallback),
					Date:        date,
					Time:        clock,
				}
			},
		},
		{
			ID:        StepEcoComparison,
			ToolName:  models.ToolEcoComparison,
			DependsOn: []string{StepFindTrips},
			Optional:  true,
			Condition: func(deps models.DependencyResults) bool {
				return prefs.TravelStyle == TravelStyleEco || len(trips(deps)) > 0
			},
			ParamsFunc: func(deps models.DependencyResults) models.ToolParams {
				p := models.EcoComparisonParams{Origin: origin.fallback, Destination: destination.fallback}
				if ts := trips(deps); len(ts) > 0 {
					p.TripID = ts[0].ID
				}
				return p
			},
		},
	}
	return plan
}

// resolvePlace turns an entity value into a station lookup. The
// USER_LOCATION sentinel needs the caller's geolocation.
func resolvePlace(value string, loc *models.GeoPoint) (place, bool) {
	switch value {
	case "":
		return place{}, false
	case models.UserLocation:
		if loc == nil {
			return place{}, false
		}
		lat, lon := loc.Latitude, loc.Longitude
		coords := strconv.FormatFloat(lat, 'f', 5, 64) + "," + strconv.FormatFloat(lon, 'f', 5, 64)
		return place{
			lookup:   models.FindStationsParams{Latitude: &lat, Longitude: &lon, Limit: 1},
			fallback: coords,
			label:    "your location",
		}, true
	default:
		return place{
			lookup:   models.FindStationsParams{Query: value, Limit: 1},
			fallback: value,
			label:    value,
		}, true
	}
}

// stationRef is the id of the first station found by stepID, or fallback.
func stationRef(deps models.DependencyResults, stepID, fallback string) string {
	out, ok := deps.Output(stepID)
	if !ok {
		return fallback
	}
	stations, ok := out.(models.StationsOutput)
	if !ok {
		return fallback
	}
	st, ok := stations.First()
	if !ok {
		return fallback
	}
	return firstNonEmpty(st.ID, st.Name, fallback)
}

func trips(deps models.DependencyResults) []models.Trip {
	out, ok := deps.Output(StepFindTrips)
	if !ok {
		return nil
	}
	t, ok := out.(models.TripsOutput)
	if !ok {
		return nil
	}
	return t.Trips
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
