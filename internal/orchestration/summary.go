package orchestration

import (
	"fmt"
	"strings"
	"time"

	"travel-orchestrator/internal/models"
)

// MaxFormattedTrips is how many connections the formatter renders.
const MaxFormattedTrips = 3

// Summarize compiles the outputs of the well-known steps into a flat view.
func Summarize(results []models.StepResult) models.PlanSummary {
	var s models.PlanSummary
	for _, r := range results {
		switch {
		case r.Skipped:
			s.SkippedSteps = append(s.SkippedSteps, r.StepID)
			continue
		case !r.Success:
			s.FailedSteps = append(s.FailedSteps, r.StepID)
			continue
		}

		switch r.StepID {
		case StepFindOrigin, StepFindDestination:
			out, ok := r.Data.(models.StationsOutput)
			if !ok {
				continue
			}
			st, ok := out.First()
			if !ok {
				continue
			}
			if r.StepID == StepFindOrigin {
				s.Origin = &st
			} else {
				s.Destination = &st
			}
		case StepFindTrips:
			if out, ok := r.Data.(models.TripsOutput); ok {
				s.Trips = out.Trips
			}
		case StepEcoComparison:
			if out, ok := r.Data.(models.EcoComparisonOutput); ok {
				s.EcoComparison = &out
			}
		}
	}
	return s
}

// FormatResults renders the summary as markdown for the response
// synthesizer. A plan without trips or eco comparison formats to "".
func FormatResults(result *models.PlanExecutionResult) string {
	if result == nil {
		return ""
	}
	s := result.Summary
	var b strings.Builder

	if len(s.Trips) > 0 {
		if s.Origin != nil && s.Destination != nil {
			fmt.Fprintf(&b, "**Connections from %s to %s**\n\n", s.Origin.Name, s.Destination.Name)
		} else {
			b.WriteString("**Connections**\n\n")
		}
		for i, trip := range s.Trips {
			if i == MaxFormattedTrips {
				break
			}
			fmt.Fprintf(&b, "%d. %s → %s (%s, %s)\n",
				i+1, clock(trip.Departure), clock(trip.Arrival),
				duration(trip.DurationMinutes), transfers(trip.Transfers))
		}
	}

	if eco := s.EcoComparison; eco != nil {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		if eco.Summary != "" {
			fmt.Fprintf(&b, "🌱 %s\n", eco.Summary)
		} else {
			fmt.Fprintf(&b, "🌱 By train you emit %.1f kg CO₂ instead of %.1f kg by car (%.0f%% less).\n",
				eco.TrainCO2Kg, eco.CarCO2Kg, eco.SavingsPercent)
		}
	}
	return b.String()
}

// clock renders an RFC 3339 timestamp as HH:MM and leaves anything else as is.
func clock(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04")
}

func duration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%dh %02dmin", minutes/60, minutes%60)
}

func transfers(n int) string {
	switch n {
	case 0:
		return "direct"
	case 1:
		return "1 transfer"
	default:
		return fmt.Sprintf("%d transfers", n)
	}
}
