// internal/workers/travel/execute-travel-plan/models.go
package executetravelplan

import (
	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/session"
)

// StatusNoPlan is reported when the intent yields no steps.
const StatusNoPlan = "no_plan"

type Input struct {
	SessionID     string               `json:"sessionId"`
	PrimaryIntent models.Intent        `json:"primaryIntent"`
	Preferences   *session.Preferences `json:"preferences,omitempty"`
}

type Output struct {
	PlanID    string             `json:"planId"`
	PlanName  string             `json:"planName"`
	Status    string             `json:"status"`
	Success   bool               `json:"success"`
	StepCount int                `json:"stepCount"`
	Summary   models.PlanSummary `json:"summary"`
	Formatted string             `json:"formatted"`
	// Fallback routes the process to direct tool or LLM handling.
	Fallback bool `json:"fallback"`
}
