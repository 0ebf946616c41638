// internal/models/plan.go
package models

import "time"

// DependencyResults is the view of prior step results handed to a step's
// params and condition functions. It only contains the step's declared
// dependencies.
type DependencyResults map[string]StepResult

// Output returns the decoded output of a successful dependency.
func (d DependencyResults) Output(stepID string) (ToolOutput, bool) {
	r, ok := d[stepID]
	if !ok || !r.Success || r.Data == nil {
		return nil, false
	}
	return r.Data, true
}

type ParamsFunc func(deps DependencyResults) ToolParams

type ConditionFunc func(deps DependencyResults) bool

// ExecutionStep is one tool call node of a plan. Params is used when
// ParamsFunc is nil.
type ExecutionStep struct {
	ID         string        `json:"id"`
	ToolName   string        `json:"toolName"`
	Params     ToolParams    `json:"params,omitempty"`
	ParamsFunc ParamsFunc    `json:"-"`
	DependsOn  []string      `json:"dependsOn,omitempty"`
	Optional   bool          `json:"optional,omitempty"`
	Condition  ConditionFunc `json:"-"`
}

// ExecutionPlan is a DAG of steps.
type ExecutionPlan struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Steps       []ExecutionStep `json:"steps"`
}

// Empty reports whether no orchestration is possible for the plan.
func (p *ExecutionPlan) Empty() bool {
	return p == nil || len(p.Steps) == 0
}

type StepResult struct {
	StepID   string        `json:"stepId"`
	ToolName string        `json:"toolName"`
	Success  bool          `json:"success"`
	Skipped  bool          `json:"skipped,omitempty"`
	Cached   bool          `json:"cached,omitempty"`
	Optional bool          `json:"optional,omitempty"`
	Data     ToolOutput    `json:"data,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

type PlanStatus string

const (
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusPartial   PlanStatus = "partial"
	PlanStatusStalled   PlanStatus = "stalled"
	PlanStatusCancelled PlanStatus = "cancelled"
)

type PlanExecutionResult struct {
	PlanID        string        `json:"planId"`
	Success       bool          `json:"success"`
	Status        PlanStatus    `json:"status"`
	Results       []StepResult  `json:"results"`
	Summary       PlanSummary   `json:"summary"`
	StalledSteps  []string      `json:"stalledSteps,omitempty"`
	TotalDuration time.Duration `json:"totalDuration"`
}

// Result returns the result recorded for a step id.
func (r *PlanExecutionResult) Result(stepID string) (StepResult, bool) {
	for _, res := range r.Results {
		if res.StepID == stepID {
			return res, true
		}
	}
	return StepResult{}, false
}

// PlanSummary is the flat view of well-known step outputs.
type PlanSummary struct {
	Origin        *Station             `json:"origin,omitempty"`
	Destination   *Station             `json:"destination,omitempty"`
	Trips         []Trip               `json:"trips,omitempty"`
	EcoComparison *EcoComparisonOutput `json:"ecoComparison,omitempty"`
	SkippedSteps  []string             `json:"skippedSteps,omitempty"`
	FailedSteps   []string             `json:"failedSteps,omitempty"`
}
