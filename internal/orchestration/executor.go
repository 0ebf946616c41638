package orchestration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"travel-orchestrator/internal/common/logger"
	"travel-orchestrator/internal/common/metrics"
	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/session"
	"travel-orchestrator/internal/tools"
)

const tracerName = "travel-orchestrator/orchestration"

// Executor runs plans wave by wave: every step whose dependencies have all
// completed runs concurrently, and the next wave starts once the current one
// has been folded in.
type Executor struct {
	invoker tools.Invoker
	logger  logger.Logger
	tracer  trace.Tracer
}

type ExecutorOption func(*Executor)

// WithTracerProvider sets where plan and step spans go. The global provider
// is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) ExecutorOption {
	return func(e *Executor) { e.tracer = tp.Tracer(tracerName) }
}

func NewExecutor(invoker tools.Invoker, log logger.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		invoker: invoker,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs plan. Tool results are cached in sc when it is non-nil. Tool
// failures are recorded per step; the returned result is never nil.
func (e *Executor) Execute(ctx context.Context, plan *models.ExecutionPlan, sc *session.ConversationContext) *models.PlanExecutionResult {
	started := time.Now()
	result := &models.PlanExecutionResult{Results: []models.StepResult{}}
	if plan == nil {
		result.Success = true
		result.Status = models.PlanStatusCompleted
		return result
	}
	result.PlanID = plan.ID

	log := e.logger.With(map[string]interface{}{"planId": plan.ID, "planName": plan.Name})
	ctx, span := e.tracer.Start(ctx, "plan.execute", trace.WithAttributes(
		attribute.String("plan.id", plan.ID),
		attribute.String("plan.name", plan.Name),
		attribute.Int("plan.steps", len(plan.Steps)),
	))
	defer span.End()

	pending := make([]int, len(plan.Steps))
	for i := range plan.Steps {
		pending[i] = i
	}
	completed := make(map[string]models.StepResult, len(plan.Steps))
	calls := newPlanCalls()
	status := models.PlanStatusCompleted
	wave := 0

	for len(pending) > 0 {
		if ctx.Err() != nil {
			status = models.PlanStatusCancelled
			break
		}

		var ready, waiting []int
		for _, idx := range pending {
			if dependenciesMet(plan.Steps[idx], completed) {
				ready = append(ready, idx)
			} else {
				waiting = append(waiting, idx)
			}
		}
		if len(ready) == 0 {
			status = models.PlanStatusStalled
			break
		}

		wave++
		waveResults := make([]models.StepResult, len(ready))
		// Steps record failures in their results, so the group only joins the wave.
		var g errgroup.Group
		for i, idx := range ready {
			i, step := i, plan.Steps[idx]
			deps := dependencyView(step, completed)
			g.Go(func() error {
				waveResults[i] = e.runStep(ctx, step, deps, sc, calls)
				return nil
			})
		}
		_ = g.Wait()

		for i, idx := range ready {
			r := waveResults[i]
			completed[plan.Steps[idx].ID] = r
			result.Results = append(result.Results, r)
		}
		pending = waiting
		log.Debug("Plan wave completed", map[string]interface{}{"wave": wave, "steps": len(ready), "pending": len(pending)})
	}

	for _, idx := range pending {
		result.StalledSteps = append(result.StalledSteps, plan.Steps[idx].ID)
	}

	result.Success = allRequiredSucceeded(plan, completed)
	if status == models.PlanStatusCompleted && !result.Success {
		status = models.PlanStatusPartial
	}
	result.Status = status
	result.Summary = Summarize(result.Results)
	result.TotalDuration = time.Since(started)

	metrics.PlanExecutions.WithLabelValues(string(status)).Inc()
	span.SetAttributes(
		attribute.String("plan.status", string(status)),
		attribute.Bool("plan.success", result.Success),
	)
	switch status {
	case models.PlanStatusStalled:
		span.SetStatus(codes.Error, "plan stalled")
		log.Warn("Plan stalled", map[string]interface{}{"stalledSteps": result.StalledSteps})
	case models.PlanStatusCancelled:
		span.SetStatus(codes.Error, "plan cancelled")
		log.Warn("Plan cancelled", map[string]interface{}{"pendingSteps": result.StalledSteps, "error": ctx.Err()})
	default:
		log.Info("Plan executed", map[string]interface{}{
			"status":   status,
			"success":  result.Success,
			"steps":    len(result.Results),
			"duration": result.TotalDuration.String(),
		})
	}
	return result
}

func dependenciesMet(step models.ExecutionStep, completed map[string]models.StepResult) bool {
	for _, dep := range step.DependsOn {
		if _, ok := completed[dep]; !ok {
			return false
		}
	}
	return true
}

// dependencyView narrows the completed results to the step's declared
// dependencies.
func dependencyView(step models.ExecutionStep, completed map[string]models.StepResult) models.DependencyResults {
	view := make(models.DependencyResults, len(step.DependsOn))
	for _, dep := range step.DependsOn {
		if r, ok := completed[dep]; ok {
			view[dep] = r
		}
	}
	return view
}

// allRequiredSucceeded is false when any non-optional step failed or never ran.
func allRequiredSucceeded(plan *models.ExecutionPlan, completed map[string]models.StepResult) bool {
	for _, step := range plan.Steps {
		if step.Optional {
			continue
		}
		r, ok := completed[step.ID]
		if !ok || !r.Success {
			return false
		}
	}
	return true
}

func (e *Executor) runStep(ctx context.Context, step models.ExecutionStep, deps models.DependencyResults, sc *session.ConversationContext, calls *planCalls) (res models.StepResult) {
	started := time.Now()
	ctx, span := e.tracer.Start(ctx, "plan.step", trace.WithAttributes(
		attribute.String("step.id", step.ID),
		attribute.String("step.tool", step.ToolName),
		attribute.Bool("step.optional", step.Optional),
	))
	outcome := metrics.OutcomeSuccess
	defer func() {
		res.Duration = time.Since(started)
		metrics.PlanStepDuration.WithLabelValues(step.ToolName, outcome).Observe(res.Duration.Seconds())
		span.SetAttributes(attribute.String("step.outcome", outcome))
		if outcome == metrics.OutcomeFailure {
			span.SetStatus(codes.Error, res.Error)
		}
		span.End()
	}()

	res = models.StepResult{StepID: step.ID, ToolName: step.ToolName, Optional: step.Optional}

	if step.Condition != nil && !step.Condition(deps) {
		outcome = metrics.OutcomeSkipped
		res.Success = true
		res.Skipped = true
		return res
	}

	params := step.Params
	if step.ParamsFunc != nil {
		params = step.ParamsFunc(deps)
	}
	if params == nil {
		outcome = metrics.OutcomeFailure
		res.Error = fmt.Sprintf("step %s has no params", step.ID)
		return res
	}

	if sc != nil {
		if cached, ok := sc.GetCachedResult(step.ToolName, params); ok && cached.Success {
			metrics.ToolCacheLookups.WithLabelValues(step.ToolName, metrics.CacheHit).Inc()
			outcome = metrics.OutcomeCached
			res.Cached = true
			e.fill(&res, cached)
			if !res.Success {
				outcome = metrics.OutcomeFailure
			}
			return res
		}
		metrics.ToolCacheLookups.WithLabelValues(step.ToolName, metrics.CacheMiss).Inc()
	}

	key, err := session.CacheKey(step.ToolName, params)
	if err != nil {
		outcome = metrics.OutcomeFailure
		res.Error = err.Error()
		return res
	}
	r := calls.do(key, func() models.ToolResult {
		r := e.invoker.Invoke(ctx, step.ToolName, params)
		if r.Success && sc != nil {
			if err := sc.CacheToolResult(step.ToolName, params, r); err != nil {
				e.logger.Warn("Failed to cache tool result", map[string]interface{}{"tool": step.ToolName, "error": err})
			}
		}
		return r
	})

	e.fill(&res, r)
	if !res.Success {
		outcome = metrics.OutcomeFailure
	}
	return res
}

// fill copies a tool result into res, decoding the payload.
func (e *Executor) fill(res *models.StepResult, r models.ToolResult) {
	if !r.Success {
		res.Success = false
		res.Error = r.Error
		if res.Error == "" {
			res.Error = "tool reported failure"
		}
		return
	}
	out, err := models.DecodeOutput(res.ToolName, r.Data)
	if err != nil {
		res.Success = false
		res.Error = err.Error()
		return
	}
	res.Success = true
	res.Data = out
}

// planCalls makes each distinct tool call at most once per plan. Concurrent
// callers share the in-flight invocation; later callers get the stored result.
type planCalls struct {
	flights singleflight.Group
	mu      sync.Mutex
	done    map[string]models.ToolResult
}

func newPlanCalls() *planCalls {
	return &planCalls{done: make(map[string]models.ToolResult)}
}

func (p *planCalls) lookup(key string) (models.ToolResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.done[key]
	return r, ok
}

func (p *planCalls) do(key string, invoke func() models.ToolResult) models.ToolResult {
	if r, ok := p.lookup(key); ok {
		return r
	}
	v, _, _ := p.flights.Do(key, func() (interface{}, error) {
		// a caller that missed the lookup may arrive after the first flight returned
		if r, ok := p.lookup(key); ok {
			return r, nil
		}
		r := invoke()
		p.mu.Lock()
		p.done[key] = r
		p.mu.Unlock()
		return r, nil
	})
	return v.(models.ToolResult)
}
