package executetravelplan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"travel-orchestrator/internal/common/errors"
	"travel-orchestrator/internal/common/logger"
	"travel-orchestrator/internal/common/metrics"
	"travel-orchestrator/internal/models"
	"travel-orchestrator/internal/orchestration"
	"travel-orchestrator/internal/session"
	"travel-orchestrator/pkg/registry"
)

const TaskType = "execute-travel-plan"

// PlanRunner executes a built plan against the tools.
type PlanRunner interface {
	Execute(ctx context.Context, plan *models.ExecutionPlan, sc *session.ConversationContext) *models.PlanExecutionResult
}

type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, d time.Duration, status string)
}

type Handler struct {
	config   *Config
	builder  *orchestration.Builder
	runner   PlanRunner
	store    session.Store
	catalog  *registry.Catalog
	errors   *errors.ErrorHandler
	recorder JobRecorder
	logger   logger.Logger
}

type HandlerOptions struct {
	Config   *Config
	Builder  *orchestration.Builder
	Runner   PlanRunner
	Store    session.Store
	Catalog  *registry.Catalog
	Recorder JobRecorder
	Logger   logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Runner == nil || opts.Store == nil {
		return nil, fmt.Errorf("%s needs a plan runner and a session store", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	builder := opts.Builder
	if builder == nil {
		builder = orchestration.NewBuilder()
	}
	catalog := opts.Catalog
	if catalog == nil {
		var err error
		if catalog, err = registry.Default(); err != nil {
			return nil, err
		}
	}

	return &Handler{
		config:   cfg,
		builder:  builder,
		runner:   opts.Runner,
		store:    opts.Store,
		catalog:  catalog,
		errors:   errors.NewErrorHandler(log),
		recorder: opts.Recorder,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	started := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing travel plan", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	var output *Output
	input, err := h.parseInput(job)
	if err == nil {
		if !h.config.Enabled {
			h.logger.Info("Worker disabled by configuration", nil)
			output = &Output{Status: StatusNoPlan, Summary: models.PlanSummary{}, Fallback: true}
		} else {
			output, err = h.Execute(ctx, input)
		}
	}
	if err != nil {
		h.record(ctx, started, "failed")
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
		h.errors.HandleJobError(context.WithoutCancel(ctx), client, job, err)
		return err
	}

	if err := h.completeJob(context.WithoutCancel(ctx), client, job, output); err != nil {
		h.record(ctx, started, "failed")
		return err
	}
	h.record(ctx, started, "completed")
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(started).Seconds())
	return nil
}

// Execute builds the plan for the primary intent, runs it and saves the
// session context with the new cache entries. Tool failures never surface
// as errors; they set Fallback.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}

	sc, err := session.LoadOrCreate(ctx, h.store, input.SessionID)
	if err != nil {
		return nil, err
	}
	if input.Preferences != nil {
		sc.MergePreferences(*input.Preferences)
	}

	plan := h.builder.Build(input.PrimaryIntent, sc)
	log := h.logger.With(map[string]interface{}{"sessionId": input.SessionID, "planId": plan.ID})

	output := &Output{
		PlanID:    plan.ID,
		PlanName:  plan.Name,
		StepCount: len(plan.Steps),
	}

	if plan.Empty() {
		log.Info("No orchestration possible", map[string]interface{}{
			"reason": errors.NewPlanNotPossibleError(string(input.PrimaryIntent.Type)).Error(),
		})
		output.Status = StatusNoPlan
		output.Fallback = true
	} else {
		result := h.runner.Execute(ctx, plan, sc)
		output.Status = string(result.Status)
		output.Success = result.Success
		output.Summary = result.Summary
		output.Formatted = orchestration.FormatResults(result)
		output.Fallback = !result.Success || result.Status != models.PlanStatusCompleted

		if result.Status == models.PlanStatusStalled {
			log.Warn("Plan stalled, falling back", map[string]interface{}{
				"error": errors.NewPlanStalledError(plan.ID, result.StalledSteps).Error(),
			})
		}
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.SaveTimeout)
	defer cancel()
	if err := session.Save(saveCtx, h.store, sc); err != nil {
		return nil, err
	}

	log.Info("Travel plan processed", map[string]interface{}{
		"status":   output.Status,
		"success":  output.Success,
		"steps":    output.StepCount,
		"fallback": output.Fallback,
	})
	return output, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse job variables: %v", err))
	}

	result, err := h.catalog.ValidateActivityInput(TaskType, variables)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("validation errors: %v", result.GetErrorMessages()))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("decode job variables: %v", err))
	}
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return err
	}
	return nil
}

func (h *Handler) record(ctx context.Context, started time.Time, status string) {
	if h.recorder == nil {
		return
	}
	h.recorder.RecordJobProcessed(ctx, TaskType, status)
	h.recorder.RecordJobDuration(ctx, TaskType, time.Since(started), status)
}
