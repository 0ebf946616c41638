package analyzemessage

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
	"travel-orchestrator/internal/nlu"
	"travel-orchestrator/internal/session"
	"travel-orchestrator/pkg/registry"
)

const TaskType = "analyze-message"

// JobRecorder receives per-job outcomes for the OpenTelemetry meters.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, d time.Duration, status string)
}

type Handler struct {
	config   *Config
	analyzer *nlu.Analyzer
	store    session.Store
	catalog  *registry.Catalog
	errors   *errors.ErrorHandler
	recorder JobRecorder
	logger   logger.Logger
}

type HandlerOptions struct {
	Config   *Config
	Analyzer *nlu.Analyzer
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
	if opts.Analyzer == nil || opts.Store == nil {
		return nil, fmt.Errorf("%s needs an analyzer and a session store", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
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
		analyzer: opts.Analyzer,
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

	h.logger.Info("Processing message analysis", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	var output *Output
	input, err := h.parseInput(job)
	if err == nil {
		if !h.config.Enabled {
			output = h.disabledOutput()
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

// Execute analyses the message and records what the rest of the
// conversation needs in the session context.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}

	sc, err := session.LoadOrCreate(ctx, h.store, input.SessionID)
	if err != nil {
		return nil, err
	}

	lang := input.Language
	if lang == "" {
		lang = sc.Preferences().Language
	}
	if lang == "" {
		lang = h.config.DefaultLanguage
	}

	analysis := h.analyzer.Analyze(input.Message, lang)

	if input.UserLocation != nil {
		sc.SetUserLocation(input.UserLocation)
	}
	if input.Language != "" {
		sc.MergePreferences(session.Preferences{Language: input.Language})
	}
	sc.RememberEntities(analysis.Primary.ExtractedEntities)

	if err := session.Save(ctx, h.store, sc); err != nil {
		return nil, err
	}

	h.logger.Info("Message analysed", map[string]interface{}{
		"sessionId":     input.SessionID,
		"segments":      len(analysis.Segments),
		"intents":       len(analysis.Intents),
		"primaryIntent": analysis.Primary.Type,
		"confidence":    analysis.Primary.Confidence,
	})

	return &Output{
		Languages:     analysis.Languages,
		Segments:      analysis.Segments,
		Intents:       analysis.Intents,
		PrimaryIntent: analysis.Primary,
	}, nil
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

func (h *Handler) disabledOutput() *Output {
	h.logger.Info("Worker disabled by configuration", nil)
	return &Output{
		Languages: []models.Language{h.config.DefaultLanguage},
		Segments:  []models.QuerySegment{},
		Intents:   []models.Intent{},
		PrimaryIntent: models.Intent{
			Type:              models.IntentGeneralInfo,
			DetectedLanguages: []models.Language{h.config.DefaultLanguage},
			MatchedKeywords:   []string{},
			Timestamp:         time.Now(),
		},
	}
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
