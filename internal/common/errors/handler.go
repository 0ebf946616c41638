// internal/common/errors/handler.go
package errors

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler reports a failed job back to Zeebe. Transient errors fail the
// job so the broker retries it; everything else, and transient errors whose
// retries are used up, throw a BPMN error the travel process routes to its
// fallback branch.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// JobAction is what HandleJobError does with a failed job.
type JobAction string

const (
	ActionFail  JobAction = "fail"
	ActionThrow JobAction = "throw"
)

// JobDecision is the outcome of Decide.
type JobDecision struct {
	Action  JobAction
	Retries int32
	Error   *BPMNError
	Cause   *StandardError
}

// Decide picks the action for err on job without talking to the broker.
func (h *ErrorHandler) Decide(job entities.Job, err error) JobDecision {
	stdErr := normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	// job.Retries counts the current attempt, so one left means this was the last.
	remaining := job.GetRetries() - 1
	if bpmnErr.Retries > 0 && remaining > 0 {
		if budget := int32(bpmnErr.Retries); remaining > budget {
			remaining = budget
		}
		return JobDecision{Action: ActionFail, Retries: remaining, Error: bpmnErr, Cause: stdErr}
	}
	return JobDecision{Action: ActionThrow, Error: bpmnErr, Cause: stdErr}
}

// HandleJobError logs err and sends the fail or throw-error command for job.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	d := h.Decide(job, err)
	h.logError(job, d)

	var sendErr error
	switch d.Action {
	case ActionFail:
		sendErr = h.failJob(ctx, client, job, d)
	default:
		sendErr = h.throwError(ctx, client, job, d)
	}
	if sendErr != nil {
		h.logger.Error("Failed to report job error", map[string]interface{}{
			"jobKey": job.GetKey(),
			"action": string(d.Action),
			"error":  sendErr.Error(),
		})
	}
}

func normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, d JobDecision) error {
	cmd := client.NewFailJobCommand().
		JobKey(job.GetKey()).
		Retries(d.Retries).
		ErrorMessage(d.Error.Message)

	withVars, err := cmd.VariablesFromMap(d.Error.ToErrorVariables())
	if err != nil {
		_, err = cmd.Send(ctx)
		return err
	}
	_, err = withVars.Send(ctx)
	return err
}

func (h *ErrorHandler) throwError(ctx context.Context, client worker.JobClient, job entities.Job, d JobDecision) error {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.GetKey()).
		ErrorCode(d.Error.Code).
		ErrorMessage(d.Error.Message)

	withVars, err := cmd.VariablesFromMap(d.Error.ToErrorVariables())
	if err != nil {
		_, err = cmd.Send(ctx)
		return err
	}
	_, err = withVars.Send(ctx)
	return err
}

func (h *ErrorHandler) logError(job entities.Job, d JobDecision) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.GetKey(),
		"jobType":          job.GetType(),
		"action":           string(d.Action),
		"retriesLeft":      d.Retries,
		"errorCode":        string(d.Cause.Code),
		"bpmnErrorCode":    d.Error.Code,
		"message":          d.Error.Message,
		"details":          d.Cause.Details,
		"errorCategory":    GetErrorCategory(d.Cause.Code),
		"workflowInstance": job.GetProcessInstanceKey(),
		"metadata":         d.Cause.Metadata,
	})
}
