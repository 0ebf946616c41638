// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrCodeLexiconInvalid ErrorCode = "LEXICON_INVALID"

	ErrCodeSessionLoadFailed ErrorCode = "SESSION_LOAD_FAILED"
	ErrCodeSessionSaveFailed ErrorCode = "SESSION_SAVE_FAILED"

	ErrCodeToolInvocationFailed ErrorCode = "TOOL_INVOCATION_FAILED"
	ErrCodeToolTimeout          ErrorCode = "TOOL_TIMEOUT"
	ErrCodeToolParamsInvalid    ErrorCode = "TOOL_PARAMS_INVALID"

	ErrCodePlanStalled     ErrorCode = "PLAN_STALLED"
	ErrCodePlanNotPossible ErrorCode = "PLAN_NOT_POSSIBLE"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeBrokerRejected    ErrorCode = "BROKER_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// IsCode reports whether err is (or wraps) a StandardError with the code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// CodeOf returns the code of the StandardError in err's chain, or
// ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable job input error.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false)
}

// NewLexiconInvalidError reports a lexicon file that failed schema or regex validation.
func NewLexiconInvalidError(details string) *StandardError {
	return newError(ErrCodeLexiconInvalid, "Lexicon failed validation", details, false)
}

func NewSessionLoadFailedError(sessionID string, err error) *StandardError {
	return newError(ErrCodeSessionLoadFailed, "Failed to load conversation context", err.Error(), true).
		WithMetadata("sessionId", sessionID)
}

func NewSessionSaveFailedError(sessionID string, err error) *StandardError {
	return newError(ErrCodeSessionSaveFailed, "Failed to save conversation context", err.Error(), true).
		WithMetadata("sessionId", sessionID)
}

// NewToolInvocationFailedError wraps a transport-level tool failure.
func NewToolInvocationFailedError(toolName string, err error) *StandardError {
	return newError(ErrCodeToolInvocationFailed, fmt.Sprintf("Tool '%s' invocation failed", toolName), err.Error(), true).
		WithMetadata("tool", toolName)
}

func NewToolTimeoutError(toolName string) *StandardError {
	return newError(ErrCodeToolTimeout, fmt.Sprintf("Tool '%s' timed out", toolName), "", true).
		WithMetadata("tool", toolName)
}

// NewToolParamsInvalidError is returned when params do not satisfy the registry schema.
func NewToolParamsInvalidError(toolName, details string) *StandardError {
	return newError(ErrCodeToolParamsInvalid, fmt.Sprintf("Invalid params for tool '%s'", toolName), details, false).
		WithMetadata("tool", toolName)
}

// NewPlanStalledError reports steps that could never become ready.
func NewPlanStalledError(planID string, stalled []string) *StandardError {
	return newError(ErrCodePlanStalled, "Execution plan stalled", strings.Join(stalled, ","), false).
		WithMetadata("planId", planID)
}

func NewPlanNotPossibleError(details string) *StandardError {
	return newError(ErrCodePlanNotPossible, "No orchestration possible", details, false)
}

// NewBrokerUnavailableError wraps a transient Zeebe gateway failure.
func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerUnavailable, fmt.Sprintf("Zeebe operation '%s' failed", operation), err.Error(), true).
		WithMetadata("operation", operation)
}

// NewBrokerRejectedError is returned when the gateway refuses a command outright.
func NewBrokerRejectedError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerRejected, fmt.Sprintf("Zeebe rejected '%s'", operation), err.Error(), false).
		WithMetadata("operation", operation)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the BPMN error codes caught by
// boundary events in the travel process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:         "INVALID_INPUT",
	ErrCodeLexiconInvalid:       "LEXICON_INVALID",
	ErrCodeSessionLoadFailed:    "SESSION_UNAVAILABLE",
	ErrCodeSessionSaveFailed:    "SESSION_UNAVAILABLE",
	ErrCodeToolInvocationFailed: "TOOL_UNAVAILABLE",
	ErrCodeToolTimeout:          "TOOL_UNAVAILABLE",
	ErrCodeToolParamsInvalid:    "TOOL_PARAMS_INVALID",
	ErrCodePlanStalled:          "PLAN_FALLBACK",
	ErrCodePlanNotPossible:      "PLAN_FALLBACK",
}

// GetRetryCount returns the recommended Zeebe retry budget for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSessionLoadFailed,
		ErrCodeSessionSaveFailed,
		ErrCodeToolInvocationFailed,
		ErrCodeBrokerUnavailable:
		return 3
	case ErrCodeToolTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "SESSION"):
		return "SESSION"
	case strings.HasPrefix(codeStr, "TOOL"):
		return "TOOL"
	case strings.HasPrefix(codeStr, "BROKER"):
		return "INTEGRATION"
	case strings.HasPrefix(codeStr, "PLAN"):
		return "ORCHESTRATION"
	case strings.Contains(codeStr, "LEXICON"):
		return "NLU"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
