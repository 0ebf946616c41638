package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "travel-orchestrator/internal/common/errors"
	commonhttp "travel-orchestrator/internal/common/http"
	"travel-orchestrator/internal/common/logger"
	"travel-orchestrator/internal/models"
	"travel-orchestrator/pkg/registry"
)

const maxErrorBody = 512

// HTTPConfig configures the tool proxy client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	RateLimit  float64
	Burst      int
}

// HTTPInvoker posts tool calls to {BaseURL}/tools/{name}. The proxy answers
// with a ToolResult document.
type HTTPInvoker struct {
	cfg     HTTPConfig
	client  *commonhttp.Client
	catalog *registry.Catalog
	logger  logger.Logger
}

func NewHTTPInvoker(cfg HTTPConfig, catalog *registry.Catalog, log logger.Logger) *HTTPInvoker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	client := commonhttp.NewClient(0,
		commonhttp.WithRetries(cfg.MaxRetries, 0),
		commonhttp.WithRateLimit(cfg.RateLimit, cfg.Burst),
	)
	return &HTTPInvoker{
		cfg:     cfg,
		client:  client,
		catalog: catalog,
		logger:  log.With(map[string]interface{}{"component": "tool-proxy"}),
	}
}

func (h *HTTPInvoker) Invoke(ctx context.Context, toolName string, params models.ToolParams) models.ToolResult {
	timeout := h.cfg.Timeout
	if h.catalog != nil {
		res, err := h.catalog.ValidateToolParams(toolName, params)
		if err != nil {
			return Failure(apperrors.NewToolParamsInvalidError(toolName, err.Error()))
		}
		if !res.Valid {
			return Failure(apperrors.NewToolParamsInvalidError(toolName, res.Error()))
		}
		if def, ok := h.catalog.Lookup(toolName); ok {
			timeout = def.ToolTimeout(timeout)
		}
	}

	body, err := json.Marshal(params)
	if err != nil {
		return Failure(apperrors.NewToolParamsInvalidError(toolName, err.Error()))
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/tools/%s", h.cfg.BaseURL, toolName)
	resp, err := h.client.DoWithRetry(callCtx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if h.cfg.APIKey != "" {
			req.Header.Set("X-API-Key", h.cfg.APIKey)
		}
		return req, nil
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			h.logger.Warn("Tool call timed out", map[string]interface{}{"tool": toolName, "timeout": timeout.String()})
			return Failure(apperrors.NewToolTimeoutError(toolName))
		}
		h.logger.Warn("Tool call failed", map[string]interface{}{"tool": toolName, "error": err})
		return Failure(apperrors.NewToolInvocationFailedError(toolName, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		h.logger.Warn("Tool proxy rejected call", map[string]interface{}{"tool": toolName, "status": resp.StatusCode})
		return Failure(apperrors.NewToolInvocationFailedError(toolName, err))
	}

	var result models.ToolResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Failure(apperrors.NewToolInvocationFailedError(toolName, fmt.Errorf("decode response: %w", err)))
	}
	if !result.Success && result.Error == "" {
		result.Error = "tool reported failure"
	}
	return result
}
