// Package tools calls the transit/weather tools a plan is made of.
package tools

import (
	"context"
	"encoding/json"

	"travel-orchestrator/internal/models"
)

// Invoker runs one tool call. Failures are reported in the result, never as
// a Go error, so the executor can record them per step.
type Invoker interface {
	Invoke(ctx context.Context, toolName string, params models.ToolParams) models.ToolResult
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, toolName string, params models.ToolParams) models.ToolResult

func (f InvokerFunc) Invoke(ctx context.Context, toolName string, params models.ToolParams) models.ToolResult {
	return f(ctx, toolName, params)
}

// Failure builds an unsuccessful result.
func Failure(err error) models.ToolResult {
	return models.ToolResult{Success: false, Error: err.Error()}
}

// Success builds a successful result around data.
func Success(data interface{}) models.ToolResult {
	raw, err := json.Marshal(data)
	if err != nil {
		return Failure(err)
	}
	return models.ToolResult{Success: true, Data: raw}
}

// Router dispatches calls by tool name, falling back to a default invoker.
type Router struct {
	fallback Invoker
	routes   map[string]Invoker
}

func NewRouter(fallback Invoker) *Router {
	return &Router{fallback: fallback, routes: make(map[string]Invoker)}
}

// Handle routes toolName to inv. It is not safe to call concurrently with Invoke.
func (r *Router) Handle(toolName string, inv Invoker) *Router {
	r.routes[toolName] = inv
	return r
}

func (r *Router) Invoke(ctx context.Context, toolName string, params models.ToolParams) models.ToolResult {
	if inv, ok := r.routes[toolName]; ok {
		return inv.Invoke(ctx, toolName, params)
	}
	return r.fallback.Invoke(ctx, toolName, params)
}
