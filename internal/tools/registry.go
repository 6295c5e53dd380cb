// Package tools exposes ledger and simulation operations as typed callable
// tools for the agent. Tool execution is read-only computation over
// reference and profile data; it never writes to the ledger.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/greenlens/greenlens/internal/common"
	"github.com/greenlens/greenlens/internal/llm"
)

// Handler executes one tool call with raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is one callable tool: the name and description are presented to the
// model verbatim, the schema types its input.
type Tool struct {
	Handler     Handler
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Result is the outcome of one tool call. A failed call carries its error;
// it never aborts the rest of the batch.
type Result struct {
	Output any
	Err    error
	CallID string
	Name   string
}

// Registry holds the tool catalog and dispatches calls.
type Registry struct {
	byName map[string]Tool
	logger *slog.Logger
	tools  []Tool
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byName: make(map[string]Tool),
		logger: logger,
	}
}

// Register adds a tool to the catalog. Registering the same name twice is a
// programming error.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" || t.Handler == nil {
		return fmt.Errorf("tool requires a name and a handler")
	}
	if _, exists := r.byName[t.Name]; exists {
		return fmt.Errorf("tool %s already registered: %w", t.Name, common.ErrDuplicateEntry)
	}
	r.byName[t.Name] = t
	r.tools = append(r.tools, t)
	return nil
}

// Specs returns the catalog in the shape the model consumes.
func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return specs
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Execute runs a single tool call.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) Result {
	result := Result{CallID: call.ID, Name: call.Name}

	tool, ok := r.byName[call.Name]
	if !ok {
		result.Err = fmt.Errorf("unknown tool: %s", call.Name)
		return result
	}

	output, err := tool.Handler(ctx, call.Arguments)
	if err != nil {
		r.logger.Warn("tool execution failed",
			"tool", call.Name,
			"error", err)
		result.Err = err
		return result
	}

	result.Output = output
	return result
}

// ExecuteAll runs a batch of tool calls concurrently. The calls are
// independent reads, so they may overlap freely; all results are collected,
// in call order, before returning.
func (r *Registry) ExecuteAll(ctx context.Context, calls []llm.ToolCall) []Result {
	results := make([]Result, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, c llm.ToolCall) {
			defer wg.Done()
			results[idx] = r.Execute(ctx, c)
		}(i, call)
	}
	wg.Wait()

	return results
}
