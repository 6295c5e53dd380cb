// Package agent drives one conversational turn: context assembly, prompt
// construction, a single bounded round of model-directed tool invocation,
// and response assembly.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/greenlens/greenlens/internal/common"
	"github.com/greenlens/greenlens/internal/llm"
	"github.com/greenlens/greenlens/internal/model"
	"github.com/greenlens/greenlens/internal/store"
	"github.com/greenlens/greenlens/internal/tools"
)

// turnState tracks where a request is in its lifecycle. Terminal on Done or
// error.
type turnState string

const (
	stateIdle       turnState = "idle"
	stateContext    turnState = "context_assembly"
	statePrompt     turnState = "prompt_construction"
	stateInvocation turnState = "model_invocation"
	stateResponse   turnState = "response_assembly"
	stateDone       turnState = "done"
)

// Request is one user chat turn.
type Request struct {
	UserID       string
	Message      string
	AttachmentID string
}

// Result is the assembled answer for one turn.
type Result struct {
	Reply     string   `json:"reply"`
	ToolsUsed []string `json:"toolsUsed,omitempty"`
}

// Orchestrator runs chat turns against the model and the tool catalog.
type Orchestrator struct {
	client   llm.Client
	registry *tools.Registry
	store    store.Store
	logger   *slog.Logger
}

// New creates an orchestrator. Prefer Default for serving paths so the heavy
// client is built lazily and exactly once.
func New(client llm.Client, registry *tools.Registry, st store.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		client:   client,
		registry: registry,
		store:    st,
		logger:   logger,
	}
}

// Turn runs one full request through the state machine and returns the final
// text plus the names of any tools that were invoked.
func (o *Orchestrator) Turn(ctx context.Context, req Request) (Result, error) {
	if req.UserID == "" {
		return Result{}, common.Validationf("userId is required")
	}
	if req.Message == "" {
		return Result{}, common.Validationf("message is required")
	}

	state := stateIdle
	defer func() {
		o.logger.Debug("turn finished", "user_id", req.UserID, "state", string(state))
	}()

	state = stateContext
	profile, attachmentBlock, err := o.assembleContext(ctx, req)
	if err != nil {
		return Result{}, err
	}

	state = statePrompt
	system := buildSystemPrompt(profile, attachmentBlock)

	state = stateInvocation
	reply, used, err := o.invokeModel(ctx, system, req.Message)
	if err != nil {
		return Result{}, err
	}

	state = stateResponse
	result := Result{Reply: reply, ToolsUsed: used}
	state = stateDone
	return result, nil
}

// assembleContext fetches the user's profile (guest fallback when absent)
// and, when the request references a document, a bounded summary of it.
// A missing attachment yields an explanatory note, not a failure.
func (o *Orchestrator) assembleContext(ctx context.Context, req Request) (*model.UserProfile, string, error) {
	profile, err := o.store.GetUserProfile(ctx, req.UserID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, "", err
		}
		profile = nil // guest
	}

	var attachmentBlock string
	if req.AttachmentID != "" {
		att, attErr := o.store.GetAttachment(ctx, req.UserID, req.AttachmentID)
		switch {
		case attErr == nil:
			attachmentBlock = summarizeAttachment(att)
		case errors.Is(attErr, common.ErrNotFound):
			attachmentBlock = fmt.Sprintf(
				"The user referenced document %s, but it could not be found. Mention this if relevant.",
				req.AttachmentID)
		default:
			return nil, "", attErr
		}
	}

	return profile, attachmentBlock, nil
}

// invokeModel runs the bounded two-phase tool protocol: send prompt plus
// the tool catalog, and if the model requests tools, execute them all,
// feed the results back, and accept only the text of the follow-up
// completion. No second round of tool requests is honored.
func (o *Orchestrator) invokeModel(ctx context.Context, system, userMessage string) (string, []string, error) {
	specs := o.registry.Specs()
	messages := []llm.Message{{Role: llm.RoleUser, Content: userMessage}}

	first, err := o.client.Complete(ctx, llm.ChatRequest{
		System:   system,
		Messages: messages,
		Tools:    specs,
	})
	if err != nil {
		return "", nil, err
	}

	if len(first.ToolCalls) == 0 {
		return first.Text, nil, nil
	}

	o.logger.Info("model requested tools", "count", len(first.ToolCalls))

	results := o.registry.ExecuteAll(ctx, first.ToolCalls)

	used := make([]string, 0, len(results))
	messages = append(messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   first.Text,
		ToolCalls: first.ToolCalls,
	})
	for _, res := range results {
		used = append(used, res.Name)
		messages = append(messages, llm.ToolResultMessage(res.CallID, encodeToolResult(res)))
	}

	second, err := o.client.Complete(ctx, llm.ChatRequest{
		System:   system,
		Messages: messages,
		Tools:    specs,
	})
	if err != nil {
		return "", nil, err
	}

	if len(second.ToolCalls) > 0 {
		o.logger.Warn("discarding tool requests beyond the single allowed round",
			"count", len(second.ToolCalls))
	}

	reply := second.Text
	if reply == "" {
		reply = "I'm sorry, I couldn't put together an answer this time. Please try again."
	}
	return reply, used, nil
}

// encodeToolResult renders a tool outcome for the model. Failures become an
// error payload so the model can compose an apologetic answer instead of
// the turn aborting.
func encodeToolResult(res tools.Result) string {
	if res.Err != nil {
		payload, _ := json.Marshal(map[string]string{
			"error": res.Err.Error(),
		})
		return string(payload)
	}

	payload, err := json.Marshal(res.Output)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to encode result: %v"}`, err)
	}
	return string(payload)
}
