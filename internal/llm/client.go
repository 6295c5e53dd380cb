package llm

import (
	"context"
	"encoding/json"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Client defines the interface for LLM providers.
type Client interface {
	// Complete sends a chat request, optionally advertising tools, and
	// returns either final text, a batch of tool calls, or both.
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)

	// CompleteVision sends a prompt together with an image and returns the
	// model's text response.
	CompleteVision(ctx context.Context, prompt string, imageBytes []byte, mimeType string) (string, error)
}

// ToolSpec describes one callable tool as presented to the model: a name, a
// natural-language description guiding when to use it, and a JSON schema for
// its input.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Message is one turn in a conversation.
type Message struct {
	Role       string
	Content    string
	ToolCallID string     // set on RoleTool messages carrying a result
	ToolCalls  []ToolCall // set on RoleAssistant messages that requested tools
}

// ChatRequest is a completion request.
type ChatRequest struct {
	System   string
	Messages []Message
	Tools    []ToolSpec
}

// ChatResponse is the model's reply.
type ChatResponse struct {
	Text      string
	ToolCalls []ToolCall
}

// ToolResultMessage builds the message feeding one tool result back to the
// model.
func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: content}
}
