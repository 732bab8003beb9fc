// Package provider defines the contract between the agent loop and the
// model transport. The core consumes turns and produces requests; the
// wire format belongs to the concrete client underneath.
package provider

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/voidlock/tether/internal/agent/models"
)

// Provider defines the interface for LLM backends.
type Provider interface {
	// Generate sends a request to the model and returns the response.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// GetModel returns the currently active model name.
	GetModel() string
}

// GenerateRequest encapsulates all parameters for a generation request.
type GenerateRequest struct {
	// Prompt is the user's input for this turn. May be empty when the
	// turn is driven by tool results already present in History.
	Prompt string

	// History contains the conversation history.
	History []models.Message

	// SystemInstruction is kept separate from history, per the Gemini
	// content model.
	SystemInstruction string

	// Tools contains tool definitions for native tool calling.
	Tools []ToolDefinition
}

// ToolDefinition defines a tool the model can invoke. Parameters is a
// standard JSON Schema, shared with the dispatch registry's validator.
type ToolDefinition struct {
	Name        models.ToolName
	Description string
	Parameters  *jsonschema.Schema
}

// ResponseType indicates what the model produced.
type ResponseType string

const (
	ResponseTypeText     ResponseType = "text"
	ResponseTypeToolCall ResponseType = "tool_call"
	ResponseTypeRefusal  ResponseType = "refusal"
)

// RawToolCall is a tool invocation exactly as the transport delivered
// it: the name is an unvalidated string until the dispatch registry
// accepts it.
type RawToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ResponseContent is a union type representing different response types.
type ResponseContent struct {
	Type ResponseType

	// For Type = ResponseTypeText
	Text string

	// For Type = ResponseTypeToolCall
	ToolCalls []RawToolCall

	// For Type = ResponseTypeRefusal (safety block, policy violation)
	RefusalReason string
}

// ResponseMetadata carries generation accounting.
type ResponseMetadata struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	ModelUsed        string
	LatencyMs        int64
}

// GenerateResponse contains the model's response and metadata.
type GenerateResponse struct {
	Content  ResponseContent
	Metadata ResponseMetadata
}
