package dispatch

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/provider"
)

// Tool is a dispatchable capability exposed to the model.
type Tool interface {
	// Name returns the wire name the model calls this tool by.
	Name() models.ToolName
	// Description returns the model-facing description.
	Description() string
	// Parameters returns the JSON Schema for the tool's arguments.
	Parameters() *jsonschema.Schema
	// Perform runs the tool with validated arguments.
	Perform(ctx context.Context, args map[string]any) (string, error)
}

type registeredTool struct {
	tool     Tool
	resolved *jsonschema.Resolved
}

// Registry maps tool names to implementations and validates
// model-proposed calls against each tool's declared schema before
// anything downstream sees them.
type Registry struct {
	tools map[models.ToolName]registeredTool
	order []models.ToolName
}

// NewRegistry builds a registry from the given tools. Each tool's
// parameter schema is resolved once up front.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools: make(map[models.ToolName]registeredTool, len(tools)),
	}
	for _, t := range tools {
		if err := r.register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(t Tool) error {
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return &DuplicateToolError{ToolName: string(name)}
	}

	var resolved *jsonschema.Resolved
	if schema := t.Parameters(); schema != nil {
		var err error
		resolved, err = schema.Resolve(nil)
		if err != nil {
			return &SchemaError{ToolName: string(name), Err: err}
		}
	}

	r.tools[name] = registeredTool{tool: t, resolved: resolved}
	r.order = append(r.order, name)
	return nil
}

// Definitions returns the tool definitions in registration order, for
// handing to the model provider.
func (r *Registry) Definitions() []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		rt := r.tools[name]
		defs = append(defs, provider.ToolDefinition{
			Name:        name,
			Description: rt.tool.Description(),
			Parameters:  rt.tool.Parameters(),
		})
	}
	return defs
}

// Tool looks up a registered tool by name.
func (r *Registry) Tool(name models.ToolName) (Tool, bool) {
	rt, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return rt.tool, true
}

// Dispatch validates a raw model-proposed call and converts it into a
// typed ToolCall. Unknown names and schema violations are rejected
// here so nothing downstream handles unvalidated input.
func (r *Registry) Dispatch(raw provider.RawToolCall) (models.ToolCall, error) {
	name := models.ToolName(raw.Name)
	rt, ok := r.tools[name]
	if !ok {
		return models.ToolCall{}, &InvalidCallError{
			ToolName: raw.Name,
			Reason:   "unknown tool",
		}
	}

	args := raw.Args
	if args == nil {
		args = map[string]any{}
	}

	if rt.resolved != nil {
		if err := rt.resolved.Validate(args); err != nil {
			return models.ToolCall{}, &InvalidCallError{
				ToolName: raw.Name,
				Reason:   "arguments do not match schema",
				Err:      err,
			}
		}
	}

	id := raw.ID
	if id == "" {
		id = uuid.NewString()
	}

	return models.ToolCall{
		ID:   id,
		Name: name,
		Args: args,
	}, nil
}
