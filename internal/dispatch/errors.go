package dispatch

import "fmt"

// InvalidCallError indicates a model-proposed tool call that cannot be
// dispatched: unknown tool name, malformed arguments, or a schema
// violation. It is reported back to the model, never executed.
type InvalidCallError struct {
	ToolName string
	Reason   string
	Err      error
}

func (e *InvalidCallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid tool call %q: %s: %v", e.ToolName, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid tool call %q: %s", e.ToolName, e.Reason)
}

func (e *InvalidCallError) Unwrap() error { return e.Err }

// InvalidInput marks this error as caller input related.
func (e *InvalidCallError) InvalidInput() bool { return true }

// DuplicateToolError indicates two tools registered under the same name.
type DuplicateToolError struct {
	ToolName string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.ToolName)
}

// SchemaError indicates a tool declared a parameter schema that does
// not resolve. This is a programming error caught at registration.
type SchemaError struct {
	ToolName string
	Err      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("tool %q has an invalid parameter schema: %v", e.ToolName, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
