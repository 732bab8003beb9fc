// Package shell declares the shell command tool. Execution lives in
// the sandbox executor; this package only describes the tool to the
// model.
package shell

import (
	"context"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/voidlock/tether/internal/agent/models"
)

// Command is the execute_command tool declaration.
type Command struct{}

// NewCommand creates the shell tool declaration.
func NewCommand() *Command { return &Command{} }

func (c *Command) Name() models.ToolName { return models.ToolShellExec }

func (c *Command) Description() string {
	return "Run a shell command inside the workspace sandbox and return its output. " +
		"Commands judged risky will ask the user for approval first."
}

func (c *Command) Parameters() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"command": {
				Type:        "string",
				Description: "The shell command to run.",
			},
			"working_dir": {
				Type:        "string",
				Description: "Directory to run in, relative to the workspace root. Defaults to the workspace root.",
			},
		},
		Required: []string{"command"},
	}
}

// Perform is never reached; the executor runs shell commands itself.
func (c *Command) Perform(ctx context.Context, args map[string]any) (string, error) {
	return "", errors.New("shell commands are run by the executor")
}
