package fileedit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/pathutil"
)

const (
	cmdRead             = "read"
	cmdWrite            = "write"
	cmdSearch           = "search"
	cmdSearchAndReplace = "search_and_replace"
	cmdApplyDiff        = "apply_diff"
)

// MutatingCommands lists the subcommands that change file contents.
func MutatingCommands() []string {
	return []string{cmdWrite, cmdSearchAndReplace, cmdApplyDiff}
}

type request struct {
	Command     string `mapstructure:"command"`
	Filename    string `mapstructure:"filename"`
	Content     string `mapstructure:"content"`
	Pattern     string `mapstructure:"pattern"`
	Replacement string `mapstructure:"replacement"`
	Diff        string `mapstructure:"diff"`
}

func (r *request) validate() error {
	if r.Filename == "" {
		return &RequestError{Reason: "filename is required"}
	}
	switch r.Command {
	case cmdRead:
		return nil
	case cmdWrite:
		return nil
	case cmdSearch, cmdSearchAndReplace:
		if r.Pattern == "" {
			return &RequestError{Reason: fmt.Sprintf("%s requires a pattern", r.Command)}
		}
		return nil
	case cmdApplyDiff:
		if r.Diff == "" {
			return &RequestError{Reason: "apply_diff requires a diff"}
		}
		return nil
	default:
		return &RequestError{Reason: fmt.Sprintf("unknown command %q", r.Command)}
	}
}

// Editor reads and edits files inside the workspace.
type Editor struct {
	resolver *pathutil.Resolver
	ledger   *ReadLedger
}

// NewEditor creates a file editor confined to the resolver's workspace.
func NewEditor(resolver *pathutil.Resolver, ledger *ReadLedger) *Editor {
	return &Editor{resolver: resolver, ledger: ledger}
}

func (e *Editor) Name() models.ToolName { return models.ToolFileEdit }

func (e *Editor) Description() string {
	return "Read, write, search, and patch files inside the workspace. " +
		"Commands: read, write, search, search_and_replace, apply_diff."
}

func (e *Editor) Parameters() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"command": {
				Type:        "string",
				Description: "The editing operation to perform.",
				Enum:        []any{cmdRead, cmdWrite, cmdSearch, cmdSearchAndReplace, cmdApplyDiff},
			},
			"filename": {
				Type:        "string",
				Description: "Path to the file, relative to the workspace root.",
			},
			"content": {
				Type:        "string",
				Description: "Full file contents for the write command.",
			},
			"pattern": {
				Type:        "string",
				Description: "Regular expression for search and search_and_replace.",
			},
			"replacement": {
				Type:        "string",
				Description: "Replacement text for search_and_replace.",
			},
			"diff": {
				Type:        "string",
				Description: "Unified diff for apply_diff.",
			},
		},
		Required: []string{"command", "filename"},
	}
}

// Perform executes a file editor request with validated arguments.
func (e *Editor) Perform(ctx context.Context, args map[string]any) (string, error) {
	var req request
	if err := mapstructure.Decode(args, &req); err != nil {
		return "", &RequestError{Reason: "malformed arguments", Err: err}
	}
	if err := req.validate(); err != nil {
		return "", err
	}

	abs, err := e.resolver.Abs(req.Filename)
	if err != nil {
		return "", err
	}

	switch req.Command {
	case cmdRead:
		return e.read(abs)
	case cmdWrite:
		return e.write(abs, req.Content)
	case cmdSearch:
		return e.search(abs, req.Pattern)
	case cmdSearchAndReplace:
		return e.searchAndReplace(abs, req.Pattern, req.Replacement)
	case cmdApplyDiff:
		return e.applyDiff(abs, req.Diff)
	default:
		return "", &RequestError{Reason: fmt.Sprintf("unknown command %q", req.Command)}
	}
}

func (e *Editor) read(abs string) (string, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", &FileIOError{Op: "read", Filename: abs, Err: err}
	}
	e.ledger.MarkRead(abs)
	return string(data), nil
}

func (e *Editor) write(abs, content string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", &FileIOError{Op: "create directory for", Filename: abs, Err: err}
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return "", &FileIOError{Op: "write", Filename: abs, Err: err}
	}
	// A written file's contents are known to the model.
	e.ledger.MarkRead(abs)
	return fmt.Sprintf("wrote %d bytes to %s", len(content), abs), nil
}

func (e *Editor) search(abs, pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", &RequestError{Reason: "invalid search pattern", Err: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", &FileIOError{Op: "read", Filename: abs, Err: err}
	}
	e.ledger.MarkRead(abs)

	var matches []string
	for i, line := range strings.Split(string(data), "\n") {
		if re.MatchString(line) {
			matches = append(matches, fmt.Sprintf("%d: %s", i+1, line))
		}
	}
	if len(matches) == 0 {
		return "no matches", nil
	}
	return strings.Join(matches, "\n"), nil
}

func (e *Editor) searchAndReplace(abs, pattern, replacement string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", &RequestError{Reason: "invalid search pattern", Err: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", &FileIOError{Op: "read", Filename: abs, Err: err}
	}

	content := string(data)
	count := len(re.FindAllStringIndex(content, -1))
	if count == 0 {
		return "no matches, file unchanged", nil
	}

	replaced := re.ReplaceAllString(content, replacement)
	if err := os.WriteFile(abs, []byte(replaced), 0o644); err != nil {
		return "", &FileIOError{Op: "write", Filename: abs, Err: err}
	}
	e.ledger.MarkRead(abs)
	return fmt.Sprintf("replaced %d occurrence(s) in %s", count, abs), nil
}

func (e *Editor) applyDiff(abs, diff string) (string, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", &FileIOError{Op: "read", Filename: abs, Err: err}
	}

	patched, err := applyUnifiedDiff(abs, string(data), diff)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, []byte(patched), 0o644); err != nil {
		return "", &FileIOError{Op: "write", Filename: abs, Err: err}
	}
	e.ledger.MarkRead(abs)
	return fmt.Sprintf("applied patch to %s", abs), nil
}

// Ledger exposes the read ledger for risk classification.
func (e *Editor) Ledger() *ReadLedger { return e.ledger }
