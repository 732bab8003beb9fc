package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/gate"
)

// Plain is a line-oriented front end for non-interactive use and
// piped input. No alternate screen, no styling beyond a prefix.
type Plain struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPlain creates a plain front end over the given streams.
func NewPlain(in io.Reader, out io.Writer) *Plain {
	return &Plain{in: bufio.NewReader(in), out: out}
}

// ReadInput reads one line from the input stream.
func (p *Plain) ReadInput(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, "> ")
	line, err := p.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\n"), nil
}

// ReadPermission prompts on the output stream and reads y/a/n.
func (p *Plain) ReadPermission(ctx context.Context, req models.ExecutionRequest) (gate.Answer, error) {
	fmt.Fprintf(p.out, "%s call needs approval: %s\n", req.Tier.String(), req.Call.Name)
	if cmd, ok := req.Call.Args["command"].(string); ok && req.Call.Name == models.ToolShellExec {
		fmt.Fprintf(p.out, "  $ %s\n", cmd)
	}
	for _, signal := range req.Signals {
		fmt.Fprintf(p.out, "  - %s\n", signal)
	}
	fmt.Fprint(p.out, "allow? [y]es / [a]lways this session / [n]o: ")

	line, err := p.in.ReadString('\n')
	if err != nil {
		return gate.AnswerDeny, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return gate.AnswerAllow, nil
	case "a", "always":
		return gate.AnswerAllowSession, nil
	default:
		return gate.AnswerDeny, nil
	}
}

// WriteMessage prints a model response.
func (p *Plain) WriteMessage(msg string) {
	fmt.Fprintln(p.out, msg)
}

// WriteStatus prints a status line.
func (p *Plain) WriteStatus(status string) {
	fmt.Fprintf(p.out, "[%s]\n", status)
}
