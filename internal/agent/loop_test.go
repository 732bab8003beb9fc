package agent

import (
	"context"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/config"
	"github.com/voidlock/tether/internal/dispatch"
	"github.com/voidlock/tether/internal/gate"
	"github.com/voidlock/tether/internal/interrupt"
	"github.com/voidlock/tether/internal/logging"
	"github.com/voidlock/tether/internal/pathutil"
	"github.com/voidlock/tether/internal/policy"
	"github.com/voidlock/tether/internal/provider"
	"github.com/voidlock/tether/internal/sandbox"
)

type scriptedProvider struct {
	responses []*provider.GenerateResponse
	requests  []*provider.GenerateRequest
}

func (p *scriptedProvider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	p.requests = append(p.requests, req)
	if len(p.responses) == 0 {
		return textResponse("done"), nil
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

func (p *scriptedProvider) GetModel() string { return "test-model" }

func textResponse(text string) *provider.GenerateResponse {
	return &provider.GenerateResponse{
		Content: provider.ResponseContent{Type: provider.ResponseTypeText, Text: text},
	}
}

func toolCallResponse(calls ...provider.RawToolCall) *provider.GenerateResponse {
	return &provider.GenerateResponse{
		Content: provider.ResponseContent{Type: provider.ResponseTypeToolCall, ToolCalls: calls},
	}
}

type recordingUI struct {
	messages []string
	statuses []string
}

func (u *recordingUI) ReadInput(ctx context.Context) (string, error) { return "", nil }
func (u *recordingUI) WriteMessage(msg string)                       { u.messages = append(u.messages, msg) }
func (u *recordingUI) WriteStatus(status string)                     { u.statuses = append(u.statuses, status) }

type allowAllPrompter struct{ calls int }

func (p *allowAllPrompter) ReadPermission(ctx context.Context, req models.ExecutionRequest) (gate.Answer, error) {
	p.calls++
	return gate.AnswerAllow, nil
}

type echoBackend struct {
	name models.ToolName
}

func (b *echoBackend) Name() models.ToolName { return b.name }
func (b *echoBackend) Description() string   { return "echoes its url argument" }
func (b *echoBackend) Parameters() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"url": {Type: "string"},
		},
	}
}
func (b *echoBackend) Perform(ctx context.Context, args map[string]any) (string, error) {
	url, _ := args["url"].(string)
	return "fetched " + url, nil
}

type nopFileState struct{}

func (nopFileState) Exists(string) bool  { return false }
func (nopFileState) WasRead(string) bool { return false }

type loopFixture struct {
	loop     *Loop
	provider *scriptedProvider
	ui       *recordingUI
	prompter *allowAllPrompter
	history  *History
}

func newLoopFixture(t *testing.T, responses []*provider.GenerateResponse, denyTools []string) *loopFixture {
	t.Helper()

	root := t.TempDir()
	resolver := pathutil.NewResolver(root, nil)
	scope := &models.Scope{
		WorkspaceRoot:    root,
		Timeout:          2 * time.Second,
		MaxOutputBytes:   1 << 20,
		GracefulShutdown: 10 * time.Millisecond,
		BinarySampleSize: 512,
	}

	registry, err := dispatch.NewRegistry(&echoBackend{name: models.ToolScrape})
	require.NoError(t, err)

	classifier, err := policy.NewClassifier(config.DefaultConfig().Policy, resolver, nopFileState{})
	require.NoError(t, err)

	log := logging.Discard()
	executor := sandbox.NewExecutor(scope, resolver, sandbox.NewOSProcessRunner(), log)
	tool, _ := registry.Tool(models.ToolScrape)
	executor.Register(models.ToolScrape, tool)

	prompter := &allowAllPrompter{}
	p := &scriptedProvider{responses: responses}
	ui := &recordingUI{}
	history := NewHistory(0)

	loop := NewLoop(Deps{
		Provider:   p,
		Registry:   registry,
		Classifier: classifier,
		Gate:       gate.NewGate(prompter, log),
		Executor:   executor,
		Interrupts: interrupt.NewController(0),
		UI:         ui,
		History:    history,
		Audit:      nil,
		Log:        log,
		Scope:      scope,
		MaxTurns:   10,
		DenyTools:  denyTools,
	})
	return &loopFixture{loop: loop, provider: p, ui: ui, prompter: prompter, history: history}
}

func TestRunTurnPlainTextAnswer(t *testing.T) {
	f := newLoopFixture(t, []*provider.GenerateResponse{textResponse("the answer")}, nil)

	err := f.loop.RunTurn(context.Background(), "question")
	require.NoError(t, err)

	assert.Equal(t, []string{"the answer"}, f.ui.messages)

	msgs := f.history.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "question", msgs[0].Content)
	assert.Equal(t, "model", msgs[1].Role)
}

func TestRunTurnToolRoundTripPreservesOrder(t *testing.T) {
	f := newLoopFixture(t, []*provider.GenerateResponse{
		toolCallResponse(
			provider.RawToolCall{ID: "a", Name: "scrape_url", Args: map[string]any{"url": "first"}},
			provider.RawToolCall{ID: "b", Name: "scrape_url", Args: map[string]any{"url": "second"}},
			provider.RawToolCall{ID: "c", Name: "scrape_url", Args: map[string]any{"url": "third"}},
		),
		textResponse("summarized"),
	}, nil)

	err := f.loop.RunTurn(context.Background(), "fetch them")
	require.NoError(t, err)

	msgs := f.history.Messages()
	require.Len(t, msgs, 4) // user, model tool calls, tool results, final answer

	results := msgs[2].ToolResults
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].CallID)
	assert.Equal(t, "b", results[1].CallID)
	assert.Equal(t, "c", results[2].CallID)
	assert.Equal(t, "fetched first", results[0].Stdout)
	assert.Equal(t, "fetched second", results[1].Stdout)
	assert.Equal(t, "fetched third", results[2].Stdout)

	for _, r := range results {
		assert.Equal(t, models.StatusOk, r.Status)
	}

	// Scraping is safe tier, so no prompts.
	assert.Zero(t, f.prompter.calls)
	assert.Equal(t, []string{"summarized"}, f.ui.messages)
}

func TestRunTurnRejectsUnknownToolAndContinues(t *testing.T) {
	f := newLoopFixture(t, []*provider.GenerateResponse{
		toolCallResponse(
			provider.RawToolCall{ID: "x", Name: "format_disk", Args: map[string]any{}},
		),
		textResponse("understood"),
	}, nil)

	err := f.loop.RunTurn(context.Background(), "go")
	require.NoError(t, err)

	msgs := f.history.Messages()
	require.Len(t, msgs, 4)

	results := msgs[2].ToolResults
	require.Len(t, results, 1)
	assert.Equal(t, models.StatusFailed, results[0].Status)
	assert.Contains(t, results[0].Stderr, "unknown tool")

	// The rejected call is still echoed in the model message so the
	// exchange stays coherent.
	require.Len(t, msgs[1].ToolCalls, 1)
	assert.Equal(t, results[0].CallID, msgs[1].ToolCalls[0].ID)
}

func TestRunTurnHonorsDenyTools(t *testing.T) {
	f := newLoopFixture(t, []*provider.GenerateResponse{
		toolCallResponse(
			provider.RawToolCall{ID: "x", Name: "scrape_url", Args: map[string]any{"url": "u"}},
		),
		textResponse("ok"),
	}, []string{"scrape_url"})

	err := f.loop.RunTurn(context.Background(), "go")
	require.NoError(t, err)

	results := f.history.Messages()[2].ToolResults
	require.Len(t, results, 1)
	assert.Equal(t, models.StatusDenied, results[0].Status)
}

func TestRunTurnStopsAtTurnLimit(t *testing.T) {
	// Every response proposes another tool call; the loop must stop on
	// its own.
	var responses []*provider.GenerateResponse
	for i := 0; i < 20; i++ {
		responses = append(responses, toolCallResponse(
			provider.RawToolCall{Name: "scrape_url", Args: map[string]any{"url": "again"}},
		))
	}
	f := newLoopFixture(t, responses, nil)

	err := f.loop.RunTurn(context.Background(), "go")
	require.NoError(t, err)
	assert.Len(t, f.provider.requests, 10)
}

func TestRunTurnCancelledContext(t *testing.T) {
	f := newLoopFixture(t, []*provider.GenerateResponse{textResponse("never")}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.loop.RunTurn(ctx, "go")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.ui.messages)
}

func TestRunTurnRefusal(t *testing.T) {
	f := newLoopFixture(t, []*provider.GenerateResponse{
		{
			Content: provider.ResponseContent{
				Type:          provider.ResponseTypeRefusal,
				RefusalReason: "safety",
			},
		},
	}, nil)

	err := f.loop.RunTurn(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, f.ui.messages, 1)
	assert.Contains(t, f.ui.messages[0], "declined")
}
