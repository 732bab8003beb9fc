// Command tether is a terminal-resident coding agent. It sends user
// prompts to Gemini, executes the tool calls the model proposes inside
// a workspace sandbox, and asks the user before anything risky runs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/voidlock/tether/internal/agent"
	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/config"
	"github.com/voidlock/tether/internal/dispatch"
	"github.com/voidlock/tether/internal/gate"
	"github.com/voidlock/tether/internal/interrupt"
	"github.com/voidlock/tether/internal/logging"
	"github.com/voidlock/tether/internal/pathutil"
	"github.com/voidlock/tether/internal/policy"
	"github.com/voidlock/tether/internal/provider"
	"github.com/voidlock/tether/internal/provider/gemini"
	"github.com/voidlock/tether/internal/sandbox"
	"github.com/voidlock/tether/internal/store"
	"github.com/voidlock/tether/internal/tools/email"
	"github.com/voidlock/tether/internal/tools/fileedit"
	"github.com/voidlock/tether/internal/tools/shell"
	"github.com/voidlock/tether/internal/tools/stock"
	"github.com/voidlock/tether/internal/tools/websearch"
	"github.com/voidlock/tether/internal/ui"
)

func main() {
	var (
		prompt string
		debug  bool
	)

	root := &cobra.Command{
		Use:   "tether",
		Short: "A terminal agent that runs model tool calls in a sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(prompt, debug)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().StringVarP(&prompt, "prompt", "p", "", "run a single prompt and exit")
	root.Flags().BoolVar(&debug, "debug", false, "enable debug logging to stderr")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// session is everything wired up and ready to serve prompts.
type session struct {
	cfg        *config.Config
	provider   provider.Provider
	registry   *dispatch.Registry
	classifier *policy.Classifier
	executor   *sandbox.Executor
	interrupts *interrupt.Controller
	audit      *store.AuditStore
	scope      *models.Scope
	log        *slog.Logger
}

func run(prompt string, debug bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	creds := config.CredentialsFromEnv()
	if creds.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}

	log, logCloser, err := logging.Setup(logging.Options{DataDir: dataDir, Debug: debug})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer logCloser.Close()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	workspaceRoot, err := pathutil.CanonicaliseRoot(cwd)
	if err != nil {
		return fmt.Errorf("resolving workspace root: %w", err)
	}
	resolver := pathutil.NewResolver(workspaceRoot, cfg.Sandbox.AllowedPathPrefixes)
	scope := sandbox.ScopeFromConfig(cfg.Sandbox, resolver)

	auditStore, err := store.Open(filepath.Join(dataDir, "audit.db"))
	if err != nil {
		return fmt.Errorf("opening audit store: %w", err)
	}
	defer auditStore.Close()

	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: creds.GeminiAPIKey})
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}

	ledger := fileedit.NewReadLedger()
	fetcher := websearch.NewFetcher(cfg.Search.FetchPerSecond, cfg.Search.FetchBurst)

	registry, err := dispatch.NewRegistry(
		shell.NewCommand(),
		fileedit.NewEditor(resolver, ledger),
		websearch.NewSearcher(fetcher, cfg.Search, creds, log),
		websearch.NewScraper(fetcher),
		stock.NewQuoter(creds.AlphaVantageAPIKey),
		email.NewSender(creds),
	)
	if err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}

	classifier, err := policy.NewClassifier(cfg.Policy, resolver, ledger)
	if err != nil {
		return fmt.Errorf("building classifier: %w", err)
	}

	executor := sandbox.NewExecutor(scope, resolver, &sandbox.OSProcessRunner{}, log)
	for _, def := range registry.Definitions() {
		if def.Name == models.ToolShellExec {
			continue
		}
		if tool, ok := registry.Tool(def.Name); ok {
			executor.Register(def.Name, tool)
		}
	}

	interrupts := interrupt.NewController(time.Duration(cfg.Sandbox.GracefulShutdownMs) * time.Millisecond)
	interrupts.Start()
	defer interrupts.Stop()

	s := &session{
		cfg:        cfg,
		provider:   gemini.New(gemini.NewSDKClient(genaiClient), cfg.Model),
		registry:   registry,
		classifier: classifier,
		executor:   executor,
		interrupts: interrupts,
		audit:      auditStore,
		scope:      scope,
		log:        log,
	}

	if prompt != "" {
		return s.runSinglePrompt(prompt)
	}
	return s.runInteractive()
}

func (s *session) newLoop(front agent.UserInterface, prompter gate.Prompter) *agent.Loop {
	g := gate.NewGate(prompter, s.log,
		gate.WithAutoApproveAmbiguous(s.cfg.Policy.AutoApproveAmbiguous),
		gate.WithAuditRecorder(s.audit),
	)
	return agent.NewLoop(agent.Deps{
		Provider:   s.provider,
		Registry:   s.registry,
		Classifier: s.classifier,
		Gate:       g,
		Executor:   s.executor,
		Interrupts: s.interrupts,
		UI:         front,
		History:    agent.NewHistory(s.cfg.History.MaxBytes),
		Audit:      s.audit,
		Log:        s.log,
		Scope:      s.scope,
		MaxTurns:   s.cfg.History.MaxTurns,
		DenyTools:  s.cfg.Policy.DenyTools,
	})
}

// runSinglePrompt handles the -p flag: one prompt, plain output, exit.
func (s *session) runSinglePrompt(prompt string) error {
	front := ui.NewPlain(os.Stdin, os.Stdout)
	loop := s.newLoop(front, front)
	return loop.RunOnce(s.interrupts.Context(), prompt)
}

// runInteractive starts the full-screen REPL. The agent loop runs in
// its own goroutine while the UI owns the terminal.
func (s *session) runInteractive() error {
	front := ui.NewTUI(ui.WithInterrupt(s.interrupts.Trigger))
	loop := s.newLoop(front, front)

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- loop.Run(context.Background())
		front.Quit()
	}()

	if err := front.Start(); err != nil {
		return fmt.Errorf("terminal error: %w", err)
	}
	select {
	case err := <-loopErr:
		return err
	default:
		return nil
	}
}
