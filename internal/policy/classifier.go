// Package policy implements risk classification for model-proposed
// actions. Classification is pure: given the same call and the same
// observable file state it always produces the same tier, and it never
// touches the system.
package policy

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/voidlock/tether/internal/agent/models"
	"github.com/voidlock/tether/internal/config"
	"github.com/voidlock/tether/internal/pathutil"
	"github.com/voidlock/tether/internal/tools/fileedit"
)

// FileState is the minimal view of the filesystem the classifier needs
// to grade file edits. Both methods must be side-effect free.
type FileState interface {
	// Exists reports whether the canonical path currently exists.
	Exists(abs string) bool

	// WasRead reports whether the path was read earlier this session.
	WasRead(abs string) bool
}

// Classifier grades tool calls into risk tiers using a configurable
// rule set. Ties always resolve to the higher tier.
type Classifier struct {
	destructive []*regexp.Regexp
	ambiguous   []*regexp.Regexp
	known       map[string]bool
	resolver    *pathutil.Resolver
	files       FileState
}

// NewClassifier compiles the rule set. Invalid patterns are rejected
// here rather than silently skipped: a missing destructive rule would
// under-estimate risk.
func NewClassifier(cfg config.PolicyConfig, resolver *pathutil.Resolver, files FileState) (*Classifier, error) {
	c := &Classifier{
		known:    make(map[string]bool, len(cfg.KnownBinaries)),
		resolver: resolver,
		files:    files,
	}
	for _, p := range cfg.DestructivePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &PatternError{Pattern: p, Cause: err}
		}
		c.destructive = append(c.destructive, re)
	}
	for _, p := range cfg.AmbiguousPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &PatternError{Pattern: p, Cause: err}
		}
		c.ambiguous = append(c.ambiguous, re)
	}
	for _, b := range cfg.KnownBinaries {
		c.known[b] = true
	}
	return c, nil
}

// Classify grades a single call. The returned signals are the
// human-readable reasons behind the tier, in detection order.
func (c *Classifier) Classify(call models.ToolCall) (models.RiskTier, []string) {
	switch call.Name {
	case models.ToolShellExec:
		return c.classifyShell(stringArg(call.Args, "command"))
	case models.ToolFileEdit:
		return c.classifyFileEdit(stringArg(call.Args, "command"), stringArg(call.Args, "filename"))
	case models.ToolSearch, models.ToolScrape, models.ToolStockQuote:
		return models.TierSafe, nil
	case models.ToolSendEmail:
		return models.TierAmbiguous, []string{"sends email to an external address"}
	default:
		// Unknown names are rejected by the registry before they get
		// here; grade upward if one slips through.
		return models.TierDestructive, []string{fmt.Sprintf("unrecognized tool %q", call.Name)}
	}
}

// Request builds an ExecutionRequest by classifying the call under the
// given scope.
func (c *Classifier) Request(call models.ToolCall, scope *models.Scope) models.ExecutionRequest {
	tier, signals := c.Classify(call)
	return models.ExecutionRequest{
		Call:    call,
		Tier:    tier,
		Scope:   scope,
		Signals: signals,
	}
}

func (c *Classifier) classifyShell(command string) (models.RiskTier, []string) {
	command = strings.TrimSpace(command)
	if command == "" {
		return models.TierAmbiguous, []string{"empty command"}
	}

	tier := models.TierSafe
	var signals []string

	for _, re := range c.destructive {
		if re.MatchString(command) {
			tier = models.MaxTier(tier, models.TierDestructive)
			signals = append(signals, fmt.Sprintf("matches destructive pattern %q", re.String()))
		}
	}
	for _, re := range c.ambiguous {
		if re.MatchString(command) {
			tier = models.MaxTier(tier, models.TierAmbiguous)
			signals = append(signals, fmt.Sprintf("matches ambiguous pattern %q", re.String()))
		}
	}

	for _, root := range commandRoots(command) {
		if !c.known[root] {
			tier = models.MaxTier(tier, models.TierAmbiguous)
			signals = append(signals, fmt.Sprintf("unknown binary %q", root))
		}
	}

	outside, writes := c.outsidePathRefs(command)
	if writes {
		tier = models.MaxTier(tier, models.TierDestructive)
		signals = append(signals, "writes to a path outside the sandbox")
	} else if outside {
		tier = models.MaxTier(tier, models.TierAmbiguous)
		signals = append(signals, "references a path outside the sandbox")
	}

	return tier, signals
}

func (c *Classifier) classifyFileEdit(subcommand, filename string) (models.RiskTier, []string) {
	if filename == "" {
		return models.TierAmbiguous, []string{"missing filename"}
	}

	abs, err := c.resolver.Abs(filename)
	if err != nil {
		return models.TierDestructive, []string{fmt.Sprintf("target %q is outside the sandbox", filename)}
	}

	if mutatingSubcommand(subcommand) && c.files.Exists(abs) && !c.files.WasRead(abs) {
		return models.TierAmbiguous, []string{"overwrites existing content that was never read this session"}
	}

	return models.TierSafe, nil
}

// outsidePathRefs scans command text for absolute path tokens that fall
// outside the sandbox. The second return is true when the command also
// shows write intent toward such a path (redirection or a mutating
// binary taking it as an argument).
func (c *Classifier) outsidePathRefs(command string) (referenced bool, written bool) {
	redirect := redirectTargetRe.FindAllStringSubmatch(command, -1)
	for _, m := range redirect {
		if c.pathOutside(m[1]) {
			return true, true
		}
	}

	mutating := mutatingBinaryRe.MatchString(command)
	for _, tok := range strings.Fields(command) {
		tok = strings.Trim(tok, `"'`)
		if !strings.HasPrefix(tok, "/") {
			continue
		}
		if c.pathOutside(tok) {
			if mutating {
				return true, true
			}
			referenced = true
		}
	}
	return referenced, false
}

func (c *Classifier) pathOutside(path string) bool {
	if !filepath.IsAbs(path) {
		return false
	}
	_, err := c.resolver.Abs(path)
	return err != nil
}

var (
	redirectTargetRe = regexp.MustCompile(`>>?\s*(/[^\s;|&]+)`)
	mutatingBinaryRe = regexp.MustCompile(`\b(rm|mv|cp|tee|dd|install|ln|truncate|shred)\b`)
)

// commandRoots extracts the root binary of each segment of a compound
// command (pipelines, && chains, ; sequences). Full paths reduce to
// their basename, mirroring how a denylist would match them.
func commandRoots(command string) []string {
	var roots []string
	for _, segment := range segmentRe.Split(command, -1) {
		fields := strings.Fields(segment)
		// Skip leading env assignments (FOO=bar cmd ...)
		for len(fields) > 0 && strings.Contains(fields[0], "=") && !strings.HasPrefix(fields[0], "/") {
			fields = fields[1:]
		}
		if len(fields) == 0 {
			continue
		}
		roots = append(roots, filepath.Base(fields[0]))
	}
	return roots
}

var segmentRe = regexp.MustCompile(`\|\|?|&&|;`)

func mutatingSubcommand(subcommand string) bool {
	for _, cmd := range fileedit.MutatingCommands() {
		if subcommand == cmd {
			return true
		}
	}
	return false
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if s, ok := args[key].(string); ok {
		return s
	}
	return ""
}
