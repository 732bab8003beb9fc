package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Model   string        `json:"model"`
	Sandbox SandboxConfig `json:"sandbox"`
	Policy  PolicyConfig  `json:"policy"`
	History HistoryConfig `json:"history"`
	Search  SearchConfig  `json:"search"`
}

// SandboxConfig constrains tool execution. All paths are interpreted
// relative to the workspace root unless absolute.
type SandboxConfig struct {
	// AllowedPathPrefixes lists directories (beyond the workspace root
	// itself) that tools may touch. Empty means workspace root only.
	AllowedPathPrefixes []string `json:"allowed_path_prefixes"`

	// TimeoutSeconds is the hard wall-clock limit per tool execution.
	TimeoutSeconds int `json:"timeout_seconds"` // Default: 600

	// MaxOutputBytes caps captured stdout/stderr per execution.
	MaxOutputBytes int64 `json:"max_output_bytes"` // Default: 10 * 1024 * 1024

	// GracefulShutdownMs is how long a timed-out or cancelled process
	// gets between SIGINT and SIGKILL.
	GracefulShutdownMs int `json:"graceful_shutdown_ms"` // Default: 2000

	// BinaryDetectionSampleSize is how many leading bytes of output are
	// inspected for binary content.
	BinaryDetectionSampleSize int `json:"binary_detection_sample_size"` // Default: 8000
}

// PolicyConfig is the risk-classification rule set. Patterns are
// regular expressions matched against the full shell command text.
type PolicyConfig struct {
	DestructivePatterns []string `json:"destructive_patterns"`
	AmbiguousPatterns   []string `json:"ambiguous_patterns"`

	// KnownBinaries are command roots considered safe when nothing else
	// about the command raises a signal.
	KnownBinaries []string `json:"known_binaries"`

	// DenyTools lists tool names that are always refused.
	DenyTools []string `json:"deny_tools"`

	// AutoApproveAmbiguous skips the confirmation prompt for
	// Ambiguous-tier calls. Destructive calls always prompt.
	AutoApproveAmbiguous bool `json:"auto_approve_ambiguous"`
}

// HistoryConfig bounds the conversation context.
type HistoryConfig struct {
	// MaxBytes is the budget for serialized history content. Oldest
	// turns are evicted first once the budget is exceeded.
	MaxBytes int `json:"max_bytes"` // Default: 512 * 1024

	// MaxTurns caps agent loop iterations per user input.
	MaxTurns int `json:"max_turns"` // Default: 50
}

// SearchConfig tunes the web search tool.
type SearchConfig struct {
	ResultLimit        int     `json:"result_limit"`        // Default: 10
	RelevanceThreshold float64 `json:"relevance_threshold"` // Default: 0.05
	FetchPerSecond     float64 `json:"fetch_per_second"`    // Default: 2
	FetchBurst         int     `json:"fetch_burst"`         // Default: 4
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model: "gemini-2.5-flash",
		Sandbox: SandboxConfig{
			AllowedPathPrefixes:       nil,
			TimeoutSeconds:            600,
			MaxOutputBytes:            10 * 1024 * 1024,
			GracefulShutdownMs:        2000,
			BinaryDetectionSampleSize: 8000,
		},
		Policy: PolicyConfig{
			DestructivePatterns: []string{
				`\brm\s+-[a-zA-Z]*[rf]`,
				`\bmkfs(\.[a-z0-9]+)?\b`,
				`\bdd\b.*\bof=/dev/`,
				`\b(sudo|doas)\b`,
				`\b(curl|wget)\b[^|]*\|\s*(sh|bash|zsh|python[0-9.]*|perl|ruby)\b`,
				`\bchmod\s+(-[a-zA-Z]*R\b|777\b)`,
				`\bchown\s+-[a-zA-Z]*R\b`,
				`>\s*/dev/(sd|nvme|vd)`,
				`\b(shutdown|reboot|halt|poweroff)\b`,
				`\bgit\s+push\s+.*--force\b`,
			},
			AmbiguousPatterns: []string{
				`\b(ssh|scp|sftp|rsync|telnet|nc|ncat)\b`,
				`\b(apt|apt-get|yum|dnf|pacman|brew)\s+(install|remove|upgrade)\b`,
				`\b(npm|pip|pip3|gem|cargo)\s+install\b`,
				`\bip\s+(link|addr|route)\b`,
				`\biptables\b`,
				`\bgit\s+push\b`,
			},
			KnownBinaries: []string{
				"ls", "cat", "head", "tail", "grep", "rg", "find", "wc",
				"echo", "pwd", "which", "file", "stat", "du", "df", "env",
				"date", "uname", "whoami", "ps", "sort", "uniq", "cut", "tr",
				"diff", "sed", "awk", "git", "go", "make", "python", "python3",
				"node", "npm", "cargo", "tar", "gzip", "gunzip", "mkdir",
				"touch", "cp", "mv",
			},
			DenyTools:            nil,
			AutoApproveAmbiguous: false,
		},
		History: HistoryConfig{
			MaxBytes: 512 * 1024,
			MaxTurns: 50,
		},
		Search: SearchConfig{
			ResultLimit:        10,
			RelevanceThreshold: 0.05,
			FetchPerSecond:     2,
			FetchBurst:         4,
		},
	}
}
