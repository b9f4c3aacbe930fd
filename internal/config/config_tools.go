package config

import "time"

// ToolsConfig configures the tool registry and the per-tool policy engine (C6).
type ToolsConfig struct {
	Policies  ToolPoliciesConfig  `yaml:"policies"`
	Execution ToolExecutionConfig `yaml:"execution"`
	Elevated  ElevatedConfig      `yaml:"elevated"`
}

// ToolPoliciesConfig defines default allow/confirm/deny policies for tools.
type ToolPoliciesConfig struct {
	// Default policy behavior: "allow", "confirm", or "deny".
	Default string `yaml:"default"`
	// Rules define per-tool policy overrides.
	Rules []ToolPolicyRule `yaml:"rules"`
}

// ToolPolicyRule defines a policy action for a tool, optionally scoped by channel.
type ToolPolicyRule struct {
	Tool     string   `yaml:"tool"`
	Action   string   `yaml:"action"` // "allow" | "confirm" | "deny"
	Channels []string `yaml:"channels"`
}

// ToolExecutionConfig controls runtime tool execution behavior.
type ToolExecutionConfig struct {
	MaxToolLoops    int                   `yaml:"max_tool_loops"`
	Parallelism     int                   `yaml:"parallelism"`
	Timeout         time.Duration         `yaml:"timeout"`
	MaxAttempts     int                   `yaml:"max_attempts"`
	RetryBackoff    time.Duration         `yaml:"retry_backoff"`
	DisableEvents   bool                  `yaml:"disable_events"`
	MaxToolCalls    int                   `yaml:"max_tool_calls"`
	Approval        ApprovalConfig        `yaml:"approval"`
	ResultGuard     ToolResultGuardConfig `yaml:"result_guard"`
}

// ApprovalConfig controls the "confirm" policy action's async approval flow.
type ApprovalConfig struct {
	// DefaultDecision when no rule matches: "allowed", "denied", or "pending".
	DefaultDecision string `yaml:"default_decision"`

	// RequestTTL is how long approval requests remain valid.
	RequestTTL time.Duration `yaml:"request_ttl"`
}

// ToolResultGuardConfig controls truncation of tool results before persistence
// (§4.6 MAX_RESPONSE_LENGTH).
type ToolResultGuardConfig struct {
	Enabled        bool   `yaml:"enabled"`
	MaxChars       int    `yaml:"max_chars"`
	TruncateSuffix string `yaml:"truncate_suffix"`
}

// ElevatedConfig controls elevated tool execution behavior and allowlists.
type ElevatedConfig struct {
	// Enabled gates elevated execution. When nil, elevated is disabled by default.
	Enabled *bool `yaml:"enabled"`

	// AllowFrom maps channel/provider to allowed sender identifiers.
	// Example: {"telegram": ["12345", "67890"], "discord": ["*"]}
	AllowFrom map[string][]string `yaml:"allow_from"`

	// Tools lists tool patterns that elevated-full can bypass approvals for.
	Tools []string `yaml:"tools"`
}
