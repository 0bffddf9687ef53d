package config

// AutoExecMode selects which shell commands are eligible for automatic
// execution.
type AutoExecMode string

const (
	// AutoExecSafe permits only a fixed whitelist of read-only commands.
	AutoExecSafe AutoExecMode = "safe"
	// AutoExecAll permits every command not matched by the deny list.
	AutoExecAll AutoExecMode = "all"
	// AutoExecCustom permits only commands matching an allow-list prefix.
	AutoExecCustom AutoExecMode = "custom"
)

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	// LLM endpoint
	BaseURL   string `json:"base_url"`
	Model     string `json:"model"`
	APIKeyEnv string `json:"api_key_env"`
	APIKey    string `json:"api_key,omitempty"`

	// Prompts
	Prompts      map[string]string `json:"prompts"`
	ActivePrompt string            `json:"active_prompt"`
	PromptVars   map[string]string `json:"prompt_vars,omitempty"`

	// Command auto-execution policy
	AutoExecMode    AutoExecMode `json:"auto_exec_mode"`
	AutoExecAllow   []string     `json:"auto_exec_allow,omitempty"`
	AutoExecDeny    []string     `json:"auto_exec_deny,omitempty"`
	AutoExecTrusted []string     `json:"auto_exec_trusted,omitempty"`
	AutoConfirmExec bool         `json:"auto_confirm_exec"`

	// History compaction budgets
	HistoryMaxMessages int `json:"history_max_messages"`
	HistoryMaxChars    int `json:"history_max_chars"`

	// Agent loop
	AgentMaxSteps int `json:"agent_max_steps"`

	// Command execution
	CommandTimeoutSeconds int   `json:"command_timeout_seconds"`
	MaxOutputBytes        int64 `json:"max_output_bytes"`

	// LLM request
	LLMTimeoutSeconds int `json:"llm_timeout_seconds"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "https://api.openai.com/v1",
		Model:     "gpt-4o-mini",
		APIKeyEnv: "OPENAI_API_KEY",

		Prompts:      DefaultPrompts(),
		ActivePrompt: "default",

		AutoExecMode:    AutoExecSafe,
		AutoConfirmExec: true,

		HistoryMaxMessages: 40,
		HistoryMaxChars:    24000,

		AgentMaxSteps: 3,

		CommandTimeoutSeconds: 120,
		MaxOutputBytes:        512 * 1024,

		LLMTimeoutSeconds: 900,
	}
}

// DefaultPrompts returns the built-in prompt presets. The "default" preset
// always exists; Load restores it if a dotfile removed it.
func DefaultPrompts() map[string]string {
	return map[string]string{
		"default": "You are a pragmatic senior software engineer. Keep responses concise and actionable.",
		"review":  "Focus on correctness, regressions, security risks, and missing tests. Prioritize high-severity findings.",
		"edit":    "Keep changes minimal, preserve behavior unless asked, and do not introduce unrelated refactors.",
	}
}
