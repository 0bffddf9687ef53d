package config

import (
	"fmt"
)

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	if c.BaseURL == "" {
		errs = append(errs, "base_url must not be empty")
	}
	if c.Model == "" {
		errs = append(errs, "model must not be empty")
	}
	if c.APIKeyEnv == "" && c.APIKey == "" {
		errs = append(errs, "one of api_key_env or api_key must be set")
	}

	switch c.AutoExecMode {
	case AutoExecSafe, AutoExecAll, AutoExecCustom:
	default:
		errs = append(errs, fmt.Sprintf("auto_exec_mode must be one of safe|all|custom, got %q", c.AutoExecMode))
	}

	if c.HistoryMaxMessages < 4 {
		errs = append(errs, "history_max_messages must be >= 4")
	}
	if c.HistoryMaxChars < 2000 {
		errs = append(errs, "history_max_chars must be >= 2000")
	}
	if c.AgentMaxSteps < 1 {
		errs = append(errs, "agent_max_steps must be >= 1")
	}
	if c.CommandTimeoutSeconds < 1 {
		errs = append(errs, "command_timeout_seconds must be >= 1")
	}
	if c.MaxOutputBytes < 1 {
		errs = append(errs, "max_output_bytes must be >= 1")
	}
	if c.LLMTimeoutSeconds < 1 {
		errs = append(errs, "llm_timeout_seconds must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
