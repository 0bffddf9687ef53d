package config

import "strings"

// RenderPromptVars substitutes {{name}} tokens with values from vars.
// Unknown tokens are left untouched.
func RenderPromptVars(input string, vars map[string]string) string {
	out := input
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

// CurrentPromptText returns the active prompt preset with variables applied.
// Falls back to the built-in default preset when the active name is missing.
func (c *Config) CurrentPromptText() string {
	raw, ok := c.Prompts[c.ActivePrompt]
	if !ok {
		raw = DefaultPrompts()["default"]
	}
	return RenderPromptVars(raw, c.PromptVars)
}

// BuildSystemPrompt assembles the system message for one turn. The mode
// suffix steers the model toward chat, review, or edit behavior.
func (c *Config) BuildSystemPrompt(mode string) string {
	var b strings.Builder
	b.WriteString(c.CurrentPromptText())
	switch mode {
	case "review":
		b.WriteString("\nYou are a senior code reviewer.")
	case "edit":
		b.WriteString("\nYou are a careful code editor.")
	case "chat":
		b.WriteString("\nYou are in terminal coding assistant chat mode.")
	}
	return b.String()
}
