package toolcall

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// Parser scans raw model text for tool calls. Malformed JSON never produces
// an error: the caller sees zero calls plus a hint.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a Parser. A nil logger is replaced with a no-op one.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Parse extracts tool calls from one model response. Fenced ```json blocks
// are scanned first; only when no fence yields calls does the inline
// balanced-brace scan run, so a fenced block is never collected twice.
func (p *Parser) Parse(raw string) Result {
	var calls []Call
	p.collectFromFence(raw, "```json", "```", false, &calls)
	// Some models emit a malformed ``json ... `` fence; accept it as a
	// compatibility fallback.
	p.collectFromFence(raw, "``json", "``", true, &calls)
	if len(calls) == 0 {
		p.collectInline(raw, &calls)
	}

	if len(calls) > 0 {
		return Result{Calls: calls}
	}
	if containsLegacyShellBlock(raw) {
		return Result{Hint: HintLegacyShellBlock}
	}
	if containsToolCallHint(raw) {
		return Result{Hint: HintMalformed}
	}
	return Result{}
}

func (p *Parser) collectFromFence(text, open, close string, skipIfPrevBacktick bool, out *[]Call) {
	i := 0
	for i < len(text) {
		pos := strings.Index(text[i:], open)
		if pos < 0 {
			return
		}
		openIdx := i + pos
		if skipIfPrevBacktick && openIdx > 0 && text[openIdx-1] == '`' {
			i = openIdx + len(open)
			continue
		}

		start := openIdx + len(open)
		for start < len(text) && (text[start] == ' ' || text[start] == '\t' || text[start] == '\r' || text[start] == '\n') {
			start++
		}
		if start >= len(text) {
			return
		}

		endRel := strings.Index(text[start:], close)
		if endRel < 0 {
			return
		}

		block := strings.TrimSpace(text[start : start+endRel])
		if block != "" {
			var value any
			if err := json.Unmarshal([]byte(block), &value); err == nil {
				p.collectFromValue(value, out)
			}
		}
		i = start + endRel + len(close)
	}
}

// collectInline finds balanced top-level JSON objects that carry a
// tool_calls key, skipping over prose that merely resembles JSON.
func (p *Parser) collectInline(text string, out *[]Call) {
	i := 0
	for i < len(text) {
		if text[i] != '{' {
			i++
			continue
		}
		end, ok := matchingBrace(text, i)
		if !ok {
			i++
			continue
		}
		candidate := text[i : end+1]
		if strings.Contains(candidate, `"tool_calls"`) {
			var value any
			if err := json.Unmarshal([]byte(candidate), &value); err == nil {
				p.collectFromValue(value, out)
				i = end + 1
				continue
			}
		}
		i++
	}
}

// matchingBrace returns the index of the brace closing the object starting
// at start, ignoring braces inside JSON strings.
func matchingBrace(text string, start int) (int, bool) {
	if start >= len(text) || text[start] != '{' {
		return 0, false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		b := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// callDTO is the tolerated wire shape of one call entry. tool/type and
// command/cmd are accepted as aliases.
type callDTO struct {
	Tool    string `mapstructure:"tool"`
	Type    string `mapstructure:"type"`
	Command string `mapstructure:"command"`
	Cmd     string `mapstructure:"cmd"`
}

func (p *Parser) collectFromValue(value any, out *[]Call) {
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			p.collectFromValue(item, out)
		}
	case map[string]any:
		if calls, ok := v["tool_calls"]; ok {
			p.collectFromValue(calls, out)
			return
		}
		var dto callDTO
		if err := mapstructure.Decode(v, &dto); err != nil {
			return
		}
		name := strings.ToLower(strings.TrimSpace(firstNonEmpty(dto.Tool, dto.Type)))
		command := strings.TrimSpace(firstNonEmpty(dto.Command, dto.Cmd))
		if name == "" || command == "" {
			return
		}
		kind, ok := kindFromName(name)
		if !ok {
			p.logger.Warn("dropping unrecognized tool in tool_calls", zap.String("tool", name))
			return
		}
		*out = append(*out, Call{Kind: kind, Command: command})
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func containsLegacyShellBlock(text string) bool {
	t := strings.ToLower(text)
	for _, fence := range []string{"```bash", "```sh", "```powershell", "```pwsh", "```cmd"} {
		if strings.Contains(t, fence) {
			return true
		}
	}
	return false
}

func containsToolCallHint(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "tool_calls") ||
		strings.Contains(t, `"tool"`) ||
		strings.Contains(t, "```json") ||
		strings.Contains(t, "``json")
}
