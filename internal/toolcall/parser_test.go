package toolcall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_InlineJSONWithSurroundingProse(t *testing.T) {
	p := NewParser(nil)

	res := p.Parse("Sure, done.\n{\"tool_calls\":[{\"tool\":\"shell\",\"command\":\"ls\"}]}")

	require.Len(t, res.Calls, 1)
	assert.Equal(t, KindShell, res.Calls[0].Kind)
	assert.Equal(t, "ls", res.Calls[0].Command)
	assert.Equal(t, HintNone, res.Hint)
	assert.False(t, res.Terminal())
}

func TestParse_JSONFence(t *testing.T) {
	p := NewParser(nil)

	raw := "I'll check the files first.\n```json\n{\"tool_calls\":[{\"tool\":\"shell\",\"command\":\"rg --files\"},{\"tool\":\"shell\",\"command\":\"cat go.mod\"}]}\n```\nThen I'll continue."
	res := p.Parse(raw)

	require.Len(t, res.Calls, 2)
	assert.Equal(t, "rg --files", res.Calls[0].Command)
	assert.Equal(t, "cat go.mod", res.Calls[1].Command)
}

func TestParse_MalformedDoubleBacktickFence(t *testing.T) {
	p := NewParser(nil)

	raw := "``json\n{\"tool_calls\":[{\"tool\":\"shell\",\"command\":\"pwd\"}]}\n``"
	res := p.Parse(raw)

	require.Len(t, res.Calls, 1)
	assert.Equal(t, "pwd", res.Calls[0].Command)
}

func TestParse_FencedBlockNotCollectedTwice(t *testing.T) {
	p := NewParser(nil)

	raw := "```json\n{\"tool_calls\":[{\"tool\":\"shell\",\"command\":\"ls\"}]}\n```"
	res := p.Parse(raw)

	assert.Len(t, res.Calls, 1)
}

func TestParse_KeyAliases(t *testing.T) {
	p := NewParser(nil)

	res := p.Parse(`{"tool_calls":[{"type":"shell","cmd":"git status"}]}`)

	require.Len(t, res.Calls, 1)
	assert.Equal(t, "git status", res.Calls[0].Command)
}

func TestParse_UnrecognizedToolDropped_SiblingsKept(t *testing.T) {
	p := NewParser(nil)

	res := p.Parse(`{"tool_calls":[{"tool":"browser","command":"open x"},{"tool":"shell","command":"ls"}]}`)

	require.Len(t, res.Calls, 1)
	assert.Equal(t, "ls", res.Calls[0].Command)
}

func TestParse_PlainTextIsTerminal(t *testing.T) {
	p := NewParser(nil)

	res := p.Parse("The refactor is complete. No further commands are needed.")

	assert.Empty(t, res.Calls)
	assert.Equal(t, HintNone, res.Hint)
	assert.True(t, res.Terminal())
}

func TestParse_MalformedJSONYieldsHintNotError(t *testing.T) {
	p := NewParser(nil)

	res := p.Parse(`I'll run this: {"tool_calls":[{"tool":"shell","command":"ls"` + "\n(truncated)")

	assert.Empty(t, res.Calls)
	assert.Equal(t, HintMalformed, res.Hint)
	assert.False(t, res.Terminal())
}

func TestParse_LegacyShellFenceHint(t *testing.T) {
	p := NewParser(nil)

	res := p.Parse("Run this:\n```bash\nrm -rf build\n```")

	assert.Empty(t, res.Calls)
	assert.Equal(t, HintLegacyShellBlock, res.Hint)
}

func TestParse_ProseResemblingJSONIgnored(t *testing.T) {
	p := NewParser(nil)

	// A JSON-ish object without the tool_calls key is commentary.
	res := p.Parse(`The config is {"model": "gpt-4o-mini", "timeout": 30}.`)

	assert.Empty(t, res.Calls)
	assert.True(t, res.Terminal())
}

func TestParse_EmptyCommandSkipped(t *testing.T) {
	p := NewParser(nil)

	res := p.Parse(`{"tool_calls":[{"tool":"shell","command":"  "}]}`)

	assert.Empty(t, res.Calls)
}

func TestParse_BracesInsideStringsHandled(t *testing.T) {
	p := NewParser(nil)

	res := p.Parse(`{"tool_calls":[{"tool":"shell","command":"echo '{\"a\": 1}'"}]}`)

	require.Len(t, res.Calls, 1)
	assert.Equal(t, `echo '{"a": 1}'`, res.Calls[0].Command)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "shell", KindShell.String())
}
