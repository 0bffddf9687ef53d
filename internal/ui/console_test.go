package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyondev/shellm/internal/workspace"
)

func newTestConsole(input string) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(input), &out)
	c.renderer = nil // deterministic plain-text output
	return c, &out
}

func TestReadLine(t *testing.T) {
	c, _ := newTestConsole("  hello world  \n")
	line, err := c.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "hello world", line)
}

func TestReadLine_EOFWithoutInput(t *testing.T) {
	c, _ := newTestConsole("")
	_, err := c.ReadLine("> ")
	assert.Error(t, err)
}

func TestReadLine_LastLineWithoutNewline(t *testing.T) {
	c, _ := newTestConsole("final")
	line, err := c.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "final", line)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  ConfirmDecision
	}{
		{"y\n", ConfirmYes},
		{"yes\n", ConfirmYes},
		{"N\n", ConfirmNo},
		{"a\n", ConfirmAlways},
		{"q\n", ConfirmQuit},
		{"huh\nwhat\ny\n", ConfirmYes}, // reprompts until recognized
		{"", ConfirmQuit},              // EOF stops the batch
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			c, _ := newTestConsole(tt.input)
			got, err := c.Confirm("rm -rf tmp")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChanges(t *testing.T) {
	c, out := newTestConsole("")
	c.Changes(workspace.ChangeDelta{
		Added:    []string{"new.go"},
		Touched:  []string{"main.go"},
		Reverted: []string{"old.go"},
	})

	s := out.String()
	assert.Contains(t, s, "+ new.go")
	assert.Contains(t, s, "~ main.go")
	assert.Contains(t, s, "- old.go")
}

func TestChanges_EmptyPrintsNothing(t *testing.T) {
	c, out := newTestConsole("")
	c.Changes(workspace.ChangeDelta{})
	assert.Empty(t, out.String())
}

func TestToolOutput_SkipsEmpty(t *testing.T) {
	c, out := newTestConsole("")
	c.ToolOutput("\n")
	assert.Empty(t, out.String())

	c.ToolOutput("result\n")
	assert.Equal(t, "result\n", out.String())
}
