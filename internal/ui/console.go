package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/halcyondev/shellm/internal/workspace"
)

// Console is the line-oriented terminal surface: prompts, styled notices,
// and markdown rendering for assistant replies.
type Console struct {
	in       *bufio.Reader
	out      io.Writer
	renderer *glamour.TermRenderer
}

// NewConsole wraps the given streams. Markdown rendering degrades to plain
// text when the terminal renderer cannot be initialized.
func NewConsole(in io.Reader, out io.Writer) *Console {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		renderer = nil
	}
	return &Console{
		in:       bufio.NewReader(in),
		out:      out,
		renderer: renderer,
	}
}

// ReadLine shows prompt and returns one trimmed input line. io.EOF is
// passed through so the caller can treat ctrl-d as exit.
func (c *Console) ReadLine(prompt string) (string, error) {
	fmt.Fprint(c.out, promptStyle.Render(prompt))
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Markdown renders assistant text for the terminal.
func (c *Console) Markdown(text string) {
	if c.renderer != nil {
		if rendered, err := c.renderer.Render(text); err == nil {
			fmt.Fprint(c.out, rendered)
			return
		}
	}
	fmt.Fprintln(c.out, text)
}

// Tool prints a command announcement line.
func (c *Console) Tool(command string) {
	fmt.Fprintln(c.out, toolStyle.Render("$ "+command))
}

// ToolOutput prints captured command output without styling.
func (c *Console) ToolOutput(output string) {
	output = strings.TrimRight(output, "\n")
	if output == "" {
		return
	}
	fmt.Fprintln(c.out, output)
}

// Notice prints a dim informational line.
func (c *Console) Notice(format string, args ...any) {
	fmt.Fprintln(c.out, noticeStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error line.
func (c *Console) Error(format string, args ...any) {
	fmt.Fprintln(c.out, errorStyle.Render(fmt.Sprintf(format, args...)))
}

// Changes prints the changed-file delta for the last turn, one file per
// line with a +/~/- marker. An empty delta prints nothing.
func (c *Console) Changes(delta workspace.ChangeDelta) {
	if delta.Empty() {
		return
	}
	fmt.Fprintln(c.out, noticeStyle.Render("changed files:"))
	for _, f := range delta.Added {
		fmt.Fprintln(c.out, addedStyle.Render("  + "+f))
	}
	for _, f := range delta.Touched {
		fmt.Fprintln(c.out, touchedStyle.Render("  ~ "+f))
	}
	for _, f := range delta.Reverted {
		fmt.Fprintln(c.out, revertedStyle.Render("  - "+f))
	}
}
