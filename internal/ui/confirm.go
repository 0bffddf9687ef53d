package ui

import (
	"fmt"
	"io"
	"strings"
)

// ConfirmDecision is the operator's answer to an execution prompt.
type ConfirmDecision int

const (
	ConfirmNo ConfirmDecision = iota
	ConfirmYes
	ConfirmAlways // run and trust the command prefix from now on
	ConfirmQuit   // stop the rest of this batch
)

// Confirm asks whether command may run and reads y/n/a/q. Unrecognized
// input reprompts; EOF counts as quit.
func (c *Console) Confirm(command string) (ConfirmDecision, error) {
	fmt.Fprintln(c.out, confirmStyle.Render("run? "+command))
	for {
		fmt.Fprint(c.out, confirmKeyHint.Render("[y]es / [n]o / [a]lways / [q]uit batch: "))
		line, err := c.in.ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			if err == io.EOF {
				return ConfirmQuit, nil
			}
			return ConfirmNo, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return ConfirmYes, nil
		case "n", "no":
			return ConfirmNo, nil
		case "a", "always":
			return ConfirmAlways, nil
		case "q", "quit":
			return ConfirmQuit, nil
		}
	}
}
