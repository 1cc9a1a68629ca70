package main

import (
	"strings"

	"golang.org/x/term"
)

var isTerminalFunc = term.IsTerminal // mockable

// confirmer asks on the terminal. Without a terminal every deletion is declined unless auto is set.
type confirmer struct {
	cli  *commandLine
	auto bool
}

func (c *confirmer) Confirm(prompt string) bool {
	if c.auto {
		return true
	}
	if !isTerminalFunc(c.cli.stdinFd) {
		c.cli.printf("%s (use -yes fora de um terminal)\n", prompt)
		return false
	}
	c.cli.printf("%s [s/N] ", prompt)
	lines := c.cli.scanner()
	if !lines.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(lines.Text()))
	return answer == "s" || answer == "sim"
}

type alerter struct {
	cli *commandLine
}

func (a alerter) Alert(msg string) {
	a.cli.printf("\n*** %s\n\n", msg)
}
