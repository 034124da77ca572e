package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openjudge/judgectl/stepup"
)

// terminalPrompter is the CLI's step-up confirmation surface. Each round it
// shows the challenge and reads one line: a 6-digit code, "r" to resend, or
// "q" to cancel.
type terminalPrompter struct {
	in *bufio.Reader
}

func newTerminalPrompter() *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(os.Stdin)}
}

func (p *terminalPrompter) Prompt(ctx context.Context, ch stepup.Challenge) (stepup.Action, error) {
	fmt.Fprintf(os.Stderr, "\nConfirm sensitive operation: %s\n", ch.Operation)
	fmt.Fprintf(os.Stderr, "A verification code was sent to %s.\n", ch.MaskedEmail)
	if ch.Message != "" {
		fmt.Fprintf(os.Stderr, "! %s\n", ch.Message)
	}
	if ch.CooldownLeft > 0 {
		fmt.Fprintf(os.Stderr, "Enter code, or q to cancel (resend in %ds): ", ch.CooldownLeft)
	} else {
		fmt.Fprint(os.Stderr, "Enter code, r to resend, or q to cancel: ")
	}

	line, err := p.in.ReadString('\n')
	if err != nil {
		return stepup.Action{Kind: stepup.ActionCancel}, nil
	}
	switch line = strings.TrimSpace(line); line {
	case "q", "Q", "":
		return stepup.Action{Kind: stepup.ActionCancel}, nil
	case "r", "R":
		return stepup.Action{Kind: stepup.ActionResend}, nil
	default:
		return stepup.Action{Kind: stepup.ActionConfirm, Code: line}, nil
	}
}

type stderrNotifier struct{}

func (stderrNotifier) Notify(message string) {
	fmt.Fprintln(os.Stderr, message)
}
