package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"moderated-chat/internal/domain"
	"moderated-chat/internal/types"
)

// Responder is the pipeline contract the adapter renders.
type Responder interface {
	Respond(ctx context.Context, userText string) (*domain.Outcome, error)
}

// Loop is the command-line read-process-print loop. One pipeline call per
// user turn, no concurrency, no shared state across turns.
type Loop struct {
	pipe   Responder
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// New creates a new command-line loop
func New(pipe Responder, in io.Reader, out, errOut io.Writer) *Loop {
	return &Loop{pipe: pipe, in: in, out: out, errOut: errOut}
}

// Run reads one line per turn until EOF or an exit command. Empty input and
// service errors are reported and the loop continues; a flagged verdict
// prints the rejection notice instead of a reply.
func (l *Loop) Run(ctx context.Context) error {
	fmt.Fprintln(l.out, "Welcome to the moderated chat. Type 'exit' to quit.")

	scanner := bufio.NewScanner(l.in)
	for {
		fmt.Fprint(l.out, "You: ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "exit", "quit":
			fmt.Fprintln(l.out, "Goodbye!")
			return nil
		}

		outcome, err := l.pipe.Respond(ctx, line)
		if err != nil {
			if errors.Is(err, types.ErrEmptyInput) {
				// Recovered locally by prompting again
				continue
			}
			fmt.Fprintf(l.errOut, "Error: %v\n", err)
			continue
		}

		if outcome.Rejected {
			fmt.Fprintf(l.out, "%s\n\n", outcome.Notice)
			continue
		}
		fmt.Fprintf(l.out, "Assistant: %s\n\n", outcome.Reply)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintln(l.out, "Goodbye!")
	return nil
}
