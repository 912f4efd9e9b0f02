package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"spelltimer/internal/plugin"
	"spelltimer/internal/stream"
)

// shell reads client input interactively. Lines starting with "/" are
// typed commands; anything else is treated as raw stream from the game.
type shell struct {
	rl *readline.Instance
}

func newShell() (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "spelltimer> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &shell{rl: rl}, nil
}

func (s *shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

func (s *shell) Close() error {
	return s.rl.Close()
}

func (s *shell) Run(ctx context.Context, p *plugin.Plugin, d *stream.Dispatcher) error {
	fmt.Fprintln(s.rl.Stdout(), "Type /spelltimer for the listing, raw stream lines to feed the tracker, exit to quit.")

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}

		input := strings.TrimSpace(line)
		switch {
		case input == "":
			continue
		case input == "exit" || input == "quit":
			return nil
		case strings.HasPrefix(input, "/"):
			if rest := p.ParseInput(line); rest != "" {
				fmt.Fprintf(s.rl.Stdout(), "unknown command: %s\n", input)
			}
		default:
			d.Feed(line + "\n")
		}
	}
}
