package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding"

	"spelltimer/internal/log"
	"spelltimer/internal/stream"
)

func replayFile(ctx context.Context, name string, d *stream.Dispatcher, dec *encoding.Decoder) error {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("failed to open stream %s: %w", name, err)
		}
		defer f.Close()
		r = f
	}

	lines, err := stream.Replay(ctx, r, d, dec)
	if err != nil {
		return fmt.Errorf("replay %s: %w", name, err)
	}
	log.Info("replayed stream", "file", name, "lines", lines)
	return nil
}
