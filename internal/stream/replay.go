package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"spelltimer/internal/log"
)

const maxLineSize = 1 << 20

// NewDecoder returns the decoder for a configured encoding name. UTF-8
// input needs no decoding and yields nil.
func NewDecoder(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "cp437":
		return charmap.CodePage437.NewDecoder(), nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
}

// Replay feeds every line of r to d, decoding with dec when it is not
// nil. It stops early when ctx is cancelled and returns the number of
// lines fed.
func Replay(ctx context.Context, r io.Reader, d *Dispatcher, dec *encoding.Decoder) (int, error) {
	if dec != nil {
		r = dec.Reader(r)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lines := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return lines, err
		}
		d.Feed(scanner.Text() + "\n")
		lines++
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("failed to read stream: %w", err)
	}

	tags, texts := d.Counts()
	log.Debug("stream replayed", "lines", lines, "tags", tags, "texts", texts)
	return lines, nil
}
