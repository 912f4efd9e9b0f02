// Package stream splits a raw game stream into markup tags and window
// text and hands them to a plugin the way a game client would.
package stream

import (
	"regexp"
	"strings"

	"spelltimer/internal/ansi"
)

// MainWindow is the window text belongs to outside of a pushStream
const MainWindow = "main"

// Handler receives markup and window text. *plugin.Plugin satisfies it.
type Handler interface {
	ParseXML(xml string) string
	ParseText(text, window string) string
}

var streamIDPattern = regexp.MustCompile(`\bid=["']([^"']*)["']`)

// Dispatcher tracks the current stream window across lines
type Dispatcher struct {
	handler  Handler
	window   string
	stripper *ansi.Stripper

	tags  int
	texts int
}

// NewDispatcher creates a dispatcher that starts in the main window
func NewDispatcher(handler Handler) *Dispatcher {
	return &Dispatcher{
		handler:  handler,
		window:   MainWindow,
		stripper: ansi.NewStripper(),
	}
}

// Feed processes one line of the raw stream. Every tag goes to
// ParseXML; text between tags goes to ParseText with the window set by
// the last pushStream.
func (d *Dispatcher) Feed(line string) {
	rest := line
	for rest != "" {
		start := strings.IndexByte(rest, '<')
		if start < 0 {
			d.text(rest)
			return
		}
		if start > 0 {
			d.text(rest[:start])
		}

		end := strings.IndexByte(rest[start:], '>')
		if end < 0 {
			// unterminated tag, treat the remainder as text
			d.text(rest[start:])
			return
		}
		end += start + 1

		d.tag(rest[start:end])
		rest = rest[end:]
	}
}

func (d *Dispatcher) tag(tag string) {
	switch {
	case strings.HasPrefix(tag, "<pushStream"):
		if m := streamIDPattern.FindStringSubmatch(tag); m != nil {
			d.window = m[1]
		}
	case strings.HasPrefix(tag, "<popStream"):
		d.window = MainWindow
	}

	d.tags++
	d.handler.ParseXML(tag)
}

func (d *Dispatcher) text(text string) {
	clean := d.stripper.Strip(text)
	if clean == "" {
		return
	}
	d.texts++
	d.handler.ParseText(clean, d.window)
}

// Window returns the window text is currently routed to
func (d *Dispatcher) Window() string {
	return d.window
}

// Counts returns the number of tags and text runs dispatched
func (d *Dispatcher) Counts() (tags, texts int) {
	return d.tags, d.texts
}
