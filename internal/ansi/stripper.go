package ansi

import (
	"strings"
)

type stripState int

const (
	stateText stripState = iota
	stateEscape
	stateCSI
)

// Stripper removes ANSI escape sequences from stream text. A sequence that
// is cut off at the end of one chunk is finished on the next call, so a
// single Stripper must be used per stream.
type Stripper struct {
	state   stripState
	pending strings.Builder
}

// NewStripper creates a new streaming ANSI stripper
func NewStripper() *Stripper {
	return &Stripper{}
}

// Strip returns chunk without escape sequences
func (s *Stripper) Strip(chunk string) string {
	var out strings.Builder
	out.Grow(len(chunk))

	for _, r := range chunk {
		switch s.state {
		case stateText:
			if r == '\x1b' {
				s.state = stateEscape
				s.pending.Reset()
				s.pending.WriteRune(r)
				continue
			}
			out.WriteRune(r)

		case stateEscape:
			if r == '[' {
				s.state = stateCSI
				s.pending.WriteRune(r)
				continue
			}
			// lone ESC, keep it as text
			out.WriteString(s.pending.String())
			out.WriteRune(r)
			s.pending.Reset()
			s.state = stateText

		case stateCSI:
			// parameters and intermediates until a final byte in @..~
			if r >= 0x40 && r <= 0x7e {
				s.pending.Reset()
				s.state = stateText
				continue
			}
			s.pending.WriteRune(r)
		}
	}

	return out.String()
}

// Pending reports whether an unfinished escape sequence is buffered
func (s *Stripper) Pending() bool {
	return s.state != stateText
}

// Reset drops any partially read sequence
func (s *Stripper) Reset() {
	s.state = stateText
	s.pending.Reset()
}

// StripString strips a complete string in one go
func StripString(text string) string {
	if !strings.ContainsRune(text, '\x1b') {
		return text
	}
	return NewStripper().Strip(text)
}
