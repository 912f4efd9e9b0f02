package spells

import (
	"regexp"
	"strconv"
	"strings"

	"spelltimer/internal/log"
)

// OsrelMeraud reports its remaining power as a percentage instead of a
// roisaen count.
const OsrelMeraud = "Osrel Meraud"

var (
	spellPattern    = regexp.MustCompile(`(.+?)\s+\((.+)\)`)
	roisaenPattern  = regexp.MustCompile(`(\d+) roisae?n`)
	percentPattern  = regexp.MustCompile(`(\d+)%`)
	indefiniteMarks = map[string]bool{"Indefinite": true, "OM": true}
)

// Observation is a spell name and duration read from one status line
type Observation struct {
	Name     string
	Duration int
}

// MatchLine extracts a spell observation from a status window line.
//
// The line must end in a parenthesized payload, e.g. "Clumsiness (4 roisaen)".
// Duration rules are tried in order: Osrel Meraud's percentage, the
// literal payloads "Indefinite" and "OM" (case-sensitive, yielding
// Indefinite), then an "N roisaen"/"N roisan" count. A payload that fits
// none of them, or whose number does not parse, gives duration 0.
// Lines without a payload report false.
func MatchLine(line string) (Observation, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Observation{}, false
	}

	m := spellPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Observation{}, false
	}

	name, payload := m[1], m[2]
	return Observation{Name: name, Duration: parseDuration(name, payload)}, true
}

func parseDuration(name, payload string) int {
	switch {
	case name == OsrelMeraud:
		return leadingNumber(percentPattern, payload)
	case indefiniteMarks[payload]:
		return Indefinite
	default:
		return leadingNumber(roisaenPattern, payload)
	}
}

func leadingNumber(pattern *regexp.Regexp, payload string) int {
	m := pattern.FindStringSubmatch(payload)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		log.Debug("spell duration did not parse", "payload", payload, "error", err)
		return 0
	}
	return n
}
