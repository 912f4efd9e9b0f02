// Package spells tracks named spell timers observed in a status window.
//
// Lines from the window are matched into observations, observations
// refresh timers in a Registry, and a Cycle sweeps timers that were not
// seen between a clear marker and the following prompt.
package spells

import "strings"

// Indefinite is the remaining duration recorded for spells without a
// countdown ("Indefinite" or "OM").
const Indefinite = 999

// Timer is one tracked spell. Timers are never removed from a Registry;
// they only toggle between active and inactive.
type Timer struct {
	ID          string // normalized name, unique within a Registry
	DisplayName string // name as first seen
	Alias       string
	Category    string
	Remaining   int
	Active      bool
}

// IsIndefinite reports whether the timer carries the unlimited sentinel
func (t *Timer) IsIndefinite() bool {
	return t.Remaining == Indefinite
}

func (t *Timer) deactivate() {
	t.Active = false
	t.Remaining = 0
}

var nameStripper = strings.NewReplacer(" ", "", "'", "", "-", "")

// Normalize turns a display name into a timer id by removing spaces,
// apostrophes and hyphens. Case is preserved.
func Normalize(name string) string {
	return nameStripper.Replace(name)
}
