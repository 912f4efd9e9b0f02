package spells

import (
	"fmt"
	"sort"
	"strings"

	"spelltimer/internal/log"
)

const lookupFields = 3

// LookupEntry is the static alias and category known for a spell
type LookupEntry struct {
	ID       string
	Name     string
	Alias    string
	Category string
}

// RecordError describes a lookup record that was skipped
type RecordError struct {
	Line   int
	Record string
	Fields int
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: expected %d fields, got %d: %q", e.Line, lookupFields, e.Fields, e.Record)
}

// Source provides the raw lookup data. ok is false when the resource
// does not exist.
type Source interface {
	Load(resource string) (data string, ok bool)
}

// Lookup is the static spell table keyed by normalized id. It is filled
// at most once and read-only afterwards. A nil *Lookup behaves as empty.
type Lookup struct {
	entries map[string]LookupEntry
	loaded  bool
}

// NewLookup creates an empty, unloaded table
func NewLookup() *Lookup {
	return &Lookup{entries: make(map[string]LookupEntry)}
}

// LoadFrom reads resource from src and loads it. It returns false when
// the resource is missing, leaving the table empty and loadable later.
func (l *Lookup) LoadFrom(src Source, resource string) (bool, []*RecordError) {
	if l.loaded {
		return true, nil
	}
	data, ok := src.Load(resource)
	if !ok {
		log.Info("spell lookup not available", "resource", resource)
		return false, nil
	}
	return true, l.Load(data)
}

// Load parses name|alias|category records. Malformed records are skipped
// and returned. Calls after the first successful load do nothing.
func (l *Lookup) Load(data string) []*RecordError {
	if l.loaded {
		return nil
	}

	var skipped []*RecordError
	for i, line := range strings.Split(data, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) != lookupFields {
			rerr := &RecordError{Line: i + 1, Record: line, Fields: len(fields)}
			log.Warn("invalid spell config", "error", rerr)
			skipped = append(skipped, rerr)
			continue
		}

		name := fields[0]
		alias := fields[1]
		if alias == "" {
			alias = name
		}
		id := Normalize(name)
		l.entries[id] = LookupEntry{ID: id, Name: name, Alias: alias, Category: fields[2]}
	}

	l.loaded = true
	log.Debug("spell lookup loaded", "entries", len(l.entries), "skipped", len(skipped))
	return skipped
}

// Get returns the entry for a normalized id
func (l *Lookup) Get(id string) (LookupEntry, bool) {
	if l == nil {
		return LookupEntry{}, false
	}
	e, ok := l.entries[id]
	return e, ok
}

// Entries returns all entries ordered by id
func (l *Lookup) Entries() []LookupEntry {
	if l == nil {
		return nil
	}
	out := make([]LookupEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of loaded entries
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Loaded reports whether data has been loaded
func (l *Lookup) Loaded() bool {
	return l != nil && l.loaded
}
