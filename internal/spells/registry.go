package spells

import "sort"

// Registry maps normalized ids to timers and tracks which ids were seen
// in the current cycle. It is not safe for concurrent use; hosts must
// serialize calls.
type Registry struct {
	timers map[string]*Timer
	seen   map[string]struct{}
	lookup *Lookup
}

// NewRegistry creates an empty registry. lookup may be nil.
func NewRegistry(lookup *Lookup) *Registry {
	return &Registry{
		timers: make(map[string]*Timer),
		seen:   make(map[string]struct{}),
		lookup: lookup,
	}
}

// FindOrCreate returns the timer for name, creating an inactive one
// seeded from the lookup table when it does not exist yet.
func (r *Registry) FindOrCreate(name string) *Timer {
	id := Normalize(name)
	if t, ok := r.timers[id]; ok {
		return t
	}

	t := &Timer{ID: id, DisplayName: name, Alias: name}
	if entry, ok := r.lookup.Get(id); ok {
		if entry.Alias != "" {
			t.Alias = entry.Alias
		}
		t.Category = entry.Category
	}
	r.timers[id] = t
	return t
}

// RecordObservation refreshes the named timer and marks it seen
func (r *Registry) RecordObservation(name string, duration int) *Timer {
	t := r.FindOrCreate(name)
	t.Remaining = duration
	t.Active = true
	r.seen[t.ID] = struct{}{}
	return t
}

// BeginCycle forgets which timers were seen
func (r *Registry) BeginCycle() {
	clear(r.seen)
}

// EndCycle deactivates every timer not seen since BeginCycle
func (r *Registry) EndCycle() {
	for id, t := range r.timers {
		if _, ok := r.seen[id]; !ok {
			t.deactivate()
		}
	}
}

// Preload creates an inactive placeholder for every lookup entry that
// has no timer yet. It returns the number of timers created.
func (r *Registry) Preload() int {
	created := 0
	for _, entry := range r.lookup.Entries() {
		if _, ok := r.timers[entry.ID]; ok {
			continue
		}
		r.FindOrCreate(entry.Name)
		created++
	}
	return created
}

// Get returns the timer with the given normalized id
func (r *Registry) Get(id string) (*Timer, bool) {
	t, ok := r.timers[id]
	return t, ok
}

// Seen reports whether id was observed since the last BeginCycle
func (r *Registry) Seen(id string) bool {
	_, ok := r.seen[id]
	return ok
}

// Len returns the number of tracked timers
func (r *Registry) Len() int {
	return len(r.timers)
}

// Timers returns all timers ordered by id
func (r *Registry) Timers() []*Timer {
	return r.filter(func(*Timer) bool { return true })
}

// Active returns the active timers ordered by id
func (r *Registry) Active() []*Timer {
	return r.filter(func(t *Timer) bool { return t.Active })
}

// Inactive returns the inactive timers ordered by id
func (r *Registry) Inactive() []*Timer {
	return r.filter(func(t *Timer) bool { return !t.Active })
}

func (r *Registry) filter(keep func(*Timer) bool) []*Timer {
	out := make([]*Timer, 0, len(r.timers))
	for _, t := range r.timers {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
