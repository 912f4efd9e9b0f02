package spells

// Cycle drives a Registry through clear/prompt windows. It starts closed.
//
// A clear marker opens the cycle and resets the seen set; the next prompt
// marker closes it and sweeps unseen timers. A second clear before the
// prompt resets the seen set again, dropping observations recorded in
// between.
type Cycle struct {
	registry *Registry
	open     bool
}

// NewCycle creates a closed cycle over registry
func NewCycle(registry *Registry) *Cycle {
	return &Cycle{registry: registry}
}

// Clear opens the cycle and starts a new seen set
func (c *Cycle) Clear() {
	c.open = true
	c.registry.BeginCycle()
}

// Prompt closes an open cycle and sweeps stale timers. It returns true
// when a sweep happened; prompts while closed are ignored.
func (c *Cycle) Prompt() bool {
	if !c.open {
		return false
	}
	c.open = false
	c.registry.EndCycle()
	return true
}

// Open reports whether a clear marker is waiting for its prompt
func (c *Cycle) Open() bool {
	return c.open
}

// Registry returns the registry this cycle sweeps
func (c *Cycle) Registry() *Registry {
	return c.registry
}
