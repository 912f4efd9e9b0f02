// Package plugin binds the spell tracker to a game client's extension
// callbacks: typed commands, stream markup and window text.
package plugin

import (
	"fmt"
	"strconv"
	"strings"

	"spelltimer/internal/ansi"
	"spelltimer/internal/config"
	"spelltimer/internal/log"
	"spelltimer/internal/spells"
)

const (
	// Name is the plugin name reported to the host
	Name    = "Spell Timer Plugin"
	// Version is echoed as the first line of the listing
	Version = "SpellTimer Plugin v1"

	activeListVariable   = "activespells"
	inactiveListVariable = "inactivespells"
)

// Host is the client side of the extension interface
type Host interface {
	Send(text string)
	SetVariable(name, value string)
	Load(resource string) (string, bool)
}

// ExportBatcher is implemented by hosts that want the variables of one
// end-of-cycle export grouped, e.g. into a single store transaction.
type ExportBatcher interface {
	BeginExport()
	EndExport()
}

// Plugin tracks spells for one session. Calls must not overlap.
type Plugin struct {
	cfg      config.Plugin
	host     Host
	lookup   *spells.Lookup
	registry *spells.Registry
	cycle    *spells.Cycle
	commands []string
}

// New creates a plugin with an empty registry
func New(cfg config.Plugin) *Plugin {
	lookup := spells.NewLookup()
	registry := spells.NewRegistry(lookup)

	commands := make([]string, 0, len(cfg.Commands))
	for _, c := range cfg.Commands {
		commands = append(commands, strings.ToLower(strings.TrimSpace(c)))
	}

	return &Plugin{
		cfg:      cfg,
		lookup:   lookup,
		registry: registry,
		cycle:    spells.NewCycle(registry),
		commands: commands,
	}
}

// Initialize attaches the host and loads the spell lookup once
func (p *Plugin) Initialize(host Host) {
	p.host = host
	if host == nil {
		return
	}

	found, skipped := p.lookup.LoadFrom(host, p.cfg.LookupFile)
	if !found {
		return
	}
	if len(skipped) > 0 {
		log.Warn("spell lookup records skipped", "resource", p.cfg.LookupFile, "count", len(skipped))
	}
	if p.cfg.PreloadLookup {
		n := p.registry.Preload()
		log.Debug("preloaded spell timers", "count", n)
	}
}

// ParseInput handles the listing command. It returns "" when the input
// was consumed and the input unchanged otherwise.
func (p *Plugin) ParseInput(input string) string {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if !p.isCommand(trimmed) {
		return input
	}

	p.send("#echo " + Version)
	for _, line := range p.Listing() {
		p.send("#echo " + line)
	}
	return ""
}

func (p *Plugin) isCommand(trimmed string) bool {
	for _, c := range p.commands {
		if strings.HasPrefix(trimmed, c) {
			return true
		}
	}
	return false
}

// Listing renders active then inactive timers
func (p *Plugin) Listing() []string {
	lines := []string{"Active:"}
	for _, t := range p.registry.Active() {
		lines = append(lines, fmt.Sprintf("  %s (%s)", t.DisplayName, formatDuration(t)))
	}
	lines = append(lines, "Inactive:")
	for _, t := range p.registry.Inactive() {
		lines = append(lines, fmt.Sprintf("  %s (%d roisaen)", t.DisplayName, t.Remaining))
	}
	return lines
}

func formatDuration(t *spells.Timer) string {
	if t.IsIndefinite() {
		return "Indefinite"
	}
	return fmt.Sprintf("%d roisaen", t.Remaining)
}

// ParseXML watches markup for the clear and prompt markers. The markup
// is returned unchanged.
func (p *Plugin) ParseXML(xml string) string {
	if strings.HasPrefix(xml, p.cfg.ClearMarker) {
		p.cycle.Clear()
	}

	if p.cycle.Open() && strings.Contains(xml, p.cfg.PromptMarker) {
		p.cycle.Prompt()
		p.exportVariables()
	}

	return xml
}

// ParseText records spell lines shown in the configured window. The
// text is returned unchanged.
func (p *Plugin) ParseText(text, window string) string {
	if !strings.EqualFold(window, p.cfg.Window) {
		return text
	}

	clean := strings.TrimSpace(ansi.StripString(text))
	if clean == "" {
		return text
	}

	if obs, ok := spells.MatchLine(clean); ok {
		p.registry.RecordObservation(obs.Name, obs.Duration)
	}
	return text
}

func (p *Plugin) exportVariables() {
	prefix := p.cfg.VariablePrefix
	var active, inactive []string

	if b, ok := p.host.(ExportBatcher); ok {
		b.BeginExport()
		defer b.EndExport()
	}

	for _, t := range p.registry.Timers() {
		base := prefix + t.ID
		p.set(base+".name", t.DisplayName)
		p.set(base+".active", boolFlag(t.Active))
		p.set(base+".duration", strconv.Itoa(t.Remaining))
		p.set(base+".alias", t.Alias)
		p.set(base+".type", t.Category)

		if t.Active {
			active = append(active, t.ID)
		} else {
			inactive = append(inactive, t.ID)
		}
	}

	p.set(activeListVariable, strings.Join(active, "|"))
	p.set(inactiveListVariable, strings.Join(inactive, "|"))
	log.Debug("spell variables exported", "active", len(active), "inactive", len(inactive))
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (p *Plugin) send(text string) {
	if p.host != nil {
		p.host.Send(text)
	}
}

func (p *Plugin) set(name, value string) {
	if p.host != nil {
		p.host.SetVariable(name, value)
	}
}

// Registry exposes the timers for embedding hosts
func (p *Plugin) Registry() *spells.Registry {
	return p.registry
}

// Cycle exposes the reconciliation state
func (p *Plugin) Cycle() *spells.Cycle {
	return p.cycle
}

// Lookup exposes the static spell table
func (p *Plugin) Lookup() *spells.Lookup {
	return p.lookup
}
