package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spelltimer/internal/config"
)

type fakeHost struct {
	sent      []string
	variables map[string]string
	resources map[string]string
	sets      int
}

func newFakeHost() *fakeHost {
	return &fakeHost{variables: map[string]string{}, resources: map[string]string{}}
}

func (h *fakeHost) Send(text string) { h.sent = append(h.sent, text) }

func (h *fakeHost) SetVariable(name, value string) {
	h.variables[name] = value
	h.sets++
}

func (h *fakeHost) Load(resource string) (string, bool) {
	data, ok := h.resources[resource]
	return data, ok
}

const (
	clearMarker  = `<clearStream id="percWindow"/>`
	promptMarker = `<prompt time="1642700000">&gt;</prompt>`
)

func newTestPlugin(t *testing.T, host *fakeHost) *Plugin {
	t.Helper()
	p := New(config.Default().Plugin)
	p.Initialize(host)
	return p
}

func TestParseText_OnlyConfiguredWindow(t *testing.T) {
	host := newFakeHost()
	p := newTestPlugin(t, host)

	out := p.ParseText("Clumsiness (4 roisaen)\n", "main")
	assert.Equal(t, "Clumsiness (4 roisaen)\n", out)
	assert.Zero(t, p.Registry().Len())

	out = p.ParseText("Clumsiness (4 roisaen)\n", "PERCWINDOW")
	assert.Equal(t, "Clumsiness (4 roisaen)\n", out, "text passes through unchanged")

	timer, ok := p.Registry().Get("Clumsiness")
	require.True(t, ok)
	assert.True(t, timer.Active)
	assert.Equal(t, 4, timer.Remaining)
}

func TestParseText_IgnoresNonMatchingLines(t *testing.T) {
	p := newTestPlugin(t, newFakeHost())

	p.ParseText("", "percWindow")
	p.ParseText("   \n", "percWindow")
	p.ParseText("You sense nothing unusual.", "percWindow")

	assert.Zero(t, p.Registry().Len())
}

func TestParseText_StripsANSI(t *testing.T) {
	p := newTestPlugin(t, newFakeHost())

	p.ParseText("\x1b[32mOsrel Meraud\x1b[0m (75%)", "percWindow")

	om, ok := p.Registry().Get("OsrelMeraud")
	require.True(t, ok)
	assert.Equal(t, 75, om.Remaining)
}

func TestParseXML_CycleExportsVariables(t *testing.T) {
	host := newFakeHost()
	host.resources["allspells.txt"] = "Clumsiness||Debuff\nManifest Force|MF|Warding\n"
	p := newTestPlugin(t, host)

	p.ParseText("Bless (2 roisaen)", "percWindow")

	assert.Equal(t, clearMarker, p.ParseXML(clearMarker))
	p.ParseText("Clumsiness (4 roisaen)", "percWindow")
	p.ParseText("Manifest Force (OM)", "percWindow")
	assert.Equal(t, promptMarker, p.ParseXML(promptMarker))

	assert.False(t, p.Cycle().Open())
	assert.Equal(t, map[string]string{
		"SpellTimer.Bless.name":             "Bless",
		"SpellTimer.Bless.active":           "0",
		"SpellTimer.Bless.duration":         "0",
		"SpellTimer.Bless.alias":            "Bless",
		"SpellTimer.Bless.type":             "",
		"SpellTimer.Clumsiness.name":        "Clumsiness",
		"SpellTimer.Clumsiness.active":      "1",
		"SpellTimer.Clumsiness.duration":    "4",
		"SpellTimer.Clumsiness.alias":       "Clumsiness",
		"SpellTimer.Clumsiness.type":        "Debuff",
		"SpellTimer.ManifestForce.name":     "Manifest Force",
		"SpellTimer.ManifestForce.active":   "1",
		"SpellTimer.ManifestForce.duration": "999",
		"SpellTimer.ManifestForce.alias":    "MF",
		"SpellTimer.ManifestForce.type":     "Warding",
		"activespells":                      "Clumsiness|ManifestForce",
		"inactivespells":                    "Bless",
	}, host.variables)
}

func TestParseXML_PromptWhileClosedIsIgnored(t *testing.T) {
	host := newFakeHost()
	p := newTestPlugin(t, host)
	p.ParseText("Clumsiness (4 roisaen)", "percWindow")

	p.ParseXML(promptMarker)

	assert.Zero(t, host.sets, "no export without a preceding clear")
	timer, _ := p.Registry().Get("Clumsiness")
	assert.True(t, timer.Active)
}

func TestParseXML_ClearAndPromptInOneChunk(t *testing.T) {
	host := newFakeHost()
	p := newTestPlugin(t, host)
	p.ParseText("Clumsiness (4 roisaen)", "percWindow")

	p.ParseXML(clearMarker + promptMarker)

	timer, _ := p.Registry().Get("Clumsiness")
	assert.False(t, timer.Active)
	assert.Equal(t, "Clumsiness", host.variables["inactivespells"])
	assert.Equal(t, "", host.variables["activespells"])
}

func TestParseXML_ClearMustBePrefix(t *testing.T) {
	p := newTestPlugin(t, newFakeHost())

	p.ParseXML(`<pushStream id="percWindow"/>` + clearMarker)

	assert.False(t, p.Cycle().Open())
}

func TestParseInput_Listing(t *testing.T) {
	host := newFakeHost()
	p := newTestPlugin(t, host)
	p.ParseText("Spirit Warding (Indefinite)", "percWindow")
	p.ParseText("Clumsiness (4 roisaen)", "percWindow")
	p.Registry().FindOrCreate("Bless")

	out := p.ParseInput("  /SpellTimer list\n")

	assert.Equal(t, "", out)
	assert.Equal(t, []string{
		"#echo SpellTimer Plugin v1",
		"#echo Active:",
		"#echo   Clumsiness (4 roisaen)",
		"#echo   Spirit Warding (Indefinite)",
		"#echo Inactive:",
		"#echo   Bless (0 roisaen)",
	}, host.sent)
}

func TestParseInput_PassesThroughOtherInput(t *testing.T) {
	host := newFakeHost()
	p := newTestPlugin(t, host)

	assert.Equal(t, "look", p.ParseInput("look"))
	assert.Equal(t, "", p.ParseInput("/spelltracker"))
	assert.Equal(t, " spell timer", p.ParseInput(" spell timer"))
}

func TestInitialize_PreloadLookup(t *testing.T) {
	host := newFakeHost()
	host.resources["allspells.txt"] = "Clumsiness||Debuff\nbroken line\n"
	cfg := config.Default().Plugin
	cfg.PreloadLookup = true

	p := New(cfg)
	p.Initialize(host)

	assert.Equal(t, 1, p.Lookup().Len())
	assert.Equal(t, 1, p.Registry().Len())
	timer, ok := p.Registry().Get("Clumsiness")
	require.True(t, ok)
	assert.False(t, timer.Active)
	assert.Equal(t, "Debuff", timer.Category)
}

func TestInitialize_MissingLookupIsNotAnError(t *testing.T) {
	p := newTestPlugin(t, newFakeHost())

	assert.False(t, p.Lookup().Loaded())
	p.ParseText("Clumsiness (4 roisaen)", "percWindow")
	timer, _ := p.Registry().Get("Clumsiness")
	assert.Equal(t, "Clumsiness", timer.Alias)
	assert.Empty(t, timer.Category)
}

func TestPlugin_WithoutHost(t *testing.T) {
	p := New(config.Default().Plugin)
	p.Initialize(nil)

	p.ParseXML(clearMarker)
	p.ParseText("Clumsiness (4 roisaen)", "percWindow")
	p.ParseXML(promptMarker)

	assert.Equal(t, "", p.ParseInput("/spelltimer"))
}

type batchingHost struct {
	*fakeHost
	events []string
}

func (h *batchingHost) SetVariable(name, value string) {
	h.events = append(h.events, name)
	h.fakeHost.SetVariable(name, value)
}

func (h *batchingHost) BeginExport() { h.events = append(h.events, "begin") }
func (h *batchingHost) EndExport() { h.events = append(h.events, "end") }

func TestExportIsBatched(t *testing.T) {
	h := &batchingHost{fakeHost: newFakeHost()}
	p := New(config.Default().Plugin)
	p.Initialize(h)

	p.ParseXML(`<clearStream id="percWindow"/>`)
	p.ParseText("Bless (12 roisaen)", "percWindow")
	p.ParseXML(`<prompt time="1">&gt;</prompt>`)

	require.Len(t, h.events, 9)
	assert.Equal(t, "begin", h.events[0])
	assert.Equal(t, "inactivespells", h.events[7])
	assert.Equal(t, "end", h.events[8])

	// no export without a closed cycle
	p.ParseXML(`<prompt time="2">&gt;</prompt>`)
	assert.Len(t, h.events, 9)
}
