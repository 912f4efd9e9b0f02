package stream

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spelltimer/internal/config"
	"spelltimer/internal/plugin"
)

type call struct {
	kind   string
	value  string
	window string
}

type recordingHandler struct {
	calls []call
}

func (h *recordingHandler) ParseXML(xml string) string {
	h.calls = append(h.calls, call{kind: "xml", value: xml})
	return xml
}

func (h *recordingHandler) ParseText(text, window string) string {
	h.calls = append(h.calls, call{kind: "text", value: text, window: window})
	return text
}

func TestDispatcher_RoutesTagsAndText(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(h)

	d.Feed(`<pushStream id="percWindow"/>Clumsiness (4 roisaen)` + "\n")
	d.Feed(`<popStream/>You say, "Hi."` + "\n")

	assert.Equal(t, []call{
		{kind: "xml", value: `<pushStream id="percWindow"/>`},
		{kind: "text", value: "Clumsiness (4 roisaen)\n", window: "percWindow"},
		{kind: "xml", value: `<popStream/>`},
		{kind: "text", value: "You say, \"Hi.\"\n", window: MainWindow},
	}, h.calls)
	assert.Equal(t, MainWindow, d.Window())

	tags, texts := d.Counts()
	assert.Equal(t, 2, tags)
	assert.Equal(t, 2, texts)
}

func TestDispatcher_WindowSpansLines(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(h)

	d.Feed(`<pushStream id='percWindow'/>`)
	d.Feed("Bless (2 roisaen)")
	assert.Equal(t, "percWindow", d.Window())
	d.Feed(`<popStream id="percWindow"/>`)

	require.Len(t, h.calls, 3)
	assert.Equal(t, "percWindow", h.calls[1].window)
	assert.Equal(t, MainWindow, d.Window())
}

func TestDispatcher_UnterminatedTagIsText(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(h)

	d.Feed("health < 50")

	assert.Equal(t, []call{
		{kind: "text", value: "health ", window: MainWindow},
		{kind: "text", value: "< 50", window: MainWindow},
	}, h.calls)
}

func TestDispatcher_StripsANSIFromText(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(h)

	d.Feed("\x1b[32mShadows (3 roisaen)\x1b[0m")
	d.Feed("\x1b[0m")

	require.Len(t, h.calls, 1)
	assert.Equal(t, "Shadows (3 roisaen)", h.calls[0].value)
}

const session = `<clearStream id="percWindow"/>
<pushStream id="percWindow"/>Clumsiness  (4 roisaen)
<popStream/><pushStream id="percWindow"/>Osrel Meraud  (90%)
<popStream/><pushStream id="percWindow"/>Spirit Warding  (Indefinite)
<popStream/><prompt time="1642700000">&gt;</prompt>
You feel a bit more coordinated.
<clearStream id="percWindow"/>
<pushStream id="percWindow"/>Osrel Meraud  (88%)
<popStream/><pushStream id="percWindow"/>Spirit Warding  (Indefinite)
<popStream/><prompt time="1642700006">&gt;</prompt>
`

type hostStub struct{ vars map[string]string }

func (h *hostStub) Send(string) {}

func (h *hostStub) SetVariable(name, value string) { h.vars[name] = value }

func (h *hostStub) Load(string) (string, bool) { return "", false }

func TestReplay_DrivesPlugin(t *testing.T) {
	host := &hostStub{vars: map[string]string{}}
	p := plugin.New(config.Default().Plugin)
	p.Initialize(host)

	lines, err := Replay(context.Background(), strings.NewReader(session), NewDispatcher(p), nil)
	require.NoError(t, err)
	assert.Equal(t, 10, lines)

	clumsy, ok := p.Registry().Get("Clumsiness")
	require.True(t, ok)
	assert.False(t, clumsy.Active)

	om, _ := p.Registry().Get("OsrelMeraud")
	assert.True(t, om.Active)
	assert.Equal(t, 88, om.Remaining)

	assert.Equal(t, "OsrelMeraud|SpiritWarding", host.vars["activespells"])
	assert.Equal(t, "Clumsiness", host.vars["inactivespells"])
	assert.Equal(t, "999", host.vars["SpellTimer.SpiritWarding.duration"])
}

func TestReplay_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lines, err := Replay(ctx, strings.NewReader(session), NewDispatcher(&recordingHandler{}), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, lines)
}

func TestReplay_DecodesCP437(t *testing.T) {
	dec, err := NewDecoder("cp437")
	require.NoError(t, err)
	h := &recordingHandler{}

	// 0x82 is é in code page 437
	_, err = Replay(context.Background(), strings.NewReader("Caf\x82 (1 roisaen)\n"), NewDispatcher(h), dec)
	require.NoError(t, err)

	require.Len(t, h.calls, 1)
	assert.Equal(t, "Café (1 roisaen)\n", h.calls[0].value)
}

func TestNewDecoder(t *testing.T) {
	for _, name := range []string{"", "utf-8", "UTF8"} {
		dec, err := NewDecoder(name)
		assert.NoError(t, err)
		assert.Nil(t, dec)
	}

	dec, err := NewDecoder("latin1")
	assert.NoError(t, err)
	assert.NotNil(t, dec)

	_, err = NewDecoder("ebcdic")
	assert.Error(t, err)
}
