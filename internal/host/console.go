// Package host is a stand-in game client for running the plugin outside
// of one: echoes go to a terminal, variables go to SQLite.
package host

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"spelltimer/internal/log"
)

const (
	echoPrefix = "#echo "

	colorHeading = "\x1b[1;36m"
	colorReset   = "\x1b[0m"
)

// VariableStore persists variables for one session
type VariableStore interface {
	SaveVariable(session, name, value string) error
}

// TxStore is a VariableStore that can group saves into one transaction
type TxStore interface {
	VariableStore
	BeginTransaction() error
	CommitTransaction() error
	RollbackTransaction() error
}

// Console implements plugin.Host
type Console struct {
	out     io.Writer
	color   bool
	dataDir string

	store   VariableStore
	session string
	vars    map[string]string
	failed  int

	inTx     bool // export batch runs in a store transaction
	txFailed bool // a save in the current batch failed
}

// Option configures a Console
type Option func(*Console)

// WithStore persists variables under session
func WithStore(store VariableStore, session string) Option {
	return func(c *Console) {
		c.store = store
		c.session = session
	}
}

// WithDataDir sets the directory resources are loaded from
func WithDataDir(dir string) Option {
	return func(c *Console) {
		c.dataDir = dir
	}
}

// WithColor forces colour on or off
func WithColor(enabled bool) Option {
	return func(c *Console) {
		c.color = enabled
	}
}

// NewConsole creates a host writing echoes to out. Colour is enabled when
// out is a terminal.
func NewConsole(out io.Writer, opts ...Option) *Console {
	c := &Console{
		out:     out,
		color:   IsTerminal(out),
		dataDir: ".",
		vars:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Send prints echo commands. Other client commands are shown verbatim.
func (c *Console) Send(text string) {
	line, isEcho := strings.CutPrefix(text, echoPrefix)
	if isEcho && c.color && isHeading(line) {
		line = colorHeading + line + colorReset
	}
	fmt.Fprintln(c.out, line)
}

func isHeading(line string) bool {
	return line != "" && !strings.HasPrefix(line, " ")
}

// SetVariable keeps the value in memory and persists it when a store is
// configured. Store failures are logged; the client keeps running.
func (c *Console) SetVariable(name, value string) {
	c.vars[name] = value
	if c.store == nil || c.txFailed {
		return
	}
	if err := c.store.SaveVariable(c.session, name, value); err != nil {
		c.failed++
		log.Error("failed to store variable", "name", name, "error", err)
		if c.inTx {
			c.txFailed = true
		}
	}
}

// BeginExport opens a store transaction for one variable export when the
// store supports it. Without one, saves stay individual.
func (c *Console) BeginExport() {
	tx, ok := c.store.(TxStore)
	if !ok || c.inTx {
		return
	}
	if err := tx.BeginTransaction(); err != nil {
		log.Error("failed to begin variable export", "error", err)
		return
	}
	c.inTx = true
	c.txFailed = false
}

// EndExport commits the export, or rolls it back when any save failed
func (c *Console) EndExport() {
	if !c.inTx {
		return
	}
	tx := c.store.(TxStore)
	failed := c.txFailed
	c.inTx = false
	c.txFailed = false

	if failed {
		if err := tx.RollbackTransaction(); err != nil {
			log.Error("failed to roll back variable export", "error", err)
		}
		log.Warn("variable export rolled back")
		return
	}
	if err := tx.CommitTransaction(); err != nil {
		c.failed++
		log.Error("failed to commit variable export", "error", err)
	}
}

// Load reads resource from the data directory
func (c *Console) Load(resource string) (string, bool) {
	path := filepath.Join(c.dataDir, filepath.Clean("/"+resource))
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("failed to read resource", "path", path, "error", err)
		}
		return "", false
	}
	return string(data), true
}

// Variable returns the last value set for name
func (c *Console) Variable(name string) (string, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Failures returns how many variables could not be stored
func (c *Console) Failures() int {
	return c.failed
}
