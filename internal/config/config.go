// Package config loads plugin and harness settings from YAML or TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Plugin holds the values the plugin matches the game stream against
type Plugin struct {
	Window         string   `yaml:"window" toml:"window"`
	ClearMarker    string   `yaml:"clear_marker" toml:"clear_marker"`
	PromptMarker   string   `yaml:"prompt_marker" toml:"prompt_marker"`
	Commands       []string `yaml:"commands" toml:"commands"`
	VariablePrefix string   `yaml:"variable_prefix" toml:"variable_prefix"`
	LookupFile     string   `yaml:"lookup_file" toml:"lookup_file"`
	PreloadLookup  bool     `yaml:"preload_lookup" toml:"preload_lookup"`
}

// Harness configures the stand-alone replay host
type Harness struct {
	Database string `yaml:"database" toml:"database"`
	DataDir  string `yaml:"data_dir" toml:"data_dir"`
	Encoding string `yaml:"encoding" toml:"encoding"`
	LogFile  string `yaml:"log_file" toml:"log_file"`
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

// Config is the full settings file
type Config struct {
	Plugin  Plugin  `yaml:"plugin" toml:"plugin"`
	Harness Harness `yaml:"harness" toml:"harness"`
}

// Encodings accepted for Harness.Encoding
var Encodings = []string{"utf-8", "cp437", "latin1"}

// Default returns the settings used when no file overrides them
func Default() Config {
	return Config{
		Plugin: Plugin{
			Window:         "percWindow",
			ClearMarker:    `<clearStream id="percWindow"/>`,
			PromptMarker:   "<prompt",
			Commands:       []string{"/spelltimer", "/spelltracker"},
			VariablePrefix: "SpellTimer.",
			LookupFile:     "allspells.txt",
		},
		Harness: Harness{
			Database: "spelltimer.db",
			DataDir:  ".",
			Encoding: "utf-8",
			LogLevel: "info",
		},
	}
}

// LoadError reports a configuration file that could not be used
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Load reads path and overlays it on Default. The format is chosen by
// extension: .yaml/.yml or .toml.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.File = path
			return Config{}, le
		}
		return Config{}, &LoadError{File: path, Message: err.Error()}
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext and validates the result
func Parse(data []byte, ext string) (Config, error) {
	cfg := Default()

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, &LoadError{Message: "failed to parse YAML", Cause: err}
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, &LoadError{Message: "failed to parse TOML", Cause: err}
		}
	default:
		return Config{}, &LoadError{Message: fmt.Sprintf("unsupported config format %q", ext)}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, &LoadError{Message: "invalid configuration", Cause: err}
	}
	return cfg, nil
}

// Validate checks the fields the plugin cannot work without
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Plugin.Window) == "":
		return fmt.Errorf("plugin.window is required")
	case c.Plugin.ClearMarker == "":
		return fmt.Errorf("plugin.clear_marker is required")
	case c.Plugin.PromptMarker == "":
		return fmt.Errorf("plugin.prompt_marker is required")
	case c.Plugin.VariablePrefix == "":
		return fmt.Errorf("plugin.variable_prefix is required")
	}

	if len(c.Plugin.Commands) == 0 {
		return fmt.Errorf("plugin.commands needs at least one command")
	}
	for _, cmd := range c.Plugin.Commands {
		if strings.TrimSpace(cmd) == "" {
			return fmt.Errorf("plugin.commands contains an empty command")
		}
	}

	if !knownEncoding(c.Harness.Encoding) {
		return fmt.Errorf("harness.encoding %q is not one of %s", c.Harness.Encoding, strings.Join(Encodings, ", "))
	}
	return nil
}

func knownEncoding(name string) bool {
	for _, e := range Encodings {
		if strings.EqualFold(e, name) {
			return true
		}
	}
	return false
}
