// Package cli renders schemaver results for terminals, pipes and machines.
// Errors are printed rustc-style, reports as aligned key/value blocks and
// tables. Colors are used only on an interactive terminal.
package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// OutputMode determines how output is formatted.
type OutputMode int

const (
	// ModeTTY enables colored output for interactive terminals.
	ModeTTY OutputMode = iota
	// ModePlain outputs text without colors (pipes, CI logs).
	ModePlain
	// ModeJSON outputs one JSON document per result.
	ModeJSON
)

// String returns the flag spelling of the mode.
func (m OutputMode) String() string {
	switch m {
	case ModeTTY:
		return "tty"
	case ModePlain:
		return "plain"
	case ModeJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Config holds output configuration.
type Config struct {
	Mode   OutputMode
	Writer io.Writer
}

// DetectConfig inspects w and the environment:
//   - a terminal without NO_COLOR or TERM=dumb gets ModeTTY
//   - everything else gets ModePlain
func DetectConfig(w io.Writer) *Config {
	mode := ModePlain
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		mode = ModeTTY
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		mode = ModePlain
	}
	return &Config{Mode: mode, Writer: w}
}

// NewConfig creates a config writing to w in the given mode.
func NewConfig(w io.Writer, mode OutputMode) *Config {
	return &Config{Mode: mode, Writer: w}
}

// IsTTY returns true if running in interactive terminal mode.
func (c *Config) IsTTY() bool { return c.Mode == ModeTTY }

// IsJSON returns true if running in JSON output mode.
func (c *Config) IsJSON() bool { return c.Mode == ModeJSON }

var defaultCfg *Config

// Default returns the process-wide configuration, detected from stdout on
// first use.
func Default() *Config {
	if defaultCfg == nil {
		defaultCfg = DetectConfig(os.Stdout)
	}
	return defaultCfg
}

// SetDefault replaces the process-wide configuration.
func SetDefault(cfg *Config) {
	defaultCfg = cfg
}

// EnableColors returns true if colors should be used.
func EnableColors() bool {
	return Default().IsTTY()
}
