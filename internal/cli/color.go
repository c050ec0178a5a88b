package cli

import "github.com/charmbracelet/lipgloss"

// ANSI 256 palette, Cargo-like.
var (
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleWarning   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	styleNote      = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	styleHelp      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	styleSuccess   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	stylePipe      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	styleHeader    = lipgloss.NewStyle().Bold(true)
	styleDim       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleHighlight = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))

	styleBadge = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

func paint(style lipgloss.Style, s string) string {
	if !EnableColors() {
		return s
	}
	return style.Render(s)
}

// Error returns text styled as an error label.
func Error(s string) string { return paint(styleError, s) }

// Warning returns text styled as a warning label.
func Warning(s string) string { return paint(styleWarning, s) }

// Note returns text styled as a note label.
func Note(s string) string { return paint(styleNote, s) }

// Help returns text styled as a help label.
func Help(s string) string { return paint(styleHelp, s) }

// Success returns text styled as a success message.
func Success(s string) string { return paint(styleSuccess, s) }

// Code returns text styled as an error code.
func Code(s string) string { return paint(styleError, s) }

// Pipe returns the gutter character of a diagnostic.
func Pipe() string { return paint(stylePipe, "|") }

// Header returns text styled as a table header.
func Header(s string) string { return paint(styleHeader, s) }

// Dim returns muted text.
func Dim(s string) string { return paint(styleDim, s) }

// Highlight returns text styled as highlighted.
func Highlight(s string) string { return paint(styleHighlight, s) }

// Badge renders a short status word such as OK or DRIFT. Without colors it
// is bracketed so it still stands out in logs.
func Badge(text string, color lipgloss.Color) string {
	if !EnableColors() {
		return "[" + text + "]"
	}
	return styleBadge.Background(color).Foreground(lipgloss.Color("0")).Render(text)
}

// Badge colors.
const (
	ColorOK      = lipgloss.Color("10")
	ColorPending = lipgloss.Color("11")
	ColorFailed  = lipgloss.Color("9")
)
