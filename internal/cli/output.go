package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders aligned columns with a header rule.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{headers: headers, widths: widths}
}

// AddRow adds a row. Missing cells are blank; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	for i, cell := range row {
		if w := lipgloss.Width(cell); w > t.widths[i] {
			t.widths[i] = w
		}
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// String renders the table.
func (t *Table) String() string {
	if len(t.headers) == 0 {
		return ""
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		var line strings.Builder
		for i, cell := range cells {
			if i > 0 {
				line.WriteString("  ")
			}
			line.WriteString(style(padRight(cell, t.widths[i])))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")
	}

	writeRow(t.headers, Header)
	rule := make([]string, len(t.widths))
	for i, w := range t.widths {
		rule[i] = strings.Repeat("-", w)
	}
	writeRow(rule, Dim)
	for _, row := range t.rows {
		writeRow(row, func(s string) string { return s })
	}
	return b.String()
}

// padRight pads s with spaces to the given display width.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// KeyValues renders label/value pairs with aligned values.
type KeyValues struct {
	keys   []string
	values []string
}

// Add appends a pair.
func (kv *KeyValues) Add(key string, value any) *KeyValues {
	kv.keys = append(kv.keys, key)
	kv.values = append(kv.values, fmt.Sprint(value))
	return kv
}

// String renders the pairs, indented by two spaces.
func (kv *KeyValues) String() string {
	width := 0
	for _, k := range kv.keys {
		width = max(width, len(k)+1)
	}
	var b strings.Builder
	for i, k := range kv.keys {
		fmt.Fprintf(&b, "  %s %s\n", Dim(padRight(k+":", width)), kv.values[i])
	}
	return b.String()
}

// Indent prefixes every non-empty line of content with n spaces.
func Indent(content string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}

// FormatCount formats count with the singular or plural noun.
func FormatCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
