// Package compare decides whether a declared schema equals a live one.
//
// Comparison never fails with an error. It returns a Result holding one
// Diagnostic per attribute that differed, so callers can log, collect, or
// stop on the first mismatch.
package compare

import (
	"fmt"
	"strings"
)

// Attribute names the property a Diagnostic is about.
type Attribute string

const (
	AttrTable          Attribute = "table"
	AttrMissingTable   Attribute = "missing_table"
	AttrColumnCount    Attribute = "column_count"
	AttrColumn         Attribute = "column"
	AttrPrimaryKey     Attribute = "primary_key"
	AttrServerDefault  Attribute = "server_default"
	AttrServerOnUpdate Attribute = "server_onupdate"
	AttrType           Attribute = "type"
	AttrLength         Attribute = "length"
	AttrTimezone       Attribute = "timezone"
	AttrNullable       Attribute = "nullable"

	// AttrUnknownType marks a column whose type category the comparator
	// does not recognize. It counts as a mismatch but usually means the
	// type mapping is out of date rather than the schema having drifted.
	AttrUnknownType Attribute = "unknown_type"
)

// Diagnostic describes one mismatch between a declared and a live schema.
type Diagnostic struct {
	Table     string    // qualified table name
	Column    string    // declared column name, empty for table-level diagnostics
	Position  int       // 1-based ordinal of the column pair, 0 for table-level
	Attribute Attribute // which check failed
	Expected  string    // declared side
	Actual    string    // live side
}

// Ambiguous reports whether the diagnostic is a ComparisonAmbiguity.
func (d Diagnostic) Ambiguous() bool {
	return d.Attribute == AttrUnknownType
}

// String renders the diagnostic as one human-readable line.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Table)
	if d.Column != "" {
		fmt.Fprintf(&b, ".%s", d.Column)
	}
	if d.Position > 0 {
		fmt.Fprintf(&b, " (#%d)", d.Position)
	}
	fmt.Fprintf(&b, ": %s mismatch: expected %s, got %s", d.Attribute, d.Expected, d.Actual)
	return b.String()
}

// Result is the outcome of a comparison.
type Result struct {
	Diagnostics []Diagnostic
}

// Match reports whether no differences were found.
func (r Result) Match() bool {
	return len(r.Diagnostics) == 0
}

// Ambiguous reports whether any diagnostic is a ComparisonAmbiguity.
func (r Result) Ambiguous() bool {
	for _, d := range r.Diagnostics {
		if d.Ambiguous() {
			return true
		}
	}
	return false
}

// Merge appends the diagnostics of other.
func (r *Result) Merge(other Result) {
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

// Lines returns every diagnostic rendered with String.
func (r Result) Lines() []string {
	lines := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		lines[i] = d.String()
	}
	return lines
}

// String joins all diagnostic lines, or returns "match".
func (r Result) String() string {
	if r.Match() {
		return "match"
	}
	return strings.Join(r.Lines(), "\n")
}

func (r *Result) add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}
