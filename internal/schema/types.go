// Package schema defines the in-memory description of a database schema:
// tables, their ordered columns, and the closed set of column type categories.
// A Declaration is built purely in memory; nothing here touches a database.
package schema

import (
	"strings"

	"github.com/hlop3z/schemaver/internal/alerr"
)

// TypeTag is the generic type category of a column.
type TypeTag int

const (
	// Unknown is reported for live columns whose type cannot be classified.
	// It is never valid in a declaration.
	Unknown TypeTag = iota

	// Integer covers all whole-number column types.
	Integer

	// String is a bounded character type and requires a length.
	String

	// Text is an unbounded character type.
	Text

	// Boolean is a true/false column.
	Boolean

	// Float covers single and double precision floating point.
	Float

	// Date is a calendar date without time of day.
	Date

	// DateTime is a timestamp, with or without time zone awareness.
	DateTime
)

var typeNames = map[TypeTag]string{
	Unknown:  "unknown",
	Integer:  "integer",
	String:   "string",
	Text:     "text",
	Boolean:  "boolean",
	Float:    "float",
	Date:     "date",
	DateTime: "datetime",
}

// String returns the lowercase name of the type category.
func (t TypeTag) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether t may appear in a declaration.
func (t TypeTag) Valid() bool {
	return t > Unknown && t <= DateTime
}

// TypeNames returns the names of all declarable type categories.
func TypeNames() []string {
	names := make([]string, 0, len(typeNames)-1)
	for t := Integer; t <= DateTime; t++ {
		names = append(names, t.String())
	}
	return names
}

// ParseType resolves a type category by name.
// Unsupported names are a declaration error, never silently accepted.
func ParseType(name string) (TypeTag, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for t := Integer; t <= DateTime; t++ {
		if t.String() == lower {
			return t, nil
		}
	}

	err := alerr.Newf(alerr.ErrDeclaration, "unsupported column type %q", name).
		With("supported", strings.Join(TypeNames(), ", "))
	if hint := alerr.SuggestSimilar(lower, TypeNames()); hint != "" {
		err.WithHelp(hint)
	}
	return Unknown, err
}
