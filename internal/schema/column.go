package schema

import "fmt"

// Expr is a raw SQL expression evaluated by the server,
// such as a column default ("CURRENT_TIMESTAMP", "'guest'", "0").
type Expr struct {
	SQL string
}

// String returns the expression text.
func (e *Expr) String() string {
	if e == nil {
		return "<none>"
	}
	return e.SQL
}

// SQL wraps a raw expression.
func SQL(expr string) *Expr {
	return &Expr{SQL: expr}
}

// Column describes one column of a table.
type Column struct {
	Name          string
	Type          TypeTag
	Length        *int  // String only
	PrimaryKey    bool  // PRIMARY KEY constraint
	Autoincrement bool  // Integer primary keys only
	Nullable      bool  // NULL allowed (primary keys never are)
	Unique        bool  // UNIQUE constraint; emitted in DDL, not compared
	Timezone      *bool // DateTime only

	ServerDefault  *Expr // DEFAULT expression
	ServerOnUpdate *Expr // ON UPDATE expression (dialects without it never report one)

	// SQLType is the type text reported by the database for live columns.
	// Empty for declared columns.
	SQLType string
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := *c
	if c.Length != nil {
		n := *c.Length
		out.Length = &n
	}
	if c.Timezone != nil {
		tz := *c.Timezone
		out.Timezone = &tz
	}
	if c.ServerDefault != nil {
		out.ServerDefault = &Expr{SQL: c.ServerDefault.SQL}
	}
	if c.ServerOnUpdate != nil {
		out.ServerOnUpdate = &Expr{SQL: c.ServerOnUpdate.SQL}
	}
	return &out
}

// LengthValue returns the declared length, or 0 when none is set.
func (c *Column) LengthValue() int {
	if c.Length == nil {
		return 0
	}
	return *c.Length
}

// TimezoneAware reports whether a DateTime column stores time zone information.
func (c *Column) TimezoneAware() bool {
	return c.Timezone != nil && *c.Timezone
}

// TypeString renders the type with its refinements, e.g. "string(100)".
// Unclassified live columns render with the database's own type name.
func (c *Column) TypeString() string {
	switch c.Type {
	case Unknown:
		if c.SQLType != "" {
			return "unknown(" + c.SQLType + ")"
		}
	case String:
		if c.Length != nil {
			return fmt.Sprintf("string(%d)", *c.Length)
		}
	case DateTime:
		if c.TimezoneAware() {
			return "datetime(tz)"
		}
	}
	return c.Type.String()
}

// -----------------------------------------------------------------------------
// Builders
// -----------------------------------------------------------------------------

// Col creates a nullable column of the given type category.
func Col(name string, t TypeTag) *Column {
	return &Column{Name: name, Type: t, Nullable: true}
}

// Int creates an Integer column.
func Int(name string) *Column {
	return Col(name, Integer)
}

// Str creates a String column with the given length.
func Str(name string, length int) *Column {
	c := Col(name, String)
	c.Length = &length
	return c
}

// TextCol creates an unbounded Text column.
func TextCol(name string) *Column {
	return Col(name, Text)
}

// Bool creates a Boolean column.
func Bool(name string) *Column {
	return Col(name, Boolean)
}

// FloatCol creates a Float column.
func FloatCol(name string) *Column {
	return Col(name, Float)
}

// DateCol creates a Date column.
func DateCol(name string) *Column {
	return Col(name, Date)
}

// Timestamp creates a DateTime column with explicit time zone awareness.
func Timestamp(name string, tz bool) *Column {
	c := Col(name, DateTime)
	c.Timezone = &tz
	return c
}

// PK marks the column as the primary key.
func (c *Column) PK() *Column {
	c.PrimaryKey = true
	c.Nullable = false
	return c
}

// Auto marks an integer primary key as auto-incrementing.
func (c *Column) Auto() *Column {
	c.Autoincrement = true
	return c
}

// NotNull forbids NULL values.
func (c *Column) NotNull() *Column {
	c.Nullable = false
	return c
}

// Unq adds a UNIQUE constraint.
func (c *Column) Unq() *Column {
	c.Unique = true
	return c
}

// Default sets the server-side default expression.
func (c *Column) Default(expr string) *Column {
	c.ServerDefault = SQL(expr)
	return c
}

// OnUpdate sets the server-side on-update expression.
func (c *Column) OnUpdate(expr string) *Column {
	c.ServerOnUpdate = SQL(expr)
	return c
}
