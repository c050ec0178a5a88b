package schema

import "strings"

// TableKey identifies a table by schema and name.
// An empty Schema refers to the connection's default schema.
type TableKey struct {
	Schema string
	Name   string
}

// String returns "schema.name", or just "name" for the default schema.
func (k TableKey) String() string {
	if k.Schema == "" {
		return k.Name
	}
	return k.Schema + "." + k.Name
}

// Table is a declared or live table with its columns in ordinal order.
type Table struct {
	Schema  string
	Name    string
	Columns []*Column
}

// NewTable creates a table with the given columns.
func NewTable(schema, name string, cols ...*Column) *Table {
	return &Table{Schema: schema, Name: name, Columns: cols}
}

// Key returns the table's identifier.
func (t *Table) Key() TableKey {
	return TableKey{Schema: t.Schema, Name: t.Name}
}

// QualifiedName returns "schema.name", or just "name" for the default schema.
func (t *Table) QualifiedName() string {
	return t.Key().String()
}

// Column returns the column with the given name, or nil if not present.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// HasColumn checks if the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// PrimaryKey returns the names of the primary-key columns in ordinal order.
func (t *Table) PrimaryKey() []string {
	var pk []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// ColumnNames returns the column names in ordinal order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Extend appends col unless a column with the same name is already declared.
// Reports whether the column was appended.
func (t *Table) Extend(col *Column) bool {
	if t.HasColumn(col.Name) {
		return false
	}
	t.Columns = append(t.Columns, col)
	return true
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Schema: t.Schema, Name: t.Name, Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = c.Clone()
	}
	return out
}

// String renders a compact one-line summary, e.g. "accounts.user(id integer pk, email string(100))".
func (t *Table) String() string {
	parts := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		s := c.Name + " " + c.TypeString()
		if c.PrimaryKey {
			s += " pk"
		}
		parts[i] = s
	}
	return t.QualifiedName() + "(" + strings.Join(parts, ", ") + ")"
}
