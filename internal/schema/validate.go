package schema

import (
	"errors"

	"github.com/hlop3z/schemaver/internal/alerr"
)

// Validate checks the declaration for structural errors.
// The first problem found is returned as an ErrDeclaration error.
func (d *Declaration) Validate() error {
	if d == nil {
		return nil
	}
	if len(d.dupes) > 0 {
		k := d.dupes[0]
		return alerr.Newf(alerr.ErrDeclaration, "duplicate table %q", k.String()).
			WithTable(k.Schema, k.Name)
	}
	for _, t := range d.Tables() {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the table definition for errors.
func (t *Table) Validate() error {
	if t.Name == "" {
		return alerr.New(alerr.ErrDeclaration, "table name is required").
			WithTable(t.Schema, t.Name)
	}
	if len(t.Columns) == 0 {
		return alerr.New(alerr.ErrDeclaration, "table must have at least one column").
			WithTable(t.Schema, t.Name)
	}

	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c == nil {
			return alerr.New(alerr.ErrDeclaration, "nil column").
				WithTable(t.Schema, t.Name)
		}
		if err := c.Validate(); err != nil {
			var e *alerr.Error
			if errors.As(err, &e) {
				e.WithTable(t.Schema, t.Name)
			}
			return err
		}
		if seen[c.Name] {
			return alerr.Newf(alerr.ErrDeclaration, "duplicate column %q", c.Name).
				WithTable(t.Schema, t.Name).
				WithColumn(c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// Validate checks the column definition for errors.
func (c *Column) Validate() error {
	if c.Name == "" {
		return alerr.New(alerr.ErrDeclaration, "column name is required")
	}
	if !c.Type.Valid() {
		return alerr.Newf(alerr.ErrDeclaration, "unsupported column type %q", c.Type.String()).
			WithColumn(c.Name)
	}

	if c.Type == String {
		if c.Length == nil || *c.Length <= 0 {
			return alerr.New(alerr.ErrDeclaration, "string column requires a positive length").
				WithColumn(c.Name).
				WithHelp("use schema.Str(name, n) or schema.TextCol(name) for unbounded text")
		}
	} else if c.Length != nil {
		return alerr.Newf(alerr.ErrDeclaration, "length is only valid on string columns, not %s", c.Type).
			WithColumn(c.Name)
	}

	if c.Timezone != nil && c.Type != DateTime {
		return alerr.Newf(alerr.ErrDeclaration, "timezone is only valid on datetime columns, not %s", c.Type).
			WithColumn(c.Name)
	}

	if c.Autoincrement && (c.Type != Integer || !c.PrimaryKey) {
		return alerr.New(alerr.ErrDeclaration, "autoincrement requires an integer primary key").
			WithColumn(c.Name)
	}

	if c.PrimaryKey && c.Nullable {
		return alerr.New(alerr.ErrDeclaration, "primary key column cannot be nullable").
			WithColumn(c.Name)
	}
	return nil
}
