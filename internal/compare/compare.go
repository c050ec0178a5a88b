package compare

import (
	"strconv"

	"github.com/hlop3z/schemaver/internal/schema"
)

// Options tunes which attributes are compared.
type Options struct {
	// CheckNullability also compares NULL/NOT NULL.
	CheckNullability bool
}

// Declaration compares every declared table against the live tables.
// A declared table absent from live is a mismatch, not an error.
// Live tables that are not declared are ignored.
func Declaration(decl *schema.Declaration, live map[schema.TableKey]*schema.Table, opts Options) Result {
	var res Result
	for _, want := range decl.Tables() {
		got, ok := live[want.Key()]
		if !ok || got == nil {
			res.add(Diagnostic{
				Table:     want.QualifiedName(),
				Attribute: AttrMissingTable,
				Expected:  "present",
				Actual:    "absent",
			})
			continue
		}
		res.Merge(Tables(want, got, opts))
	}
	return res
}

// Tables compares two tables. Columns are paired by ordinal position,
// not by name, so the declared column order must match the live order.
// Live columns after the last declared one are not compared; a live table
// with fewer columns than declared is a mismatch.
func Tables(declared, live *schema.Table, opts Options) Result {
	var res Result
	table := declared.QualifiedName()

	if declared.Name != live.Name || declared.Schema != live.Schema {
		res.add(Diagnostic{
			Table:     table,
			Attribute: AttrTable,
			Expected:  declared.QualifiedName(),
			Actual:    live.QualifiedName(),
		})
		return res
	}

	if len(live.Columns) < len(declared.Columns) {
		res.add(Diagnostic{
			Table:     table,
			Attribute: AttrColumnCount,
			Expected:  strconv.Itoa(len(declared.Columns)),
			Actual:    strconv.Itoa(len(live.Columns)),
		})
	}

	for i := range min(len(declared.Columns), len(live.Columns)) {
		col := Columns(declared.Columns[i], live.Columns[i], opts)
		for _, d := range col.Diagnostics {
			d.Table = table
			d.Position = i + 1
			res.add(d)
		}
	}
	return res
}

// Columns compares a declared column with the live column at the same position.
// Every failing attribute is reported. Type refinements (length, timezone) are
// only checked when both type categories agree.
func Columns(declared, live *schema.Column, opts Options) Result {
	var res Result
	diag := func(attr Attribute, expected, actual string) {
		res.add(Diagnostic{Column: declared.Name, Attribute: attr, Expected: expected, Actual: actual})
	}

	if declared.Name != live.Name {
		diag(AttrColumn, declared.Name, live.Name)
	}

	if declared.PrimaryKey != live.PrimaryKey {
		diag(AttrPrimaryKey, strconv.FormatBool(declared.PrimaryKey), strconv.FormatBool(live.PrimaryKey))
	}

	// Primary keys carry driver-generated defaults (sequences, rowid aliases).
	if !declared.PrimaryKey && !live.PrimaryKey {
		if !ExprEqual(declared.ServerDefault, live.ServerDefault) {
			diag(AttrServerDefault, declared.ServerDefault.String(), live.ServerDefault.String())
		}
	}

	if !ExprEqual(declared.ServerOnUpdate, live.ServerOnUpdate) {
		diag(AttrServerOnUpdate, declared.ServerOnUpdate.String(), live.ServerOnUpdate.String())
	}

	if opts.CheckNullability && declared.Nullable != live.Nullable {
		diag(AttrNullable, nullability(declared.Nullable), nullability(live.Nullable))
	}

	switch {
	case !declared.Type.Valid() || !live.Type.Valid():
		diag(AttrUnknownType, declared.TypeString(), live.TypeString())
		return res
	case declared.Type != live.Type:
		diag(AttrType, declared.Type.String(), live.Type.String())
		return res
	}

	switch declared.Type {
	case schema.String:
		if declared.LengthValue() != live.LengthValue() {
			diag(AttrLength, lengthString(declared), lengthString(live))
		}
	case schema.DateTime:
		if declared.TimezoneAware() != live.TimezoneAware() {
			diag(AttrTimezone, strconv.FormatBool(declared.TimezoneAware()), strconv.FormatBool(live.TimezoneAware()))
		}
	}
	return res
}

func nullability(nullable bool) string {
	if nullable {
		return "NULL"
	}
	return "NOT NULL"
}

func lengthString(c *schema.Column) string {
	if c.Length == nil {
		return "<none>"
	}
	return strconv.Itoa(*c.Length)
}
