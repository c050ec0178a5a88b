// Package introspect reads the live structure of a database.
// It queries system catalogs for tables and their columns and converts them
// to schema.Table values that the comparator can check against a declaration.
package introspect

import (
	"context"
	"database/sql"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/dialect"
	"github.com/hlop3z/schemaver/internal/schema"
)

// Queryer is the read side of *sql.DB and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Reader reads live table definitions.
type Reader interface {
	// ReadTables returns the named tables of one schema, read with a single
	// catalog query. Tables that do not exist are absent from the result.
	// An empty schema means the connection's default schema.
	ReadTables(ctx context.Context, schemaName string, names []string) (map[schema.TableKey]*schema.Table, error)
}

// Catalog answers existence questions about the live database.
type Catalog interface {
	Reader

	// SchemaExists reports whether the schema exists.
	// The default schema always exists.
	SchemaExists(ctx context.Context, name string) (bool, error)

	// TableExists reports whether the table exists.
	TableExists(ctx context.Context, schemaName, table string) (bool, error)

	// SchemaTables lists the tables of a schema, sorted by name.
	// Internal bookkeeping tables are skipped.
	SchemaTables(ctx context.Context, schemaName string) ([]string, error)

	// Dialect returns the dialect the catalog was built for.
	Dialect() dialect.Dialect
}

// New creates a Catalog for the given dialect, reading through q.
// q may be a *sql.DB or a *sql.Tx.
func New(q Queryer, d dialect.Dialect) (Catalog, error) {
	switch d.Name() {
	case "postgres":
		return &postgresIntrospector{q: q, dialect: d}, nil
	case "sqlite":
		return &sqliteIntrospector{q: q, dialect: d}, nil
	default:
		return nil, alerr.Newf(alerr.ErrUnsupportedDialect, "no introspector for dialect %q", d.Name())
	}
}

// ReadDeclared reads every table of decl, one ReadTables call per distinct schema.
func ReadDeclared(ctx context.Context, r Reader, decl *schema.Declaration) (map[schema.TableKey]*schema.Table, error) {
	live := make(map[schema.TableKey]*schema.Table, decl.Len())
	for _, s := range decl.Schemas() {
		tables, err := r.ReadTables(ctx, s, decl.TablesIn(s))
		if err != nil {
			return nil, err
		}
		for k, t := range tables {
			live[k] = t
		}
	}
	return live, nil
}

// RawColumn represents column metadata from a database catalog.
type RawColumn struct {
	Table        string
	Name         string
	DataType     string // Raw SQL type (VARCHAR(100), character varying, ...)
	IsNullable   bool
	Default      sql.NullString // Raw default expression
	IsPrimaryKey bool
	MaxLength    sql.NullInt64 // For VARCHAR(n)
}

// toColumn converts a catalog row using the dialect's type mapping.
func (raw RawColumn) toColumn(m TypeMapping) *schema.Column {
	col := &schema.Column{
		Name:       raw.Name,
		Type:       m.Type,
		Length:     m.Length,
		Timezone:   m.Timezone,
		PrimaryKey: raw.IsPrimaryKey,
		Nullable:   raw.IsNullable && !raw.IsPrimaryKey, // PK columns are never nullable
		SQLType:    raw.DataType,
	}
	if raw.Default.Valid {
		col.ServerDefault = schema.SQL(raw.Default.String)
	}
	return col
}

// tableAccumulator groups catalog rows, which arrive ordered by table and
// ordinal position, into tables.
type tableAccumulator struct {
	schema string
	tables map[schema.TableKey]*schema.Table
}

func newTableAccumulator(schemaName string) *tableAccumulator {
	return &tableAccumulator{schema: schemaName, tables: make(map[schema.TableKey]*schema.Table)}
}

func (a *tableAccumulator) add(table string, col *schema.Column) {
	key := schema.TableKey{Schema: a.schema, Name: table}
	t, ok := a.tables[key]
	if !ok {
		t = schema.NewTable(a.schema, table)
		a.tables[key] = t
	}
	t.Columns = append(t.Columns, col)
}

// placeholders renders n dialect placeholders starting at index from.
func placeholders(d dialect.Dialect, from, n int) string {
	buf := make([]byte, 0, n*4)
	for i := range n {
		if i > 0 {
			buf = append(buf, ", "...)
		}
		buf = append(buf, d.Placeholder(from+i)...)
	}
	return string(buf)
}

// internalTables lists tables that are skipped when listing a schema.
var internalTables = map[string]bool{
	dialect.NamespaceTable: true,
}

// isInternalTable checks if a table should be skipped.
func isInternalTable(name string) bool {
	return internalTables[name]
}
