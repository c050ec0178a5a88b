package dialect

import (
	"fmt"
	"strings"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/schema"
)

// NamespaceTable is the SQLite registry of emulated schemas.
const NamespaceTable = "schemaver_namespaces"

// sqlite implements the Dialect interface for SQLite.
type sqlite struct{}

// SQLite returns the SQLite dialect implementation.
func SQLite() Dialect {
	return &sqlite{}
}

func (d *sqlite) Name() string {
	return "sqlite"
}

// -----------------------------------------------------------------------------
// Type mappings
// SQLite keeps the declared type text verbatim, so the type names below are
// chosen to read back unambiguously rather than for storage affinity.
// -----------------------------------------------------------------------------

func (d *sqlite) IntegerType() string {
	return "INTEGER"
}

func (d *sqlite) SerialType() string {
	// AUTOINCREMENT is only accepted on an INTEGER PRIMARY KEY.
	return "INTEGER"
}

func (d *sqlite) StringType(length int) string {
	return fmt.Sprintf("VARCHAR(%d)", length)
}

func (d *sqlite) TextType() string {
	return "TEXT"
}

func (d *sqlite) BooleanType() string {
	return "BOOLEAN"
}

func (d *sqlite) FloatType() string {
	return "REAL"
}

func (d *sqlite) DateType() string {
	return "DATE"
}

func (d *sqlite) DateTimeType(timezone bool) string {
	if timezone {
		return "TIMESTAMPTZ"
	}
	return "DATETIME"
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

func (d *sqlite) QuoteIdent(name string) string {
	return quoteIdentDoubleQuote(name)
}

func (d *sqlite) Placeholder(index int) string {
	// SQLite uses ? for all placeholders
	return "?"
}

func (d *sqlite) TableName(schemaName, table string) string {
	if schemaName == "" {
		return table
	}
	return schemaName + "_" + table
}

func (d *sqlite) QualifyTable(schemaName, table string) string {
	return d.QuoteIdent(d.TableName(schemaName, table))
}

// -----------------------------------------------------------------------------
// Feature support
// -----------------------------------------------------------------------------

func (d *sqlite) SupportsSchemas() bool {
	return false
}

func (d *sqlite) SupportsTransactionalDDL() bool {
	return true
}

// -----------------------------------------------------------------------------
// SQL generation
// -----------------------------------------------------------------------------

func (d *sqlite) ColumnSQL(tableName string, col *schema.Column) (string, error) {
	return buildColumnDefSQL(col, ColumnDefConfig{
		QuoteIdent:          d.QuoteIdent,
		Types:               d,
		TableName:           tableName,
		AutoIncrementClause: "AUTOINCREMENT",
		DefaultSQL:          d.defaultValueSQL,
		Dialect:             d.Name(),
	})
}

func (d *sqlite) CreateTableSQL(t *schema.Table, ifNotExists bool) (string, error) {
	return buildCreateTableSQL(t, ifNotExists, d.QualifyTable(t.Schema, t.Name), d.TableName(t.Schema, t.Name), d.ColumnSQL)
}

func (d *sqlite) DropTableSQL(schemaName, table string, ifExists bool) string {
	return buildDropTableSQL(d.QualifyTable(schemaName, table), ifExists)
}

func (d *sqlite) AddColumnSQL(schemaName, table string, col *schema.Column) (string, error) {
	// See https://sqlite.org/lang_altertable.html#altertabaddcol
	switch {
	case col.PrimaryKey:
		return sqliteUnsupported("SQLite cannot add a PRIMARY KEY column via ALTER TABLE; use table recreation pattern",
			schemaName, table, col.Name)
	case col.Unique:
		return sqliteUnsupported("SQLite cannot add a UNIQUE column via ALTER TABLE; add the column, then CREATE UNIQUE INDEX",
			schemaName, table, col.Name)
	case !col.Nullable && col.ServerDefault == nil:
		return sqliteUnsupported("SQLite cannot add a NOT NULL column without a default",
			schemaName, table, col.Name)
	}
	return buildAddColumnSQL(d.QualifyTable(schemaName, table), d.TableName(schemaName, table), col, d.ColumnSQL)
}

func (d *sqlite) CreateSchemaSQL(name string) []string {
	return []string{
		d.namespaceTableSQL(),
		fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
			d.QuoteIdent(NamespaceTable), d.QuoteIdent("name"), quoteLiteral(name)),
	}
}

func (d *sqlite) DropSchemaSQL(name string) []string {
	return []string{
		d.namespaceTableSQL(),
		fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
			d.QuoteIdent(NamespaceTable), d.QuoteIdent("name"), quoteLiteral(name)),
	}
}

// -----------------------------------------------------------------------------
// Helper methods
// -----------------------------------------------------------------------------

func (d *sqlite) namespaceTableSQL() string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s TEXT PRIMARY KEY)",
		d.QuoteIdent(NamespaceTable), d.QuoteIdent("name"))
}

// sqliteUnsupported returns a standardized error for unsupported ALTER TABLE operations.
func sqliteUnsupported(msg, schemaName, table, column string) (string, error) {
	return "", alerr.New(alerr.ErrUnsupportedDialect, msg).
		WithTable(schemaName, table).
		WithColumn(column)
}

// defaultValueSQL rewrites NOW() to CURRENT_TIMESTAMP, which SQLite accepts
// unparenthesized in a DEFAULT clause.
func (d *sqlite) defaultValueSQL(expr string) string {
	expr = strings.ReplaceAll(expr, "NOW()", "CURRENT_TIMESTAMP")
	expr = strings.ReplaceAll(expr, "now()", "CURRENT_TIMESTAMP")
	return expr
}
