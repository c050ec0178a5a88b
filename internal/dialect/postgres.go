package dialect

import (
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"github.com/hlop3z/schemaver/internal/schema"
)

// postgres implements the Dialect interface for PostgreSQL.
type postgres struct{}

// Postgres returns the PostgreSQL dialect implementation.
func Postgres() Dialect {
	return &postgres{}
}

func (d *postgres) Name() string {
	return "postgres"
}

// -----------------------------------------------------------------------------
// Type mappings
// -----------------------------------------------------------------------------

func (d *postgres) IntegerType() string {
	return "INTEGER"
}

func (d *postgres) SerialType() string {
	return "SERIAL"
}

func (d *postgres) StringType(length int) string {
	return fmt.Sprintf("VARCHAR(%d)", length)
}

func (d *postgres) TextType() string {
	return "TEXT"
}

func (d *postgres) BooleanType() string {
	return "BOOLEAN"
}

func (d *postgres) FloatType() string {
	return "DOUBLE PRECISION"
}

func (d *postgres) DateType() string {
	return "DATE"
}

func (d *postgres) DateTimeType(timezone bool) string {
	if timezone {
		return "TIMESTAMPTZ"
	}
	return "TIMESTAMP"
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

func (d *postgres) QuoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d *postgres) Placeholder(index int) string {
	return "$" + strconv.Itoa(index)
}

func (d *postgres) TableName(_, table string) string {
	return table
}

func (d *postgres) QualifyTable(schemaName, table string) string {
	if schemaName == "" {
		return d.QuoteIdent(table)
	}
	return d.QuoteIdent(schemaName) + "." + d.QuoteIdent(table)
}

// -----------------------------------------------------------------------------
// Feature support
// -----------------------------------------------------------------------------

func (d *postgres) SupportsSchemas() bool {
	return true
}

func (d *postgres) SupportsTransactionalDDL() bool {
	return true
}

// -----------------------------------------------------------------------------
// SQL generation
// -----------------------------------------------------------------------------

func (d *postgres) ColumnSQL(tableName string, col *schema.Column) (string, error) {
	return buildColumnDefSQL(col, ColumnDefConfig{
		QuoteIdent: d.QuoteIdent,
		Types:      d,
		TableName:  tableName,
		Dialect:    d.Name(),
	})
}

func (d *postgres) CreateTableSQL(t *schema.Table, ifNotExists bool) (string, error) {
	return buildCreateTableSQL(t, ifNotExists, d.QualifyTable(t.Schema, t.Name), d.TableName(t.Schema, t.Name), d.ColumnSQL)
}

func (d *postgres) DropTableSQL(schemaName, table string, ifExists bool) string {
	return buildDropTableSQL(d.QualifyTable(schemaName, table), ifExists)
}

func (d *postgres) AddColumnSQL(schemaName, table string, col *schema.Column) (string, error) {
	return buildAddColumnSQL(d.QualifyTable(schemaName, table), d.TableName(schemaName, table), col, d.ColumnSQL)
}

func (d *postgres) CreateSchemaSQL(name string) []string {
	return []string{"CREATE SCHEMA " + d.QuoteIdent(name)}
}

func (d *postgres) DropSchemaSQL(name string) []string {
	return []string{"DROP SCHEMA IF EXISTS " + d.QuoteIdent(name) + " CASCADE"}
}
