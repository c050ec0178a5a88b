// Package dialect provides database-specific SQL generation.
// Each dialect maps schema type categories to SQL types, quotes identifiers,
// and renders the DDL statements the migration helpers execute.
package dialect

import (
	"strings"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/schema"
)

// TypeMapper maps schema type categories to SQL column types.
type TypeMapper interface {
	// IntegerType returns a 32-bit integer type.
	// PostgreSQL/SQLite: INTEGER
	IntegerType() string

	// SerialType returns an auto-incrementing integer type.
	// PostgreSQL: SERIAL
	// SQLite: INTEGER (AUTOINCREMENT is emitted after PRIMARY KEY)
	SerialType() string

	// StringType returns a bounded string type.
	// PostgreSQL/SQLite: VARCHAR(length)
	StringType(length int) string

	// TextType returns an unbounded text type.
	// All dialects: TEXT
	TextType() string

	// BooleanType returns a boolean type.
	// PostgreSQL/SQLite: BOOLEAN
	BooleanType() string

	// FloatType returns a floating-point type.
	// PostgreSQL: DOUBLE PRECISION
	// SQLite: REAL
	FloatType() string

	// DateType returns a date-only type.
	// All dialects: DATE
	DateType() string

	// DateTimeType returns a timestamp type.
	// PostgreSQL: TIMESTAMP / TIMESTAMPTZ
	// SQLite: DATETIME / TIMESTAMPTZ
	DateTimeType(timezone bool) string
}

// SQLFormatter handles identifier quoting and naming.
type SQLFormatter interface {
	// QuoteIdent quotes an identifier (table/column name) for the dialect.
	// PostgreSQL/SQLite: "name"
	QuoteIdent(name string) string

	// Placeholder returns a parameter placeholder for the given index (1-based).
	// PostgreSQL: $1, $2, $3, ...
	// SQLite: ?, ?, ?, ...
	Placeholder(index int) string

	// TableName returns the unquoted physical name of a table.
	// PostgreSQL: table (the schema is a real namespace)
	// SQLite: schema_table
	TableName(schema, table string) string

	// QualifyTable returns the quoted, fully-qualified table reference.
	// PostgreSQL: "schema"."table"
	// SQLite: "schema_table"
	QualifyTable(schema, table string) string
}

// FeatureDetector reports dialect capabilities.
type FeatureDetector interface {
	// SupportsSchemas reports whether the database has native schemas.
	// PostgreSQL: true
	// SQLite: false (emulated with table-name prefixes and a registry table)
	SupportsSchemas() bool

	// SupportsTransactionalDDL returns true if DDL can be wrapped in transactions.
	// PostgreSQL/SQLite: true
	SupportsTransactionalDDL() bool
}

// DDLGenerator renders DDL statements.
type DDLGenerator interface {
	// ColumnSQL renders a column definition as used in CREATE TABLE.
	ColumnSQL(tableName string, col *schema.Column) (string, error)

	// CreateTableSQL generates a CREATE TABLE statement.
	CreateTableSQL(t *schema.Table, ifNotExists bool) (string, error)

	// DropTableSQL generates a DROP TABLE statement.
	DropTableSQL(schemaName, table string, ifExists bool) string

	// AddColumnSQL generates an ALTER TABLE ADD COLUMN statement.
	AddColumnSQL(schemaName, table string, col *schema.Column) (string, error)

	// CreateSchemaSQL generates the statements that create a schema.
	CreateSchemaSQL(name string) []string

	// DropSchemaSQL generates the statements that drop a schema.
	// On SQLite the emulated schema's tables must be dropped separately first.
	DropSchemaSQL(name string) []string
}

// Dialect combines every capability a database flavor provides.
// Implementations exist for PostgreSQL and SQLite.
type Dialect interface {
	// Name returns the dialect name (postgres, sqlite).
	Name() string

	TypeMapper
	SQLFormatter
	FeatureDetector
	DDLGenerator
}

// Get returns the dialect implementation for the given name.
// Valid names: "postgres", "postgresql", "pgx", "sqlite", "sqlite3".
// Returns nil if the dialect is not supported.
func Get(name string) Dialect {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return Postgres()
	case "sqlite", "sqlite3":
		return SQLite()
	default:
		return nil
	}
}

// Lookup is Get with an ErrUnsupportedDialect error for unknown names.
func Lookup(name string) (Dialect, error) {
	if d := Get(name); d != nil {
		return d, nil
	}
	err := alerr.Newf(alerr.ErrUnsupportedDialect, "unsupported dialect %q", name).
		With("supported", strings.Join(Names(), ", "))
	if hint := alerr.SuggestSimilar(strings.ToLower(name), Names()); hint != "" {
		err.WithHelp(hint)
	}
	return nil, err
}

// Names returns the list of supported dialect names.
func Names() []string {
	return []string{"postgres", "sqlite"}
}
