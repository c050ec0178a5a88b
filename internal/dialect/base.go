// Package dialect provides database-specific SQL generation.
// This file contains shared helper functions used by all dialect implementations.
package dialect

import (
	"strings"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/schema"
)

// QuoteIdentFunc is a function that quotes an identifier.
type QuoteIdentFunc func(name string) string

// quoteIdentDoubleQuote wraps name in double quotes, doubling embedded quotes.
func quoteIdentDoubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// buildColumnTypeSQL generates the SQL type for a column using the type mapper.
func buildColumnTypeSQL(col *schema.Column, mapper TypeMapper) (string, error) {
	switch col.Type {
	case schema.Integer:
		if col.Autoincrement {
			return mapper.SerialType(), nil
		}
		return mapper.IntegerType(), nil
	case schema.String:
		if col.Length == nil {
			return "", alerr.New(alerr.ErrDeclaration, "string column requires a length").
				WithColumn(col.Name)
		}
		return mapper.StringType(*col.Length), nil
	case schema.Text:
		return mapper.TextType(), nil
	case schema.Boolean:
		return mapper.BooleanType(), nil
	case schema.Float:
		return mapper.FloatType(), nil
	case schema.Date:
		return mapper.DateType(), nil
	case schema.DateTime:
		return mapper.DateTimeType(col.TimezoneAware()), nil
	default:
		return "", alerr.Newf(alerr.ErrDeclaration, "unsupported column type %q", col.Type.String()).
			WithColumn(col.Name)
	}
}

// ColumnDefConfig holds all callbacks and config for buildColumnDefSQL.
type ColumnDefConfig struct {
	QuoteIdent QuoteIdentFunc
	Types      TypeMapper
	// TableName is the physical table name, used for constraint naming.
	TableName string
	// AutoIncrementClause is appended after PRIMARY KEY for autoincrement columns.
	AutoIncrementClause string
	// DefaultSQL rewrites a default expression for the dialect. Nil keeps it as written.
	DefaultSQL func(expr string) string
	Dialect    string
}

// buildColumnDefSQL generates the SQL for a column definition.
// Clause order: type, PRIMARY KEY, NOT NULL, UNIQUE, DEFAULT.
func buildColumnDefSQL(col *schema.Column, cfg ColumnDefConfig) (string, error) {
	if col.ServerOnUpdate != nil {
		return "", alerr.Newf(alerr.ErrUnsupportedDialect, "%s has no ON UPDATE column clause", cfg.Dialect).
			WithColumn(col.Name).
			WithHelp("maintain the value with a trigger created through Exec")
	}

	typeSQL, err := buildColumnTypeSQL(col, cfg.Types)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(cfg.QuoteIdent(col.Name))
	b.WriteString(" ")
	b.WriteString(typeSQL)

	if col.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
		if col.Autoincrement && cfg.AutoIncrementClause != "" {
			b.WriteString(" ")
			b.WriteString(cfg.AutoIncrementClause)
		}
	}
	if !col.Nullable && !col.PrimaryKey {
		b.WriteString(" NOT NULL")
	}
	if col.Unique && !col.PrimaryKey {
		b.WriteString(" CONSTRAINT ")
		b.WriteString(cfg.QuoteIdent(uniqueConstraintName(cfg.TableName, col.Name)))
		b.WriteString(" UNIQUE")
	}
	if col.ServerDefault != nil {
		expr := col.ServerDefault.SQL
		if cfg.DefaultSQL != nil {
			expr = cfg.DefaultSQL(expr)
		}
		b.WriteString(" DEFAULT ")
		b.WriteString(expr)
	}

	return b.String(), nil
}

// ColumnDefFunc generates SQL for a column definition.
type ColumnDefFunc func(tableName string, col *schema.Column) (string, error)

// buildCreateTableSQL generates CREATE TABLE SQL using provided helper functions.
func buildCreateTableSQL(t *schema.Table, ifNotExists bool, qualified, tableName string, columnDef ColumnDefFunc) (string, error) {
	var b strings.Builder

	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(qualified)
	b.WriteString(" (\n")

	for i, col := range t.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		def, err := columnDef(tableName, col)
		if err != nil {
			return "", err
		}
		b.WriteString("  ")
		b.WriteString(def)
	}

	b.WriteString("\n)")
	return b.String(), nil
}

// buildDropTableSQL generates DROP TABLE SQL.
func buildDropTableSQL(qualified string, ifExists bool) string {
	var b strings.Builder
	b.WriteString("DROP TABLE ")
	if ifExists {
		b.WriteString("IF EXISTS ")
	}
	b.WriteString(qualified)
	return b.String()
}

// buildAddColumnSQL generates ALTER TABLE ADD COLUMN SQL.
func buildAddColumnSQL(qualified, tableName string, col *schema.Column, columnDef ColumnDefFunc) (string, error) {
	def, err := columnDef(tableName, col)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("ALTER TABLE ")
	b.WriteString(qualified)
	b.WriteString(" ADD COLUMN ")
	b.WriteString(def)
	return b.String(), nil
}

// uniqueConstraintName generates a unique constraint name: uniq_table_col1_col2...
func uniqueConstraintName(table string, cols ...string) string {
	result := "uniq_" + table
	for _, col := range cols {
		result += "_" + col
	}
	return result
}
