package introspect

import (
	"context"
	"fmt"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/dialect"
	"github.com/hlop3z/schemaver/internal/schema"
)

type postgresIntrospector struct {
	q       Queryer
	dialect dialect.Dialect
}

// schemaParam resolves an empty schema to the connection's current schema.
const schemaParam = "COALESCE(NULLIF($1::text, ''), current_schema())"

func (p *postgresIntrospector) Dialect() dialect.Dialect {
	return p.dialect
}

func (p *postgresIntrospector) ReadTables(ctx context.Context, schemaName string, names []string) (map[schema.TableKey]*schema.Table, error) {
	acc := newTableAccumulator(schemaName)
	if len(names) == 0 {
		return acc.tables, nil
	}

	query := fmt.Sprintf(`
		SELECT
			c.table_name,
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			c.character_maximum_length,
			COALESCE(pk.is_pk, FALSE) AS is_primary_key
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT kcu.table_name, kcu.column_name, TRUE AS is_pk
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
				AND tc.table_name = kcu.table_name
			WHERE tc.constraint_type = 'PRIMARY KEY'
				AND tc.table_schema = %[1]s
		) pk ON c.table_name = pk.table_name AND c.column_name = pk.column_name
		WHERE c.table_schema = %[1]s
			AND c.table_name IN (%[2]s)
		ORDER BY c.table_name, c.ordinal_position
	`, schemaParam, placeholders(p.dialect, 2, len(names)))

	args := make([]any, 0, len(names)+1)
	args = append(args, schemaName)
	for _, n := range names {
		args = append(args, n)
	}

	rows, err := p.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapIntrospection(err, "read tables", schemaName)
	}
	defer rows.Close()

	for rows.Next() {
		var raw RawColumn
		var isNullable string

		err := rows.Scan(
			&raw.Table,
			&raw.Name,
			&raw.DataType,
			&isNullable,
			&raw.Default,
			&raw.MaxLength,
			&raw.IsPrimaryKey,
		)
		if err != nil {
			return nil, wrapIntrospection(err, "scan column", schemaName)
		}
		raw.IsNullable = isNullable == "YES"

		acc.add(raw.Table, raw.toColumn(MapPostgresType(raw.DataType, raw.MaxLength)))
	}
	if err := rows.Err(); err != nil {
		return nil, wrapIntrospection(err, "read tables", schemaName)
	}

	return acc.tables, nil
}

func (p *postgresIntrospector) SchemaExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return true, nil
	}
	var exists bool
	err := p.q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM pg_namespace WHERE nspname = $1)
	`, name).Scan(&exists)
	if err != nil {
		return false, wrapIntrospection(err, "check schema existence", name)
	}
	return exists, nil
}

func (p *postgresIntrospector) TableExists(ctx context.Context, schemaName, table string) (bool, error) {
	var exists bool
	err := p.q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_tables
			WHERE schemaname = `+schemaParam+` AND tablename = $2
		)
	`, schemaName, table).Scan(&exists)
	if err != nil {
		return false, wrapIntrospection(err, "check table existence", schemaName).WithTable(schemaName, table)
	}
	return exists, nil
}

func (p *postgresIntrospector) SchemaTables(ctx context.Context, schemaName string) ([]string, error) {
	rows, err := p.q.QueryContext(ctx, `
		SELECT tablename FROM pg_tables
		WHERE schemaname = `+schemaParam+`
		ORDER BY tablename
	`, schemaName)
	if err != nil {
		return nil, wrapIntrospection(err, "list tables", schemaName)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrapIntrospection(err, "scan table name", schemaName)
		}
		if !isInternalTable(name) {
			tables = append(tables, name)
		}
	}
	return tables, rows.Err()
}

// wrapIntrospection wraps a catalog query failure as ErrIntrospection.
func wrapIntrospection(err error, op, schemaName string) *alerr.Error {
	e := alerr.Wrap(alerr.ErrIntrospection, err, "failed to "+op)
	if schemaName != "" {
		e.With("schema", schemaName)
	}
	if state := alerr.SQLState(err); state != "" {
		e.With("sqlstate", state)
	}
	return e
}
