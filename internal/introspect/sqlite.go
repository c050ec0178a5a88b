package introspect

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hlop3z/schemaver/internal/dialect"
	"github.com/hlop3z/schemaver/internal/schema"
)

// sqliteIntrospector reads SQLite catalogs. Schemas are emulated: a table
// "t" in schema "s" is stored as "s_t" and "s" is listed in the namespace
// registry table.
type sqliteIntrospector struct {
	q       Queryer
	dialect dialect.Dialect
}

func (s *sqliteIntrospector) Dialect() dialect.Dialect {
	return s.dialect
}

func (s *sqliteIntrospector) ReadTables(ctx context.Context, schemaName string, names []string) (map[schema.TableKey]*schema.Table, error) {
	acc := newTableAccumulator(schemaName)
	if len(names) == 0 {
		return acc.tables, nil
	}

	logical := make(map[string]string, len(names))
	args := make([]any, len(names))
	for i, n := range names {
		physical := s.dialect.TableName(schemaName, n)
		logical[physical] = n
		args[i] = physical
	}

	// pragma_table_info returns: cid, name, type, notnull, dflt_value, pk
	query := fmt.Sprintf(`
		SELECT m.name, p.name, p.type, p."notnull", p.dflt_value, p.pk
		FROM sqlite_master m
		JOIN pragma_table_info(m.name) p
		WHERE m.type = 'table' AND m.name IN (%s)
		ORDER BY m.name, p.cid
	`, placeholders(s.dialect, 1, len(names)))

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapIntrospection(err, "read tables", schemaName)
	}
	defer rows.Close()

	for rows.Next() {
		var raw RawColumn
		var notNull, pk int

		if err := rows.Scan(&raw.Table, &raw.Name, &raw.DataType, &notNull, &raw.Default, &pk); err != nil {
			return nil, wrapIntrospection(err, "scan column", schemaName)
		}
		raw.IsNullable = notNull == 0
		raw.IsPrimaryKey = pk > 0

		acc.add(logical[raw.Table], raw.toColumn(MapSQLiteType(raw.DataType)))
	}
	if err := rows.Err(); err != nil {
		return nil, wrapIntrospection(err, "read tables", schemaName)
	}

	return acc.tables, nil
}

func (s *sqliteIntrospector) SchemaExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return true, nil
	}
	namespaces, err := s.namespaces(ctx)
	if err != nil {
		return false, err
	}
	for _, ns := range namespaces {
		if ns == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *sqliteIntrospector) TableExists(ctx context.Context, schemaName, table string) (bool, error) {
	exists, err := s.physicalTableExists(ctx, s.dialect.TableName(schemaName, table))
	if err != nil {
		return false, wrapIntrospection(err, "check table existence", schemaName).WithTable(schemaName, table)
	}
	return exists, nil
}

func (s *sqliteIntrospector) SchemaTables(ctx context.Context, schemaName string) ([]string, error) {
	all, err := s.listTables(ctx)
	if err != nil {
		return nil, err
	}

	if schemaName != "" {
		prefix := schemaName + "_"
		var tables []string
		for _, name := range all {
			if strings.HasPrefix(name, prefix) {
				tables = append(tables, strings.TrimPrefix(name, prefix))
			}
		}
		return tables, nil
	}

	// The default schema holds every table not claimed by a registered namespace.
	namespaces, err := s.namespaces(ctx)
	if err != nil {
		return nil, err
	}
	var tables []string
	for _, name := range all {
		claimed := false
		for _, ns := range namespaces {
			if strings.HasPrefix(name, ns+"_") {
				claimed = true
				break
			}
		}
		if !claimed {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

func (s *sqliteIntrospector) listTables(ctx context.Context) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, wrapIntrospection(err, "list tables", "")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrapIntrospection(err, "scan table name", "")
		}
		if !isInternalTable(name) {
			tables = append(tables, name)
		}
	}
	return tables, rows.Err()
}

// namespaces returns the registered schema names, longest first so that
// prefix matching prefers "a_b" over "a".
func (s *sqliteIntrospector) namespaces(ctx context.Context) ([]string, error) {
	exists, err := s.physicalTableExists(ctx, dialect.NamespaceTable)
	if err != nil {
		return nil, wrapIntrospection(err, "check namespace registry", "")
	}
	if !exists {
		return nil, nil
	}

	rows, err := s.q.QueryContext(ctx, `SELECT name FROM `+s.dialect.QuoteIdent(dialect.NamespaceTable))
	if err != nil {
		return nil, wrapIntrospection(err, "read namespace registry", "")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrapIntrospection(err, "scan namespace", "")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapIntrospection(err, "read namespace registry", "")
	}

	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	return names, nil
}

func (s *sqliteIntrospector) physicalTableExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name = ?
	`, name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
