package introspect

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/hlop3z/schemaver/internal/schema"
)

// TypeMapping holds the result of parsing a SQL type back to a type category.
type TypeMapping struct {
	Type     schema.TypeTag
	Length   *int
	Timezone *bool
}

func tagged(t schema.TypeTag) TypeMapping {
	return TypeMapping{Type: t}
}

func stringOf(length int, ok bool) TypeMapping {
	m := TypeMapping{Type: schema.String}
	if ok && length > 0 {
		m.Length = &length
	}
	return m
}

func datetime(tz bool) TypeMapping {
	return TypeMapping{Type: schema.DateTime, Timezone: &tz}
}

// MapPostgresType converts an information_schema data_type to a type category.
// Types outside the known categories map to schema.Unknown.
func MapPostgresType(dataType string, maxLen sql.NullInt64) TypeMapping {
	upper := strings.ToUpper(strings.TrimSpace(dataType))

	switch upper {
	case "INTEGER", "INT", "INT4", "SMALLINT", "INT2", "BIGINT", "INT8":
		return tagged(schema.Integer)

	case "CHARACTER VARYING", "VARCHAR", "CHARACTER", "CHAR", "BPCHAR":
		return stringOf(int(maxLen.Int64), maxLen.Valid)

	case "TEXT":
		return tagged(schema.Text)

	case "BOOLEAN", "BOOL":
		return tagged(schema.Boolean)

	case "REAL", "FLOAT4", "DOUBLE PRECISION", "FLOAT8":
		return tagged(schema.Float)

	case "DATE":
		return tagged(schema.Date)

	case "TIMESTAMP WITH TIME ZONE", "TIMESTAMPTZ":
		return datetime(true)

	case "TIMESTAMP", "TIMESTAMP WITHOUT TIME ZONE":
		return datetime(false)

	default:
		return tagged(schema.Unknown)
	}
}

// MapSQLiteType converts a SQLite declared column type to a type category.
// SQLite keeps the declared type text verbatim, so lengths come from the
// type's argument list, e.g. VARCHAR(100).
func MapSQLiteType(sqlType string) TypeMapping {
	base, args := splitTypeArgs(strings.ToUpper(strings.TrimSpace(sqlType)))

	switch base {
	case "INTEGER", "INT", "BIGINT", "SMALLINT", "TINYINT", "MEDIUMINT", "INT2", "INT4", "INT8":
		return tagged(schema.Integer)

	case "VARCHAR", "CHARACTER VARYING", "VARYING CHARACTER", "NVARCHAR", "CHAR", "CHARACTER", "NCHAR":
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			return stringOf(n, err == nil)
		}
		return stringOf(0, false)

	case "TEXT", "CLOB":
		return tagged(schema.Text)

	case "BOOLEAN", "BOOL":
		return tagged(schema.Boolean)

	case "REAL", "FLOAT", "DOUBLE", "DOUBLE PRECISION", "FLOAT4", "FLOAT8":
		return tagged(schema.Float)

	case "DATE":
		return tagged(schema.Date)

	case "DATETIME", "TIMESTAMP", "TIMESTAMP WITHOUT TIME ZONE":
		return datetime(false)

	case "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE":
		return datetime(true)

	default:
		return tagged(schema.Unknown)
	}
}

// splitTypeArgs splits "VARCHAR(100)" into "VARCHAR" and ["100"].
// Runs of whitespace in the base name are collapsed.
func splitTypeArgs(t string) (string, []string) {
	var args []string
	if open := strings.IndexByte(t, '('); open >= 0 {
		if end := strings.LastIndexByte(t, ')'); end > open {
			for _, a := range strings.Split(t[open+1:end], ",") {
				args = append(args, strings.TrimSpace(a))
			}
		}
		t = t[:open]
	}
	return strings.Join(strings.Fields(t), " "), args
}
