package dialect

import (
	"strings"
	"testing"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/schema"
)

func TestPostgresName(t *testing.T) {
	if got := Postgres().Name(); got != "postgres" {
		t.Errorf("Name() = %q, want %q", got, "postgres")
	}
}

// -----------------------------------------------------------------------------
// Type Mappings
// -----------------------------------------------------------------------------

func TestPostgresTypeMappings(t *testing.T) {
	d := Postgres()

	tests := []struct {
		name string
		col  *schema.Column
		want string
	}{
		{"integer", schema.Int("n"), "INTEGER"},
		{"serial", schema.Int("id").PK().Auto(), "SERIAL"},
		{"string", schema.Str("s", 100), "VARCHAR(100)"},
		{"text", schema.TextCol("s"), "TEXT"},
		{"boolean", schema.Bool("b"), "BOOLEAN"},
		{"float", schema.FloatCol("f"), "DOUBLE PRECISION"},
		{"date", schema.DateCol("d"), "DATE"},
		{"timestamp", schema.Timestamp("at", false), "TIMESTAMP"},
		{"timestamptz", schema.Timestamp("at", true), "TIMESTAMPTZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildColumnTypeSQL(tt.col, d)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("type = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

func TestPostgresQualifyTable(t *testing.T) {
	d := Postgres()

	tests := []struct {
		schema string
		table  string
		want   string
	}{
		{"accounts", "user", `"accounts"."user"`},
		{"", "user", `"user"`},
		{"my schema", `we"ird`, `"my schema"."we""ird"`},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := d.QualifyTable(tt.schema, tt.table); got != tt.want {
				t.Errorf("QualifyTable(%q, %q) = %q, want %q", tt.schema, tt.table, got, tt.want)
			}
		})
	}

	if d.TableName("accounts", "user") != "user" {
		t.Error("postgres physical table name should not carry the schema")
	}
	if d.Placeholder(3) != "$3" {
		t.Errorf("Placeholder(3) = %q", d.Placeholder(3))
	}
}

// -----------------------------------------------------------------------------
// DDL
// -----------------------------------------------------------------------------

func TestPostgresCreateTable(t *testing.T) {
	d := Postgres()
	tbl := schema.NewTable("accounts", "user",
		schema.Int("id").PK(),
		schema.Str("email", 100).Unq(),
		schema.Str("password", 100).NotNull(),
		schema.Timestamp("created_at", true).Default("now()"),
	)

	got, err := d.CreateTableSQL(tbl, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `CREATE TABLE "accounts"."user" (
  "id" INTEGER PRIMARY KEY,
  "email" VARCHAR(100) CONSTRAINT "uniq_user_email" UNIQUE,
  "password" VARCHAR(100) NOT NULL,
  "created_at" TIMESTAMPTZ DEFAULT now()
)`
	if got != want {
		t.Errorf("CreateTableSQL() =\n%s\nwant\n%s", got, want)
	}
}

func TestPostgresAddColumn(t *testing.T) {
	got, err := Postgres().AddColumnSQL("accounts", "user", schema.Str("displayname", 1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `ALTER TABLE "accounts"."user" ADD COLUMN "displayname" VARCHAR(1000)`
	if got != want {
		t.Errorf("AddColumnSQL() = %q, want %q", got, want)
	}
}

func TestPostgresSchemaStatements(t *testing.T) {
	d := Postgres()
	if got := strings.Join(d.CreateSchemaSQL("accounts"), ";"); got != `CREATE SCHEMA "accounts"` {
		t.Errorf("CreateSchemaSQL = %q", got)
	}
	if got := strings.Join(d.DropSchemaSQL("accounts"), ";"); got != `DROP SCHEMA IF EXISTS "accounts" CASCADE` {
		t.Errorf("DropSchemaSQL = %q", got)
	}
	if got := d.DropTableSQL("accounts", "user", true); got != `DROP TABLE IF EXISTS "accounts"."user"` {
		t.Errorf("DropTableSQL = %q", got)
	}
}

func TestPostgresRejectsOnUpdate(t *testing.T) {
	_, err := Postgres().ColumnSQL("user", schema.Timestamp("at", false).OnUpdate("now()"))
	if !alerr.Is(err, alerr.ErrUnsupportedDialect) {
		t.Errorf("expected ErrUnsupportedDialect, got %v", err)
	}
}
