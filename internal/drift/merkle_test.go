package drift

import (
	"context"
	"strings"
	"testing"

	"github.com/hlop3z/schemaver/internal/dialect"
	"github.com/hlop3z/schemaver/internal/introspect"
	"github.com/hlop3z/schemaver/internal/schema"
	"github.com/hlop3z/schemaver/internal/testutil"
)

func userTable() *schema.Table {
	return schema.NewTable("accounts", "user",
		schema.Int("id").PK(),
		schema.Str("email", 100).Unq(),
		schema.Str("password", 100),
	)
}

func TestComputeSchemaHash_Empty(t *testing.T) {
	hash, err := ComputeSchemaHash(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hash.Root != emptyHash() {
		t.Errorf("expected empty hash, got %s", hash.Root)
	}
	if len(hash.Tables) != 0 {
		t.Errorf("expected 0 tables, got %d", len(hash.Tables))
	}
}

func TestComputeSchemaHash_SingleTable(t *testing.T) {
	hash, err := ComputeSchemaHash([]*schema.Table{userTable()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hash.Root == "" || hash.Root == emptyHash() {
		t.Errorf("unexpected root hash %q", hash.Root)
	}

	th, ok := hash.Tables["accounts.user"]
	if !ok {
		t.Fatal("expected accounts.user table hash")
	}
	if len(th.Columns) != 3 {
		t.Errorf("expected 3 column hashes, got %d", len(th.Columns))
	}
	if got := strings.Join(th.Order, ","); got != "id,email,password" {
		t.Errorf("Order = %s", got)
	}
}

func TestComputeSchemaHash_Deterministic(t *testing.T) {
	other := schema.NewTable("", "settings", schema.TextCol("key").PK())

	h1, err := ComputeSchemaHash([]*schema.Table{userTable(), other})
	if err != nil {
		t.Fatal(err)
	}
	h2, err := ComputeSchemaHash([]*schema.Table{other, userTable()})
	if err != nil {
		t.Fatal(err)
	}

	if h1.Root != h2.Root {
		t.Errorf("root depends on input order: %s vs %s", h1.Root, h2.Root)
	}
}

func TestComputeSchemaHash_Sensitivity(t *testing.T) {
	base, _ := ComputeSchemaHash([]*schema.Table{userTable()})

	tests := []struct {
		name   string
		modify func(t *schema.Table)
		same   bool
	}{
		{"length", func(t *schema.Table) { t.Columns[1] = schema.Str("email", 255) }, false},
		{"type", func(t *schema.Table) { t.Columns[2] = schema.TextCol("password") }, false},
		{"pk", func(t *schema.Table) { t.Columns[0] = schema.Int("id") }, false},
		{"default", func(t *schema.Table) { t.Columns[2].Default("'x'") }, false},
		{"order", func(t *schema.Table) { t.Columns[1], t.Columns[2] = t.Columns[2], t.Columns[1] }, false},
		{"added column", func(t *schema.Table) { t.Columns = append(t.Columns, schema.Bool("active")) }, false},
		{"nullability ignored", func(t *schema.Table) { t.Columns[2].NotNull() }, true},
		{"uniqueness ignored", func(t *schema.Table) { t.Columns[1].Unique = false }, true},
		{"pk default ignored", func(t *schema.Table) { t.Columns[0].Default("1") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := userTable()
			tt.modify(table)
			h, err := ComputeSchemaHash([]*schema.Table{table})
			if err != nil {
				t.Fatal(err)
			}
			if (h.Root == base.Root) != tt.same {
				t.Errorf("same root = %v, want %v", h.Root == base.Root, tt.same)
			}
		})
	}
}

func TestComputeSchemaHash_NormalizedDefaults(t *testing.T) {
	a := schema.NewTable("", "t", schema.Int("id").PK(), schema.Timestamp("at", false).Default("now()"))
	b := schema.NewTable("", "t", schema.Int("id").PK(), schema.Timestamp("at", false).Default("CURRENT_TIMESTAMP"))

	ha, _ := ComputeSchemaHash([]*schema.Table{a})
	hb, _ := ComputeSchemaHash([]*schema.Table{b})
	if ha.Root != hb.Root {
		t.Error("equivalent defaults should hash equally")
	}
}

func TestCompareHashes(t *testing.T) {
	expected, _ := ComputeSchemaHash([]*schema.Table{
		userTable(),
		schema.NewTable("accounts", "session", schema.Int("id").PK()),
	})

	changed := userTable()
	changed.Columns[1] = schema.Str("email", 255)
	changed.Columns = append(changed.Columns, schema.Str("displayname", 1000))
	actual, _ := ComputeSchemaHash([]*schema.Table{changed})

	cmp := CompareHashes(expected, actual)
	if cmp.Match {
		t.Fatal("expected mismatch")
	}
	if got := strings.Join(cmp.MissingTables, ","); got != "accounts.session" {
		t.Errorf("MissingTables = %s", got)
	}

	diff, ok := cmp.TableDiffs["accounts.user"]
	if !ok {
		t.Fatal("expected accounts.user diff")
	}
	if got := strings.Join(diff.ModifiedColumns, ","); got != "email" {
		t.Errorf("ModifiedColumns = %s", got)
	}
	if got := strings.Join(diff.ExtraColumns, ","); got != "displayname" {
		t.Errorf("ExtraColumns = %s", got)
	}
	if diff.Reordered {
		t.Error("Reordered should be false when columns differ")
	}
	if !diff.HasDifferences() {
		t.Error("HasDifferences() = false")
	}
}

func TestCompareHashes_Reordered(t *testing.T) {
	expected, _ := ComputeSchemaHash([]*schema.Table{userTable()})
	swapped := userTable()
	swapped.Columns[1], swapped.Columns[2] = swapped.Columns[2], swapped.Columns[1]
	actual, _ := ComputeSchemaHash([]*schema.Table{swapped})

	diff := CompareHashes(expected, actual).TableDiffs["accounts.user"]
	if diff == nil || !diff.Reordered {
		t.Fatalf("expected reordered diff, got %+v", diff)
	}
}

func TestDetector(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupSQLite(t)
	testutil.ExecSQL(t, db, `CREATE TABLE "accounts_user" ("id" INTEGER PRIMARY KEY, "email" VARCHAR(100) UNIQUE, "password" VARCHAR(100))`)
	testutil.ExecSQL(t, db, `CREATE TABLE "unrelated" ("id" INTEGER)`)

	cat, err := introspect.New(db, dialect.SQLite())
	if err != nil {
		t.Fatal(err)
	}
	det := NewDetector(cat)

	result, err := det.Detect(ctx, schema.NewDeclaration(userTable()))
	if err != nil {
		t.Fatal(err)
	}
	if result.HasDrift {
		t.Fatalf("unexpected drift:\n%s", FormatResult(result))
	}
	if !strings.Contains(FormatResult(result), "fingerprints match") {
		t.Errorf("FormatResult() = %s", FormatResult(result))
	}

	withSession := schema.NewDeclaration(userTable(), schema.NewTable("accounts", "session", schema.Int("id").PK()))
	result, err = det.Detect(ctx, withSession)
	if err != nil {
		t.Fatal(err)
	}
	if !result.HasDrift {
		t.Error("Detect() should report drift for a missing table")
	}
	summary := Summarize(result)
	if summary.MissingTables != 1 || summary.Tables != 2 {
		t.Errorf("Summarize() = %+v", summary)
	}
	if got := FormatSummary(summary); got != "2 tables: 1 missing" {
		t.Errorf("FormatSummary() = %q", got)
	}
	if out := FormatResult(result); !strings.Contains(out, "- accounts.session") {
		t.Errorf("FormatResult() missing table line:\n%s", out)
	}
}

func TestFormatQuickStatus(t *testing.T) {
	inSync := &Result{ExpectedHash: "0123456789abcdef", ActualHash: "0123456789abcdef"}
	if got := FormatQuickStatus(inSync); got != "in-sync 0123456789ab" {
		t.Errorf("got %q", got)
	}
	drifted := &Result{HasDrift: true, ExpectedHash: "abc", ActualHash: "def"}
	if got := FormatQuickStatus(drifted); got != "drift declared=abc live=def" {
		t.Errorf("got %q", got)
	}
	if got := FormatSummary(&Summary{Tables: 3}); got != "3 of 3 tables in sync" {
		t.Errorf("FormatSummary() = %q", got)
	}
}
