package ddl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/ddl"
	"github.com/hlop3z/schemaver/internal/dialect"
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

func newHelper(t *testing.T, opts ...ddl.Option) (*ddl.Helper, func() []string) {
	t.Helper()

	db := testutil.SetupSQLite(t)
	h, err := ddl.New(db, dialect.SQLite(), opts...)
	require.NoError(t, err)

	tables := func() []string {
		rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
		require.NoError(t, err)
		defer rows.Close()
		var names []string
		for rows.Next() {
			var n string
			require.NoError(t, rows.Scan(&n))
			names = append(names, n)
		}
		require.NoError(t, rows.Err())
		return names
	}
	return h, tables
}

func TestNewRejectsNil(t *testing.T) {
	_, err := ddl.New(nil, dialect.SQLite())
	assert.True(t, alerr.Is(err, alerr.ErrSQLConnection))

	_, err = ddl.New(testutil.SetupSQLite(t), nil)
	assert.True(t, alerr.Is(err, alerr.ErrUnsupportedDialect))
}

func TestCreateTableRegistersSchema(t *testing.T) {
	ctx := context.Background()
	h, tables := newHelper(t)

	require.NoError(t, h.CreateTable(ctx, userTable()))
	assert.Equal(t, []string{"accounts_user", "schemaver_namespaces"}, tables())

	ok, err := h.TableExists(ctx, "accounts", "user")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.SchemaExists(ctx, "accounts")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateTableValidates(t *testing.T) {
	h, _ := newHelper(t)

	err := h.CreateTable(context.Background(), schema.NewTable("accounts", "user"))
	assert.True(t, alerr.Is(err, alerr.ErrDeclaration))
}

func TestAddColumn(t *testing.T) {
	ctx := context.Background()
	h, _ := newHelper(t)
	require.NoError(t, h.CreateTable(ctx, userTable()))

	require.NoError(t, h.AddColumn(ctx, "accounts", "user", schema.Str("displayname", 1000)))

	live, err := h.Catalog().ReadTables(ctx, "accounts", []string{"user"})
	require.NoError(t, err)
	user := live[schema.TableKey{Schema: "accounts", Name: "user"}]
	require.NotNil(t, user)
	assert.Equal(t, []string{"id", "email", "password", "displayname"}, user.ColumnNames())
	assert.Equal(t, 1000, user.Columns[3].LengthValue())
}

func TestAddColumnDuplicateRollsBack(t *testing.T) {
	ctx := context.Background()
	h, _ := newHelper(t)
	require.NoError(t, h.CreateTable(ctx, userTable()))

	err := h.AddColumn(ctx, "accounts", "user", schema.Str("email", 100))
	require.Error(t, err)
	assert.True(t, alerr.Is(err, alerr.ErrSQLExecution))

	var e *alerr.Error
	require.ErrorAs(t, err, &e)
	sql, ok := e.Get("sql")
	require.True(t, ok)
	assert.Contains(t, sql, "ADD COLUMN")
	column, _ := e.Get("column")
	assert.Equal(t, "email", column)

	live, err := h.Catalog().ReadTables(ctx, "accounts", []string{"user"})
	require.NoError(t, err)
	assert.Len(t, live[schema.TableKey{Schema: "accounts", Name: "user"}].Columns, 3)
}

func TestAddColumnUnsupported(t *testing.T) {
	ctx := context.Background()
	h, _ := newHelper(t)
	require.NoError(t, h.CreateTable(ctx, userTable()))

	err := h.AddColumn(ctx, "accounts", "user", schema.Str("nickname", 50).Unq())
	assert.True(t, alerr.Is(err, alerr.ErrUnsupportedDialect))
}

func TestCreateSchema(t *testing.T) {
	ctx := context.Background()
	h, tables := newHelper(t)

	require.NoError(t, h.CreateSchema(ctx, "accounts", false))
	ok, err := h.SchemaExists(ctx, "accounts")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, h.CreateTable(ctx, userTable()))

	// existing schema is kept
	require.NoError(t, h.CreateSchema(ctx, "accounts", false))
	assert.Contains(t, tables(), "accounts_user")

	// dropExisting recreates it empty
	require.NoError(t, h.CreateSchema(ctx, "accounts", true))
	assert.NotContains(t, tables(), "accounts_user")
	ok, err = h.SchemaExists(ctx, "accounts")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateSchemaRequiresName(t *testing.T) {
	h, _ := newHelper(t)
	err := h.CreateSchema(context.Background(), "", false)
	assert.True(t, alerr.Is(err, alerr.ErrDeclaration))
}

func TestDropSchema(t *testing.T) {
	ctx := context.Background()
	h, tables := newHelper(t)
	require.NoError(t, h.CreateTable(ctx, userTable()))
	require.NoError(t, h.CreateTable(ctx, schema.NewTable("", "settings", schema.TextCol("key").PK())))

	require.NoError(t, h.DropSchema(ctx, "accounts"))
	assert.Equal(t, []string{"schemaver_namespaces", "settings"}, tables())

	ok, err := h.SchemaExists(ctx, "accounts")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()
	h, tables := newHelper(t)

	decl := schema.NewDeclaration(
		userTable(),
		schema.NewTable("accounts", "session",
			schema.Int("id").PK().Auto(),
			schema.Int("user_id").NotNull(),
			schema.Timestamp("created_at", true).Default("CURRENT_TIMESTAMP"),
		),
	)
	require.NoError(t, h.Initialize(ctx, decl))
	assert.Equal(t, []string{"accounts_session", "accounts_user", "schemaver_namespaces"}, tables())

	err := h.Initialize(ctx, decl)
	require.Error(t, err)
	assert.True(t, alerr.Is(err, alerr.ErrDatabaseNotEmpty))
}

func TestInitializeRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	h, tables := newHelper(t)

	// Both tables map to the physical name "a_b_c".
	decl := schema.NewDeclaration(
		schema.NewTable("a", "b_c", schema.Int("id").PK()),
		schema.NewTable("a_b", "c", schema.Int("id").PK()),
	)
	err := h.Initialize(ctx, decl)
	require.Error(t, err)
	assert.True(t, alerr.Is(err, alerr.ErrSQLExecution))
	assert.Empty(t, tables())
}

func TestInitializeRejectsInvalidDeclaration(t *testing.T) {
	h, tables := newHelper(t)

	decl := schema.NewDeclaration(schema.NewTable("accounts", "user", schema.Col("id", schema.Unknown)))
	err := h.Initialize(context.Background(), decl)
	assert.True(t, alerr.Is(err, alerr.ErrDeclaration))
	assert.Empty(t, tables())
}

func TestExecRollsBack(t *testing.T) {
	ctx := context.Background()
	h, tables := newHelper(t)

	err := h.Exec(ctx,
		`CREATE TABLE "first" ("id" INTEGER)`,
		`CREATE TABLE "broken" (`,
	)
	require.Error(t, err)
	assert.True(t, alerr.Is(err, alerr.ErrSQLExecution))
	assert.Empty(t, tables())

	require.NoError(t, h.Exec(ctx))
}

func TestDryRun(t *testing.T) {
	ctx := context.Background()
	var seen []string
	h, tables := newHelper(t, ddl.WithDryRun(), ddl.WithStatementHook(func(stmt string) {
		seen = append(seen, stmt)
	}))

	require.True(t, h.DryRun())
	require.NoError(t, h.Initialize(ctx, schema.NewDeclaration(userTable())))
	require.NoError(t, h.AddColumn(ctx, "accounts", "user", schema.Str("displayname", 1000)))

	assert.Empty(t, tables())
	stmts := h.Statements()
	require.NotEmpty(t, stmts)
	assert.Equal(t, seen, stmts)
	assert.Contains(t, stmts[len(stmts)-1], `ALTER TABLE "accounts_user" ADD COLUMN "displayname" VARCHAR(1000)`)
}

func TestDropTable(t *testing.T) {
	ctx := context.Background()
	h, tables := newHelper(t)
	require.NoError(t, h.CreateTable(ctx, userTable()))

	require.NoError(t, h.DropTable(ctx, "accounts", "user"))
	require.NoError(t, h.DropTable(ctx, "accounts", "user"))
	assert.Equal(t, []string{"schemaver_namespaces"}, tables())
}
