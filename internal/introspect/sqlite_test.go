package introspect_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlop3z/schemaver/internal/dialect"
	"github.com/hlop3z/schemaver/internal/introspect"
	"github.com/hlop3z/schemaver/internal/schema"
	"github.com/hlop3z/schemaver/internal/testutil"
)

func setupAccounts(t *testing.T) introspect.Catalog {
	t.Helper()

	db := testutil.SetupSQLite(t)
	testutil.ExecSQL(t, db, `CREATE TABLE "schemaver_namespaces" ("name" TEXT PRIMARY KEY)`)
	testutil.ExecSQL(t, db, `INSERT INTO "schemaver_namespaces" ("name") VALUES ('accounts')`)
	testutil.ExecSQL(t, db, `CREATE TABLE "accounts_user" (
		"id" INTEGER PRIMARY KEY,
		"email" VARCHAR(100) UNIQUE,
		"password" VARCHAR(100) NOT NULL,
		"active" BOOLEAN DEFAULT 1,
		"created_at" TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`)
	testutil.ExecSQL(t, db, `CREATE TABLE "accounts_session" ("id" INTEGER PRIMARY KEY, "blob" BLOB)`)
	testutil.ExecSQL(t, db, `CREATE TABLE "settings" ("key" TEXT PRIMARY KEY, "value" TEXT)`)

	cat, err := introspect.New(db, dialect.SQLite())
	require.NoError(t, err)
	return cat
}

func TestSQLiteReadTables(t *testing.T) {
	ctx := context.Background()
	cat := setupAccounts(t)

	tables, err := cat.ReadTables(ctx, "accounts", []string{"user", "session", "missing"})
	require.NoError(t, err)
	require.Len(t, tables, 2, "absent tables are simply absent")

	user := tables[schema.TableKey{Schema: "accounts", Name: "user"}]
	require.NotNil(t, user)
	assert.Equal(t, "accounts", user.Schema)
	assert.Equal(t, "user", user.Name)
	assert.Equal(t, []string{"id", "email", "password", "active", "created_at"}, user.ColumnNames())

	id := user.Columns[0]
	assert.Equal(t, schema.Integer, id.Type)
	assert.True(t, id.PrimaryKey)
	assert.False(t, id.Nullable)

	email := user.Columns[1]
	assert.Equal(t, schema.String, email.Type)
	assert.Equal(t, 100, email.LengthValue())
	assert.True(t, email.Nullable)
	assert.Nil(t, email.ServerDefault)

	password := user.Columns[2]
	assert.False(t, password.Nullable)

	active := user.Columns[3]
	assert.Equal(t, schema.Boolean, active.Type)
	require.NotNil(t, active.ServerDefault)
	assert.Equal(t, "1", active.ServerDefault.SQL)

	created := user.Columns[4]
	assert.Equal(t, schema.DateTime, created.Type)
	assert.True(t, created.TimezoneAware())
	require.NotNil(t, created.ServerDefault)
	assert.Equal(t, "CURRENT_TIMESTAMP", created.ServerDefault.SQL)

	session := tables[schema.TableKey{Schema: "accounts", Name: "session"}]
	require.NotNil(t, session)
	assert.Equal(t, schema.Unknown, session.Columns[1].Type)
	assert.Equal(t, "unknown(BLOB)", session.Columns[1].TypeString())
}

func TestSQLiteReadTablesDefaultSchema(t *testing.T) {
	cat := setupAccounts(t)

	tables, err := cat.ReadTables(context.Background(), "", []string{"settings"})
	require.NoError(t, err)
	require.Contains(t, tables, schema.TableKey{Name: "settings"})
}

func TestSQLiteReadTablesEmpty(t *testing.T) {
	cat := setupAccounts(t)

	tables, err := cat.ReadTables(context.Background(), "accounts", nil)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestSQLiteExistence(t *testing.T) {
	ctx := context.Background()
	cat := setupAccounts(t)

	ok, err := cat.SchemaExists(ctx, "accounts")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cat.SchemaExists(ctx, "billing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = cat.SchemaExists(ctx, "")
	require.NoError(t, err)
	assert.True(t, ok, "default schema always exists")

	ok, err = cat.TableExists(ctx, "accounts", "user")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cat.TableExists(ctx, "accounts", "settings")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteSchemaTables(t *testing.T) {
	ctx := context.Background()
	cat := setupAccounts(t)

	tables, err := cat.SchemaTables(ctx, "accounts")
	require.NoError(t, err)
	assert.Equal(t, []string{"session", "user"}, tables)

	tables, err = cat.SchemaTables(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"settings"}, tables, "registry and namespaced tables are excluded")
}

func TestSQLiteSchemaExistsWithoutRegistry(t *testing.T) {
	db := testutil.SetupSQLite(t)
	cat, err := introspect.New(db, dialect.SQLite())
	require.NoError(t, err)

	ok, err := cat.SchemaExists(context.Background(), "accounts")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadDeclaredBatchesPerSchema(t *testing.T) {
	cat := setupAccounts(t)
	counter := &countingReader{inner: cat}

	decl := schema.NewDeclaration(
		schema.NewTable("accounts", "user", schema.Int("id").PK()),
		schema.NewTable("", "settings", schema.TextCol("key").PK()),
		schema.NewTable("accounts", "session", schema.Int("id").PK()),
	)

	live, err := introspect.ReadDeclared(context.Background(), counter, decl)
	require.NoError(t, err)
	assert.Len(t, live, 3)
	assert.Equal(t, 2, counter.calls, "one read per distinct schema")
}

type countingReader struct {
	inner introspect.Reader
	calls int
}

func (c *countingReader) ReadTables(ctx context.Context, s string, names []string) (map[schema.TableKey]*schema.Table, error) {
	c.calls++
	return c.inner.ReadTables(ctx, s, names)
}
