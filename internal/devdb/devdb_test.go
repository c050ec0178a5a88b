package devdb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/schema"
	"github.com/hlop3z/schemaver/internal/version"
)

func declareV0(d *schema.Declaration) {
	d.Put(schema.NewTable("accounts", "user",
		schema.Int("id").PK(),
		schema.Str("email", 100).Unq(),
	))
}

func declareV1(d *schema.Declaration) {
	declareV0(d)
	d.Lookup("accounts", "user").Extend(schema.Str("displayname", 1000))
}

func updateV1(ctx context.Context, u *version.Update) error {
	return u.AddColumn(ctx, "accounts", "user", schema.Str("displayname", 1000))
}

func TestRehearseChain(t *testing.T) {
	ctx := context.Background()
	v0 := version.MustNew("v0", nil, declareV0, nil)
	v1 := version.MustNew("v1", v0, declareV1, updateV1)

	r, err := Rehearse(ctx, v1, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"v0", "v1"}, r.Versions)
	assert.Equal(t, []string{"v1"}, r.Applied)
	require.NotEmpty(t, r.Statements)
	assert.Contains(t, r.Statements[len(r.Statements)-1], "ADD COLUMN")
}

func TestRehearseRootOnly(t *testing.T) {
	v0 := version.MustNew("v0", nil, declareV0, nil)

	r, err := Rehearse(context.Background(), v0, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"v0"}, r.Versions)
	assert.Empty(t, r.Applied)
}

func TestRehearseCatchesWrongUpdate(t *testing.T) {
	v0 := version.MustNew("v0", nil, declareV0, nil)
	v1 := version.MustNew("v1", v0, declareV1, func(ctx context.Context, u *version.Update) error {
		return u.AddColumn(ctx, "accounts", "user", schema.Str("nickname", 50))
	})

	_, err := Rehearse(context.Background(), v1, Options{}, nil)
	require.Error(t, err)
	assert.True(t, alerr.Is(err, alerr.ErrVerification), "got %v", err)
}

func TestRehearseFailingUpdate(t *testing.T) {
	v0 := version.MustNew("v0", nil, declareV0, nil)
	v1 := version.MustNew("v1", v0, declareV1, func(context.Context, *version.Update) error {
		return errors.New("boom")
	})

	_, err := Rehearse(context.Background(), v1, Options{}, nil)
	require.Error(t, err)
	assert.True(t, alerr.Is(err, alerr.ErrUpdateExecution))
	assert.Contains(t, err.Error(), "boom")
}

func TestDevDatabaseIsolated(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, nil)
	require.NoError(t, err)
	defer a.Close()
	b, err := New(ctx, nil)
	require.NoError(t, err)
	defer b.Close()

	_, err = a.DB().ExecContext(ctx, `CREATE TABLE "t" ("id" INTEGER)`)
	require.NoError(t, err)

	var n int
	require.NoError(t, b.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE name = 't'`).Scan(&n))
	assert.Zero(t, n)
}
