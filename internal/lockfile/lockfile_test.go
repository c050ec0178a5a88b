package lockfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlop3z/schemaver/internal/alerr"
	"github.com/hlop3z/schemaver/internal/schema"
	"github.com/hlop3z/schemaver/internal/version"
)

func declareUsers(d *schema.Declaration) {
	d.Put(schema.NewTable("accounts", "user",
		schema.Int("id").PK(),
		schema.Str("email", 100),
	))
}

func declareUsersWithName(d *schema.Declaration) {
	declareUsers(d)
	d.Lookup("accounts", "user").Extend(schema.Str("displayname", 1000))
}

func addName(ctx context.Context, u *version.Update) error {
	return u.AddColumn(ctx, "accounts", "user", schema.Str("displayname", 1000))
}

func chain(declareRoot version.DeclareFunc) (v0, v1 *version.Version) {
	v0 = version.MustNew("v0", nil, declareRoot, nil)
	v1 = version.MustNew("v1", v0, declareUsersWithName, addName)
	return v0, v1
}

func TestComputeAndRoundTrip(t *testing.T) {
	_, v1 := chain(declareUsers)
	path := filepath.Join(t.TempDir(), "nested", DefaultPath)

	lf, err := Compute(v1, 0)
	require.NoError(t, err)
	require.Len(t, lf.Entries, 2)
	assert.Equal(t, "v0", lf.Entries[0].Version)
	assert.Equal(t, "v1", lf.Entries[1].Version)
	assert.Len(t, lf.Aggregate, 64)

	require.NoError(t, Write(path, lf))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, lf.Aggregate, lines[0])
	assert.True(t, strings.HasSuffix(lines[1], " v0"))

	read, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, lf, read)
}

func TestReadMissing(t *testing.T) {
	lf, err := Read(filepath.Join(t.TempDir(), "absent.lock"))
	require.NoError(t, err)
	assert.Nil(t, lf)
}

func TestReadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte("abc\nnospace\n"), 0o644))

	_, err := Read(path)
	require.Error(t, err)
	assert.True(t, alerr.Is(err, alerr.ErrConfig))
}

func TestVerify(t *testing.T) {
	_, v1 := chain(declareUsers)
	path := filepath.Join(t.TempDir(), DefaultPath)

	lf, err := Compute(v1.Prev(), 0)
	require.NoError(t, err)
	require.NoError(t, Write(path, lf))

	t.Run("appended version is allowed", func(t *testing.T) {
		res, err := Verify(path, v1, 0)
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.False(t, res.AggregateMatch)
		assert.Equal(t, []string{"v1"}, res.NewVersions)
		assert.Equal(t, []string{"v0"}, res.VerifiedVersions)
		assert.NoError(t, res.Err())
	})

	t.Run("edited released declaration", func(t *testing.T) {
		_, edited := chain(func(d *schema.Declaration) {
			d.Put(schema.NewTable("accounts", "user",
				schema.Int("id").PK(),
				schema.Str("email", 255),
			))
		})
		res, err := Verify(path, edited, 0)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, []string{"v0"}, res.ModifiedVersions)

		err = res.Err()
		require.Error(t, err)
		assert.True(t, alerr.Is(err, alerr.ErrChain))
	})

	t.Run("removed version", func(t *testing.T) {
		full, err := Compute(v1, 0)
		require.NoError(t, err)
		longer := filepath.Join(t.TempDir(), DefaultPath)
		require.NoError(t, Write(longer, full))

		res, err := Verify(longer, v1.Prev(), 0)
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, []string{"v1"}, res.RemovedVersions)
	})
}

func TestVerifyWithoutLockFile(t *testing.T) {
	_, v1 := chain(declareUsers)

	res, err := Verify(filepath.Join(t.TempDir(), DefaultPath), v1, 0)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.False(t, res.LockFileExists)
	assert.Equal(t, []string{"v0", "v1"}, res.NewVersions)
	assert.Contains(t, res.Err().Error(), "lock file not found")
}

func TestAggregatePinsOrder(t *testing.T) {
	a := []Entry{{Version: "v0", Fingerprint: "aa"}, {Version: "v1", Fingerprint: "bb"}}
	b := []Entry{{Version: "v1", Fingerprint: "bb"}, {Version: "v0", Fingerprint: "aa"}}

	assert.NotEqual(t, computeAggregate(a), computeAggregate(b))
	assert.Equal(t, computeAggregate(a), computeAggregate(a))
	assert.Len(t, computeAggregate(nil), 64)
}
