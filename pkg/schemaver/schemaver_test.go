package schemaver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// accounts returns the two-version chain used across the package tests.
func accounts(t *testing.T) (v0, v1 *Version) {
	t.Helper()
	v0, err := NewVersion("v0", nil, func(d *Declaration) {
		d.Put(NewTable("accounts", "user",
			Int("id").PK(),
			Str("email", 100).Unq(),
			Str("password", 100),
		))
	}, nil)
	require.NoError(t, err)

	v1, err = NewVersion("v1", v0, func(d *Declaration) {
		d.Put(NewTable("accounts", "user",
			Int("id").PK(),
			Str("email", 100).Unq(),
			Str("password", 100),
			Str("displayname", 1000),
		))
	}, func(ctx context.Context, u *Update) error {
		return u.AddColumn(ctx, "accounts", "user", Str("displayname", 1000))
	})
	require.NoError(t, err)
	return v0, v1
}

// sqliteURL returns a URL for a fresh database file.
func sqliteURL(t *testing.T) string {
	t.Helper()
	return "sqlite://" + filepath.Join(t.TempDir(), "app.db")
}

func openSQLite(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	c, err := Open(context.Background(), append([]Option{WithDatabaseURL(url)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}
