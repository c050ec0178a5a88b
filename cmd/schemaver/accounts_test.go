package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlop3z/schemaver/pkg/schemaver"
)

func TestAccountsChain(t *testing.T) {
	ctx := context.Background()
	url := "sqlite://" + filepath.Join(t.TempDir(), "accounts.db")

	c, err := schemaver.Open(ctx, schemaver.WithDatabaseURL(url))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Initialize(ctx, V0)
	require.NoError(t, err)

	out, err := c.Migrate(ctx, Latest)
	require.NoError(t, err)
	assert.Equal(t, "migrated from v0 to v1", out.String())
	assert.Equal(t, []string{"v1"}, out.Applied)

	ok, err := c.Matches(ctx, V1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunVersions(t *testing.T) {
	code := schemaver.Run(context.Background(), Latest,
		[]string{"versions", "-c", filepath.Join(t.TempDir(), "none.yaml"), "-o", "json"})
	assert.Equal(t, 0, code)
}
