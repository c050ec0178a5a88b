package schemaver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchRunsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(context.Context) error {
			calls <- struct{}{}
			return nil
		})
	}()

	waitCall := func(msg string) {
		t.Helper()
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatal(msg)
		}
	}

	waitCall("no initial call")

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path+"-journal", []byte("b"), 0o644))
	waitCall("no call after write")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchStopsOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	boom := errors.New("boom")

	err := Watch(context.Background(), path, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), "/nonexistent-dir/app.db", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Equal(t, ErrConfig, CodeOf(err))
}

func TestPoll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var n atomic.Int32
	err := Poll(ctx, time.Millisecond, func(context.Context) error {
		if n.Add(1) == 3 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n.Load(), int32(3))

	assert.Equal(t, ErrConfig, CodeOf(Poll(context.Background(), 0, nil)))
}
