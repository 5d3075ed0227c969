package catalog

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leapstack-labs/dbschema/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	dir := testutil.WriteCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, 20*time.Millisecond, func() { changes.Add(1) }, testutil.NewTestLogger(t))
	}()

	// Give the watcher time to register directories.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "Sales", "tables", "SalesLine.yaml")
	for i := 0; i < 3; i++ {
		writeFile(t, path, "name: SalesLine\n")
	}

	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	// Non-table files are ignored.
	time.Sleep(100 * time.Millisecond)
	before := changes.Load()
	writeFile(t, filepath.Join(dir, "Sales", "tables", "notes.txt"), "x")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, changes.Load())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), 0, func() {}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch metadata dir")
}
