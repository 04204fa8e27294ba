package routefile

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingReloader struct {
	reloads atomic.Int32
}

func (r *countingReloader) Reload() error {
	r.reloads.Add(1)
	return nil
}

func TestWatchTriggersReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes: []\n"), 0644))

	reloader := &countingReloader{}
	c, err := Watch(path, reloader, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, os.WriteFile(path, []byte(testDocument), 0644))

	require.Eventually(t, func() bool {
		return reloader.reloads.Load() >= 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatchIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes: []\n"), 0644))

	reloader := &countingReloader{}
	c, err := Watch(path, reloader, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644))

	time.Sleep(100 * time.Millisecond)
	require.Zero(t, reloader.reloads.Load())
}

func TestWatchClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes: []\n"), 0644))

	c, err := Watch(path, &countingReloader{})
	require.NoError(t, err)
	require.NoError(t, c.Close())
}
