package routefile

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/reroute-io/reroute/logging"
)

// Reloader is the consumer of file change notifications, typically a
// routing.Table.
type Reloader interface {
	Reload() error
}

// WatchClient triggers a table reload whenever the watched route definition
// file changes. It complements the frozen operating mode for deployments
// that want push style updates without per-request staleness checks. Use the
// Watch function to initialize instances of it.
type WatchClient struct {
	path     string
	reloader Reloader
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      logging.Logger
	quit     chan struct{}
	done     chan struct{}
}

// WatchOption configures a WatchClient.
type WatchOption func(*WatchClient)

// WithDebounce sets the delay collapsing bursts of file events into a single
// reload. Defaults to 100ms.
func WithDebounce(d time.Duration) WatchOption {
	return func(c *WatchClient) { c.debounce = d }
}

// WithLog sets the logger of the watch client.
func WithLog(l logging.Logger) WatchOption {
	return func(c *WatchClient) { c.log = l }
}

// Watch starts watching the route definition file at path and calls the
// reloader when it changes. The parent directory is watched rather than the
// file itself, so editors that replace the file atomically are handled, too.
func Watch(path string, r Reloader, opts ...WatchOption) (*WatchClient, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	c := &WatchClient{
		path:     abs,
		reloader: r,
		watcher:  w,
		debounce: 100 * time.Millisecond,
		log:      logging.DefaultLog{},
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, o := range opts {
		o(c)
	}

	go c.watch()
	return c, nil
}

func (c *WatchClient) watch() {
	defer close(c.done)

	var (
		debounceTimer *time.Timer
		debounceC     <-chan time.Time
	)

	for {
		select {
		case <-c.quit:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != c.path {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}

			debounceTimer = time.NewTimer(c.debounce)
			debounceC = debounceTimer.C
		case <-debounceC:
			debounceC = nil
			if err := c.reloader.Reload(); err != nil {
				c.log.Errorf("reload triggered by %s failed: %v", c.path, err)
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}

			c.log.Errorf("watching %s: %v", c.path, err)
		}
	}
}

// Close stops watching the definition file.
func (c *WatchClient) Close() error {
	close(c.quit)
	err := c.watcher.Close()
	<-c.done
	return err
}
