// Package routing maintains the active route table of the router.
//
// The table is published as an immutable snapshot behind a single atomic
// reference: request dispatch takes a lock-free read of the latest snapshot,
// while reloads build the next table fully off to the side and swap it in one
// step. Concurrent readers observe either the old or the new table in full,
// never a mix.
//
// The source part of the table is cached together with the modification
// timestamp of the definition source, and recompiled only when the source
// changed. Supplier routes are re-queried on every reload and appended after
// the source routes, so source routes always take priority.
package routing

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/reroute-io/reroute/logging"
	"github.com/reroute-io/reroute/metrics"
	"github.com/reroute-io/reroute/routedef"
)

// Source provides the reloadable route definition document.
type Source interface {

	// Exists reports whether the definition source is present at all. A
	// missing source is not an error: the source part of the table is empty.
	Exists() bool

	// LastModified returns the modification timestamp of the source.
	LastModified() (time.Time, error)

	// Compile parses the source into an ordered route list.
	Compile() ([]*routedef.Route, error)
}

// RouteSupplier instances contribute additional routes, e.g. on behalf of
// plugins. They are consulted fresh on every reload and their routes are
// appended after the source routes.
type RouteSupplier interface {
	Routes() []*routedef.Route
}

// RouteSupplierFunc adapts a function to the RouteSupplier interface.
type RouteSupplierFunc func() []*routedef.Route

func (f RouteSupplierFunc) Routes() []*routedef.Route { return f() }

// FixedRoutes adapts a static route list to the RouteSupplier interface.
type FixedRoutes []*routedef.Route

func (f FixedRoutes) Routes() []*routedef.Route { return f }

// ReloadError reports a failed refresh of the route table. The table keeps
// serving the previously published routes.
type ReloadError struct {
	Err error
}

func (e *ReloadError) Error() string { return fmt.Sprintf("route table reload: %v", e.Err) }
func (e *ReloadError) Unwrap() error { return e.Err }

// Snapshot is an immutable, ordered view of the route table. Earlier routes
// take priority: matching is first-match-wins, not best-match.
type Snapshot struct {
	routes []*routedef.Route
}

// Routes returns the ordered route list. The returned slice must not be
// modified.
func (s *Snapshot) Routes() []*routedef.Route { return s.routes }

// Options to initialize a route table.
type Options struct {

	// Source of the reloadable route definitions. When nil, the table
	// consists of the supplier routes only.
	Source Source

	// Suppliers contributing routes appended after the source routes.
	Suppliers []RouteSupplier

	// Metrics counts reloads and reload failures. Defaults to discarding.
	Metrics metrics.Metrics

	// Log defaults to the logrus standard logger.
	Log logging.Logger
}

// Table holds the current route table snapshot and refreshes it from the
// definition source according to a staleness check.
type Table struct {
	source    Source
	suppliers []RouteSupplier
	metrics   metrics.Metrics
	log       logging.Logger

	mu      sync.Mutex
	lastMod time.Time
	cached  []*routedef.Route

	snapshot atomic.Pointer[Snapshot]
}

// New creates a route table. The table is empty until the first call to
// Reload.
func New(o Options) *Table {
	t := &Table{
		source:    o.Source,
		suppliers: o.Suppliers,
		metrics:   o.Metrics,
		log:       o.Log,
	}

	if t.metrics == nil {
		t.metrics = metrics.Default
	}

	if t.log == nil {
		t.log = logging.DefaultLog{}
	}

	t.snapshot.Store(&Snapshot{})
	return t
}

// Reload refreshes the route table and publishes a new snapshot. Only one
// reload proceeds at a time, concurrent callers wait for their turn.
//
// When the source is unchanged since the last reload, the cached source
// routes are reused without recompiling. When recompiling a changed source
// fails, the previous cached routes are retained and the failure is reported
// as a *ReloadError: the router keeps serving the last-good table rather
// than going dark. Supplier routes are appended fresh in every case.
func (t *Table) Reload() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var reloadErr error
	if t.source == nil || !t.source.Exists() {
		t.cached = nil
		t.lastMod = time.Time{}
	} else if mod, err := t.source.LastModified(); err != nil {
		reloadErr = &ReloadError{Err: err}
	} else if mod.After(t.lastMod) {
		if routes, err := t.source.Compile(); err != nil {
			reloadErr = &ReloadError{Err: err}
		} else {
			t.cached = routes
			t.lastMod = mod
		}
	}

	merged := make([]*routedef.Route, 0, len(t.cached))
	merged = append(merged, t.cached...)
	for _, s := range t.suppliers {
		merged = append(merged, s.Routes()...)
	}

	t.snapshot.Store(&Snapshot{routes: merged})

	if reloadErr != nil {
		t.metrics.IncReloadFailure()
		t.log.Errorf("%v, keeping %d previously loaded routes", reloadErr, len(t.cached))
		return reloadErr
	}

	t.metrics.IncReload()
	t.log.Debugf("route table reloaded, %d routes", len(merged))
	return nil
}

// Snapshot returns the most recently published route table. It never blocks
// on a reload in progress.
func (t *Table) Snapshot() *Snapshot {
	return t.snapshot.Load()
}
