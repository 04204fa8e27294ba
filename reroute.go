// Package reroute implements a dynamic HTTP request router that sits in
// front of a web application's normal dispatch path.
//
// Incoming requests are matched, in declaration order, against a table of
// route definitions. The first matching route decides whether the request is
// forwarded internally (optionally through a response cache and under a
// tenant namespace scope), redirected, or silently dropped from routing.
// Route definitions are authored in an external, hot-reloadable file rather
// than compiled into the application, so routing changes without redeploying.
//
// The parts of the router live in dedicated packages: pathmatch compiles and
// matches path patterns, routedef models single routing rules, routefile
// reads and parses the definition file, routing maintains the atomically
// swapped route table snapshot, and filter dispatches the individual
// requests. This package ties them together behind a single Options struct.
package reroute

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/reroute-io/reroute/cache"
	"github.com/reroute-io/reroute/filter"
	"github.com/reroute-io/reroute/forward"
	"github.com/reroute-io/reroute/logging"
	"github.com/reroute-io/reroute/metrics"
	"github.com/reroute-io/reroute/routedef"
	"github.com/reroute-io/reroute/routefile"
	"github.com/reroute-io/reroute/routing"
)

// Options to start the router.
type Options struct {

	// Address to listen on when started with Run.
	Address string

	// RoutesFile overrides the location of the route definition file. By
	// default, routes.yaml is read from the working directory.
	RoutesFile string

	// DevMode reloads the route definition file before every request. When
	// unset, the file is loaded once at startup and never rechecked
	// (frozen mode).
	DevMode bool

	// WatchRoutes reloads the route table when the definition file changes
	// on disk. Cheaper than DevMode, effective in frozen mode, too.
	WatchRoutes bool

	// ExtraRoutes are appended after the routes of the definition file.
	ExtraRoutes []*routedef.Route

	// PluginDirs are scanned for .so route plugins contributing further
	// routes.
	PluginDirs []string

	// Next is the handler receiving unmatched and explicitly ignored
	// requests, and executing forwards. Defaults to http.DefaultServeMux.
	Next http.Handler

	// CacheRedisAddress selects the shared Redis response cache backend.
	// When empty, a process-local in-memory cache is used.
	CacheRedisAddress string

	// CacheRedisPassword for the Redis backend.
	CacheRedisPassword string

	// CacheDisabled turns response caching off, cache options of routes are
	// then ignored.
	CacheDisabled bool

	// MetricsListener is the network address where the collected metrics
	// can be pulled from. If not set, metrics collection is disabled.
	MetricsListener string

	// Prefix for application log entries.
	ApplicationLogPrefix string

	// Output for the application log entries, defaults to stderr.
	ApplicationLogOutput io.Writer

	// When set, application log entries are printed in JSON format.
	ApplicationLogJSONEnabled bool

	// When set, debug level log entries are printed, too.
	DebugLog bool
}

// Router bundles the wired parts of a running router.
type Router struct {
	handler http.Handler
	table   *routing.Table
	watch   *routefile.WatchClient
	cache   cache.Cache
}

// New wires a router from the options: definition source, route table,
// response cache, forwarder and dispatch filter. The initial table load
// happens here; a failing load is not fatal, the router starts with the
// routes that could be loaded and reports the failure.
func New(o Options) (*Router, error) {
	logging.Init(logging.Options{
		ApplicationLogPrefix:      o.ApplicationLogPrefix,
		ApplicationLogOutput:      o.ApplicationLogOutput,
		ApplicationLogJSONEnabled: o.ApplicationLogJSONEnabled,
		Debug:                     o.DebugLog,
	})

	var m metrics.Metrics = metrics.Default
	if o.MetricsListener != "" {
		p := metrics.NewPrometheus(metrics.Options{})
		m = p
		go func() {
			if err := http.ListenAndServe(o.MetricsListener, p.Handler()); err != nil {
				log.Errorf("metrics listener: %v", err)
			}
		}()
	}

	var suppliers []routing.RouteSupplier
	if len(o.ExtraRoutes) > 0 {
		suppliers = append(suppliers, routing.FixedRoutes(o.ExtraRoutes))
	}

	suppliers = append(suppliers, loadRoutePlugins(o.PluginDirs)...)

	source := routefile.New(o.RoutesFile)
	table := routing.New(routing.Options{
		Source:    source,
		Suppliers: suppliers,
		Metrics:   m,
	})

	if err := table.Reload(); err != nil {
		log.Errorf("initial route load: %v", err)
	}

	router := &Router{table: table}

	if o.WatchRoutes {
		w, err := routefile.Watch(source.Path(), table)
		if err != nil {
			return nil, err
		}

		router.watch = w
	}

	next := o.Next
	if next == nil {
		next = http.DefaultServeMux
	}

	if !o.CacheDisabled {
		if o.CacheRedisAddress != "" {
			c, err := cache.NewRedis(cache.RedisOptions{
				Address:  o.CacheRedisAddress,
				Password: o.CacheRedisPassword,
			})
			if err != nil {
				return nil, err
			}

			router.cache = c
		} else {
			router.cache = cache.NewMemory()
		}
	}

	router.handler = filter.New(filter.Options{
		Table: table,
		Live:  o.DevMode,
		Forwarder: forward.New(forward.Options{
			Handler: next,
			Cache:   router.cache,
		}),
		Next:    next,
		Metrics: m,
	})

	return router, nil
}

// ServeHTTP dispatches the request on the route table.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.handler.ServeHTTP(w, r)
}

// Table exposes the route table, e.g. for explicit reloads.
func (rt *Router) Table() *routing.Table { return rt.table }

// Close releases the file watcher and the cache backend.
func (rt *Router) Close() error {
	if rt.watch != nil {
		rt.watch.Close()
	}

	if rt.cache != nil {
		return rt.cache.Close()
	}

	return nil
}

// Run starts an HTTP listener dispatching every request on the route table.
func Run(o Options) error {
	router, err := New(o)
	if err != nil {
		return err
	}

	defer router.Close()
	return http.ListenAndServe(o.Address, router)
}
