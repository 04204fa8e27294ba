// Package filter implements the per-request dispatch of the router.
//
// The filter sits in front of the host's normal handler chain. Every request
// is evaluated against the current route table snapshot, in declaration
// order: the first route whose method filter and path pattern accept the
// request decides the outcome. Matched requests are forwarded internally,
// redirected, or explicitly bypassed; everything else falls through to the
// next handler untouched.
package filter

import (
	"context"
	"net/http"

	"github.com/reroute-io/reroute/logging"
	"github.com/reroute-io/reroute/metrics"
	"github.com/reroute-io/reroute/namespace"
	"github.com/reroute-io/reroute/routedef"
	"github.com/reroute-io/reroute/routing"
)

// Outcome classifies what the filter did with one request. All outcomes are
// terminal: Ignored and Unmatched both fall through to the next handler, but
// are distinct for observability.
type Outcome int

const (
	OutcomeUnmatched Outcome = iota
	OutcomeForwarded
	OutcomeRedirected
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeForwarded:
		return "forwarded"
	case OutcomeRedirected:
		return "redirected"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unmatched"
	}
}

// Forwarder executes the internal forward of a matched route. The
// implementation decides whether to serve a cached response or to execute
// the forward and cache its result, honoring the cache options of the route.
type Forwarder interface {
	Forward(w http.ResponseWriter, r *http.Request, route *routedef.Route, destination string) error
}

// Namespaces applies a tenant scope around a forward. The previous scope
// must be restored after body returns, also on error.
type Namespaces interface {
	WithScope(ctx context.Context, name string, body func(context.Context) error) error
}

// Options to initialize a Filter.
type Options struct {

	// Table is the route table the filter dispatches on.
	Table *routing.Table

	// Live triggers a best-effort table reload before every request. In
	// frozen mode (Live unset), the table is only reloaded explicitly.
	Live bool

	// Forwarder executes forwards of matched routes.
	Forwarder Forwarder

	// Namespaces scopes forwards of namespaced routes. Defaults to
	// namespace.Scoper.
	Namespaces Namespaces

	// Next receives unmatched and explicitly ignored requests.
	Next http.Handler

	// ErrorHandler receives forwarder failures, after the namespace scope
	// has been restored. Defaults to a plain 500.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// Metrics counts the dispatch outcomes. Defaults to discarding.
	Metrics metrics.Metrics

	// Log defaults to the logrus standard logger.
	Log logging.Logger
}

// Filter is the dispatch engine. It implements http.Handler.
type Filter struct {
	table      *routing.Table
	live       bool
	forwarder  Forwarder
	namespaces Namespaces
	next       http.Handler
	errorH     func(http.ResponseWriter, *http.Request, error)
	metrics    metrics.Metrics
	log        logging.Logger
}

// New creates a dispatch filter.
func New(o Options) *Filter {
	f := &Filter{
		table:      o.Table,
		live:       o.Live,
		forwarder:  o.Forwarder,
		namespaces: o.Namespaces,
		next:       o.Next,
		errorH:     o.ErrorHandler,
		metrics:    o.Metrics,
		log:        o.Log,
	}

	if f.namespaces == nil {
		f.namespaces = namespace.Scoper{}
	}

	if f.next == nil {
		f.next = http.DefaultServeMux
	}

	if f.errorH == nil {
		f.errorH = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}

	if f.metrics == nil {
		f.metrics = metrics.Default
	}

	if f.log == nil {
		f.log = logging.DefaultLog{}
	}

	return f
}

func (f *Filter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.live {
		// stale table is fine, the reload failure was counted and logged
		f.table.Reload()
	}

	r = withOriginalURI(r)
	outcome := f.dispatch(w, r, OriginalURI(r.Context()))
	f.metrics.IncOutcome(outcome.String())

	if outcome == OutcomeIgnored || outcome == OutcomeUnmatched {
		f.next.ServeHTTP(w, r)
	}
}

func (f *Filter) dispatch(w http.ResponseWriter, r *http.Request, path string) Outcome {
	for _, route := range f.table.Snapshot().Routes() {
		m, ok := route.Match(r.Method, path)
		if !ok {
			continue
		}

		action := route.Action()
		if action.Kind == routedef.ActionIgnore {
			f.log.Debugf("%s %s explicitly bypassed by %s", r.Method, path, route.Pattern())
			return OutcomeIgnored
		}

		destination, err := m.Destination()
		if err != nil {
			// discarded as if it had not matched
			f.log.Warnf("skipping route %s: %v", route.Pattern(), err)
			continue
		}

		if action.Kind == routedef.ActionRedirect {
			f.redirect(w, r, destination, action.Permanent)
			return OutcomeRedirected
		}

		ns, err := m.Namespace()
		if err != nil {
			f.log.Warnf("skipping route %s: %v", route.Pattern(), err)
			continue
		}

		if err := f.forward(w, r, route, destination, ns); err != nil {
			f.log.Errorf("forwarding %s to %s: %v", path, destination, err)
			f.errorH(w, r, err)
		}

		return OutcomeForwarded
	}

	return OutcomeUnmatched
}

func (f *Filter) forward(w http.ResponseWriter, r *http.Request, route *routedef.Route, destination, ns string) error {
	if ns == "" {
		return f.forwarder.Forward(w, r, route, destination)
	}

	return f.namespaces.WithScope(r.Context(), ns, func(ctx context.Context) error {
		return f.forwarder.Forward(w, r.WithContext(ctx), route, destination)
	})
}

func (f *Filter) redirect(w http.ResponseWriter, r *http.Request, location string, permanent bool) {
	if permanent {
		// explicit 301 instead of http.Redirect: no response body, and the
		// connection is hinted closed
		w.Header().Set("Location", location)
		w.Header().Set("Connection", "close")
		w.WriteHeader(http.StatusMovedPermanently)
		return
	}

	http.Redirect(w, r, location, http.StatusFound)
}
