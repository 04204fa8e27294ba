package filter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reroute-io/reroute/namespace"
	"github.com/reroute-io/reroute/routedef"
	"github.com/reroute-io/reroute/routing"
)

type forwardCall struct {
	route       *routedef.Route
	destination string
	namespace   string
}

type testForwarder struct {
	mu    sync.Mutex
	calls []forwardCall
	err   error
}

func (f *testForwarder) Forward(_ http.ResponseWriter, r *http.Request, route *routedef.Route, destination string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, forwardCall{
		route:       route,
		destination: destination,
		namespace:   namespace.FromContext(r.Context()),
	})

	return f.err
}

func (f *testForwarder) lastCall(t *testing.T) forwardCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func (f *testForwarder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type countingHandler struct {
	served int
}

func (h *countingHandler) ServeHTTP(http.ResponseWriter, *http.Request) {
	h.served++
}

func mustRoute(t *testing.T, o routedef.Options) *routedef.Route {
	r, err := routedef.New(o)
	require.NoError(t, err)
	return r
}

func buildTable(t *testing.T, routes ...*routedef.Route) *routing.Table {
	table := routing.New(routing.Options{
		Suppliers: []routing.RouteSupplier{routing.FixedRoutes(routes)},
	})

	require.NoError(t, table.Reload())
	return table
}

func serve(f *Filter, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestForwardWithCapturedVariables(t *testing.T) {
	fwd := &testForwarder{}
	next := &countingHandler{}
	f := New(Options{
		Table: buildTable(t, mustRoute(t, routedef.Options{
			Pattern: "/blog/@year/@month/@slug",
			Action:  routedef.Forward("/showEntry?y=@year&m=@month&s=@slug"),
		})),
		Forwarder: fwd,
		Next:      next,
	})

	serve(f, "GET", "/blog/2012/03/my-post")

	assert.Equal(t, "/showEntry?y=2012&m=03&s=my-post", fwd.lastCall(t).destination)
	assert.Zero(t, next.served)
}

func TestIgnoredFallsThrough(t *testing.T) {
	fwd := &testForwarder{}
	next := &countingHandler{}
	f := New(Options{
		Table: buildTable(t, mustRoute(t, routedef.Options{
			Pattern: "/static/*",
			Action:  routedef.Ignore(),
		})),
		Forwarder: fwd,
		Next:      next,
	})

	w := serve(f, "GET", "/static/app.css")

	assert.Equal(t, 1, next.served)
	assert.Zero(t, fwd.callCount())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnmatchedFallsThrough(t *testing.T) {
	fwd := &testForwarder{}
	next := &countingHandler{}
	f := New(Options{
		Table: buildTable(t, mustRoute(t, routedef.Options{
			Pattern: "/known",
			Action:  routedef.Forward("/x"),
		})),
		Forwarder: fwd,
		Next:      next,
	})

	serve(f, "GET", "/unknown/path")

	assert.Equal(t, 1, next.served)
	assert.Zero(t, fwd.callCount())
}

func TestPermanentRedirect(t *testing.T) {
	f := New(Options{
		Table: buildTable(t, mustRoute(t, routedef.Options{
			Pattern: "/old-page",
			Action:  routedef.Redirect("/new-page", true),
		})),
		Forwarder: &testForwarder{},
		Next:      &countingHandler{},
	})

	w := serve(f, "GET", "/old-page")

	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/new-page", w.Header().Get("Location"))
	assert.Equal(t, "close", w.Header().Get("Connection"))
	assert.Empty(t, w.Body.String())
}

func TestTemporaryRedirect(t *testing.T) {
	f := New(Options{
		Table: buildTable(t, mustRoute(t, routedef.Options{
			Pattern: "/moved/@id",
			Action:  routedef.Redirect("/target/@id", false),
		})),
		Forwarder: &testForwarder{},
		Next:      &countingHandler{},
	})

	w := serve(f, "GET", "/moved/42")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/target/42", w.Header().Get("Location"))
}

func TestFirstMatchWins(t *testing.T) {
	fwd := &testForwarder{}
	f := New(Options{
		Table: buildTable(t,
			mustRoute(t, routedef.Options{Pattern: "/a/*", Action: routedef.Forward("/first")}),
			mustRoute(t, routedef.Options{Pattern: "/a/b", Action: routedef.Forward("/second")}),
		),
		Forwarder: fwd,
		Next:      &countingHandler{},
	})

	serve(f, "GET", "/a/b")

	assert.Equal(t, 1, fwd.callCount())
	assert.Equal(t, "/first", fwd.lastCall(t).destination)
}

func TestMethodFiltering(t *testing.T) {
	fwd := &testForwarder{}
	next := &countingHandler{}
	f := New(Options{
		Table: buildTable(t, mustRoute(t, routedef.Options{
			Pattern: "/submit",
			Method:  routedef.MethodPost,
			Action:  routedef.Forward("/process"),
		})),
		Forwarder: fwd,
		Next:      next,
	})

	serve(f, "GET", "/submit")
	assert.Zero(t, fwd.callCount())
	assert.Equal(t, 1, next.served)

	serve(f, "POST", "/submit")
	assert.Equal(t, 1, fwd.callCount())
}

func TestUnresolvedDestinationDiscardsMatch(t *testing.T) {
	fwd := &testForwarder{}
	f := New(Options{
		Table: buildTable(t,
			// resolvable only with a query parameter the request doesn't have
			mustRoute(t, routedef.Options{Pattern: "/x/@a", Action: routedef.Forward("/y?b=@query.b")}),
			mustRoute(t, routedef.Options{Pattern: "/x/@a", Action: routedef.Forward("/fallback/@a")}),
		),
		Forwarder: fwd,
		Next:      &countingHandler{},
	})

	serve(f, "GET", "/x/1")

	assert.Equal(t, 1, fwd.callCount())
	assert.Equal(t, "/fallback/1", fwd.lastCall(t).destination)
}

func TestNamespaceScopedForward(t *testing.T) {
	fwd := &testForwarder{}
	f := New(Options{
		Table: buildTable(t, mustRoute(t, routedef.Options{
			Pattern:   "/customers/@customer/*",
			Action:    routedef.Forward("/app/@splat"),
			Namespace: "customer-@customer",
		})),
		Forwarder: fwd,
		Next:      &countingHandler{},
	})

	serve(f, "GET", "/customers/acme/dashboard")

	call := fwd.lastCall(t)
	assert.Equal(t, "/app/dashboard", call.destination)
	assert.Equal(t, "customer-acme", call.namespace)
}

func TestScopeRestoredAfterForwardError(t *testing.T) {
	boom := errors.New("backend gone")
	fwd := &testForwarder{err: boom}

	var handled error
	f := New(Options{
		Table: buildTable(t, mustRoute(t, routedef.Options{
			Pattern:   "/t/@tenant",
			Action:    routedef.Forward("/x"),
			Namespace: "@tenant",
		})),
		Forwarder: fwd,
		Next:      &countingHandler{},
		ErrorHandler: func(_ http.ResponseWriter, r *http.Request, err error) {
			handled = err
			// the scope is already restored when the error surfaces
			assert.Empty(t, namespace.FromContext(r.Context()))
		},
	})

	serve(f, "GET", "/t/acme")

	assert.Equal(t, boom, handled)
	assert.Equal(t, "acme", fwd.lastCall(t).namespace)
}

func TestForwardErrorDefaultsTo500(t *testing.T) {
	fwd := &testForwarder{err: errors.New("boom")}
	f := New(Options{
		Table: buildTable(t, mustRoute(t, routedef.Options{
			Pattern: "/x",
			Action:  routedef.Forward("/y"),
		})),
		Forwarder: fwd,
		Next:      &countingHandler{},
	})

	w := serve(f, "GET", "/x")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type reloadCountingSource struct {
	mu     sync.Mutex
	mod    time.Time
	checks int
}

func (s *reloadCountingSource) Exists() bool { return true }

func (s *reloadCountingSource) LastModified() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks++
	return s.mod, nil
}

func (s *reloadCountingSource) Compile() ([]*routedef.Route, error) { return nil, nil }

func (s *reloadCountingSource) checkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checks
}

func TestLiveModeReloadsPerRequest(t *testing.T) {
	source := &reloadCountingSource{mod: time.Now()}
	table := routing.New(routing.Options{Source: source})
	require.NoError(t, table.Reload())

	f := New(Options{
		Table:     table,
		Live:      true,
		Forwarder: &testForwarder{},
		Next:      &countingHandler{},
	})

	before := source.checkCount()
	serve(f, "GET", "/a")
	serve(f, "GET", "/b")
	assert.Equal(t, before+2, source.checkCount())
}

func TestFrozenModeDoesNotReload(t *testing.T) {
	source := &reloadCountingSource{mod: time.Now()}
	table := routing.New(routing.Options{Source: source})
	require.NoError(t, table.Reload())

	f := New(Options{
		Table:     table,
		Forwarder: &testForwarder{},
		Next:      &countingHandler{},
	})

	before := source.checkCount()
	serve(f, "GET", "/a")
	serve(f, "GET", "/b")
	assert.Equal(t, before, source.checkCount())
}

func TestOriginalURIPinnedOnce(t *testing.T) {
	r := httptest.NewRequest("GET", "/a/b?x=1", nil)
	r = withOriginalURI(r)
	assert.Equal(t, "/a/b?x=1", OriginalURI(r.Context()))

	// mutating the URL afterwards doesn't change the pinned path
	r.URL.Path = "/rewritten"
	r = withOriginalURI(r)
	assert.Equal(t, "/a/b?x=1", OriginalURI(r.Context()))

	assert.Empty(t, OriginalURI(context.Background()))
}

func TestMatchingUsesQueryForResolutionOnly(t *testing.T) {
	fwd := &testForwarder{}
	f := New(Options{
		Table: buildTable(t, mustRoute(t, routedef.Options{
			Pattern: "/search",
			Action:  routedef.Forward("/find?q=@query.q"),
		})),
		Forwarder: fwd,
		Next:      &countingHandler{},
	})

	serve(f, "GET", "/search?q=gopher")
	assert.Equal(t, "/find?q=gopher", fwd.lastCall(t).destination)
}

func TestOutcomeStrings(t *testing.T) {
	assert.Equal(t, "forwarded", OutcomeForwarded.String())
	assert.Equal(t, "redirected", OutcomeRedirected.String())
	assert.Equal(t, "ignored", OutcomeIgnored.String())
	assert.Equal(t, "unmatched", OutcomeUnmatched.String())
}
