// Package forward implements the cache collaborator of the router: it
// executes the internal forward of a matched route against the host handler
// and decides whether to serve a cached response or to execute the forward
// and cache its result.
package forward

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/reroute-io/reroute/cache"
	"github.com/reroute-io/reroute/logging"
	"github.com/reroute-io/reroute/namespace"
	"github.com/reroute-io/reroute/routedef"
)

// Options to initialize a Forwarder.
type Options struct {

	// Handler receives the rewritten request of every executed forward,
	// typically the next stage of the host's handler chain.
	Handler http.Handler

	// Cache stores the responses of cacheable forwards. When nil, every
	// forward is executed.
	Cache cache.Cache

	// Log defaults to the logrus standard logger.
	Log logging.Logger
}

// Forwarder executes internal forwards, optionally through a response cache.
// It implements the filter.Forwarder interface.
type Forwarder struct {
	handler http.Handler
	cache   cache.Cache
	log     logging.Logger
}

// New creates a Forwarder.
func New(o Options) *Forwarder {
	f := &Forwarder{handler: o.Handler, cache: o.Cache, log: o.Log}
	if f.log == nil {
		f.log = logging.DefaultLog{}
	}

	return f
}

// Forward serves the request from the resolved destination. Responses of
// routes with cache options are stored under the destination, keyed together
// with the method and the active namespace, and are served from the cache
// while their TTL lasts. Only successful responses to GET and HEAD requests
// are cached.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, route *routedef.Route, destination string) error {
	target, err := rewrite(r, destination)
	if err != nil {
		return fmt.Errorf("invalid forward destination %q: %w", destination, err)
	}

	co := route.CacheOptions()
	if f.cache == nil || co == nil || co.TTL <= 0 || !cacheable(r.Method) {
		f.handler.ServeHTTP(w, target)
		return nil
	}

	key := cacheKey(target)
	if e, err := getEntry(r.Context(), f.cache, key); err == nil {
		e.write(w)
		return nil
	} else if err != cache.ErrCacheMiss {
		f.log.Warnf("cache lookup for %s failed, serving fresh: %v", key, err)
	}

	rec := newRecorder(w)
	f.handler.ServeHTTP(rec, target)

	if rec.status == http.StatusOK {
		if err := setEntry(r.Context(), f.cache, key, rec.entry(), co.TTL); err != nil {
			f.log.Warnf("caching response for %s: %v", key, err)
		}
	}

	return nil
}

// rewrite clones the request with the destination path and query in place,
// keeping the context of the original request. The pinned original URI and
// the namespace scope survive the rewrite this way.
func rewrite(r *http.Request, destination string) (*http.Request, error) {
	du, err := url.Parse(destination)
	if err != nil {
		return nil, err
	}

	target := r.Clone(r.Context())
	target.URL.Path = du.Path
	target.URL.RawPath = du.RawPath
	target.URL.RawQuery = du.RawQuery
	target.RequestURI = du.RequestURI()
	return target, nil
}

func cacheable(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func cacheKey(r *http.Request) string {
	return namespace.FromContext(r.Context()) + "|" + r.Method + "|" + r.URL.RequestURI()
}
