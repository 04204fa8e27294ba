package filter

import (
	"context"
	"net/http"
)

type originalURIKey struct{}

// withOriginalURI computes the externally visible request path, with the
// query string attached, and pins it to the request context. Nested forwards
// rewrite the request URL but keep the context, so repeated lookups keep
// seeing the path the client requested, even if a handler mutates the URL
// mid-processing.
func withOriginalURI(r *http.Request) *http.Request {
	if _, ok := r.Context().Value(originalURIKey{}).(string); ok {
		return r
	}

	uri := r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		uri += "?" + r.URL.RawQuery
	}

	return r.WithContext(context.WithValue(r.Context(), originalURIKey{}, uri))
}

// OriginalURI returns the request path pinned by the filter, or the empty
// string for requests that did not pass through it.
func OriginalURI(ctx context.Context) string {
	if v, ok := ctx.Value(originalURIKey{}).(string); ok {
		return v
	}

	return ""
}
