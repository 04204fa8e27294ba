// Package namespace implements the multi-tenant scoping applied while a
// forwarded request is being served.
//
// A scope is bound to a derived request context for the duration of one
// forward. Because the parent context is never modified, the previous scope
// is restored whichever way the forward returns, including on error or
// panic.
package namespace

import "context"

type scopeKey struct{}

// FromContext returns the namespace the request is currently scoped to, or
// the empty string when unscoped.
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(scopeKey{}).(string); ok {
		return v
	}

	return ""
}

// Scoper is the default scoped acquisition primitive. It implements the
// filter.Namespaces interface.
type Scoper struct{}

// WithScope runs body with the namespace bound in a derived context.
func (Scoper) WithScope(ctx context.Context, name string, body func(context.Context) error) error {
	return body(context.WithValue(ctx, scopeKey{}, name))
}
