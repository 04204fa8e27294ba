// Package routedef defines the in-memory model of one routing rule: an HTTP
// method filter, a compiled path pattern and the action taken when the rule
// matches. Routes are immutable once constructed and safe to share across
// concurrent matching attempts.
package routedef

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/reroute-io/reroute/pathmatch"
)

// Method restricts a route to one HTTP method. MethodAll matches every
// method.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodHead   Method = "HEAD"
	MethodAll    Method = "ALL"
)

// ParseMethod validates a method token. The empty token means MethodAll.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case "":
		return MethodAll, nil
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodHead, MethodAll:
		return m, nil
	}

	return "", &DefinitionError{Reason: fmt.Sprintf("unsupported method %q", s)}
}

// Matches reports whether the method filter accepts an incoming HTTP method.
func (m Method) Matches(httpMethod string) bool {
	return m == MethodAll || string(m) == httpMethod
}

// DefinitionError is returned when a route definition cannot be constructed
// from its raw form.
type DefinitionError struct {
	Pattern string
	Reason  string
}

func (e *DefinitionError) Error() string {
	if e.Pattern == "" {
		return "invalid route definition: " + e.Reason
	}

	return fmt.Sprintf("invalid route definition %q: %s", e.Pattern, e.Reason)
}

// ActionKind selects what happens to a request once its route matched.
type ActionKind int

const (
	// ActionForward hands the request over to the forward collaborator,
	// rewritten to the resolved destination.
	ActionForward ActionKind = iota

	// ActionRedirect responds with a redirect to the resolved destination,
	// permanent (301) or temporary.
	ActionRedirect

	// ActionIgnore explicitly bypasses routing for the matched request.
	ActionIgnore
)

// Action is the closed set of routing outcomes a route can define.
type Action struct {
	Kind        ActionKind
	Destination *Template
	Permanent   bool
}

// Forward returns the action forwarding matched requests to the destination
// template.
func Forward(destination string) Action {
	return Action{Kind: ActionForward, Destination: NewTemplate(destination)}
}

// Redirect returns the action redirecting matched requests to the destination
// template, with 301 when permanent is set.
func Redirect(destination string, permanent bool) Action {
	return Action{Kind: ActionRedirect, Destination: NewTemplate(destination), Permanent: permanent}
}

// Ignore returns the action that explicitly bypasses routing.
func Ignore() Action {
	return Action{Kind: ActionIgnore}
}

// CacheOptions are passed through untouched to the cache collaborator
// executing a forward.
type CacheOptions struct {
	TTL time.Duration
}

// Options hold the raw form of a route definition.
type Options struct {
	// Pattern is the path pattern, see the pathmatch package for the syntax.
	Pattern string

	// Method filter, MethodAll when empty.
	Method Method

	// Action taken on match.
	Action Action

	// Namespace is an optional template resolved per request for multi-tenant
	// scoping of forwards.
	Namespace string

	// Cache options passed to the cache collaborator, nil disables caching
	// for the route.
	Cache *CacheOptions
}

// Route is one immutable routing rule.
type Route struct {
	source    string
	pattern   *pathmatch.Pattern
	method    Method
	action    Action
	namespace *Template
	cache     *CacheOptions
}

// New validates the raw definition and constructs a route. Malformed patterns
// and method tokens are rejected with a *DefinitionError.
func New(o Options) (*Route, error) {
	p, err := pathmatch.Compile(o.Pattern)
	if err != nil {
		return nil, &DefinitionError{Pattern: o.Pattern, Reason: err.Error()}
	}

	method := o.Method
	if method == "" {
		method = MethodAll
	} else if method, err = ParseMethod(string(method)); err != nil {
		return nil, &DefinitionError{Pattern: o.Pattern, Reason: err.(*DefinitionError).Reason}
	}

	switch o.Action.Kind {
	case ActionForward, ActionRedirect:
		if o.Action.Destination == nil || o.Action.Destination.String() == "" {
			return nil, &DefinitionError{Pattern: o.Pattern, Reason: "missing destination"}
		}
	case ActionIgnore:
	default:
		return nil, &DefinitionError{Pattern: o.Pattern, Reason: "unsupported action"}
	}

	r := &Route{
		source:  o.Pattern,
		pattern: p,
		method:  method,
		action:  o.Action,
		cache:   o.Cache,
	}

	if o.Namespace != "" {
		r.namespace = NewTemplate(o.Namespace)
	}

	return r, nil
}

// Pattern returns the source text of the path pattern.
func (r *Route) Pattern() string { return r.source }

// Method returns the method filter of the route.
func (r *Route) Method() Method { return r.method }

// Action returns the action taken when the route matches.
func (r *Route) Action() Action { return r.action }

// CacheOptions returns the caching directives of the route, nil when caching
// is not requested.
func (r *Route) CacheOptions() *CacheOptions { return r.cache }

// Match is the result of one successful matching attempt. It gives access to
// the captured path variables and resolves the destination and namespace
// templates of the matched route.
type Match struct {
	route  *Route
	params map[string]string
	query  url.Values
}

// Match attempts the route against an HTTP method and a request path. The
// path may carry a query string, which is stripped before matching and kept
// as a lower priority substitution source for template resolution.
func (r *Route) Match(method, path string) (*Match, bool) {
	if !r.method.Matches(method) {
		return nil, false
	}

	p, rawQuery, _ := strings.Cut(path, "?")
	params, ok := r.pattern.Match(p)
	if !ok {
		return nil, false
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = nil
	}

	return &Match{route: r, params: params, query: query}, true
}

// Route returns the matched route.
func (m *Match) Route() *Route { return m.route }

// Params returns the captured path variables. The returned map must not be
// modified.
func (m *Match) Params() map[string]string { return m.params }

// Destination resolves the destination template of the matched route.
// Unresolved placeholders are reported as an error, in which case the match
// must be discarded.
func (m *Match) Destination() (string, error) {
	if m.route.action.Destination == nil {
		return "", nil
	}

	return m.route.action.Destination.Apply(m.lookup)
}

// Namespace resolves the namespace template of the matched route. It returns
// the empty string for unscoped routes.
func (m *Match) Namespace() (string, error) {
	if m.route.namespace == nil {
		return "", nil
	}

	return m.route.namespace.Apply(m.lookup)
}

func (m *Match) lookup(name string) (string, bool) {
	if v, ok := m.params[name]; ok {
		return v, true
	}

	if k, ok := strings.CutPrefix(name, "query."); ok {
		if vs, found := m.query[k]; found && len(vs) > 0 {
			return vs[0], true
		}
	}

	return "", false
}
