package routefile

import (
	"fmt"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/reroute-io/reroute/routedef"
)

// Parser instances turn the raw content of a route definition source into an
// ordered route list. The parser is a replaceable strategy: the table manager
// only cares about the resulting routes, not the document format.
type Parser interface {
	Parse(content []byte) ([]*routedef.Route, error)
}

type yamlRoute struct {
	Path      string `yaml:"path"`
	Method    string `yaml:"method"`
	Forward   string `yaml:"forward"`
	Redirect  string `yaml:"redirect"`
	Permanent bool   `yaml:"permanent"`
	Ignore    bool   `yaml:"ignore"`
	Namespace string `yaml:"namespace"`
	Cache     string `yaml:"cache"`
}

type yamlDocument struct {
	Routes []yamlRoute `yaml:"routes"`
}

// YAMLParser parses the default route definition format: a YAML document with
// an ordered 'routes' list. Each entry names a 'path' pattern, an optional
// 'method' (every method when absent), and exactly one of 'forward',
// 'redirect' or 'ignore: true'. Redirects accept 'permanent: true'. Forwards
// accept an optional 'namespace' template and a 'cache' duration.
//
// A single malformed entry fails the whole document, so a reloading table
// keeps its last-good routes instead of applying a partial list.
type YAMLParser struct{}

func (YAMLParser) Parse(content []byte) ([]*routedef.Route, error) {
	var doc yamlDocument
	if err := yaml.UnmarshalStrict(content, &doc); err != nil {
		return nil, fmt.Errorf("parsing route definitions: %w", err)
	}

	routes := make([]*routedef.Route, 0, len(doc.Routes))
	for i, entry := range doc.Routes {
		r, err := convertRoute(entry)
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}

		routes = append(routes, r)
	}

	return routes, nil
}

func convertRoute(entry yamlRoute) (*routedef.Route, error) {
	method, err := routedef.ParseMethod(entry.Method)
	if err != nil {
		return nil, err
	}

	var action routedef.Action
	switch {
	case entry.Forward != "" && entry.Redirect == "" && !entry.Ignore:
		action = routedef.Forward(entry.Forward)
	case entry.Redirect != "" && entry.Forward == "" && !entry.Ignore:
		action = routedef.Redirect(entry.Redirect, entry.Permanent)
	case entry.Ignore && entry.Forward == "" && entry.Redirect == "":
		action = routedef.Ignore()
	default:
		return nil, &routedef.DefinitionError{
			Pattern: entry.Path,
			Reason:  "requires exactly one of forward, redirect or ignore",
		}
	}

	o := routedef.Options{
		Pattern:   entry.Path,
		Method:    method,
		Action:    action,
		Namespace: entry.Namespace,
	}

	if entry.Cache != "" {
		ttl, err := time.ParseDuration(entry.Cache)
		if err != nil {
			return nil, &routedef.DefinitionError{
				Pattern: entry.Path,
				Reason:  "invalid cache duration: " + err.Error(),
			}
		}

		o.Cache = &routedef.CacheOptions{TTL: ttl}
	}

	return routedef.New(o)
}
