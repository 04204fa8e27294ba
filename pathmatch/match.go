// Package pathmatch implements matching request paths to path patterns.
//
// A pattern consists of slash separated segments. A literal segment matches
// the same segment of the request path, case sensitively. A segment of the
// form @name matches exactly one path segment and captures its
// percent-decoded value under 'name'. A trailing * matches the remainder of
// the path, with any number of segments in it, and captures the joined
// remainder under the reserved name 'splat'. E.g. /blog/@year/@month/@slug
// is matched by /blog/2012/03/my-post, and /files/* is matched by
// /files/css/site.css with splat=css/site.css.
package pathmatch

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// WildcardName is the reserved capture name bound by a trailing wildcard
// segment.
const WildcardName = "splat"

var variableNameRx = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type segmentKind int

const (
	literalSegment segmentKind = iota
	variableSegment
	wildcardSegment
)

type segment struct {
	kind segmentKind

	// literal text or variable name
	value string
}

// Pattern is a compiled path pattern. Patterns are immutable and can be
// shared by any number of concurrent matching attempts.
type Pattern struct {
	source   string
	segments []segment
	wildcard bool
}

// Compile parses and validates a path pattern. The empty pattern and "/"
// match only the root path, a bare "*" matches every path. Variable names
// must be unique within a pattern and a wildcard is only accepted as the
// final segment.
func Compile(pattern string) (*Pattern, error) {
	p := &Pattern{source: pattern}
	trimmed := strings.Trim(pattern, "/")
	if trimmed == "" {
		return p, nil
	}

	parts := strings.Split(trimmed, "/")
	names := make(map[string]bool)
	for i, part := range parts {
		switch {
		case part == "*":
			if i != len(parts)-1 {
				return nil, fmt.Errorf("wildcard must be the final segment of %q", pattern)
			}

			p.wildcard = true
			p.segments = append(p.segments, segment{kind: wildcardSegment})
		case strings.HasPrefix(part, "@"):
			name := part[1:]
			if !variableNameRx.MatchString(name) {
				return nil, fmt.Errorf("invalid variable name %q in %q", name, pattern)
			}

			if names[name] {
				return nil, fmt.Errorf("duplicate variable %q in %q", name, pattern)
			}

			names[name] = true
			p.segments = append(p.segments, segment{kind: variableSegment, value: name})
		default:
			p.segments = append(p.segments, segment{kind: literalSegment, value: part})
		}
	}

	return p, nil
}

// String returns the pattern source text.
func (p *Pattern) String() string { return p.source }

// Wildcard reports whether the pattern ends with a wildcard segment.
func (p *Pattern) Wildcard() bool { return p.wildcard }

// Match checks path against the pattern and captures the variable bindings.
// The path must not carry a query string. Match reports failure as a negative
// result, never as an error.
//
// Each incoming segment is percent-decoded before comparison and capture, so
// captured values never contain encoded separators.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	trimmed := strings.Trim(path, "/")
	var parts []string
	if trimmed != "" {
		parts = strings.Split(trimmed, "/")
	}

	if p.wildcard {
		if len(parts) < len(p.segments)-1 {
			return nil, false
		}
	} else if len(parts) != len(p.segments) {
		return nil, false
	}

	params := make(map[string]string)
	for i, s := range p.segments {
		switch s.kind {
		case literalSegment:
			if decodeSegment(parts[i]) != s.value {
				return nil, false
			}
		case variableSegment:
			params[s.value] = decodeSegment(parts[i])
		case wildcardSegment:
			rest := parts[i:]
			decoded := make([]string, len(rest))
			for j := range rest {
				decoded[j] = decodeSegment(rest[j])
			}

			params[WildcardName] = strings.Join(decoded, "/")
		}
	}

	return params, true
}

func decodeSegment(s string) string {
	d, err := url.PathUnescape(s)
	if err != nil {
		return s
	}

	return d
}
