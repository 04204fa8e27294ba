package routedef

import (
	"fmt"
	"regexp"
)

var placeholderRx = regexp.MustCompile(`@(\w+(?:\.\w+)*)`)

// TemplateGetter functions return the value for a template placeholder name
// and report whether the name is bound at all.
type TemplateGetter func(string) (string, bool)

// Template represents a string template with named placeholders of the form
// @name. Destination and namespace templates additionally accept @query.key
// placeholders resolved from the request query string.
type Template struct {
	template     string
	placeholders []string
}

// NewTemplate parses a template string and returns a reusable *Template
// object.
func NewTemplate(template string) *Template {
	matches := placeholderRx.FindAllStringSubmatch(template, -1)
	placeholders := make([]string, len(matches))
	for i, m := range matches {
		placeholders[i] = m[1]
	}

	return &Template{template: template, placeholders: placeholders}
}

// Apply evaluates the template using a TemplateGetter function to resolve the
// placeholders. An unbound placeholder is an error, never silently dropped.
func (t *Template) Apply(get TemplateGetter) (string, error) {
	var unresolved string
	result := placeholderRx.ReplaceAllStringFunc(t.template, func(token string) string {
		name := token[1:]
		if v, ok := get(name); ok {
			return v
		}

		if unresolved == "" {
			unresolved = name
		}

		return token
	})

	if unresolved != "" {
		return "", fmt.Errorf("unresolved placeholder @%s in %q", unresolved, t.template)
	}

	return result, nil
}

// Placeholders returns the placeholder names in order of appearance.
func (t *Template) Placeholders() []string { return t.placeholders }

func (t *Template) String() string { return t.template }
