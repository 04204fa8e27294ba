// Package routefile implements the file backed route definition source of
// the router, with a replaceable document parser and optional file system
// watching.
package routefile

import (
	"os"
	"time"

	"github.com/reroute-io/reroute/routedef"
)

// DefaultFile is the route definition location used when none is configured.
const DefaultFile = "routes.yaml"

// FileSource reads route definitions from a single file. It implements the
// routing.Source interface. FileSource doesn't follow file system nodes, it
// always reads from the file identified by the initially provided name.
type FileSource struct {
	path   string
	parser Parser
}

// New creates a file source reading the default YAML route definition
// format. An empty path selects DefaultFile.
func New(path string) *FileSource {
	return WithParser(path, YAMLParser{})
}

// WithParser creates a file source with a custom document parser.
func WithParser(path string, p Parser) *FileSource {
	if path == "" {
		path = DefaultFile
	}

	return &FileSource{path: path, parser: p}
}

// Path returns the location of the definition file.
func (s *FileSource) Path() string { return s.path }

// Exists reports whether the definition file is present.
func (s *FileSource) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// LastModified returns the modification timestamp of the definition file.
func (s *FileSource) LastModified() (time.Time, error) {
	fi, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, err
	}

	return fi.ModTime(), nil
}

// Compile reads and parses the definition file into an ordered route list.
func (s *FileSource) Compile() ([]*routedef.Route, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	return s.parser.Parse(content)
}
