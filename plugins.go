package reroute

import (
	"os"
	"path/filepath"
	"plugin"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/reroute-io/reroute/routedef"
	"github.com/reroute-io/reroute/routing"
)

// loadRoutePlugins scans the configured directories for .so modules and
// loads the ones exposing a Routes symbol of type func() []*routedef.Route.
// Each becomes a route supplier consulted fresh on every table reload.
func loadRoutePlugins(dirs []string) []routing.RouteSupplier {
	var suppliers []routing.RouteSupplier

	for _, dir := range dirs {
		filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() || !strings.HasSuffix(path, ".so") {
				return nil
			}

			mod, err := plugin.Open(path)
			if err != nil {
				log.Errorf("open route plugin %s: %v", path, err)
				return nil
			}

			sym, err := mod.Lookup("Routes")
			if err != nil {
				log.Errorf("route plugin %s: %v", path, err)
				return nil
			}

			fn, ok := sym.(func() []*routedef.Route)
			if !ok {
				log.Errorf("route plugin %s: Routes has the wrong type", path)
				return nil
			}

			suppliers = append(suppliers, routing.RouteSupplierFunc(fn))
			log.Infof("loaded route plugin %s", path)
			return nil
		})
	}

	return suppliers
}
