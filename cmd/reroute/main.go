// reroute program main
//
// command line flags:
//
// -address:
// address where reroute should listen on
//
// -routes-file:
// path to the route definition file
//
// -dev:
// reload the route definition file before every request
//
// (see the reroute package for an overview of the program structure)
package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/reroute-io/reroute"
)

const (
	defaultAddress    = ":9090"
	defaultRoutesFile = "routes.yaml"

	addressUsage         = "address where reroute should listen on"
	routesFileUsage      = "path to the route definition file"
	devUsage             = "reload the route definition file before every request"
	watchUsage           = "reload the route table when the definition file changes on disk"
	docRootUsage         = "directory served for unmatched requests, instead of the default mux"
	cacheRedisUsage      = "address of the redis response cache, in-memory caching when empty"
	metricsListenerUsage = "address where the collected metrics can be pulled from"
	debugUsage           = "enable debug log entries"
)

var (
	address         string
	routesFile      string
	dev             bool
	watch           bool
	docRoot         string
	cacheRedis      string
	metricsListener string
	debug           bool
)

func init() {
	flag.StringVar(&address, "address", defaultAddress, addressUsage)
	flag.StringVar(&routesFile, "routes-file", defaultRoutesFile, routesFileUsage)
	flag.BoolVar(&dev, "dev", false, devUsage)
	flag.BoolVar(&watch, "watch", false, watchUsage)
	flag.StringVar(&docRoot, "doc-root", "", docRootUsage)
	flag.StringVar(&cacheRedis, "cache-redis", "", cacheRedisUsage)
	flag.StringVar(&metricsListener, "metrics-listener", "", metricsListenerUsage)
	flag.BoolVar(&debug, "debug", false, debugUsage)
	flag.Parse()
}

func main() {
	o := reroute.Options{
		Address:           address,
		RoutesFile:        routesFile,
		DevMode:           dev,
		WatchRoutes:       watch,
		CacheRedisAddress: cacheRedis,
		MetricsListener:   metricsListener,
		DebugLog:          debug,
	}

	if docRoot != "" {
		o.Next = http.FileServer(http.Dir(docRoot))
	}

	log.Fatal(reroute.Run(o))
}
