package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	promNamespace         = "reroute"
	promDispatchSubsystem = "dispatch"
	promRoutesSubsystem   = "routes"
)

// Options for the prometheus metrics backend.
type Options struct {

	// Prefix overrides the default metric namespace.
	Prefix string

	// Registry is an optional external prometheus registry. When nil, a
	// dedicated registry is created.
	Registry *prometheus.Registry
}

// Prometheus implements the prometheus metrics backend.
type Prometheus struct {
	outcomeM       *prometheus.CounterVec
	reloadM        prometheus.Counter
	reloadFailureM prometheus.Counter

	registry *prometheus.Registry
	handler  http.Handler
}

// NewPrometheus returns a new prometheus metrics backend.
func NewPrometheus(o Options) *Prometheus {
	namespace := promNamespace
	if o.Prefix != "" {
		namespace = strings.TrimSuffix(o.Prefix, ".")
	}

	outcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: promDispatchSubsystem,
		Name:      "outcome_total",
		Help:      "The total of dispatched requests by outcome.",
	}, []string{"outcome"})

	reload := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: promRoutesSubsystem,
		Name:      "reload_total",
		Help:      "The total of successful route table reloads.",
	})

	reloadFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: promRoutesSubsystem,
		Name:      "reload_error_total",
		Help:      "The total of failed route table reloads.",
	})

	registry := o.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	registry.MustRegister(outcome, reload, reloadFailure)

	return &Prometheus{
		outcomeM:       outcome,
		reloadM:        reload,
		reloadFailureM: reloadFailure,
		registry:       registry,
		handler:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
}

// Handler serves the current metric values.
func (p *Prometheus) Handler() http.Handler { return p.handler }

func (p *Prometheus) IncOutcome(outcome string) { p.outcomeM.WithLabelValues(outcome).Inc() }
func (p *Prometheus) IncReload()                { p.reloadM.Inc() }
func (p *Prometheus) IncReloadFailure()         { p.reloadFailureM.Inc() }
