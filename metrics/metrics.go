// Package metrics implements collection of the operational metrics of the
// router: the per-request dispatch outcomes and the route table reloads.
package metrics

// Metrics instances receive the operational events of the router. The
// default implementation discards them.
type Metrics interface {

	// IncOutcome counts one dispatched request by its outcome
	// (forwarded, redirected, ignored, unmatched).
	IncOutcome(outcome string)

	// IncReload counts one successful route table reload.
	IncReload()

	// IncReloadFailure counts one failed route table reload.
	IncReloadFailure()
}

// Noop discards all metrics events.
type Noop struct{}

func (Noop) IncOutcome(string) {}
func (Noop) IncReload()        {}
func (Noop) IncReloadFailure() {}

// Default is the metrics backend used when none is configured.
var Default Metrics = Noop{}
