package daemon

import (
	goevents "github.com/docker/go-events"
	metrics "github.com/docker/go-metrics"

	"github.com/routecfg/routecfgd/daemon/events"
)

var (
	changesDispatched metrics.LabeledCounter
	managerActions    metrics.LabeledCounter
	retryQueueDepth   metrics.LabeledGauge
)

func init() {
	ns := metrics.NewNamespace("routecfgd", "daemon", nil)
	changesDispatched = ns.NewLabeledCounter("changes_dispatched", "The number of change records dispatched per table", "table")
	managerActions = ns.NewLabeledCounter("manager_actions", "The number of reconciliation outcomes per manager and action", "manager", "action")
	retryQueueDepth = ns.NewLabeledGauge("retry_queue_depth", "The number of deferred changes awaiting dependency satisfaction", metrics.Unit("changes"), "manager")
	metrics.Register(ns)
}

// metricsSink feeds the reconciliation journal into the prometheus
// counters.
type metricsSink struct{}

func (metricsSink) Write(event goevents.Event) error {
	m, ok := event.(events.Message)
	if !ok {
		return nil
	}
	managerActions.WithValues(m.Manager, string(m.Action)).Inc()
	retryQueueDepth.WithValues(m.Manager).Set(float64(m.QueueDepth))
	return nil
}

func (metricsSink) Close() error {
	return nil
}
