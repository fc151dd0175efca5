package nocsim

//
// Observability: ambient Prometheus counters/gauges. This is instrumentation
// for an external scrape, not the "statistics printing" §1 places out of
// scope — the core never formats or emits a report itself.
//

import "github.com/prometheus/client_golang/prometheus"

// RouterMetrics holds the Prometheus collectors a [Router] updates as it
// runs. Callers that don't want metrics can use [NewNullRouterMetrics],
// which updates no-op counters backed by an unregistered registry.
type RouterMetrics struct {
	PacketsDropped  *prometheus.CounterVec
	FlitsSent       *prometheus.CounterVec
	OutputOccupancy *prometheus.GaugeVec
}

// NewRouterMetrics creates collectors labeled by router id and registers
// them with reg. Pass a fresh [prometheus.NewRegistry] in tests to avoid
// colliding with the default global registry.
func NewRouterMetrics(reg prometheus.Registerer, routerName string) *RouterMetrics {
	m := &RouterMetrics{
		PacketsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nocsim",
			Subsystem: "router",
			Name:      "packets_dropped_total",
			Help:      "Packets dropped at head admission, by router and reason.",
			ConstLabels: prometheus.Labels{
				"router": routerName,
			},
		}, []string{"reason"}),
		FlitsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nocsim",
			Subsystem: "router",
			Name:      "flits_sent_total",
			Help:      "Flits emitted on an output channel, by router and output port.",
			ConstLabels: prometheus.Labels{
				"router": routerName,
			},
		}, []string{"output"}),
		OutputOccupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "nocsim",
			Subsystem: "router",
			Name:      "output_buffer_occupancy",
			Help:      "Current occupancy of an output's FIFO, by router and output port.",
			ConstLabels: prometheus.Labels{
				"router": routerName,
			},
		}, []string{"output"}),
	}
	reg.MustRegister(m.PacketsDropped, m.FlitsSent, m.OutputOccupancy)
	return m
}

// NewNullRouterMetrics creates collectors registered to a private registry
// that nothing ever scrapes, for callers that want the Router's metrics
// calls to be cheap no-ops without special-casing a nil *RouterMetrics.
func NewNullRouterMetrics(routerName string) *RouterMetrics {
	return NewRouterMetrics(prometheus.NewRegistry(), routerName)
}
