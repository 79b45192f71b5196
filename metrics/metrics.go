// Package metrics exports Succession activity as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/fullstorydev/go/succession"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "succession"

// Observer is a succession.Observer that records pushes, compactions, drops, and closure.
// Every metric carries a "name" label identifying the Succession.
type Observer struct {
	pushes       prometheus.Counter
	compactions  prometheus.Counter
	compacted    prometheus.Counter // items removed by compaction
	dropped      prometheus.Counter
	preludeItems prometheus.Gauge
	closed       prometheus.Gauge
}

var _ succession.Observer = (*Observer)(nil)

// New creates an Observer and registers its metrics with reg.
func New(reg prometheus.Registerer, name string) (*Observer, error) {
	labels := prometheus.Labels{"name": name}
	o := &Observer{
		pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "pushes_total",
			Help:        "Values pushed.",
			ConstLabels: labels,
		}),
		compactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "compactions_total",
			Help:        "Compression passes run.",
			ConstLabels: labels,
		}),
		compacted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "compacted_items_total",
			Help:        "Items removed from visible history by compression.",
			ConstLabels: labels,
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "dropped_items_total",
			Help:        "Items removed from visible history by Drop.",
			ConstLabels: labels,
		}),
		preludeItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "prelude_items",
			Help:        "Items in the prelude after the last compression or drop.",
			ConstLabels: labels,
		}),
		closed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "closed",
			Help:        "1 once the succession is closed.",
			ConstLabels: labels,
		}),
	}

	for _, c := range []prometheus.Collector{o.pushes, o.compactions, o.compacted, o.dropped, o.preludeItems, o.closed} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register %s metrics: %w", name, err)
		}
	}
	return o, nil
}

func (o *Observer) Pushed() {
	o.pushes.Inc()
}

func (o *Observer) Compacted(before, after int) {
	o.compactions.Inc()
	if before > after {
		o.compacted.Add(float64(before - after))
	}
	o.preludeItems.Set(float64(after))
}

func (o *Observer) Dropped(n int) {
	o.dropped.Add(float64(n))
	o.preludeItems.Set(0)
}

func (o *Observer) Closed() {
	o.closed.Set(1)
}
