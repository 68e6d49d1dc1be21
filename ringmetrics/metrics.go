// Package ringmetrics instruments a ring, syncring, or asyncring channel
// for Prometheus scraping. It never touches the core packages: a caller
// samples a Publisher/Subscriber pair on whatever cadence it likes and
// feeds the numbers through here, the same separation of concerns the
// demo binary's original metrics collector used for connection and
// worker-pool stats.
package ringmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sampler is anything that can report the handful of ring-level gauges
// this package publishes. *ring.Publisher, *syncring.Publisher, and
// *asyncring.Publisher (paired with their Subscriber for Lag) all satisfy
// the shape needed by Collect via small adapter closures, since the
// three wrapper packages don't share an interface of their own.
type Sampler struct {
	// SubscriberCount returns the live subscriber count.
	SubscriberCount func() int64
	// Cap returns the ring's fixed capacity.
	Cap func() int
	// Wi returns the publisher's current write cursor.
	Wi func() int64
	// Lag returns a representative subscriber's current lag, if any
	// subscriber is being sampled. Optional: leave nil to skip the lag
	// histogram.
	Lag func() int64
}

// Metrics holds the Prometheus collectors for one named channel. Create
// one per distinct channel (e.g. one per feed source) and register it with
// a prometheus.Registerer; the label "channel" distinguishes them on the
// same set of metric names.
type Metrics struct {
	channel string

	subscribers  prometheus.Gauge
	capacity     prometheus.Gauge
	writeCursor  prometheus.Gauge
	broadcasts   prometheus.Counter
	broadcastErr prometheus.Counter
	overruns     prometheus.Counter
	lag          prometheus.Histogram
}

// New constructs the collectors for a channel named by label and registers
// them with reg. Passing the same label twice returns an error from reg
// (AlreadyRegisteredError), matching prometheus.Registerer's own contract.
func New(reg prometheus.Registerer, channel string) (*Metrics, error) {
	m := &Metrics{
		channel: channel,
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "ringbus_subscribers",
			Help:        "Current number of live subscribers on the channel.",
			ConstLabels: prometheus.Labels{"channel": channel},
		}),
		capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "ringbus_capacity",
			Help:        "Fixed slot capacity of the channel's ring.",
			ConstLabels: prometheus.Labels{"channel": channel},
		}),
		writeCursor: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "ringbus_wi",
			Help:        "Current write cursor (total items broadcast so far).",
			ConstLabels: prometheus.Labels{"channel": channel},
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringbus_broadcasts_total",
			Help:        "Total number of successful publishes.",
			ConstLabels: prometheus.Labels{"channel": channel},
		}),
		broadcastErr: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringbus_broadcast_errors_total",
			Help:        "Total number of publishes rejected (e.g. no subscribers left).",
			ConstLabels: prometheus.Labels{"channel": channel},
		}),
		overruns: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringbus_overruns_total",
			Help:        "Total number of items a subscriber reported as skipped due to overrun.",
			ConstLabels: prometheus.Labels{"channel": channel},
		}),
		lag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "ringbus_subscriber_lag",
			Help:        "Sampled distance between the write cursor and a subscriber's read cursor.",
			Buckets:     []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256},
			ConstLabels: prometheus.Labels{"channel": channel},
		}),
	}

	collectors := []prometheus.Collector{
		m.subscribers, m.capacity, m.writeCursor, m.broadcasts, m.broadcastErr, m.overruns, m.lag,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveBroadcast records one Broadcast/Send call's outcome.
func (m *Metrics) ObserveBroadcast(err error) {
	if err != nil {
		m.broadcastErr.Inc()
		return
	}
	m.broadcasts.Inc()
}

// ObserveSkipped records the Skipped count from a single Recv/PollNext
// result.
func (m *Metrics) ObserveSkipped(skipped uint64) {
	if skipped > 0 {
		m.overruns.Add(float64(skipped))
	}
}

// Collect runs Sampler once and updates the gauges and lag histogram.
func (m *Metrics) Collect(s Sampler) {
	if s.SubscriberCount != nil {
		m.subscribers.Set(float64(s.SubscriberCount()))
	}
	if s.Cap != nil {
		m.capacity.Set(float64(s.Cap()))
	}
	if s.Wi != nil {
		m.writeCursor.Set(float64(s.Wi()))
	}
	if s.Lag != nil {
		m.lag.Observe(float64(s.Lag()))
	}
}

// Run samples s every interval until ctx is cancelled. Intended to be
// launched in its own goroutine alongside the rest of a demo binary's
// background work.
func (m *Metrics) Run(ctx context.Context, interval time.Duration, s Sampler) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Collect(s)
		case <-ctx.Done():
			return
		}
	}
}
