package xgb

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "xgb"

// metrics is safe to use through a nil pointer, which records nothing.
type metrics struct {
	requests  *prometheus.CounterVec
	replies   prometheus.Counter
	errors    *prometheus.CounterVec
	events    prometheus.Counter
	abandoned prometheus.Counter
	discarded prometheus.Counter
	syncs     prometheus.Counter
	pending   prometheus.Gauge
	roundTrip prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Requests written to the server, by kind.",
		}, []string{"kind"}),
		replies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "replies_total",
			Help:      "Replies delivered to a waiting request.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Server errors received, by destination.",
		}, []string{"destination"}),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Events queued.",
		}),
		abandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "abandoned_total",
			Help:      "Requests whose caller stopped waiting.",
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "discarded_total",
			Help:      "Replies and errors dropped because no caller wanted them.",
		}),
		syncs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "syncs_total",
			Help:      "GetInputFocus requests inserted by the connection.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pending_requests",
			Help:      "Requests waiting for a reply or error.",
		}),
		roundTrip: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "round_trip_seconds",
			Help:      "Time from sending a request to receiving its reply.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}

	var err error
	m.requests = register(reg, m.requests, &err)
	m.replies = register(reg, m.replies, &err)
	m.errors = register(reg, m.errors, &err)
	m.events = register(reg, m.events, &err)
	m.abandoned = register(reg, m.abandoned, &err)
	m.discarded = register(reg, m.discarded, &err)
	m.syncs = register(reg, m.syncs, &err)
	m.pending = register(reg, m.pending, &err)
	m.roundTrip = register(reg, m.roundTrip, &err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing the collector already registered under
// the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, errp *error) C {
	if *errp != nil {
		return c
	}
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	*errp = errors.Wrap(err, "register metrics")
	return c
}

func (m *metrics) request(kind string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind).Inc()
	if kind != "void" {
		m.pending.Inc()
	}
}

func (m *metrics) reply(sent time.Time) {
	if m == nil {
		return
	}
	m.replies.Inc()
	m.roundTrip.Observe(time.Since(sent).Seconds())
}

func (m *metrics) serverError(destination string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(destination).Inc()
}

func (m *metrics) event() {
	if m == nil {
		return
	}
	m.events.Inc()
}

func (m *metrics) abandon() {
	if m == nil {
		return
	}
	m.abandoned.Inc()
}

func (m *metrics) discard() {
	if m == nil {
		return
	}
	m.discarded.Inc()
}

func (m *metrics) sync() {
	if m == nil {
		return
	}
	m.syncs.Inc()
}

func (m *metrics) settled(n int) {
	if m == nil {
		return
	}
	m.pending.Sub(float64(n))
}
