package api

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InstrumentedTransport records request counts and latency for the
// Transport it wraps
type InstrumentedTransport struct {
	next     Transport
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewInstrumentedTransport wraps next and registers its collectors on reg
func NewInstrumentedTransport(next Transport, reg prometheus.Registerer) (*InstrumentedTransport, error) {
	t := &InstrumentedTransport{
		next: next,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hue",
				Name:      "bridge_requests_total",
				Help:      "Bridge requests by method and HTTP status; status is \"error\" when no response arrived.",
			},
			[]string{"method", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hue",
				Name:      "bridge_request_duration_seconds",
				Help:      "Bridge request latency by method.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	if err := reg.Register(t.requests); err != nil {
		return nil, err
	}
	if err := reg.Register(t.latency); err != nil {
		reg.Unregister(t.requests)
		return nil, err
	}
	return t, nil
}

// Do forwards the request and records its outcome
func (t *InstrumentedTransport) Do(ctx context.Context, method, url string, body []byte) (*Response, error) {
	start := time.Now()
	resp, err := t.next.Do(ctx, method, url, body)
	t.latency.WithLabelValues(method).Observe(time.Since(start).Seconds())

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	t.requests.WithLabelValues(method, status).Inc()

	return resp, err
}
