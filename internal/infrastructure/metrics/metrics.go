package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
)

const _namespace = "memories"

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	derivationEvents   *prometheus.CounterVec
	derivationDuration prometheus.Histogram
	derivationRetries  prometheus.Counter
	uploadSlots        *prometheus.CounterVec
	presignFailures    *prometheus.CounterVec
	redrivenLetters    *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		derivationEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Name:      "derivation_events_total",
			Help:      "Storage events handled by the derivation worker, by final state.",
		}, []string{"state"}),
		derivationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: _namespace,
			Name:      "derivation_duration_seconds",
			Help:      "Time from event receipt to its final state.",
			Buckets:   prometheus.DefBuckets,
		}),
		derivationRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: _namespace,
			Name:      "derivation_retries_total",
			Help:      "Derivation attempts after the first one.",
		}),
		uploadSlots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Name:      "upload_slots_total",
			Help:      "Requested upload slots, by result.",
		}, []string{"result"}),
		presignFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Name:      "presign_failures_total",
			Help:      "Presigned URL issuance failures, by method.",
		}, []string{"method"}),
		redrivenLetters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Name:      "dead_letters_redriven_total",
			Help:      "Dead letters handed back to the notification topic, by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "code"}),
	}

	collectors := []prometheus.Collector{
		m.derivationEvents,
		m.derivationDuration,
		m.derivationRetries,
		m.uploadSlots,
		m.presignFailures,
		m.redrivenLetters,
		m.httpRequests,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("metrics - New - reg.Register: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) RecordDerivation(state entity.DerivationState, took time.Duration) {
	if m == nil {
		return
	}
	m.derivationEvents.WithLabelValues(string(state)).Inc()
	m.derivationDuration.Observe(took.Seconds())
}

func (m *Metrics) RecordDerivationRetry() {
	if m == nil {
		return
	}
	m.derivationRetries.Inc()
}

func (m *Metrics) RecordUploadSlot(err error) {
	if m == nil {
		return
	}
	m.uploadSlots.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) RecordPresignFailure(method string) {
	if m == nil {
		return
	}
	m.presignFailures.WithLabelValues(method).Inc()
}

func (m *Metrics) RecordRedrive(n int, err error) {
	if m == nil || n == 0 {
		return
	}
	m.redrivenLetters.WithLabelValues(result(err)).Add(float64(n))
}

func (m *Metrics) RecordHTTPRequest(method, route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, fmt.Sprint(code)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
