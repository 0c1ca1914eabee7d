// Package metrics records jsoncall outcomes as Prometheus metrics.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/abdul-hamid-achik/jsoncall/packages/restcall"
)

// Recorder implements restcall.Observer on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
	LastStatus   *prometheus.GaugeVec
}

var _ restcall.Observer = (*Recorder)(nil)

// NewRecorder creates and registers all call metrics.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jsoncall",
				Name:      "calls_total",
				Help:      "Total number of calls by verb and outcome",
			},
			[]string{"verb", "outcome"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "jsoncall",
				Name:      "call_duration_seconds",
				Help:      "Call latency histogram",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
			[]string{"verb"},
		),
		LastStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "jsoncall",
				Name:      "last_status",
				Help:      "HTTP status code of the most recent call (0 when none was received)",
			},
			[]string{"verb"},
		),
	}
}

// ObserveCall records one finished call.
func (r *Recorder) ObserveCall(verb string, outcome restcall.Outcome, statusCode int, duration time.Duration) {
	r.CallsTotal.WithLabelValues(verb, outcome.String()).Inc()
	r.CallDuration.WithLabelValues(verb).Observe(duration.Seconds())
	r.LastStatus.WithLabelValues(verb).Set(float64(statusCode))
}

// WriteText writes every gathered family in the Prometheus text format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

