package metrics

import (
	"fmt"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg              *prom.Registry
	attempts         *prom.CounterVec
	retries          *prom.CounterVec
	retriesExhausted *prom.CounterVec
	fetchDuration    *prom.HistogramVec
	violations       *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg, or on a
// fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		attempts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "readmecheck",
			Name:      "fetch_attempts_total",
			Help:      "HTTP requests sent, including retries",
		}, []string{"method"}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "readmecheck",
			Name:      "fetch_retries_total",
			Help:      "Retries triggered by a retryable status code",
		}, []string{"host", "status"}),
		retriesExhausted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "readmecheck",
			Name:      "fetch_retry_exhausted_total",
			Help:      "Links whose retry budget ran out",
		}, []string{"host"}),
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "readmecheck",
			Name:      "fetch_duration_seconds",
			Help:      "Wall time per link, retries included",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
		violations: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "readmecheck",
			Name:      "check_violations",
			Help:      "Violations reported by the last run, per check",
		}, []string{"check"}),
	}
	reg.MustRegister(pr.attempts, pr.retries, pr.retriesExhausted, pr.fetchDuration, pr.violations)
	return pr
}

func (p *PrometheusRecorder) IncFetchAttempt(method string) {
	p.attempts.WithLabelValues(method).Inc()
}

func (p *PrometheusRecorder) IncRetry(host string, status int) {
	p.retries.WithLabelValues(host, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) IncRetryExhausted(host string) {
	p.retriesExhausted.WithLabelValues(host).Inc()
}

func (p *PrometheusRecorder) ObserveFetch(outcome Outcome, d time.Duration) {
	p.fetchDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetViolations(check string, n int) {
	p.violations.WithLabelValues(check).Set(float64(n))
}

// WriteTextfile dumps the registry in the node_exporter textfile format so CI
// hosts can pick the last run up.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
