package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ingestCounter         *prometheus.CounterVec
	drawCounter           *prometheus.CounterVec
	epochsCreatedCounter  prometheus.Counter
	oracleRequestDuration *prometheus.HistogramVec
	currentEpochGauge     prometheus.Gauge
	polledTxCounter       prometheus.Counter
}

// NewMetrics registers the raffle collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	m := Metrics{
		// ingestion outcomes: accepted, ignored, error
		ingestCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_ingest_total", namespace),
			Help: "Observed transactions by ingestion outcome",
		}, []string{"status"}),
		drawCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_draws_total", namespace),
			Help: "Completed epochs by draw outcome",
		}, []string{"outcome"}),
		epochsCreatedCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_epochs_created_total", namespace),
			Help: "Epochs created",
		}),
		oracleRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_oracle_request_duration_seconds", namespace),
			Help:    "Chain oracle request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		currentEpochGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_current_epoch", namespace),
			Help: "Id of the active raffle epoch",
		}),
		polledTxCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_poller_transactions_total", namespace),
			Help: "Transactions discovered by the address poller",
		}),
	}
	return &m
}

// All methods are no-ops on a nil receiver so collaborators can run without metrics.

func (metrics *Metrics) IncIngest(status string) {
	if metrics == nil {
		return
	}
	metrics.ingestCounter.WithLabelValues(status).Inc()
}

func (metrics *Metrics) IncDraw(outcome string) {
	if metrics == nil {
		return
	}
	metrics.drawCounter.WithLabelValues(outcome).Inc()
}

func (metrics *Metrics) EpochCreated(epochID uint) {
	if metrics == nil {
		return
	}
	metrics.epochsCreatedCounter.Inc()
	metrics.currentEpochGauge.Set(float64(epochID))
}

func (metrics *Metrics) ObserveOracle(operation string, err error, started time.Time) {
	if metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.oracleRequestDuration.WithLabelValues(operation, outcome).Observe(time.Since(started).Seconds())
}

func (metrics *Metrics) AddPolled(n int) {
	if metrics == nil {
		return
	}
	metrics.polledTxCounter.Add(float64(n))
}
