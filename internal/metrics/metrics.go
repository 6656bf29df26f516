// Package metrics exposes Prometheus collectors for import runs.
package metrics

import (
	"errors"
	"time"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
	"github.com/prometheus/client_golang/prometheus"
)

var durationBuckets = []float64{0.5, 1, 5, 15, 30, 60, 300, 900, 1800, 3600}

// ImportMetrics implements the importer's run recorder.
type ImportMetrics struct {
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	usersTotal    prometheus.Counter
	messagesTotal *prometheus.CounterVec
	chunksTotal   prometheus.Counter
	rowsCommitted prometheus.Counter
}

func NewImportMetrics(reg prometheus.Registerer) (*ImportMetrics, error) {
	m := &ImportMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity_import",
			Name:      "runs_total",
			Help:      "Import runs by outcome",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "identity_import",
			Name:      "run_duration_seconds",
			Help:      "Wall clock duration of import runs",
			Buckets:   durationBuckets,
		}),
		usersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "identity_import",
			Name:      "users_processed_total",
			Help:      "Users counted as processed by finished runs",
		}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity_import",
			Name:      "report_messages_total",
			Help:      "Errors and warnings reported by finished runs",
		}, []string{"severity"}),
		chunksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "identity_import",
			Name:      "chunks_committed_total",
			Help:      "Chunk transactions committed",
		}),
		rowsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "identity_import",
			Name:      "rows_committed_total",
			Help:      "Rows held by committed chunk transactions",
		}),
	}

	var err error
	if m.runs, err = register(reg, m.runs); err != nil {
		return nil, err
	}
	if m.runDuration, err = register(reg, m.runDuration); err != nil {
		return nil, err
	}
	if m.usersTotal, err = register(reg, m.usersTotal); err != nil {
		return nil, err
	}
	if m.messagesTotal, err = register(reg, m.messagesTotal); err != nil {
		return nil, err
	}
	if m.chunksTotal, err = register(reg, m.chunksTotal); err != nil {
		return nil, err
	}
	if m.rowsCommitted, err = register(reg, m.rowsCommitted); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ImportMetrics) ChunkCommitted(rows int) {
	m.chunksTotal.Inc()
	m.rowsCommitted.Add(float64(rows))
}

func (m *ImportMetrics) RunFinished(report *domain.RunReport, elapsed time.Duration, err error) {
	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(elapsed.Seconds())

	if report == nil {
		return
	}
	m.usersTotal.Add(float64(report.Counts.Users))
	m.messagesTotal.WithLabelValues("error").Add(float64(len(report.Errors)))
	m.messagesTotal.WithLabelValues("warning").Add(float64(len(report.Warnings)))
}

// register reuses an already registered collector of the same shape.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}
