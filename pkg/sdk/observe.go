package modcurator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TheVirusNVGM/modcurator/internal/domain"
)

const metricsSubsystem = "sdk"

// resultBuckets spans a single resolved mod up to a full retrieval pool.
var resultBuckets = []float64{0, 1, 5, 10, 25, 50, 100, 250, 500}

type sdkMetrics struct {
	operations *prometheus.CounterVec   // operation, status
	duration   *prometheus.HistogramVec // operation
	results    *prometheus.HistogramVec // operation
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modcurator",
			Subsystem: metricsSubsystem,
			Name:      "operations_total",
			Help:      "SDK calls by operation and outcome (ok, invalid, unavailable, error).",
		}, []string{"operation", "status"}),
		duration: histogram("operation_duration_seconds", "SDK call latency.", prometheus.DefBuckets),
		results:  histogram("operation_results", "Mods returned per successful SDK call.", resultBuckets),
	}
	for _, err := range []error{
		registerOrReuse(reg, &m.operations),
		registerOrReuse(reg, &m.duration),
		registerOrReuse(reg, &m.results),
	} {
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func histogram(name, help string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "modcurator",
		Subsystem: metricsSubsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, []string{"operation"})
}

// registerOrReuse swaps c for the collector already registered under the
// same descriptor, so several Clients can share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("modcurator: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("modcurator: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// statusOf buckets an operation error for the status label.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, domain.ErrCatalogUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// observer reports SDK calls to the caller's slog logger and registry.
// Both are optional, and a nil observer records nothing.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// observe records one call. n counts the mods it returned and is dropped on
// error.
func (o *observer) observe(op string, start time.Time, n int, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := statusOf(err)

	if m := o.metrics; m != nil {
		m.operations.WithLabelValues(op, status).Inc()
		m.duration.WithLabelValues(op).Observe(dur.Seconds())
		if err == nil {
			m.results.WithLabelValues(op).Observe(float64(n))
		}
	}

	if o.logger == nil {
		return
	}
	attrs := []slog.Attr{slog.String("op", op), slog.Duration("duration", dur)}
	switch status {
	case "ok":
		o.logger.LogAttrs(context.Background(), slog.LevelDebug, "operation completed",
			append(attrs, slog.Int("results", n))...)
	case "invalid":
		o.logger.LogAttrs(context.Background(), slog.LevelDebug, "operation rejected",
			append(attrs, slog.Any("error", err))...)
	default:
		o.logger.LogAttrs(context.Background(), slog.LevelWarn, "operation failed",
			append(attrs, slog.String("status", status), slog.Any("error", err))...)
	}
}
