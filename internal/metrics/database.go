package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DBPoolConnections reports pgx pool connections by state
	// (total, acquired, idle, max).
	DBPoolConnections = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_connections",
			Help:      "PostgreSQL pool connections by state",
		},
		[]string{"state"},
	)

	DBQueryDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_errors_total",
			Help:      "Database errors by operation and class",
		},
		[]string{"operation", "error_type"},
	)
)

// DBCollector samples pgx pool statistics into DBPoolConnections.
type DBCollector struct {
	pool *pgxpool.Pool
}

func NewDBCollector(pool *pgxpool.Pool) *DBCollector {
	return &DBCollector{pool: pool}
}

// Run samples once immediately and then every interval until ctx is done.
func (c *DBCollector) Run(ctx context.Context, interval time.Duration) {
	c.collect()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *DBCollector) collect() {
	if c == nil || c.pool == nil {
		return
	}
	stat := c.pool.Stat()
	DBPoolConnections.WithLabelValues("total").Set(float64(stat.TotalConns()))
	DBPoolConnections.WithLabelValues("acquired").Set(float64(stat.AcquiredConns()))
	DBPoolConnections.WithLabelValues("idle").Set(float64(stat.IdleConns()))
	DBPoolConnections.WithLabelValues("max").Set(float64(stat.MaxConns()))
}

// RecordQuery observes one repository call. Call it right after the query
// returns:
//
//	start := time.Now()
//	err := ...
//	metrics.RecordQuery("append_rsvp", start, err)
//
// pgx.ErrNoRows is a normal outcome and is not counted as an error.
func RecordQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if class := classifyDBError(err); class != "" {
		DBErrors.WithLabelValues(operation, class).Inc()
	}
}

func classifyDBError(err error) string {
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "23503":
			return "foreign_key_violation"
		case "23514":
			return "check_violation"
		case "40001", "40P01":
			return "serialization"
		}
		return "pg_" + pgErr.Code
	}
	return "query_error"
}
