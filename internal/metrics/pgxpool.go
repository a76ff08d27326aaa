package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPgxPoolMetrics exposes pgx connection pool statistics as
// Prometheus gauges under the service namespace.
func RegisterPgxPoolMetrics(pool *pgxpool.Pool) {
	poolGauge := func(name, help string, value func(*pgxpool.Stat) int32) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: name,
			Help: help,
		}, func() float64 {
			return float64(value(pool.Stat()))
		})
	}

	prometheus.MustRegister(
		poolGauge("subpay_pgxpool_acquired_conns",
			"Number of currently acquired connections in the pool",
			func(s *pgxpool.Stat) int32 { return s.AcquiredConns() }),
		poolGauge("subpay_pgxpool_max_conns",
			"Maximum number of connections in the pool",
			func(s *pgxpool.Stat) int32 { return s.MaxConns() }),
		poolGauge("subpay_pgxpool_total_conns",
			"Total number of connections in the pool",
			func(s *pgxpool.Stat) int32 { return s.TotalConns() }),
		poolGauge("subpay_pgxpool_idle_conns",
			"Number of idle connections in the pool",
			func(s *pgxpool.Stat) int32 { return s.IdleConns() }),
	)
}
