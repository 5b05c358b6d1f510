package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatter is satisfied by *dbpool.Pool.
type PoolStatter interface {
	Stat() *pgxpool.Stat
}

var (
	poolTotalDesc    = prometheus.NewDesc("revisor_db_pool_connections", "Open connections in the database pool", nil, nil)
	poolAcquiredDesc = prometheus.NewDesc("revisor_db_pool_acquired_connections", "Connections currently checked out", nil, nil)
	poolIdleDesc     = prometheus.NewDesc("revisor_db_pool_idle_connections", "Idle connections in the pool", nil, nil)
	poolWaitsDesc    = prometheus.NewDesc("revisor_db_pool_empty_acquires_total", "Acquires that had to wait for a connection", nil, nil)
)

type poolCollector struct {
	pool PoolStatter
}

// NewPoolCollector reports pool statistics at scrape time.
func NewPoolCollector(pool PoolStatter) prometheus.Collector {
	return poolCollector{pool: pool}
}

func (poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolTotalDesc
	ch <- poolAcquiredDesc
	ch <- poolIdleDesc
	ch <- poolWaitsDesc
}

func (c poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(poolTotalDesc, prometheus.GaugeValue, float64(s.TotalConns()))
	ch <- prometheus.MustNewConstMetric(poolAcquiredDesc, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(poolIdleDesc, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(poolWaitsDesc, prometheus.CounterValue, float64(s.EmptyAcquireCount()))
}
