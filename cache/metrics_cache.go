package cache

import (
	"context"
	"fmt"
	"time"

	"solflow/trade"
)

const metricsTTL = 5 * time.Minute

// MetricsMirror wraps a RedisClient (possibly nil) to give the dispatcher
// a single best-effort call site for publishing the latest metrics
// snapshot per mint.
type MetricsMirror struct {
	client *RedisClient
}

func NewMetricsMirror(client *RedisClient) *MetricsMirror {
	return &MetricsMirror{client: client}
}

// Publish mirrors m under solflow:metrics:<mint>. A nil client or any
// Redis error is swallowed: this is a cache-aside convenience for
// dashboards, never a correctness dependency.
func (m *MetricsMirror) Publish(metrics trade.Metrics) {
	if m == nil || m.client == nil {
		return
	}
	key := fmt.Sprintf("solflow:metrics:%s", metrics.Mint)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = m.client.Set(ctx, key, metrics, metricsTTL)
}
