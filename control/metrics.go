// File: control/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded on the teacher's control/metrics.go MetricsRegistry, kept as the
// same thread-safe map-of-any with dynamic registration, enriched with a
// zap logger so metric updates are structured-logged the way the rest of
// this module's runtime events are.

package control

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// MetricsRegistry holds mutable runtime counters and gauges keyed by name.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
	log     *zap.Logger
}

// NewMetricsRegistry creates an empty registry. A nil logger disables
// per-update logging.
func NewMetricsRegistry(log *zap.Logger) *MetricsRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &MetricsRegistry{
		metrics: make(map[string]any),
		log:     log,
	}
}

// Set sets or updates a metric key, logging the change at debug level.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
	mr.log.Debug("metric updated", zap.String("key", key), zap.Any("value", value))
}

// Incr adds delta to an int64 metric, initializing it at 0 if absent.
func (mr *MetricsRegistry) Incr(key string, delta int64) {
	mr.mu.Lock()
	cur, _ := mr.metrics[key].(int64)
	cur += delta
	mr.metrics[key] = cur
	mr.updated = time.Now()
	mr.mu.Unlock()
	mr.log.Debug("metric updated", zap.String("key", key), zap.Int64("value", cur))
}

// Snapshot returns a copy of the current metrics map.
func (mr *MetricsRegistry) Snapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// LastUpdated returns the time of the most recent Set/Incr call.
func (mr *MetricsRegistry) LastUpdated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}
