// Package metrics provides observability for the factory server: tick
// latency, accrual throughput, command volume, and storage health, exposed
// as a JSON endpoint.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance counters.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Continuous accrual
	AccrualTicks  int64
	UnitsAccrued  int64

	// Command surface
	CommandsProcessed int64
	CommandErrors     int64

	// Event persistence
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteErrors int64

	// WebSocket
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// Persistence
	SavesTotal int64
	LoadsTotal int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance.
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a monthly tick completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TickLatencyMax) {
		atomic.StoreInt64(&c.TickLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordAccrual records one continuous-production pass.
func (c *Collector) RecordAccrual(units int64) {
	atomic.AddInt64(&c.AccrualTicks, 1)
	atomic.AddInt64(&c.UnitsAccrued, units)
}

// RecordCommand records one handled player command.
func (c *Collector) RecordCommand(err error) {
	atomic.AddInt64(&c.CommandsProcessed, 1)
	if err != nil {
		atomic.AddInt64(&c.CommandErrors, 1)
	}
}

// RecordEventWrite records an event write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))
	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordSave records a session save.
func (c *Collector) RecordSave() {
	atomic.AddInt64(&c.SavesTotal, 1)
}

// RecordLoad records a session load.
func (c *Collector) RecordLoad() {
	atomic.AddInt64(&c.LoadsTotal, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)

	var tickAvg, eventAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"accrual": map[string]interface{}{
			"ticks":         atomic.LoadInt64(&c.AccrualTicks),
			"units_accrued": atomic.LoadInt64(&c.UnitsAccrued),
		},

		"commands": map[string]interface{}{
			"processed": atomic.LoadInt64(&c.CommandsProcessed),
			"errors":    atomic.LoadInt64(&c.CommandErrors),
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"persistence": map[string]interface{}{
			"saves": atomic.LoadInt64(&c.SavesTotal),
			"loads": atomic.LoadInt64(&c.LoadsTotal),
		},
	}
}

// Handler serves the metrics snapshot as JSON.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Get().Snapshot())
	}
}
