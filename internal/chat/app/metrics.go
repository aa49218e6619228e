package app

import (
	"sync/atomic"
	"time"
)

// Metrics relay counters, safe for concurrent use
type Metrics struct {
	activeConnections int64
	totalConnections  int64

	eventsReceived    int64
	broadcasts        int64
	deliveries        int64
	droppedDeliveries int64

	persistSucceeded int64
	persistFailed    int64

	disconnectWrites       int64
	disconnectWriteFailure int64
	roleMissing            int64

	handlerPanics int64

	startTime time.Time
}

// MetricsSnapshot point in time copy of Metrics
type MetricsSnapshot struct {
	ActiveConnections       int64  `json:"active_connections"`
	TotalConnections        int64  `json:"total_connections"`
	EventsReceived          int64  `json:"events_received"`
	Broadcasts              int64  `json:"broadcasts"`
	Deliveries              int64  `json:"deliveries"`
	DroppedDeliveries       int64  `json:"dropped_deliveries"`
	PersistSucceeded        int64  `json:"persist_succeeded"`
	PersistFailed           int64  `json:"persist_failures"`
	DisconnectWrites        int64  `json:"disconnect_writes"`
	DisconnectWriteFailures int64  `json:"disconnect_write_failures"`
	RoleMissing             int64  `json:"role_missing"`
	HandlerPanics           int64  `json:"handler_panics"`
	Uptime                  string `json:"uptime"`
}

// NewMetrics create metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// ConnectionOpened websocket registered
func (m *Metrics) ConnectionOpened() {
	atomic.AddInt64(&m.activeConnections, 1)
	atomic.AddInt64(&m.totalConnections, 1)
}

// ConnectionClosed websocket gone
func (m *Metrics) ConnectionClosed() {
	atomic.AddInt64(&m.activeConnections, -1)
}

// EventReceived one decoded inbound frame
func (m *Metrics) EventReceived() { atomic.AddInt64(&m.eventsReceived, 1) }

// Broadcasted one broadcast reaching delivered sinks
func (m *Metrics) Broadcasted(delivered, dropped int) {
	atomic.AddInt64(&m.broadcasts, 1)
	atomic.AddInt64(&m.deliveries, int64(delivered))
	atomic.AddInt64(&m.droppedDeliveries, int64(dropped))
}

// PersistSucceeded message appended to history
func (m *Metrics) PersistSucceeded() { atomic.AddInt64(&m.persistSucceeded, 1) }

// PersistFailed message append failed, broadcast already done
func (m *Metrics) PersistFailed() { atomic.AddInt64(&m.persistFailed, 1) }

// DisconnectWritten disconnect timestamp stored
func (m *Metrics) DisconnectWritten() { atomic.AddInt64(&m.disconnectWrites, 1) }

// DisconnectWriteFailed disconnect timestamp not stored
func (m *Metrics) DisconnectWriteFailed() { atomic.AddInt64(&m.disconnectWriteFailure, 1) }

// RoleMissing leave or disconnect without a known role
func (m *Metrics) RoleMissing() { atomic.AddInt64(&m.roleMissing, 1) }

// HandlerPanicked recovered panic in an event handler
func (m *Metrics) HandlerPanicked() { atomic.AddInt64(&m.handlerPanics, 1) }

// Snapshot read every counter
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		ActiveConnections:       atomic.LoadInt64(&m.activeConnections),
		TotalConnections:        atomic.LoadInt64(&m.totalConnections),
		EventsReceived:          atomic.LoadInt64(&m.eventsReceived),
		Broadcasts:              atomic.LoadInt64(&m.broadcasts),
		Deliveries:              atomic.LoadInt64(&m.deliveries),
		DroppedDeliveries:       atomic.LoadInt64(&m.droppedDeliveries),
		PersistSucceeded:        atomic.LoadInt64(&m.persistSucceeded),
		PersistFailed:           atomic.LoadInt64(&m.persistFailed),
		DisconnectWrites:        atomic.LoadInt64(&m.disconnectWrites),
		DisconnectWriteFailures: atomic.LoadInt64(&m.disconnectWriteFailure),
		RoleMissing:             atomic.LoadInt64(&m.roleMissing),
		HandlerPanics:           atomic.LoadInt64(&m.handlerPanics),
		Uptime:                  time.Since(m.startTime).Round(time.Second).String(),
	}
}
