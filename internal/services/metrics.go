package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the custom Prometheus metrics for the application
type Metrics struct {
	// WebSocket metrics
	WebSocketConnections prometheus.Gauge
	WebSocketMessages    *prometheus.CounterVec

	// Chat metrics
	ChatRequests       prometheus.Counter
	ChatRequestLatency prometheus.Histogram
	ActionsDispatched  *prometheus.CounterVec

	// Plan metrics
	PlansGenerated *prometheus.CounterVec

	connManager *ConnectionManager
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics(connManager *ConnectionManager) *Metrics {
	metrics := &Metrics{
		connManager: connManager,

		WebSocketConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "momentum_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		}),

		WebSocketMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "momentum_websocket_messages_total",
			Help: "Total number of WebSocket messages by type",
		}, []string{"type", "direction"}), // direction: "inbound" or "outbound"

		ChatRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "momentum_chat_requests_total",
			Help: "Total number of chat requests processed",
		}),

		ChatRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "momentum_chat_request_duration_seconds",
			Help:    "Chat request latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}, // up to 2 minutes for AI responses
		}),

		ActionsDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "momentum_actions_dispatched_total",
			Help: "Total number of dispatched chat actions by type and outcome",
		}, []string{"action_type", "outcome"}), // outcome: "success" or "error"

		PlansGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "momentum_plans_generated_total",
			Help: "Total number of generated daily plans by source",
		}, []string{"source"}),
	}

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "momentum_websocket_connections_current",
			Help: "Current number of active WebSocket connections (from connection manager)",
		},
		func() float64 {
			if connManager != nil {
				return float64(connManager.Count())
			}
			return 0
		},
	))

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordWebSocketConnect records a new WebSocket connection
func (m *Metrics) RecordWebSocketConnect() {
	m.WebSocketConnections.Inc()
}

// RecordWebSocketDisconnect records a WebSocket disconnection
func (m *Metrics) RecordWebSocketDisconnect() {
	m.WebSocketConnections.Dec()
}

// RecordWebSocketMessage records a WebSocket message
func (m *Metrics) RecordWebSocketMessage(msgType, direction string) {
	m.WebSocketMessages.WithLabelValues(msgType, direction).Inc()
}

// RecordChatRequest records a chat request
func (m *Metrics) RecordChatRequest() {
	m.ChatRequests.Inc()
}

// RecordChatLatency records chat request latency
func (m *Metrics) RecordChatLatency(seconds float64) {
	m.ChatRequestLatency.Observe(seconds)
}

// RecordAction records one dispatched action result
func (m *Metrics) RecordAction(actionType string, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.ActionsDispatched.WithLabelValues(actionType, outcome).Inc()
}

// RecordPlanGenerated records one stored plan
func (m *Metrics) RecordPlanGenerated(source string) {
	m.PlansGenerated.WithLabelValues(source).Inc()
}
