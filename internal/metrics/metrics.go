// Package metrics holds the prometheus collectors shared by the chat client and
// the dev chat server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClientReconnectAttempts counts redial attempts after a lost or failed connection.
	ClientReconnectAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamchat_client_reconnect_attempts_total",
		Help: "Total number of reconnect attempts made by the chat client",
	})

	// ClientEventsReceived counts inbound events by name.
	ClientEventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamchat_client_events_received_total",
		Help: "Total events received by the chat client",
	}, []string{"event"})

	// ClientFramesDropped counts outbound events that never reached the wire.
	ClientFramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamchat_client_frames_dropped_total",
		Help: "Total outbound events dropped by the chat client",
	}, []string{"event", "reason"})

	// ReportOutcomes counts resolved moderation reports by delivery path and result.
	ReportOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamchat_report_outcomes_total",
		Help: "Resolved moderation reports by path (socket, http) and result",
	}, []string{"path", "result"})

	// HubConnections is the number of websocket clients attached to the hub.
	HubConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamchat_hub_connections",
		Help: "Number of active websocket connections on the chat hub",
	})

	// HubRoomMembers is the number of members per room.
	HubRoomMembers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "streamchat_hub_room_members",
		Help: "Number of members currently joined per stream room",
	}, []string{"stream_id"})

	// HubMessages counts chat messages accepted by the hub.
	HubMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamchat_hub_messages_total",
		Help: "Total chat messages accepted by the hub",
	})
)
