package models

// StreamRecord represents a live or scheduled broadcast as returned by the
// stream API. The two status signals are kept verbatim; the display status is
// always derived from the whole record.
type StreamRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// StartTime is the scheduled start, ISO 8601.
	StartTime string `json:"startTime"`
	// ActualStartTime is set once the broadcast has really started.
	ActualStartTime *string `json:"actualStartTime,omitempty"`
	// Status is the application's own lowercase state ("live", "scheduled", ...).
	Status string `json:"status"`
	// TPStatus is the streaming vendor's uppercase state ("STREAMING", ...).
	TPStatus        string `json:"tpStatus"`
	IsServerStarted bool   `json:"isServerStarted"`
	AssetID         string `json:"assetId,omitempty"`
	PlaybackID      string `json:"playbackId,omitempty"`
}
