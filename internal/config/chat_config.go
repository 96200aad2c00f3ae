package config

import "time"

const (
	// Reconnection
	DefaultReconnectAttempts = 5
	DefaultReconnectDelay    = 1 * time.Second

	// Reporting
	ReportFallbackTimeout      = 3 * time.Second
	MaxReportDescriptionLength = 500

	// Stream status
	DefaultCountdownInterval = 1 * time.Second
	DefaultRefreshInterval   = 30 * time.Second

	// Room
	RecentMessagesLimit = 50
	HTTPClientTimeout   = 10 * time.Second
)

// Storage keys the hosting app uses for the persisted session.
const (
	TokenKey       = "authToken"
	UserProfileKey = "userProfile"
)
