package config

// ReportWeights is the moderation weight of each report reason.
var ReportWeights = map[string]int{
	"spam":          2,
	"harassment":    5,
	"inappropriate": 3,
	"other":         1,
}

// AutoHideWeight is the summed weight of open reports at which a message is
// removed from its room without waiting for a moderator.
const AutoHideWeight = 10
