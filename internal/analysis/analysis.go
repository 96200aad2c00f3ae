// Package analysis scores moderation reports.
package analysis

import (
	"streamchat/internal/config"
	"streamchat/internal/models"
)

// GetWeight returns the weight of a report reason, 0 for unknown reasons.
func GetWeight(reason string) int {
	return config.ReportWeights[reason]
}

// OpenWeight sums the weight of the reports that are still open. Each
// reporter counts once per message.
func OpenWeight(reports []models.Report) int {
	seen := make(map[string]bool, len(reports))
	total := 0
	for _, r := range reports {
		if r.Status != models.ReportStatusNew || seen[r.ReporterID] {
			continue
		}
		seen[r.ReporterID] = true
		total += GetWeight(r.Reason)
	}
	return total
}
