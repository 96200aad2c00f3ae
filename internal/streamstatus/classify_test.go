package streamstatus_test

import (
	"testing"

	"streamchat/internal/models"
	"streamchat/internal/streamstatus"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestClassify_StreamingWinsOverStatus(t *testing.T) {
	for _, status := range []string{"", "live", "scheduled", "upcoming", "completed", "ended", "garbage"} {
		s := &models.StreamRecord{TPStatus: "STREAMING", Status: status}
		assert.Equal(t, streamstatus.Live, streamstatus.Classify(s).Label, "status=%q", status)
	}
}

func TestClassify_Disconnected(t *testing.T) {
	started := &models.StreamRecord{TPStatus: "DISCONNECTED", ActualStartTime: strPtr("2026-03-01T10:00:00Z"), Status: "completed"}
	assert.Equal(t, streamstatus.Live, streamstatus.Classify(started).Label)

	notStarted := &models.StreamRecord{TPStatus: "DISCONNECTED", Status: "live", IsServerStarted: true}
	assert.Equal(t, streamstatus.Upcoming, streamstatus.Classify(notStarted).Label)

	blankStart := &models.StreamRecord{TPStatus: "DISCONNECTED", ActualStartTime: strPtr("  ")}
	assert.Equal(t, streamstatus.Upcoming, streamstatus.Classify(blankStart).Label)
}

func TestClassify_PrecedenceTable(t *testing.T) {
	tests := []struct {
		name   string
		stream *models.StreamRecord
		want   streamstatus.Label
	}{
		{"nil record", nil, streamstatus.Scheduled},
		{"empty record", &models.StreamRecord{}, streamstatus.Scheduled},
		{"vendor started", &models.StreamRecord{TPStatus: "STARTED"}, streamstatus.Live},
		{"lowercase live", &models.StreamRecord{Status: "live"}, streamstatus.Live},
		{"mixed case live", &models.StreamRecord{Status: " Live "}, streamstatus.Live},
		{"server started flag", &models.StreamRecord{Status: "completed", IsServerStarted: true}, streamstatus.Live},
		{"server started beats not started", &models.StreamRecord{TPStatus: "NOT_STARTED", IsServerStarted: true}, streamstatus.Live},
		{"vendor not started", &models.StreamRecord{TPStatus: "NOT_STARTED"}, streamstatus.Upcoming},
		{"lowercase scheduled", &models.StreamRecord{Status: "scheduled"}, streamstatus.Upcoming},
		{"lowercase upcoming", &models.StreamRecord{Status: "upcoming"}, streamstatus.Upcoming},
		{"not started beats completed", &models.StreamRecord{TPStatus: "NOT_STARTED", Status: "completed"}, streamstatus.Upcoming},
		{"vendor completed", &models.StreamRecord{TPStatus: "COMPLETED"}, streamstatus.Recorded},
		{"vendor stopped", &models.StreamRecord{TPStatus: "STOPPED"}, streamstatus.Recorded},
		{"lowercase ended", &models.StreamRecord{Status: "ended"}, streamstatus.Recorded},
		{"lowercase completed", &models.StreamRecord{Status: "completed"}, streamstatus.Recorded},
		{"unknown values", &models.StreamRecord{TPStatus: "PAUSED", Status: "draft"}, streamstatus.Scheduled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := streamstatus.Classify(tt.stream)
			assert.Equal(t, tt.want, got.Label)
			assert.NotEmpty(t, got.DisplayColor)
			assert.NotEmpty(t, got.BadgeColor)
		})
	}
}

// TestRules_EachRuleReachable guards against a reorder that shadows a rule.
func TestRules_EachRuleReachable(t *testing.T) {
	samples := map[string]*models.StreamRecord{
		"vendor disconnected after start":  {TPStatus: "DISCONNECTED", ActualStartTime: strPtr("2026-03-01T10:00:00Z")},
		"vendor disconnected before start": {TPStatus: "DISCONNECTED"},
		"streaming":                        {TPStatus: "STREAMING"},
		"not started":                      {TPStatus: "NOT_STARTED"},
		"finished":                         {TPStatus: "COMPLETED"},
	}
	for _, r := range streamstatus.Rules {
		s, ok := samples[r.Name]
		if !assert.True(t, ok, "no sample for rule %q", r.Name) {
			continue
		}
		assert.Equal(t, r.Label, streamstatus.ClassifyLabel(s), r.Name)
	}
}

func TestStatusFor_Unknown(t *testing.T) {
	assert.Equal(t, streamstatus.Scheduled, streamstatus.StatusFor("NOPE").Label)
	assert.Equal(t, streamstatus.Live, streamstatus.StatusFor(streamstatus.Live).Label)
}
