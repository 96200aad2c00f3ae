package session_test

import (
	"sync/atomic"
	"testing"
	"time"

	"streamchat/internal/models"
	"streamchat/internal/session"

	"github.com/stretchr/testify/assert"
)

func TestPendingReport_ResolvesOnce(t *testing.T) {
	var resolved, timeouts atomic.Int32
	p := session.NewPendingReport(models.ReportRequest{MessageID: "m1"}, time.Hour,
		func(*session.PendingReport) { timeouts.Add(1) },
		func(*session.PendingReport, session.Outcome) { resolved.Add(1) })

	assert.True(t, p.Resolve(session.Outcome{State: models.DeliverySucceeded, Path: session.PathSocket}))
	assert.False(t, p.Resolve(session.Outcome{State: models.DeliveryFailed, Path: session.PathHTTP}))
	assert.False(t, p.Cancel())

	assert.Equal(t, int32(1), resolved.Load())
	assert.Equal(t, int32(0), timeouts.Load())
	assert.Equal(t, models.DeliverySucceeded, p.Outcome().State)
	assert.Equal(t, models.DeliverySucceeded, p.State())

	select {
	case <-p.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestPendingReport_TimeoutStartsFallback(t *testing.T) {
	fired := make(chan struct{})
	p := session.NewPendingReport(models.ReportRequest{MessageID: "m1"}, 10*time.Millisecond,
		func(*session.PendingReport) { close(fired) }, nil)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timeout callback not called")
	}
	assert.True(t, p.FallingBack())
	assert.Equal(t, models.DeliveryPending, p.State())
	assert.False(t, p.FallBackNow(func(*session.PendingReport) { t.Error("fallback started twice") }))
}

func TestPendingReport_CancelStopsTimer(t *testing.T) {
	var timeouts atomic.Int32
	p := session.NewPendingReport(models.ReportRequest{MessageID: "m1"}, 10*time.Millisecond,
		func(*session.PendingReport) { timeouts.Add(1) }, nil)

	assert.True(t, p.Cancel())
	assert.Never(t, func() bool { return timeouts.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}
