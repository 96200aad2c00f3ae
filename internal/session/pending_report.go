package session

import (
	"sync"
	"time"

	"streamchat/internal/models"
)

// Delivery paths of a report.
const (
	PathSocket = "socket"
	PathHTTP   = "http"
)

// Outcome is how an in-flight report ended.
type Outcome struct {
	State    models.DeliveryState
	Path     string
	ReportID string
	Message  string
}

type pendingState int

const (
	statePending pendingState = iota
	stateFallback
	stateSettled
)

// PendingReport is the single handle for one in-flight report. Whichever of
// the socket answer, the HTTP answer or Cancel comes first settles it; every
// later call is a no-op. The fallback timer is stopped on settlement, so a
// timeout can never fire after a socket answer.
type PendingReport struct {
	// Request is fixed at creation; the delivery state lives in State.
	Request models.ReportRequest

	mu        sync.Mutex
	state     pendingState
	timer     *time.Timer
	outcome   Outcome
	done      chan struct{}
	onResolve func(*PendingReport, Outcome)
}

// NewPendingReport arms a timer that calls onTimeout after timeout unless the
// report is settled first. onResolve runs exactly once, for the first Resolve.
func NewPendingReport(req models.ReportRequest, timeout time.Duration, onTimeout func(*PendingReport), onResolve func(*PendingReport, Outcome)) *PendingReport {
	p := &PendingReport{
		Request:   req,
		done:      make(chan struct{}),
		onResolve: onResolve,
	}
	p.Request.State = models.DeliveryPending
	p.outcome.State = models.DeliveryPending
	p.mu.Lock()
	p.timer = time.AfterFunc(timeout, func() {
		if p.startFallback() {
			onTimeout(p)
		}
	})
	p.mu.Unlock()
	return p
}

// FallBackNow skips the remaining wait and starts the fallback immediately.
// It reports whether the fallback was started by this call.
func (p *PendingReport) FallBackNow(onTimeout func(*PendingReport)) bool {
	if !p.startFallback() {
		return false
	}
	onTimeout(p)
	return true
}

func (p *PendingReport) startFallback() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != statePending {
		return false
	}
	p.state = stateFallback
	p.timer.Stop()
	return true
}

// Resolve settles the report with o. It returns false if it was already settled.
func (p *PendingReport) Resolve(o Outcome) bool {
	if !p.settle(o) {
		return false
	}
	if p.onResolve != nil {
		p.onResolve(p, o)
	}
	return true
}

// Cancel settles the report without an outcome callback.
func (p *PendingReport) Cancel() bool {
	return p.settle(Outcome{State: models.DeliveryFailed, Message: "cancelled"})
}

func (p *PendingReport) settle(o Outcome) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == stateSettled {
		return false
	}
	p.state = stateSettled
	p.timer.Stop()
	p.outcome = o
	close(p.done)
	return true
}

// FallingBack reports whether the timeout already handed over to HTTP.
func (p *PendingReport) FallingBack() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == stateFallback
}

// Done is closed once the report is settled.
func (p *PendingReport) Done() <-chan struct{} { return p.done }

// State is the delivery state of the report.
func (p *PendingReport) State() models.DeliveryState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcome.State
}

// Outcome returns the settled outcome; its state is pending until settled.
func (p *PendingReport) Outcome() Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcome
}
