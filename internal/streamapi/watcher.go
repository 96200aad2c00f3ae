package streamapi

import (
	"context"
	"log"
	"sync"
	"time"

	"streamchat/internal/config"
	"streamchat/internal/models"
	"streamchat/internal/streamstatus"
)

// Fetcher loads one stream record.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*models.StreamRecord, error)
}

// Snapshot is what a stream header renders at one instant.
type Snapshot struct {
	Stream    *models.StreamRecord
	Status    streamstatus.Status
	Countdown string
	StartsAt  string
	// Err is the last fetch error; Stream keeps the last good record.
	Err error
}

type WatcherOptions struct {
	CountdownInterval time.Duration
	// RefreshInterval of zero disables periodic refetching.
	RefreshInterval time.Duration
	Now             func() time.Time
}

// Watcher refetches a stream record and recomputes its status and countdown
// on a fixed tick.
type Watcher struct {
	fetcher  Fetcher
	streamID string
	opts     WatcherOptions
	onUpdate func(Snapshot)
	refresh  chan struct{}

	mu      sync.Mutex
	current *models.StreamRecord
	lastErr error
}

func NewWatcher(f Fetcher, streamID string, opts WatcherOptions, onUpdate func(Snapshot)) *Watcher {
	if opts.CountdownInterval <= 0 {
		opts.CountdownInterval = config.DefaultCountdownInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Watcher{
		fetcher:  f,
		streamID: streamID,
		opts:     opts,
		onUpdate: onUpdate,
		refresh:  make(chan struct{}, 1),
	}
}

// Refresh asks a running watcher to refetch now, e.g. when the view regains focus.
func (w *Watcher) Refresh() {
	select {
	case w.refresh <- struct{}{}:
	default:
	}
}

// Run fetches immediately and then keeps the snapshot fresh until ctx is done.
// No update is published after Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	w.fetch(ctx)

	tick := time.NewTicker(w.opts.CountdownInterval)
	defer tick.Stop()

	var refetch <-chan time.Time
	if w.opts.RefreshInterval > 0 {
		t := time.NewTicker(w.opts.RefreshInterval)
		defer t.Stop()
		refetch = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			w.publish(ctx)
		case <-refetch:
			w.fetch(ctx)
		case <-w.refresh:
			w.fetch(ctx)
		}
	}
}

func (w *Watcher) fetch(ctx context.Context) {
	rec, err := w.fetcher.Fetch(ctx, w.streamID)
	if ctx.Err() != nil {
		return
	}
	w.mu.Lock()
	if err != nil {
		log.Printf("WARNING: fetch stream %s: %v", w.streamID, err)
		w.lastErr = err
	} else {
		w.current = rec
		w.lastErr = nil
	}
	w.mu.Unlock()
	w.publish(ctx)
}

func (w *Watcher) publish(ctx context.Context) {
	if ctx.Err() != nil || w.onUpdate == nil {
		return
	}
	w.onUpdate(w.Snapshot())
}

// Snapshot computes the current view from the last fetched record.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	rec, err := w.current, w.lastErr
	w.mu.Unlock()

	snap := Snapshot{Stream: rec, Status: streamstatus.Classify(rec), Err: err}
	if rec != nil {
		now := w.opts.Now()
		snap.Countdown = streamstatus.Countdown(rec.StartTime, now)
		snap.StartsAt = streamstatus.FormatDate(rec.StartTime, now)
	}
	return snap
}
