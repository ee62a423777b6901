// Package poller provides the eventual-consistency fallback: a fixed
// interval re-fetch of every tracked conversation's transcript and session
// window. Polling is fully suspended while the dashboard view is hidden;
// regaining visibility triggers one immediate poll before the interval
// resumes.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatdeck/services/inbox-sync/internal/domain/chat"
	"chatdeck/services/inbox-sync/internal/domain/transcript"
	"chatdeck/services/inbox-sync/internal/infrastructure/metrics"
)

// DefaultInterval matches the dashboard refresh cadence.
const DefaultInterval = 2500 * time.Millisecond

// Poller periodically replaces local transcripts with server truth.
type Poller struct {
	source   chat.TranscriptSource
	store    *transcript.Store
	interval time.Duration
	log      zerolog.Logger

	visibleCh chan bool
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a poller. The view starts visible.
func New(source chat.TranscriptSource, store *transcript.Store, interval time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		source:    source,
		store:     store,
		interval:  interval,
		log:       log.With().Str("component", "poller").Logger(),
		visibleCh: make(chan bool, 1),
		done:      make(chan struct{}),
	}
}

// SetVisible reports dashboard visibility. Hidden suspends all polling; no
// background network calls are made until visibility returns.
func (p *Poller) SetVisible(visible bool) {
	for {
		select {
		case p.visibleCh <- visible:
			return
		default:
			// Drop the stale report; only the latest state matters.
			select {
			case <-p.visibleCh:
			default:
			}
		}
	}
}

// Run polls until the context is cancelled or Stop is called. It always
// returns nil so it can sit in an errgroup beside the HTTP server.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info().Dur("interval", p.interval).Msg("poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	visible := true
	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("poller stopped by context")
			return nil
		case <-p.done:
			p.log.Info().Msg("poller stopped")
			return nil
		case v := <-p.visibleCh:
			if v && !visible {
				visible = true
				p.pollAll(ctx)
				ticker.Reset(p.interval)
			} else if !v {
				visible = false
			}
		case <-ticker.C:
			if visible {
				p.pollAll(ctx)
			}
		}
	}
}

// Stop terminates Run. Safe to call multiple times.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
}

func (p *Poller) pollAll(ctx context.Context) {
	for _, id := range p.store.IDs() {
		p.poll(ctx, id)
	}
}

func (p *Poller) poll(ctx context.Context, convID string) {
	snap, err := p.source.FetchTranscript(ctx, convID)
	if err != nil {
		metrics.PollCycles.WithLabelValues("error").Inc()
		p.log.Warn().Err(err).Str("conversation_id", convID).Msg("poll failed")
		return
	}

	if p.store.Replace(convID, snap.Messages, snap.Window) {
		metrics.PollCycles.WithLabelValues("applied").Inc()
	} else {
		// A stream is mid-flight; its deltas win until it terminates.
		metrics.PollCycles.WithLabelValues("skipped").Inc()
		p.log.Debug().Str("conversation_id", convID).Msg("poll result skipped, stream active")
	}
}
