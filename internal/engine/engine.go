// Package engine orchestrates the send path: compliance gating, optimistic
// transcript inserts, stream consumption, and cancellation.
package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chatdeck/services/inbox-sync/internal/domain/chat"
	"chatdeck/services/inbox-sync/internal/domain/compliance"
	"chatdeck/services/inbox-sync/internal/domain/session"
	"chatdeck/services/inbox-sync/internal/domain/transcript"
	"chatdeck/services/inbox-sync/internal/infrastructure/metrics"
)

// ErrEmptyText is returned when a send carries no message text.
var ErrEmptyText = errors.New("message text is empty")

// Shown when a stream fails before any content accumulated.
const fallbackErrorContent = "Sorry, the assistant could not produce a reply. Please try again."

const eventBufferSize = 64

// CapabilitySource provides the latest capability probe snapshot.
type CapabilitySource interface {
	Capability(ctx context.Context) (*compliance.Capability, error)
}

// Config holds engine tunables.
type Config struct {
	WindowDuration time.Duration
	StreamTimeout  time.Duration
}

// Engine drives one send stream per conversation over the shared transcript
// store. Every blocking call takes a context; cancellation is cooperative.
type Engine struct {
	store      *transcript.Store
	rec        *transcript.Reconciler
	streams    chat.StreamProvider
	capability CapabilitySource
	ctrl       *controller
	cfg        Config
	log        zerolog.Logger
}

// New creates the synchronization engine.
func New(
	cfg Config,
	store *transcript.Store,
	rec *transcript.Reconciler,
	streams chat.StreamProvider,
	capability CapabilitySource,
	log zerolog.Logger,
) *Engine {
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = session.DefaultDuration
	}
	return &Engine{
		store:      store,
		rec:        rec,
		streams:    streams,
		capability: capability,
		ctrl:       newController(),
		cfg:        cfg,
		log:        log.With().Str("component", "engine").Logger(),
	}
}

// SendOptions carries per-send parameters from the caller.
type SendOptions struct {
	ProviderKey string
	ModeKey     string
	Template    bool
	CanWrite    bool
}

// SendHandle exposes the optimistic ids of the inserted pair and the live
// event feed for one send. The Events channel closes when the stream
// reaches a terminal state.
type SendHandle struct {
	ConversationID     string
	UserMessageID      string
	AssistantMessageID string
	Events             <-chan chat.Event
}

// Send runs the compliance gate and, if allowed, inserts the optimistic
// message pair and opens the stream. A blocked send returns the decision
// with a nil handle and never reaches the network. The stream outlives the
// request context; it stops via Cancel, its timeout, or a terminal event.
func (e *Engine) Send(ctx context.Context, convID, text string, opts SendOptions) (*SendHandle, compliance.Decision, error) {
	if strings.TrimSpace(text) == "" {
		return nil, compliance.Decision{}, ErrEmptyText
	}

	e.store.Ensure(convID)

	window, _ := e.store.Window(convID)
	window = session.Compute(window.LastInboundAt, window.LastOutboundAt, e.cfg.WindowDuration, time.Now())

	capSnap, err := e.capability.Capability(ctx)
	if err != nil {
		e.log.Warn().Err(err).Str("conversation_id", convID).Msg("capability probe failed")
		capSnap = nil
	}

	decision := compliance.Evaluate(compliance.Input{
		CanWrite:        opts.CanWrite,
		LastInboundText: e.store.LastInbound(convID),
		Window:          window,
		Template:        opts.Template,
		Capability:      capSnap,
	})
	if !decision.Allowed {
		metrics.SendsTotal.WithLabelValues("denied").Inc()
		metrics.ComplianceDenials.WithLabelValues(string(decision.Code)).Inc()
		e.log.Info().
			Str("conversation_id", convID).
			Str("reason", string(decision.Code)).
			Msg("send blocked by compliance gate")
		return nil, decision, nil
	}

	userID, assistantID := e.rec.StartSend(convID, text, opts.ProviderKey)

	// The stream must survive the HTTP request that started it; only the
	// caller's auth token carries over.
	base := context.Background()
	if token := chat.AuthTokenFromContext(ctx); token != "" {
		base = chat.WithAuthToken(base, token)
	}
	streamCtx, token := e.ctrl.replace(convID, base)

	streamHandle := e.store.BeginStream(convID)
	metrics.ActiveStreams.Inc()
	metrics.SendsTotal.WithLabelValues("allowed").Inc()

	events := make(chan chat.Event, eventBufferSize)
	req := chat.SendRequest{
		ConversationID: convID,
		Text:           text,
		ProviderKey:    opts.ProviderKey,
		ModeKey:        opts.ModeKey,
	}
	go e.consume(streamCtx, token, streamHandle, convID, userID, assistantID, req, events)

	return &SendHandle{
		ConversationID:     convID,
		UserMessageID:      userID,
		AssistantMessageID: assistantID,
		Events:             events,
	}, decision, nil
}

// Cancel aborts the conversation's in-flight stream, if any. Cancelling
// after the stream terminated is a no-op.
func (e *Engine) Cancel(convID string) bool {
	return e.ctrl.cancel(convID)
}

// Snapshot returns the current transcript and a freshly recomputed session
// window.
func (e *Engine) Snapshot(convID string) (chat.Conversation, session.Window, error) {
	e.store.Ensure(convID)
	conv, window, err := e.store.Snapshot(convID)
	if err != nil {
		return chat.Conversation{}, session.Window{}, err
	}
	window = session.Compute(window.LastInboundAt, window.LastOutboundAt, e.cfg.WindowDuration, time.Now())
	return conv, window, nil
}

// Close aborts all in-flight streams. Part of service teardown.
func (e *Engine) Close() {
	e.ctrl.cancelAll()
}

func (e *Engine) consume(
	ctx context.Context,
	token *streamToken,
	streamHandle uint64,
	convID, userID, assistantID string,
	req chat.SendRequest,
	events chan<- chat.Event,
) {
	started := time.Now()
	defer func() {
		close(events)
		e.ctrl.release(convID, token)
		e.store.EndStream(convID, streamHandle)
		metrics.ActiveStreams.Dec()
		metrics.StreamDuration.Observe(time.Since(started).Seconds())
	}()

	if e.cfg.StreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.StreamTimeout)
		defer cancel()
	}

	log := e.log.With().Str("conversation_id", convID).Logger()

	stream, err := e.streams.OpenStream(ctx, req)
	if err != nil {
		status := chat.StatusError
		if ctx.Err() != nil {
			status = chat.StatusCancelled
		}
		e.rec.Finalize(convID, assistantID, status, fallbackErrorContent, "")
		e.rec.Finalize(convID, userID, status, "", "")
		metrics.SendsTotal.WithLabelValues("transport_error").Inc()
		log.Warn().Err(err).Msg("open stream failed")
		return
	}
	defer stream.Close()

	// Post-remap ids once the meta event arrives.
	userCur, assistantCur := userID, assistantID

	for {
		ev, err := stream.Recv()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				// Source closed without a terminal event.
				e.rec.Finalize(convID, assistantCur, chat.StatusDone, "", "")
				e.rec.Finalize(convID, userCur, chat.StatusDone, "", "")
			case ctx.Err() != nil:
				e.rec.Finalize(convID, assistantCur, chat.StatusCancelled, "", "")
				e.rec.Finalize(convID, userCur, chat.StatusDone, "", "")
				log.Info().Msg("stream cancelled")
			default:
				e.rec.Finalize(convID, assistantCur, chat.StatusError, fallbackErrorContent, "")
				e.rec.Finalize(convID, userCur, chat.StatusDone, "", "")
				metrics.SendsTotal.WithLabelValues("transport_error").Inc()
				log.Warn().Err(err).Msg("stream read failed")
			}
			return
		}

		metrics.StreamEventsTotal.WithLabelValues(string(ev.Type)).Inc()

		switch ev.Type {
		case chat.EventMeta:
			e.rec.ApplyMeta(convID, map[string]string{
				userCur:      ev.Meta.UserMessageID,
				assistantCur: ev.Meta.AssistantMessageID,
			})
			if ev.Meta.UserMessageID != "" {
				userCur = ev.Meta.UserMessageID
			}
			if ev.Meta.AssistantMessageID != "" {
				assistantCur = ev.Meta.AssistantMessageID
			}
			e.rec.Finalize(convID, userCur, chat.StatusDone, "", "")
		case chat.EventDelta:
			e.rec.ApplyDelta(convID, assistantCur, ev.Delta.Text)
		case chat.EventDone:
			e.rec.Finalize(convID, assistantCur, chat.StatusDone, "", ev.Done.Provider)
			e.rec.Finalize(convID, userCur, chat.StatusDone, "", "")
			e.forward(events, *ev)
			return
		case chat.EventError:
			e.rec.Finalize(convID, assistantCur, chat.StatusError, fallbackErrorContent, ev.Err.Provider)
			e.rec.Finalize(convID, userCur, chat.StatusDone, "", "")
			log.Warn().Str("code", ev.Err.Code).Str("message", ev.Err.Message).Msg("server reported stream error")
			e.forward(events, *ev)
			return
		}

		e.forward(events, *ev)
	}
}

// forward never blocks the apply loop: a subscriber that stopped reading
// falls back to the poller for the final transcript.
func (e *Engine) forward(events chan<- chat.Event, ev chat.Event) {
	select {
	case events <- ev:
	default:
	}
}
