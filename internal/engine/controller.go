package engine

import (
	"context"
	"sync"
)

type streamToken struct {
	cancel context.CancelFunc
}

// controller binds one cancellation token to the in-flight stream of each
// conversation. A new send for a conversation whose previous stream has not
// terminated cancels the old stream before the new one starts
// (cancel-and-replace).
type controller struct {
	mu     sync.Mutex
	active map[string]*streamToken
}

func newController() *controller {
	return &controller{active: make(map[string]*streamToken)}
}

// replace cancels any outstanding stream for the conversation and registers
// a new cancellable context derived from parent.
func (c *controller) replace(convID string, parent context.Context) (context.Context, *streamToken) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.active[convID]; ok {
		prev.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	token := &streamToken{cancel: cancel}
	c.active[convID] = token
	return ctx, token
}

// cancel aborts the conversation's in-flight stream. Calling it when no
// stream is outstanding, or after the stream already terminated, is a no-op.
func (c *controller) cancel(convID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, ok := c.active[convID]
	if !ok {
		return false
	}
	token.cancel()
	delete(c.active, convID)
	return true
}

// release removes the token once its stream terminates. Only the token that
// registered it is removed, so a replacing send is never unregistered by
// the stream it cancelled.
func (c *controller) release(convID string, token *streamToken) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.active[convID]; ok && current == token {
		delete(c.active, convID)
	}
	token.cancel()
}

// cancelAll aborts every in-flight stream. Used at teardown.
func (c *controller) cancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, token := range c.active {
		token.cancel()
		delete(c.active, id)
	}
}
