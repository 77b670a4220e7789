// Package memory provides an in-process notifier that fans notifications out
// to registered handlers. It is used by the CLI and in tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/ahrav/secaudit/internal/domain/scanning"
)

var _ scanning.Notifier = (*Notifier)(nil)

type handler struct {
	id uint64
	fn func(scanning.Notification) error
}

// Notifier broadcasts each notification to every subscribed handler.
type Notifier struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers []handler
}

// New creates a notifier with no subscribers.
func New() *Notifier { return new(Notifier) }

// Subscribe registers fn until ctx is done.
func (n *Notifier) Subscribe(ctx context.Context, fn func(scanning.Notification) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fn == nil {
		return errors.New("handler cannot be nil")
	}

	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.handlers = append(n.handlers, handler{id: id, fn: fn})
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, h := range n.handlers {
			if h.id == id {
				n.handlers = append(n.handlers[:i], n.handlers[i+1:]...)
				return
			}
		}
	}()

	return nil
}

// Notify delivers msg to every handler, stopping at the first error.
func (n *Notifier) Notify(ctx context.Context, msg scanning.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Handlers run without the lock held.
	n.mu.RLock()
	handlers := make([]handler, len(n.handlers))
	copy(handlers, n.handlers)
	n.mu.RUnlock()

	for _, h := range handlers {
		if err := h.fn(msg); err != nil {
			return err
		}
	}
	return nil
}

// Recorder is a subscriber that keeps every notification it sees.
type Recorder struct {
	mu   sync.Mutex
	seen []scanning.Notification
}

// Record is a handler suitable for Subscribe.
func (r *Recorder) Record(n scanning.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
	return nil
}

// Notifications returns a copy of the recorded notifications.
func (r *Recorder) Notifications() []scanning.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]scanning.Notification, len(r.seen))
	copy(out, r.seen)
	return out
}
