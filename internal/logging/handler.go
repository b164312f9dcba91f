// Package logging provides a custom slog handler that retains recent
// warnings and errors in a bounded in-memory buffer, so the status surface
// can show what went wrong with storage without a blocking UI error.
package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultBufferSize is the number of retained records.
const DefaultBufferSize = 256

// Event is one retained log record.
type Event struct {
	Time    time.Time         `json:"time"`
	Level   string            `json:"level"`
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// EventBufferHandler is a slog.Handler that wraps another handler and also
// keeps WARN and ERROR level records in a ring buffer.
type EventBufferHandler struct {
	inner slog.Handler
	level slog.Level

	mu     sync.Mutex
	events []Event
	next   int
	filled bool
}

// NewEventBufferHandler creates a handler that wraps inner and retains
// records at WARN level and above.
func NewEventBufferHandler(inner slog.Handler) *EventBufferHandler {
	return NewEventBufferHandlerWithLevel(inner, slog.LevelWarn)
}

// NewEventBufferHandlerWithLevel creates a handler with a custom minimum
// retention level.
func NewEventBufferHandlerWithLevel(inner slog.Handler, level slog.Level) *EventBufferHandler {
	return &EventBufferHandler{
		inner:  inner,
		level:  level,
		events: make([]Event, DefaultBufferSize),
	}
}

// Enabled implements slog.Handler.
func (h *EventBufferHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventBufferHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.record(r)
	}
	return nil
}

// WithAttrs implements slog.Handler. The buffer is shared so attribute
// scoping does not fork the retained history.
func (h *EventBufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &childHandler{inner: h.inner.WithAttrs(attrs), parent: h}
}

// WithGroup implements slog.Handler.
func (h *EventBufferHandler) WithGroup(name string) slog.Handler {
	return &childHandler{inner: h.inner.WithGroup(name), parent: h}
}

// Events returns the retained records, oldest first.
func (h *EventBufferHandler) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.filled {
		out := make([]Event, h.next)
		copy(out, h.events[:h.next])
		return out
	}
	out := make([]Event, 0, len(h.events))
	out = append(out, h.events[h.next:]...)
	out = append(out, h.events[:h.next]...)
	return out
}

func (h *EventBufferHandler) record(r slog.Record) {
	ev := Event{
		Time:    r.Time,
		Level:   r.Level.String(),
		Message: r.Message,
	}
	if r.NumAttrs() > 0 {
		ev.Attrs = make(map[string]string, r.NumAttrs())
		r.Attrs(func(a slog.Attr) bool {
			ev.Attrs[a.Key] = a.Value.String()
			return true
		})
	}

	h.mu.Lock()
	h.events[h.next] = ev
	h.next++
	if h.next == len(h.events) {
		h.next = 0
		h.filled = true
	}
	h.mu.Unlock()
}

// childHandler forwards to a scoped inner handler while recording into the
// parent's shared buffer.
type childHandler struct {
	inner  slog.Handler
	parent *EventBufferHandler
}

func (c *childHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return c.inner.Enabled(ctx, level)
}

func (c *childHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := c.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= c.parent.level {
		c.parent.record(r)
	}
	return nil
}

func (c *childHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &childHandler{inner: c.inner.WithAttrs(attrs), parent: c.parent}
}

func (c *childHandler) WithGroup(name string) slog.Handler {
	return &childHandler{inner: c.inner.WithGroup(name), parent: c.parent}
}
