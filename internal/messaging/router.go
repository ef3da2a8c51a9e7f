package messaging

import (
	"context"
	"log/slog"
)

const HeaderEventType = "event-type"

type HandlerFunc func(ctx context.Context, payload []byte) error

// Router dispatches payloads to the handler registered for their event type.
// Events nobody subscribed to are acknowledged and dropped.
type Router struct {
	handlers map[string]HandlerFunc
	logger   *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

func (r *Router) Handle(eventType string, h HandlerFunc) {
	r.handlers[eventType] = h
}

func (r *Router) Dispatch(ctx context.Context, eventType string, payload []byte) error {
	h, ok := r.handlers[eventType]
	if !ok {
		r.logger.Debug("no handler for event type, skipping", "event_type", eventType)
		return nil
	}
	return h(ctx, payload)
}
