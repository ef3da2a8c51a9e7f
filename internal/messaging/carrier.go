package messaging

import (
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
)

var _ propagation.TextMapCarrier = (*MessageCarrier)(nil)

// MessageCarrier exposes Kafka message headers as a propagation carrier, and
// carries the event type alongside the trace context.
type MessageCarrier struct {
	msg *kafka.Message
}

func NewMessageCarrier(msg *kafka.Message) *MessageCarrier {
	return &MessageCarrier{msg: msg}
}

func (c *MessageCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Set overwrites the first header named key.
func (c *MessageCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *MessageCarrier) Keys() []string {
	seen := make(map[string]bool, len(c.msg.Headers))
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		if seen[h.Key] {
			continue
		}
		seen[h.Key] = true
		keys = append(keys, h.Key)
	}
	return keys
}

// EventType returns the event-type header, or fallback for messages published
// without one.
func (c *MessageCarrier) EventType(fallback string) string {
	if t := c.Get(HeaderEventType); t != "" {
		return t
	}
	return fallback
}
