// Package bus is the publish/subscribe mechanism by which link
// implementations deliver inbound packets to the application. Topics are
// plain strings; subscriptions last for the process lifetime.
package bus

import (
	"sync"

	"blechat/pkg/protocol"
	"blechat/pkg/transport"
)

// Topics published by link implementations.
const (
	// TopicReceiveText carries decoded text-message packets.
	TopicReceiveText = "receive.text"
	// TopicReceiveNodeInfo carries peer identity announcements.
	TopicReceiveNodeInfo = "receive.nodeinfo"
)

// Event is the normalized payload delivered to handlers. Either field may
// be nil: publishers normalize raw link data once at this boundary, and
// handlers must tolerate whatever is absent.
type Event struct {
	// Packet is the decoded inbound packet, nil when the link layer had
	// nothing decodable to attach.
	Packet *protocol.Packet

	// Source references the originating link. Read-only for handlers.
	Source transport.Client
}

// Handler consumes one event. Handlers run synchronously on the
// publisher's goroutine (the link's delivery goroutine) and must not
// block or perform long computation.
type Handler func(Event)

// Bus fans events out by topic.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]Handler
}

func New() *Bus { return &Bus{subs: make(map[string][]Handler)} }

// Subscribe registers h on topic. There is no unsubscribe: this client
// subscribes once at startup and the subscription lives with the process.
func (b *Bus) Subscribe(topic string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], h)
	b.mu.Unlock()
}

// Publish delivers ev to every handler subscribed to topic, in
// subscription order, on the caller's goroutine.
func (b *Bus) Publish(topic string, ev Event) {
	b.mu.RLock()
	hs := b.subs[topic]
	b.mu.RUnlock()
	for _, h := range hs {
		h(ev)
	}
}

// Route returns the topic a decoded packet belongs on. Identity
// announcements go to TopicReceiveNodeInfo, everything else (including
// packets with no usable payload) to TopicReceiveText, whose handlers
// drop non-text packets silently.
func Route(p *protocol.Packet) string {
	if p != nil && p.Node != nil {
		return TopicReceiveNodeInfo
	}
	return TopicReceiveText
}

// Subscribers reports the number of handlers on topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
