// Package bus implements the synchronous, single-threaded message bus:
// topic pub/sub plus one-to-one endpoints. Grounded on the msgbus module
// of the system this kernel replays, generalised for Go by returning an
// opaque Subscription handle from Subscribe (Go function values are not
// comparable, so identity-based unsubscribe needs a token rather than the
// handler itself).
package bus

import "sync/atomic"

type Handler func(msg any)

// Subscription is the token returned by Subscribe, passed back to
// Unsubscribe.
type Subscription struct {
	topic string
	id    uint64
}

type subEntry struct {
	id      uint64
	handler Handler
}

var subSeq uint64

// MessageBus has no internal buffering and no thread-safety of its own:
// publish/send run handlers synchronously on the caller's goroutine,
// matching the kernel's single-threaded cooperative scheduling model.
type MessageBus struct {
	subscriptions map[string][]subEntry
	endpoints     map[string]Handler
}

func New() *MessageBus {
	return &MessageBus{
		subscriptions: make(map[string][]subEntry),
		endpoints:     make(map[string]Handler),
	}
}

// Subscribe appends handler to topic's subscriber list in call order.
func (b *MessageBus) Subscribe(topic string, handler Handler) Subscription {
	id := atomic.AddUint64(&subSeq, 1)
	b.subscriptions[topic] = append(b.subscriptions[topic], subEntry{id: id, handler: handler})
	return Subscription{topic: topic, id: id}
}

// Unsubscribe removes a handler previously returned by Subscribe. It is a
// no-op if the subscription no longer exists.
func (b *MessageBus) Unsubscribe(sub Subscription) {
	entries := b.subscriptions[sub.topic]
	for i, e := range entries {
		if e.id == sub.id {
			b.subscriptions[sub.topic] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// Publish delivers msg to every current subscriber of topic, in
// subscription order, before returning. The subscriber list is snapshotted
// before dispatch so a handler that subscribes or unsubscribes during
// Publish never affects the delivery in progress.
func (b *MessageBus) Publish(topic string, msg any) {
	entries := b.subscriptions[topic]
	snapshot := make([]subEntry, len(entries))
	copy(snapshot, entries)
	for _, e := range snapshot {
		e.handler(msg)
	}
}

// Register binds a single handler to a point-to-point endpoint, replacing
// any previous handler for that endpoint.
func (b *MessageBus) Register(endpoint string, handler Handler) {
	b.endpoints[endpoint] = handler
}

func (b *MessageBus) Deregister(endpoint string) {
	delete(b.endpoints, endpoint)
}

// Send delivers msg to the endpoint's registered handler. Sending to an
// unregistered endpoint is a no-op, never an error: callers cannot be sure
// a venue or engine endpoint has been wired up yet during setup.
func (b *MessageBus) Send(endpoint string, msg any) {
	if h, ok := b.endpoints[endpoint]; ok {
		h(msg)
	}
}

func (b *MessageBus) HasSubscribers(topic string) bool {
	return len(b.subscriptions[topic]) > 0
}

func (b *MessageBus) Topics() []string {
	out := make([]string, 0, len(b.subscriptions))
	for t, subs := range b.subscriptions {
		if len(subs) > 0 {
			out = append(out, t)
		}
	}
	return out
}
