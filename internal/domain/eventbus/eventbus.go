package eventbus

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

// Topics published while serving an assist request. Handlers receive the
// payload types documented next to each constant.
const (
	// TopicVisionResolved carries (sessionID string, provenance string).
	TopicVisionResolved = "vision.resolved"
	// TopicChatCompleted carries (sessionID string, chars int).
	TopicChatCompleted = "chat.completed"
	// TopicChatFailed carries (sessionID string, reason string).
	TopicChatFailed = "chat.failed"
)

// Bus wraps the underlying event bus with panic isolation for async
// delivery. One Bus per process, owned by the bootstrap and passed down;
// subscribers register during startup, before any request is served.
type Bus struct {
	bus evbus.Bus
	wg  sync.WaitGroup
}

func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// Publish delivers the event to all subscribers synchronously.
func (b *Bus) Publish(topic string, args ...interface{}) {
	b.bus.Publish(topic, args...)
}

// PublishAsync delivers the event on a fresh goroutine so that slow
// subscribers never stall the request path. A panicking subscriber is
// contained and does not take down the process.
func (b *Bus) PublishAsync(topic string, args ...interface{}) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			_ = recover()
		}()
		b.bus.Publish(topic, args...)
	}()
}

func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.bus.Subscribe(topic, fn)
}

func (b *Bus) Unsubscribe(topic string, fn interface{}) error {
	return b.bus.Unsubscribe(topic, fn)
}

func (b *Bus) HasCallback(topic string) bool {
	return b.bus.HasCallback(topic)
}

// Wait blocks until every async publication issued so far has been
// delivered. Used during shutdown and in tests.
func (b *Bus) Wait() {
	b.wg.Wait()
}
