// ABOUTME: In-memory fan-out of merged transcript events to live renderers.
// ABOUTME: Non-blocking publish with drop-on-full and context-scoped subscriptions.

package transcript

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lucyonegit/agent-web-client/internal/event"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// Update is one merged event together with the conversation it belongs to.
// Subscribers receive the post-merge record, not the raw frame.
type Update struct {
	ConversationID string
	Event          event.Event
}

// Broadcaster provides in-memory pub/sub for merged transcript events.
// Renderers subscribe once and receive every merge as it lands, which keeps
// the store a read-only projection for them without polling.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan Update
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for the default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]chan Update),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber for all merged events. Returns the update
// channel and a subscription id. The subscription is cleaned up when ctx is
// cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Update, string) {
	subID := uuid.New().String()
	ch := make(chan Update, subscriberBufferSize)

	b.mu.Lock()
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish sends an update to all subscribers. Non-blocking: updates are
// dropped for subscribers whose channels are full.
func (b *Broadcaster) Publish(conversationID string, ev event.Event) {
	b.mu.RLock()
	targets := make([]chan Update, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	u := Update{ConversationID: conversationID, Event: ev}
	for _, ch := range targets {
		select {
		case ch <- u:
		default:
			b.logger.Debug("dropped update for slow subscriber",
				"conversation_id", conversationID,
				"event_id", ev.EventID())
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[subID]
	if !ok {
		return
	}
	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, subID)
	}
}
