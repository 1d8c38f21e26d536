package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brzbridge/ledger-lib/common/types"
)

const (
	// sinkBuffer is how many unpersisted events may queue before drops.
	sinkBuffer = 1024
	// sinkTimeout bounds a single SaveEvent call.
	sinkTimeout = 10 * time.Second
)

// Event outbox. The ledger writes an append-only audit log the monitor and
// external indexers read; the ledger itself never reads it back. Records
// are immutable once appended.

type subscriber struct {
	ch     chan types.Event
	closed bool
}

// Events returns a snapshot of the audit log in emission order.
func (b *Bridge) Events() []types.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := make([]types.Event, len(b.events))
	copy(events, b.events)
	return events
}

// Subscribe returns a channel fed with every event emitted after the call,
// and a cancel function that closes it. A slow consumer whose buffer fills
// up loses events (they remain available through Events and the sink); the
// drop is logged.
func (b *Bridge) Subscribe(buffer int) (<-chan types.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscriber{ch: make(chan types.Event, buffer)}
	b.subs = append(b.subs, sub)

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if sub.closed {
			return
		}
		sub.closed = true
		close(sub.ch)

		for i, s := range b.subs {
			if s == sub {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
	}

	return sub.ch, cancel
}

// emit must be called with the mutex held.
func (b *Bridge) emit(eventType types.EventType, payload interface{}) {
	b.seq++
	event := types.Event{
		ID:        uuid.NewString(),
		Seq:       b.seq,
		Type:      eventType,
		EmittedAt: time.Now().UTC(),
		Payload:   payload,
	}
	b.events = append(b.events, event)

	for _, sub := range b.subs {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.logger.WithField("event", string(eventType)).Warn("Subscriber buffer full, event dropped")
		}
	}

	if b.sinkCh != nil {
		select {
		case b.sinkCh <- event:
		default:
			b.logger.WithField("event", string(eventType)).Warn("Sink queue full, event not persisted")
		}
	}
}

// sinkLoop drains the sink queue. Persistence runs off the ledger mutex,
// so a slow or hung sink can never stall ledger operations; it only costs
// durability once the queue overflows.
func (b *Bridge) sinkLoop() {
	for event := range b.sinkCh {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		err := b.sink.SaveEvent(ctx, &event)
		cancel()
		if err != nil {
			b.logger.WithError(err).WithField("event", string(event.Type)).Warn("Failed to persist event")
		}
	}
}
