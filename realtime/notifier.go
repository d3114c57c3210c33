//go:generate go run go.uber.org/mock/mockgen -source=notifier.go -destination=../mocks/mock_broker.go -package=mocks

// Package realtime is the live-event transport: an in-process broker that
// delivers insert notifications for a watched table to subscribers.
//
// It provides best-effort delivery with no guarantees regarding ordering
// across publishers, durability, or retries. It is not a message broker.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Op values carried by an Event.
const OpInsert = "insert"

// Event is one change notification from the store. Record holds the raw
// encoded row, decoded by the consumer.
type Event struct {
	Table  string
	Op     string
	Record json.RawMessage
}

// Subscription represents one open live-event registration. It is owned by
// whoever created it and must be released exactly once via Unsubscribe.
// C is closed on release, no events are delivered after Unsubscribe returns.
type Subscription struct {
	id    int64
	table string
	C     chan Event
}

// Table returns the scope this subscription was opened for.
func (s *Subscription) Table() string { return s.table }

type IBroker interface {
	Subscribe(table string) *Subscription
	Unsubscribe(sub *Subscription)
}

// Notifier fans published events out to table-scoped subscriptions.
// Publication and fan-out are decoupled by an internal channel drained by
// Run, so publishers never block on slow subscribers.
//
// Notifier is safe for concurrent use by multiple goroutines.
type Notifier struct {
	mu         sync.RWMutex
	log        *slog.Logger
	events     chan Event
	subs       map[int64]*Subscription
	nextID     int64
	bufferSize int
}

func NewNotifier(log *slog.Logger, bufferSize int) *Notifier {
	return &Notifier{
		log:        log,
		events:     make(chan Event, bufferSize),
		subs:       make(map[int64]*Subscription),
		bufferSize: bufferSize,
	}
}

// Publish enqueues an event for fan-out. If the internal buffer is full the
// event is dropped with a warning rather than blocking the caller.
func (n *Notifier) Publish(evt Event) {
	select {
	case n.events <- evt:
	default:
		n.log.Warn(fmt.Sprintf("Event channel full for table %s, dropping event", evt.Table))
	}
}

// Subscribe opens a registration for all events on the given table.
func (n *Notifier) Subscribe(table string) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	sub := &Subscription{
		id:    n.nextID,
		table: table,
		C:     make(chan Event, n.bufferSize),
	}
	n.subs[sub.id] = sub
	return sub
}

// Unsubscribe releases a registration. Safe to call more than once and with
// nil. Fan-out holds the read lock while sending, so once Unsubscribe has
// acquired the write lock no delivery can be in flight: after it returns the
// channel is closed and will never receive another event.
func (n *Notifier) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.subs[sub.id]; !ok {
		return
	}
	delete(n.subs, sub.id)
	close(sub.C)
}

// Run drains the publish channel and fans each event out to matching
// subscriptions, one event at a time. Implements contract.Worker.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-n.events:
			n.fanout(evt)
		case <-ctx.Done():
			n.log.Debug("Context done, stopping event fan-out")
			return nil
		}
	}
}

func (n *Notifier) fanout(evt Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, sub := range n.subs {
		if sub.table != evt.Table {
			continue
		}
		select {
		case sub.C <- evt:
		default:
			n.log.Warn(fmt.Sprintf("Subscriber buffer full for table %s, dropping event", evt.Table))
		}
	}
}
