// Package feed maintains the ordered in-memory message sequence for the
// authenticated user's view: one bulk fetch of history merged with an
// unbounded stream of live insert events into a single ordered,
// duplicate-free feed.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"creator-chat/domain"
	"creator-chat/errors"
	"creator-chat/realtime"
	"creator-chat/services"
)

// Synchronizer owns the feed for one conversation scope. On activation it
// opens exactly one live subscription and performs one bulk read; the two
// race, and a generation counter makes late completions from a previous
// activation harmless. Live events are drained one at a time by a single
// goroutine, so mutations are applied in delivery order.
type Synchronizer struct {
	mu     sync.Mutex
	log    *slog.Logger
	store  services.IChatService
	broker realtime.IBroker
	table  string

	feed       []domain.Message
	loaded     bool
	loadErr    error
	active     bool
	generation uint64
	sub        *realtime.Subscription

	onChange func()
}

func NewSynchronizer(store services.IChatService, broker realtime.IBroker,
	table string, log *slog.Logger) *Synchronizer {
	return &Synchronizer{store: store, broker: broker, table: table, log: log}
}

// SetOnChange registers the callback fired after any feed mutation that
// follows the initial load, and once when the load completes. The UI uses it
// to re-render and advance scroll to the newest message. Must be called
// before Activate.
func (s *Synchronizer) SetOnChange(fn func()) {
	s.onChange = fn
}

// Activate starts the fetch+subscribe cycle. The feed is reset to empty, the
// subscription opens immediately, and the bulk read runs in the background.
// Events arriving before the bulk read resolves are kept and merged with the
// bulk result; the merge deduplicates on message identifier and keeps the
// feed sorted by identifier, so neither interleaving nor transport replay
// can corrupt the order. Calling Activate while active is a no-op.
func (s *Synchronizer) Activate(ctx context.Context) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.generation++
	gen := s.generation
	s.feed = nil
	s.loaded = false
	s.loadErr = nil
	sub := s.broker.Subscribe(s.table)
	s.sub = sub
	s.mu.Unlock()

	go s.drain(gen, sub)
	go s.load(ctx, gen)
}

// Deactivate releases the live subscription. Safe to call before the bulk
// read has resolved: bumping the generation turns any in-flight completion
// into a no-op. Calling Deactivate while inactive does nothing, so the
// subscription is released exactly once.
func (s *Synchronizer) Deactivate() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.generation++
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	s.broker.Unsubscribe(sub)
}

// Send submits one message to the store and waits for acknowledgment.
// Whitespace-only content never reaches the store. The acknowledged message
// is NOT appended to the local feed: its live event is the sole path into
// the rendered sequence, keeping one source of truth for order.
func (s *Synchronizer) Send(ctx context.Context, content, authorID string) (domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, errors.ErrEmptyMessage
	}
	return s.store.InsertMessage(ctx, content, authorID)
}

// Snapshot returns a copy of the current feed, whether the bulk read has
// completed, and the bulk-read error if it failed. The error keeps a failed
// fetch distinguishable from a genuinely empty feed.
func (s *Synchronizer) Snapshot() ([]domain.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed := make([]domain.Message, len(s.feed))
	copy(feed, s.feed)
	return feed, s.loaded, s.loadErr
}

// load performs the one-shot historical fetch. Its completion is the only
// code path that installs the bulk result, and the generation check discards
// it if the synchronizer was deactivated while the read was in flight.
func (s *Synchronizer) load(ctx context.Context, gen uint64) {
	messages, err := s.store.ListMessages(ctx)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.loaded = true
		s.loadErr = err
	} else {
		merged := make([]domain.Message, 0, len(messages)+len(s.feed))
		merged = append(merged, messages...)
		for _, live := range s.feed {
			merged = upsert(merged, live)
		}
		s.feed = merged
		s.loaded = true
	}
	s.mu.Unlock()

	s.notifyChange()
}

// drain applies live events sequentially until the subscription channel is
// closed by Unsubscribe.
func (s *Synchronizer) drain(gen uint64, sub *realtime.Subscription) {
	for evt := range sub.C {
		if evt.Op != realtime.OpInsert {
			continue
		}
		var message domain.Message
		if err := json.Unmarshal(evt.Record, &message); err != nil {
			s.log.Warn("Dropping undecodable live event", "table", evt.Table, "error", err)
			continue
		}
		s.applyEvent(gen, message)
	}
}

// applyEvent merges one live message into the feed. Events for a stale
// generation (late deliveries for a released subscription) never mutate the
// feed. The change callback fires only once the initial load completed, so
// scroll-follow is driven by post-load mutations, not by events racing the
// bulk read.
func (s *Synchronizer) applyEvent(gen uint64, message domain.Message) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.feed = upsert(s.feed, message)
	loaded := s.loaded
	s.mu.Unlock()

	if loaded {
		s.notifyChange()
	}
}

func (s *Synchronizer) notifyChange() {
	if s.onChange != nil {
		s.onChange()
	}
}

// upsert inserts a message into an id-sorted slice, dropping duplicates.
// Ordering and uniqueness are enforced here rather than assumed from the
// transport.
func upsert(feed []domain.Message, message domain.Message) []domain.Message {
	i := sort.Search(len(feed), func(i int) bool {
		return feed[i].ID >= message.ID
	})
	if i < len(feed) && feed[i].ID == message.ID {
		return feed
	}
	feed = append(feed, domain.Message{})
	copy(feed[i+1:], feed[i:])
	feed[i] = message
	return feed
}
