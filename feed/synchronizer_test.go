package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"creator-chat/domain"
	"creator-chat/errors"
	"creator-chat/mocks"
	"creator-chat/realtime"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeBroker hands out subscriptions whose channels the test controls, and
// counts releases.
type fakeBroker struct {
	mu           sync.Mutex
	last         *realtime.Subscription
	unsubscribed int
}

func (b *fakeBroker) Subscribe(table string) *realtime.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &realtime.Subscription{C: make(chan realtime.Event, 16)}
	b.last = sub
	return sub
}

func (b *fakeBroker) Unsubscribe(sub *realtime.Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unsubscribed++
	close(sub.C)
}

func (b *fakeBroker) deliver(t *testing.T, message domain.Message) {
	t.Helper()
	record, err := json.Marshal(message)
	require.NoError(t, err)
	b.mu.Lock()
	sub := b.last
	b.mu.Unlock()
	sub.C <- realtime.Event{Table: "messages", Op: realtime.OpInsert, Record: record}
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never satisfied")
}

func message(id int64, content string) domain.Message {
	return domain.Message{ID: id, Content: content, AuthorID: "alice", CreatedAt: time.Unix(id, 0).UTC()}
}

func TestSynchronizer_BulkThenLiveOrdering(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockIChatService(ctrl)
	broker := &fakeBroker{}
	syncer := NewSynchronizer(store, broker, "messages", slog.Default())

	store.EXPECT().
		ListMessages(gomock.Any()).
		Return([]domain.Message{message(1, "one"), message(2, "two")}, nil).
		Times(1)

	syncer.Activate(context.Background())
	defer syncer.Deactivate()
	waitFor(t, func() bool {
		_, loaded, _ := syncer.Snapshot()
		return loaded
	})

	broker.deliver(t, message(3, "three"))

	waitFor(t, func() bool {
		feed, _, _ := syncer.Snapshot()
		return len(feed) == 3
	})
	feed, _, err := syncer.Snapshot()
	req.NoError(err)
	req.Equal([]int64{1, 2, 3}, ids(feed))
}

func TestSynchronizer_DeactivateBeforeBulkReadResolves(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockIChatService(ctrl)
	broker := &fakeBroker{}
	syncer := NewSynchronizer(store, broker, "messages", slog.Default())

	release := make(chan struct{})
	store.EXPECT().
		ListMessages(gomock.Any()).
		DoAndReturn(func(context.Context) ([]domain.Message, error) {
			<-release
			return []domain.Message{
				message(1, "a"), message(2, "b"), message(3, "c"),
				message(4, "d"), message(5, "e"),
			}, nil
		}).
		Times(1)

	syncer.Activate(context.Background())
	syncer.Deactivate()
	close(release)

	// The late resolution must not resurrect the released feed.
	time.Sleep(100 * time.Millisecond)
	feed, loaded, _ := syncer.Snapshot()
	req.Empty(feed)
	req.False(loaded)
}

func TestSynchronizer_LateEventForOldSubscription(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockIChatService(ctrl)
	broker := &fakeBroker{}
	syncer := NewSynchronizer(store, broker, "messages", slog.Default())

	store.EXPECT().ListMessages(gomock.Any()).Return(nil, nil).Times(1)

	syncer.Activate(context.Background())
	waitFor(t, func() bool {
		_, loaded, _ := syncer.Snapshot()
		return loaded
	})
	oldGen := syncer.generation
	syncer.Deactivate()

	// A delivery that was already in flight when the subscription was
	// released carries the old generation and must be discarded.
	syncer.applyEvent(oldGen, message(99, "late"))

	feed, _, _ := syncer.Snapshot()
	req.Empty(feed)
}

func TestSynchronizer_EventsBeforeBulkReadAreMerged(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockIChatService(ctrl)
	broker := &fakeBroker{}
	syncer := NewSynchronizer(store, broker, "messages", slog.Default())

	release := make(chan struct{})
	store.EXPECT().
		ListMessages(gomock.Any()).
		DoAndReturn(func(context.Context) ([]domain.Message, error) {
			<-release
			return []domain.Message{message(1, "one"), message(2, "two")}, nil
		}).
		Times(1)

	syncer.Activate(context.Background())
	defer syncer.Deactivate()

	// Both a genuinely new message and one that the bulk read will also
	// include arrive before the read resolves.
	broker.deliver(t, message(2, "two"))
	broker.deliver(t, message(3, "three"))
	waitFor(t, func() bool {
		feed, _, _ := syncer.Snapshot()
		return len(feed) == 2
	})

	close(release)
	waitFor(t, func() bool {
		_, loaded, _ := syncer.Snapshot()
		return loaded
	})

	feed, _, _ := syncer.Snapshot()
	req.Equal([]int64{1, 2, 3}, ids(feed))
}

func TestSynchronizer_DeduplicatesAndResorts(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockIChatService(ctrl)
	broker := &fakeBroker{}
	syncer := NewSynchronizer(store, broker, "messages", slog.Default())

	store.EXPECT().ListMessages(gomock.Any()).Return(nil, nil).Times(1)

	syncer.Activate(context.Background())
	defer syncer.Deactivate()
	waitFor(t, func() bool {
		_, loaded, _ := syncer.Snapshot()
		return loaded
	})

	// Out of order and duplicated delivery.
	broker.deliver(t, message(3, "three"))
	broker.deliver(t, message(2, "two"))
	broker.deliver(t, message(3, "three"))

	waitFor(t, func() bool {
		feed, _, _ := syncer.Snapshot()
		return len(feed) == 2
	})
	feed, _, _ := syncer.Snapshot()
	req.Equal([]int64{2, 3}, ids(feed))
}

func TestSynchronizer_BulkReadFailureIsDistinguishable(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockIChatService(ctrl)
	broker := &fakeBroker{}
	syncer := NewSynchronizer(store, broker, "messages", slog.Default())

	store.EXPECT().ListMessages(gomock.Any()).Return(nil, errors.ErrWorkerPanic).Times(1)

	syncer.Activate(context.Background())
	defer syncer.Deactivate()
	waitFor(t, func() bool {
		_, loaded, _ := syncer.Snapshot()
		return loaded
	})

	feed, _, err := syncer.Snapshot()
	req.Empty(feed)
	req.Error(err)
}

func TestSynchronizer_Send(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockIChatService(ctrl)
	broker := &fakeBroker{}
	syncer := NewSynchronizer(store, broker, "messages", slog.Default())
	ctx := context.Background()

	t.Run("should suppress whitespace-only content client-side", func(t *testing.T) {
		req := require.New(t)
		store.EXPECT().InsertMessage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := syncer.Send(ctx, "   \t\n", "alice")

		req.ErrorIs(err, errors.ErrEmptyMessage)
	})

	t.Run("should not append the acknowledged message locally", func(t *testing.T) {
		req := require.New(t)
		store.EXPECT().ListMessages(gomock.Any()).Return(nil, nil).Times(1)
		store.EXPECT().
			InsertMessage(gomock.Any(), "hello", "alice").
			Return(message(1, "hello"), nil).
			Times(1)

		syncer.Activate(ctx)
		defer syncer.Deactivate()
		waitFor(t, func() bool {
			_, loaded, _ := syncer.Snapshot()
			return loaded
		})

		_, err := syncer.Send(ctx, "hello", "alice")
		req.NoError(err)

		// Only the live event may populate the feed.
		feed, _, _ := syncer.Snapshot()
		req.Empty(feed)
	})
}

func TestSynchronizer_DeactivateReleasesExactlyOnce(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockIChatService(ctrl)
	broker := &fakeBroker{}
	syncer := NewSynchronizer(store, broker, "messages", slog.Default())

	store.EXPECT().ListMessages(gomock.Any()).Return(nil, nil).AnyTimes()

	syncer.Activate(context.Background())
	syncer.Deactivate()
	syncer.Deactivate()

	req.Equal(1, broker.unsubscribed)
}

func ids(feed []domain.Message) []int64 {
	out := make([]int64, len(feed))
	for i, m := range feed {
		out[i] = m.ID
	}
	return out
}
