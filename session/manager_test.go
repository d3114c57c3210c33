package session

import (
	"context"
	"log/slog"
	"testing"

	"creator-chat/domain"
	"creator-chat/errors"
	"creator-chat/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authHarness struct {
	mock     *mocks.MockIAuthService
	callback func(*domain.Session)
	unsubs   int
}

// expectSubscription wires OnSessionChange so tests can push session changes
// through the captured callback, the way the auth collaborator would.
func newAuthHarness(t *testing.T, ctrl *gomock.Controller) *authHarness {
	t.Helper()
	h := &authHarness{mock: mocks.NewMockIAuthService(ctrl)}
	h.mock.EXPECT().
		OnSessionChange(gomock.Any()).
		DoAndReturn(func(fn func(*domain.Session)) func() {
			h.callback = fn
			return func() { h.unsubs++ }
		}).
		AnyTimes()
	return h
}

func TestManager_StateBeforeInitialize(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newAuthHarness(t, ctrl)
	manager := NewManager(h.mock, slog.Default())

	req.Equal(StateUnknown, manager.State())
	req.Nil(manager.Current())
}

func TestManager_Initialize(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("should restore an existing session", func(t *testing.T) {
		req := require.New(t)
		h := newAuthHarness(t, ctrl)
		session := &domain.Session{UserID: "u1", Email: "alice@example.com"}
		h.mock.EXPECT().CurrentSession(gomock.Any()).Return(session, nil).Times(1)

		manager := NewManager(h.mock, slog.Default())
		req.NoError(manager.Initialize(context.Background()))

		req.Equal(StateAuthenticated, manager.State())
		req.Equal(session, manager.Current())
	})

	t.Run("should resolve to unauthenticated on a cold start", func(t *testing.T) {
		req := require.New(t)
		h := newAuthHarness(t, ctrl)
		h.mock.EXPECT().CurrentSession(gomock.Any()).Return(nil, nil).Times(1)

		manager := NewManager(h.mock, slog.Default())
		req.NoError(manager.Initialize(context.Background()))

		req.Equal(StateUnauthenticated, manager.State())
		req.Nil(manager.Current())
	})

	t.Run("should surface a transport failure but still resolve", func(t *testing.T) {
		req := require.New(t)
		h := newAuthHarness(t, ctrl)
		h.mock.EXPECT().CurrentSession(gomock.Any()).Return(nil, errors.ErrAuthTransport).Times(1)

		manager := NewManager(h.mock, slog.Default())
		err := manager.Initialize(context.Background())

		req.ErrorIs(err, errors.ErrAuthTransport)
		req.Equal(StateUnauthenticated, manager.State())
	})

	t.Run("should let a push racing the query win", func(t *testing.T) {
		req := require.New(t)
		h := newAuthHarness(t, ctrl)
		pushed := &domain.Session{UserID: "pushed"}
		stale := &domain.Session{UserID: "stale"}
		h.mock.EXPECT().
			CurrentSession(gomock.Any()).
			DoAndReturn(func(context.Context) (*domain.Session, error) {
				// A sign-in lands while the restore query is in flight.
				h.callback(pushed)
				return stale, nil
			}).
			Times(1)

		manager := NewManager(h.mock, slog.Default())
		req.NoError(manager.Initialize(context.Background()))

		req.Equal("pushed", manager.Current().UserID)
	})
}

func TestManager_SessionChanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("should replace the session unconditionally, last wins", func(t *testing.T) {
		req := require.New(t)
		h := newAuthHarness(t, ctrl)
		h.mock.EXPECT().CurrentSession(gomock.Any()).Return(nil, nil).Times(1)

		manager := NewManager(h.mock, slog.Default())
		var observed []string
		manager.SetOnChange(func(s *domain.Session) {
			if s == nil {
				observed = append(observed, "none")
			} else {
				observed = append(observed, s.UserID)
			}
		})
		req.NoError(manager.Initialize(context.Background()))

		h.callback(&domain.Session{UserID: "A"})
		h.callback(&domain.Session{UserID: "B"})

		req.Equal(StateAuthenticated, manager.State())
		req.Equal("B", manager.Current().UserID)
		req.Equal([]string{"none", "A", "B"}, observed)
	})

	t.Run("should transition to unauthenticated on sign-out", func(t *testing.T) {
		req := require.New(t)
		h := newAuthHarness(t, ctrl)
		h.mock.EXPECT().CurrentSession(gomock.Any()).Return(&domain.Session{UserID: "u1"}, nil).Times(1)

		manager := NewManager(h.mock, slog.Default())
		req.NoError(manager.Initialize(context.Background()))
		req.Equal(StateAuthenticated, manager.State())

		h.callback(nil)

		req.Equal(StateUnauthenticated, manager.State())
		req.Nil(manager.Current())
	})
}

func TestManager_Close(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := newAuthHarness(t, ctrl)
	h.mock.EXPECT().CurrentSession(gomock.Any()).Return(nil, nil).Times(1)

	manager := NewManager(h.mock, slog.Default())
	req.NoError(manager.Initialize(context.Background()))

	manager.Close()
	manager.Close()

	req.Equal(1, h.unsubs)
}
