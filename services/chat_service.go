//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"creator-chat/domain"
	"creator-chat/errors"
	"creator-chat/realtime"
	"creator-chat/repositories"

	"github.com/samber/lo"
)

// TableMessages is the realtime scope for message insert events.
const TableMessages = "messages"

// IChatService is the message store collaborator: the durable append-only
// record keeper plus the publication of one insert event per stored message.
type IChatService interface {
	ListMessages(ctx context.Context) ([]domain.Message, error)
	InsertMessage(ctx context.Context, content, authorID string) (domain.Message, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Publisher is the slice of the realtime notifier the chat service needs.
type Publisher interface {
	Publish(evt realtime.Event)
}

type ChatService struct {
	messages         repositories.IMessageRepository
	users            repositories.IUserRepository
	publisher        Publisher
	maxContentLength int
	log              *slog.Logger
}

func NewChatService(messages repositories.IMessageRepository, users repositories.IUserRepository,
	publisher Publisher, maxContentLength int, log *slog.Logger) *ChatService {
	return &ChatService{
		messages:         messages,
		users:            users,
		publisher:        publisher,
		maxContentLength: maxContentLength,
		log:              log,
	}
}

// ListMessages returns the full feed history ordered by creation time
// ascending.
func (s *ChatService) ListMessages(_ context.Context) ([]domain.Message, error) {
	return s.messages.ListMessages()
}

// InsertMessage persists one message and publishes its insert event. The
// store itself does not reject empty content, only oversized content;
// empty-send suppression is the sender's concern.
func (s *ChatService) InsertMessage(_ context.Context, content, authorID string) (domain.Message, error) {
	if s.maxContentLength > 0 && len(content) > s.maxContentLength {
		return domain.Message{}, errors.ErrMessageTooLong
	}

	message, err := s.messages.StoreMessage(content, authorID)
	if err != nil {
		return domain.Message{}, err
	}

	record, err := json.Marshal(message)
	if err != nil {
		return domain.Message{}, err
	}
	s.publisher.Publish(realtime.Event{
		Table:  TableMessages,
		Op:     realtime.OpInsert,
		Record: record,
	})

	return message, nil
}

func (s *ChatService) ListUsers(_ context.Context) ([]domain.User, error) {
	users, err := s.users.ListUsers()
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u repositories.User, _ int) domain.User {
		return domain.User{
			ID:        u.ID,
			Email:     u.Email,
			CreatedAt: u.CreatedAt,
		}
	}), nil
}
