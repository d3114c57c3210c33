//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"creator-chat/domain"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	StoreMessage(content, authorID string) (domain.Message, error)
	ListMessages() ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

// NewMessageRepository opens the message sequence used to assign identifiers.
// Callers must Close the repository to release unused sequence leases.
func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:messages"), 64)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, seq: seq, log: log}, nil
}

func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

// StoreMessage persists a message and returns it with its assigned identifier
// and creation timestamp. Identifiers come from a BadgerDB sequence, so they
// are strictly increasing across the life of the store. The key is formatted
// as "msg:{id_padded}" with 19-digit zero padding so that lexicographical
// iteration order equals identifier order.
func (m *MessageRepository) StoreMessage(content, authorID string) (domain.Message, error) {
	n, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("next message id: %w", err)
	}

	message := domain.Message{
		ID:        int64(n) + 1,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
	}

	bytes, err := json.Marshal(message)
	if err != nil {
		return domain.Message{}, err
	}

	key := fmt.Sprintf("msg:%019d", message.ID)
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// ListMessages returns every stored message ordered by identifier ascending,
// which matches creation order. The padded key makes a plain prefix scan
// sufficient, no sort step is needed.
func (m *MessageRepository) ListMessages() ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		var message domain.Message
		if err = json.Unmarshal(b, &message); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
