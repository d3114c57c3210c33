//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../mocks/mock_session_repository.go -package=mocks
package repositories

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// ISessionRepository persists the current session token between runs so a
// restart can restore the signed-in user without asking for credentials.
type ISessionRepository interface {
	SaveToken(token string) error
	LoadToken() (string, bool, error)
	DeleteToken() error
}

type SessionRepository struct {
	db *badger.DB
}

func NewSessionRepository(db *badger.DB) ISessionRepository {
	return &SessionRepository{db: db}
}

var sessionKey = []byte("session:current")

func (s SessionRepository) SaveToken(token string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey, []byte(token))
	})
}

// LoadToken returns the persisted token if one exists. Absence is not an
// error, it simply means no one is signed in.
func (s SessionRepository) LoadToken() (string, bool, error) {
	var token string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			token = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func (s SessionRepository) DeleteToken() error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(sessionKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
