package repositories

import (
	"testing"

	"creator-chat/errors"

	"github.com/stretchr/testify/require"
)

func Test_Create_And_Get_User(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)
	id, err := repository.CreateUser("alice@example.com", "$argon2id$fake-hash")
	req.NoError(err)
	req.NotEmpty(id)

	user, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("alice@example.com", user.Email)
	req.Equal("$argon2id$fake-hash", user.PasswordHash)
}

func Test_Create_User_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)
	_, err := repository.CreateUser("bob@example.com", "hash1")
	req.NoError(err)

	_, err = repository.CreateUser("bob@example.com", "hash2")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_List_Users(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewUserRepository(db)
	for _, email := range []string{"clara@example.com", "alice@example.com", "bob@example.com"} {
		_, err := repository.CreateUser(email, "hash")
		req.NoError(err)
	}

	users, err := repository.ListUsers()
	req.NoError(err)
	req.Len(users, 3)
	// Key order is email order.
	req.Equal("alice@example.com", users[0].Email)
	req.Equal("bob@example.com", users[1].Email)
	req.Equal("clara@example.com", users[2].Email)
}
