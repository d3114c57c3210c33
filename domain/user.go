package domain

import "time"

// User is the public view of a registered account. Credentials never leave
// the repository layer.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
