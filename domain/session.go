package domain

import "time"

// Session is the authenticated identity bundle for the current user.
// A nil *Session means unauthenticated. Sessions are owned by the
// session manager and read-only everywhere else.
type Session struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the session's credential is past its validity.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
