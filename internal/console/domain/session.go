package domain

import "time"

// Session is the console's record of the current operator and credential.
// Owner is the fingerprint of the browser session id that signed in; only
// requests carrying that id may use the session.
type Session struct {
	User  *User
	Token string
	Owner string
}

// IsAuthenticated is derived from the user and token, never stored on its own.
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// SessionRecord is the persisted form of a Session. Payload is opaque to the
// store (the session package seals it before writing).
type SessionRecord struct {
	Name      string
	Payload   []byte
	UpdatedAt time.Time
}
