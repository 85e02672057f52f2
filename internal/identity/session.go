// Package identity resolves who is using a view. Views receive a Session
// value explicitly and gate on its state.
package identity

import "github.com/binhbb2204/nocturne/internal/apperr"

type State int

const (
	// Loading means the provider has not resolved the identity yet.
	Loading State = iota
	Ready
	Absent
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "absent"
	}
}

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

type Session struct {
	State State
	User  *User
}

func LoadingSession() Session { return Session{State: Loading} }
func AbsentSession() Session  { return Session{State: Absent} }

func ReadySession(u User) Session {
	return Session{State: Ready, User: &u}
}

func (s Session) Authenticated() bool { return s.State == Ready && s.User != nil }

// UID returns the user id, or "" when not authenticated.
func (s Session) UID() string {
	if !s.Authenticated() {
		return ""
	}
	return s.User.ID
}

// Require returns the user or the error a view should refuse with.
func (s Session) Require() (*User, error) {
	switch {
	case s.State == Loading:
		return nil, apperr.New(apperr.CodeSessionLoading, "identity is still loading")
	case !s.Authenticated():
		return nil, apperr.New(apperr.CodeUnauthenticated, "login required")
	}
	return s.User, nil
}
