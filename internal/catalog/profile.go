package catalog

import (
	"context"

	"github.com/binhbb2204/nocturne/internal/identity"
)

type Profile struct {
	User         identity.User `json:"user"`
	Tokens       int           `json:"tokens"`
	LibraryCount int           `json:"library_count"`
}

// Profile reports the caller's identity and token balance. The balance is
// 0 when the user document is missing or cannot be read.
func (s *Service) Profile(ctx context.Context, ident identity.Session) (*Profile, error) {
	user, err := ident.Require()
	if err != nil {
		return nil, err
	}
	p := &Profile{User: *user}
	u, err := s.userData(ctx, user.ID)
	if err != nil {
		s.log.Warn("profile_tokens_failed", "user_id", user.ID, "error", err.Error())
		return p, nil
	}
	if u.Tokens > 0 {
		p.Tokens = u.Tokens
	}
	p.LibraryCount = len(u.Library)
	return p, nil
}
