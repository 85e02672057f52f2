package catalog

import (
	"context"

	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/internal/identity"
	"github.com/binhbb2204/nocturne/pkg/models"
	"golang.org/x/sync/errgroup"
)

const libraryFanOut = 8

// Library resolves the caller's saved novels in library order. Demo ids
// resolve locally; ids that fail to resolve are logged and skipped.
func (s *Service) Library(ctx context.Context, ident identity.Session) ([]models.Novel, error) {
	user, err := ident.Require()
	if err != nil {
		return nil, err
	}
	u, err := s.userData(ctx, user.ID)
	if err != nil {
		s.log.Error("library_load_failed", "user_id", user.ID, "error", err.Error())
		return nil, err
	}

	resolved := make([]*models.Novel, len(u.Library))
	var g errgroup.Group
	g.SetLimit(libraryFanOut)
	for i, id := range u.Library {
		if n, ok := gateway.DemoNovel(id); ok {
			resolved[i] = n
			continue
		}
		g.Go(func() error {
			n, err := s.gw.GetNovel(ctx, id)
			if err != nil {
				s.log.Warn("library_item_skipped", "novel_id", id, "error", err.Error())
				return nil
			}
			resolved[i] = n
			return nil
		})
	}
	g.Wait()

	out := make([]models.Novel, 0, len(resolved))
	for _, n := range resolved {
		if n != nil {
			out = append(out, *n)
		}
	}
	return out, nil
}
