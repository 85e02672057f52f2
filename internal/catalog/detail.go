package catalog

import (
	"context"

	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/internal/identity"
	"github.com/binhbb2204/nocturne/pkg/models"
)

type Detail struct {
	Novel    models.Novel            `json:"novel"`
	Chapters []models.ChapterSummary `json:"chapters"`
	Saved    bool                    `json:"saved"`
	DemoMode bool                    `json:"demo_mode"`
}

// Detail loads a novel with its chapter list in reading order and whether
// the caller has it in their library.
func (s *Service) Detail(ctx context.Context, novelID string, ident identity.Session) (*Detail, error) {
	content, err := gateway.LoadContent(ctx, s.gw, novelID)
	if err != nil {
		s.log.Warn("detail_load_failed", "novel_id", novelID, "error", err.Error())
		return nil, err
	}
	d := &Detail{
		Novel:    content.Novel,
		Chapters: models.Summaries(content.Chapters),
		DemoMode: content.Demo,
	}
	if ident.Authenticated() {
		u, err := s.userData(ctx, ident.UID())
		if err != nil {
			s.log.Warn("library_lookup_failed", "novel_id", novelID, "error", err.Error())
		} else {
			d.Saved = u.InLibrary(novelID)
		}
	}
	return d, nil
}

// ToggleLibrary flips novelID's membership in the caller's library.
func (s *Service) ToggleLibrary(ctx context.Context, ident identity.Session, novelID string) (bool, error) {
	user, err := ident.Require()
	if err != nil {
		return false, err
	}
	u, err := s.userData(ctx, user.ID)
	if err != nil {
		return false, err
	}
	saved, err := gateway.ToggleLibrary(ctx, s.gw, user.ID, novelID, u.InLibrary(novelID))
	if err != nil {
		s.log.Error("library_toggle_failed", "novel_id", novelID, "error", err.Error())
		return false, err
	}
	s.log.Info("library_toggled", "user_id", user.ID, "novel_id", novelID, "saved", saved)
	if s.notifier != nil {
		s.notifier.LibraryChanged(user.ID, novelID, saved)
	}
	return saved, nil
}
