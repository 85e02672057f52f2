// Package catalog serves the browsing views: home feed, search, novel
// detail, the reader's library and profile.
package catalog

import (
	"context"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/pkg/logger"
	"github.com/binhbb2204/nocturne/pkg/metrics"
	"github.com/binhbb2204/nocturne/pkg/models"
)

// LibraryNotifier hears about library membership changes.
type LibraryNotifier interface {
	LibraryChanged(uid, novelID string, saved bool)
}

type Service struct {
	gw       gateway.Gateway
	log      *logger.Logger
	notifier LibraryNotifier
}

func NewService(gw gateway.Gateway, log *logger.Logger) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{gw: gw, log: log.WithContext("component", "catalog")}
}

func (s *Service) SetNotifier(n LibraryNotifier) { s.notifier = n }

// userData returns uid's document. A missing document is an empty one.
func (s *Service) userData(ctx context.Context, uid string) (*models.UserData, error) {
	u, err := s.gw.GetUserData(ctx, uid)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return &models.UserData{UID: uid}, nil
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) fallback(view string, err error) []models.Novel {
	metrics.IncrementDemoFallbacks()
	s.log.Warn("demo_fallback", "view", view, "error", err.Error())
	return gateway.DemoNovels()
}
