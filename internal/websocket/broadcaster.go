package websocket

import (
	"context"

	"github.com/binhbb2204/nocturne/internal/events"
	"github.com/binhbb2204/nocturne/pkg/logger"
	"github.com/binhbb2204/nocturne/pkg/metrics"
)

// Broadcaster refreshes every reader of a novel when its chapters change,
// so a newly published chapter shows up as the next-chapter prompt.
type Broadcaster struct {
	manager *Manager
	log     *logger.Logger
}

func NewBroadcaster(manager *Manager, log *logger.Logger) *Broadcaster {
	return &Broadcaster{manager: manager, log: log}
}

// Subscribe registers the broadcaster on r for chapter events.
func (b *Broadcaster) Subscribe(r *events.Router) {
	r.RegisterHandler(events.ChapterPublished, b.handle)
	r.RegisterHandler(events.ChapterUpdated, b.handle)
}

func (b *Broadcaster) handle(e events.Event) error {
	readers := b.manager.Room(e.NovelID)
	if len(readers) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	for _, c := range readers {
		c.refresh(ctx)
	}
	metrics.IncrementRefreshes()
	b.log.Info("readers_refreshed", "novel_id", e.NovelID, "event_type", e.Type, "readers", len(readers))
	return nil
}
