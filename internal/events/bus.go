package events

import (
	"sync"

	"github.com/binhbb2204/nocturne/pkg/logger"
	"github.com/binhbb2204/nocturne/pkg/models"
)

const queueSize = 256

// Bus queues events and routes them on its own goroutine so publishers
// never block on slow subscribers. A full queue drops the event.
type Bus struct {
	*Router
	queue    chan Event
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		Router: NewRouter(log),
		queue:  make(chan Event, queueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (b *Bus) Start() {
	b.log.Info("event_bus_started")
	go b.run()
}

// Stop discards queued events.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		<-b.done
		b.log.Info("event_bus_stopped")
	})
}

func (b *Bus) Publish(event Event) {
	select {
	case b.queue <- event:
		b.log.Debug("event_queued", "type", event.Type, "novel_id", event.NovelID)
	default:
		b.log.Warn("event_queue_full", "type", event.Type, "novel_id", event.NovelID)
	}
}

func (b *Bus) run() {
	defer close(b.done)
	for {
		select {
		case event := <-b.queue:
			b.Route(event)
		case <-b.stop:
			return
		}
	}
}

// ChapterSaved publishes ChapterPublished for new chapters and
// ChapterUpdated for overwrites.
func (b *Bus) ChapterSaved(novel models.Novel, chapter models.Chapter, created bool) {
	t := ChapterUpdated
	if created {
		t = ChapterPublished
	}
	e := NewEvent(t, novel.ID, map[string]interface{}{
		"order":         chapter.Order,
		"title":         chapter.Title,
		"chapter_count": novel.ChapterCount,
	})
	e.ChapterID = chapter.ID
	e.UserID = novel.AuthorID
	b.Publish(e)
}

func (b *Bus) NovelCreated(novel models.Novel) {
	e := NewEvent(NovelCreated, novel.ID, map[string]interface{}{"title": novel.Title})
	e.UserID = novel.AuthorID
	b.Publish(e)
}

func (b *Bus) LibraryChanged(uid, novelID string, saved bool) {
	e := NewEvent(LibraryChanged, novelID, map[string]interface{}{"saved": saved})
	e.UserID = uid
	b.Publish(e)
}
