package events_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/binhbb2204/nocturne/internal/events"
	"github.com/binhbb2204/nocturne/pkg/models"
)

func TestRouterDeliversToTypeHandlers(t *testing.T) {
	r := events.NewRouter(nil)
	var mu sync.Mutex
	got := map[string]int{}
	r.RegisterHandler(events.ChapterPublished, func(e events.Event) error {
		mu.Lock()
		got["a"]++
		mu.Unlock()
		return nil
	})
	r.RegisterHandler(events.ChapterPublished, func(e events.Event) error {
		mu.Lock()
		got["b"]++
		mu.Unlock()
		return errors.New("logged, not returned")
	})
	r.RegisterHandler(events.LibraryChanged, func(e events.Event) error {
		t.Error("wrong type delivered")
		return nil
	})

	r.Route(events.NewEvent(events.ChapterPublished, "n1", nil))
	if got["a"] != 1 || got["b"] != 1 {
		t.Fatalf("expected both handlers once, got %v", got)
	}
	if r.HandlerCount(events.ChapterPublished) != 2 {
		t.Fatalf("unexpected handler count %d", r.HandlerCount(events.ChapterPublished))
	}
}

func TestRouterFilters(t *testing.T) {
	r := events.NewRouter(nil)
	calls := 0
	r.RegisterHandler(events.ChapterUpdated, func(events.Event) error { calls++; return nil })
	r.AddFilter(func(e events.Event) bool { return e.NovelID != "muted" })

	r.Route(events.NewEvent(events.ChapterUpdated, "muted", nil))
	r.Route(events.NewEvent(events.ChapterUpdated, "n1", nil))
	if calls != 1 {
		t.Fatalf("expected filtered event to be dropped, got %d calls", calls)
	}
}

func TestBusPublishesChapterSaves(t *testing.T) {
	b := events.NewBus(nil)
	received := make(chan events.Event, 2)
	b.RegisterHandler(events.ChapterPublished, func(e events.Event) error { received <- e; return nil })
	b.RegisterHandler(events.ChapterUpdated, func(e events.Event) error { received <- e; return nil })
	b.Start()
	defer b.Stop()

	novel := models.Novel{ID: "n1", AuthorID: "a1", ChapterCount: 3}
	b.ChapterSaved(novel, models.Chapter{ID: "c3", Order: 3}, true)
	b.ChapterSaved(novel, models.Chapter{ID: "c1", Order: 1}, false)

	want := []events.EventType{events.ChapterPublished, events.ChapterUpdated}
	for _, typ := range want {
		select {
		case e := <-received:
			if e.Type != typ || e.NovelID != "n1" || e.UserID != "a1" {
				t.Fatalf("unexpected event: %+v", e)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func TestBusStopIsIdempotent(t *testing.T) {
	b := events.NewBus(nil)
	b.Start()
	b.Stop()
	b.Stop()
}
