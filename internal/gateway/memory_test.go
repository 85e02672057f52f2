package gateway_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/pkg/models"
)

func TestMemoryLibraryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemoryGateway()

	for i := 0; i < 2; i++ {
		if err := gw.AddToLibrary(ctx, "u1", "n1"); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	u, err := gw.GetUserData(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(u.Library, []string{"n1"}) {
		t.Fatalf("expected [n1], got %v", u.Library)
	}

	if err := gw.RemoveFromLibrary(ctx, "u1", "absent"); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	u, _ = gw.GetUserData(ctx, "u1")
	if !reflect.DeepEqual(u.Library, []string{"n1"}) {
		t.Fatalf("removing an absent id changed the set: %v", u.Library)
	}

	for i := 0; i < 2; i++ {
		if err := gw.RemoveFromLibrary(ctx, "u1", "n1"); err != nil {
			t.Fatalf("remove: %v", err)
		}
	}
	u, _ = gw.GetUserData(ctx, "u1")
	if len(u.Library) != 0 {
		t.Fatalf("expected empty library, got %v", u.Library)
	}
}

func TestMemoryRemoveWithoutUserDocument(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	if err := gw.RemoveFromLibrary(context.Background(), "nobody", "n1"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestMemoryFailureInjection(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemoryGateway()
	boom := apperr.New(apperr.CodeUnavailable, "offline")
	gw.Fail(gateway.OpQueryNovels, boom)

	if _, err := gw.QueryNovels(ctx, gateway.NovelFilter{}); !errors.Is(err, apperr.Unavailable) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	gw.Clear(gateway.OpQueryNovels)
	if _, err := gw.QueryNovels(ctx, gateway.NovelFilter{}); err != nil {
		t.Fatalf("expected success after clear, got %v", err)
	}
	if gw.Calls(gateway.OpQueryNovels) != 2 {
		t.Fatalf("expected 2 attempts, got %d", gw.Calls(gateway.OpQueryNovels))
	}
}

func TestMemoryBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemoryGateway()
	gw.PutNovel(models.Novel{ID: "n1", AuthorID: "a", Title: "T"})
	gw.Fail(gateway.OpUpdateNovel, apperr.New(apperr.CodeWriteFailed, "rejected"))

	_, err := gw.CreateChapterWithCount(ctx, "n1", &models.Chapter{Title: "c", Pages: []string{"p"}, Order: 1}, 1)
	if err == nil {
		t.Fatal("expected batch failure")
	}
	chapters, _ := gw.ListChapters(ctx, "n1")
	if len(chapters) != 0 {
		t.Fatalf("expected no chapter written, got %d", len(chapters))
	}

	gw.Clear(gateway.OpUpdateNovel)
	id, err := gw.CreateChapterWithCount(ctx, "n1", &models.Chapter{Title: "c", Pages: []string{"p"}, Order: 1}, 1)
	if err != nil || id == "" {
		t.Fatalf("batch: id=%q err=%v", id, err)
	}
	n, _ := gw.GetNovel(ctx, "n1")
	if n.ChapterCount != 1 {
		t.Fatalf("expected count 1, got %d", n.ChapterCount)
	}
}

func TestMemoryQueryByAuthorNewestFirst(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemoryGateway()
	for _, title := range []string{"first", "second", "third"} {
		if _, err := gw.CreateNovel(ctx, &models.Novel{AuthorID: "a1", Title: title}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	gw.CreateNovel(ctx, &models.Novel{AuthorID: "a2", Title: "other"})

	got, err := gw.QueryNovels(ctx, gateway.NovelFilter{AuthorID: "a1", Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit 2, got %d", len(got))
	}
	for _, n := range got {
		if n.AuthorID != "a1" {
			t.Fatalf("unexpected author %s", n.AuthorID)
		}
	}
}
