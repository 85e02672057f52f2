package gateway_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/pkg/logger"
	"github.com/binhbb2204/nocturne/pkg/models"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := gateway.NewCircuitBreaker(2, time.Hour)
	fail := errors.New("down")

	cb.Call(func() error { return fail }, nil)
	if cb.GetState() != gateway.StateClosed {
		t.Fatal("expected closed after one failure")
	}
	cb.Call(func() error { return fail }, nil)
	if cb.GetState() != gateway.StateOpen {
		t.Fatal("expected open after threshold")
	}

	called := false
	err := cb.Call(func() error { called = true; return nil }, nil)
	if !errors.Is(err, gateway.ErrCircuitOpen) || called {
		t.Fatalf("expected fast failure, got %v (called=%v)", err, called)
	}

	cb.Reset()
	if cb.GetState() != gateway.StateClosed {
		t.Fatal("expected closed after reset")
	}
}

func TestCircuitBreakerHalfOpenRecovers(t *testing.T) {
	cb := gateway.NewCircuitBreaker(1, 10*time.Millisecond)
	cb.Call(func() error { return errors.New("down") }, nil)
	time.Sleep(20 * time.Millisecond)

	if err := cb.Call(func() error { return nil }, nil); err != nil {
		t.Fatalf("expected trial call through, got %v", err)
	}
	if cb.GetState() != gateway.StateHalfOpen {
		t.Fatalf("expected half open, got %v", cb.GetState())
	}
	cb.Call(func() error { return nil }, nil)
	if cb.GetState() != gateway.StateClosed {
		t.Fatalf("expected closed after two successes, got %v", cb.GetState())
	}
}

func TestCircuitBreakerIgnoresUncountedErrors(t *testing.T) {
	cb := gateway.NewCircuitBreaker(1, time.Hour)
	notFound := apperr.New(apperr.CodeNotFound, "gone")
	err := cb.Call(func() error { return notFound }, func(err error) bool {
		return !errors.Is(err, apperr.NotFound)
	})
	if !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected error passed through, got %v", err)
	}
	if cb.GetState() != gateway.StateClosed {
		t.Fatal("uncounted error should not open the breaker")
	}
}

func TestGuardedOpenBreakerIsUnavailable(t *testing.T) {
	ctx := context.Background()
	mem := gateway.NewMemoryGateway()
	mem.Fail(gateway.OpQueryNovels, errors.New("connection refused"))
	gw := gateway.Guard(mem, gateway.NewCircuitBreaker(1, time.Hour), time.Second, logger.New(logger.ERROR, false, nil))

	gw.QueryNovels(ctx, gateway.NovelFilter{})
	_, err := gw.QueryNovels(ctx, gateway.NovelFilter{})
	if !errors.Is(err, apperr.Unavailable) || !apperr.IsFallback(err) {
		t.Fatalf("expected UNAVAILABLE from open breaker, got %v", err)
	}
	if mem.Calls(gateway.OpQueryNovels) != 1 {
		t.Fatalf("expected open breaker to skip the store, got %d calls", mem.Calls(gateway.OpQueryNovels))
	}
}

func TestGuardedNotFoundKeepsBreakerClosed(t *testing.T) {
	ctx := context.Background()
	mem := gateway.NewMemoryGateway()
	cb := gateway.NewCircuitBreaker(1, time.Hour)
	gw := gateway.Guard(mem, cb, 0, nil)

	for i := 0; i < 3; i++ {
		if _, err := gw.GetNovel(ctx, "missing"); !errors.Is(err, apperr.NotFound) {
			t.Fatalf("expected NotFound, got %v", err)
		}
	}
	if cb.GetState() != gateway.StateClosed {
		t.Fatal("not-found answers must not open the breaker")
	}
}

func TestGuardPreservesBatcher(t *testing.T) {
	cb := gateway.NewCircuitBreaker(3, time.Hour)
	if _, ok := gateway.Guard(gateway.NewMemoryGateway(), cb, 0, nil).(gateway.Batcher); !ok {
		t.Fatal("guarded memory gateway should batch")
	}
	if _, ok := gateway.Guard(gateway.NewDemoGateway(), cb, 0, nil).(gateway.Batcher); ok {
		t.Fatal("guarded demo gateway should not batch")
	}
}

func TestGuardedBatchWrites(t *testing.T) {
	ctx := context.Background()
	mem := gateway.NewMemoryGateway()
	mem.PutNovel(models.Novel{ID: "n1", Title: "T"})
	gw := gateway.Guard(mem, gateway.NewCircuitBreaker(3, time.Hour), time.Second, nil)

	b := gw.(gateway.Batcher)
	if _, err := b.CreateChapterWithCount(ctx, "n1", &models.Chapter{Order: 1, Pages: []string{"x"}}, 1); err != nil {
		t.Fatalf("batch: %v", err)
	}
	n, _ := gw.GetNovel(ctx, "n1")
	if n.ChapterCount != 1 {
		t.Fatalf("expected count 1, got %d", n.ChapterCount)
	}
}
