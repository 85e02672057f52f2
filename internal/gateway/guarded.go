package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/pkg/logger"
	"github.com/binhbb2204/nocturne/pkg/metrics"
	"github.com/binhbb2204/nocturne/pkg/models"
)

// Guarded wraps a gateway with a per-call timeout and a circuit breaker.
// While the breaker is open every call fails with UNAVAILABLE, which read
// paths answer with demo data.
type Guarded struct {
	inner   Gateway
	breaker *CircuitBreaker
	timeout time.Duration
	log     *logger.Logger
}

type guardedBatcher struct {
	*Guarded
	batch Batcher
}

// Guard returns inner wrapped in a breaker. The result implements Batcher
// exactly when inner does.
func Guard(inner Gateway, breaker *CircuitBreaker, timeout time.Duration, log *logger.Logger) Gateway {
	if log == nil {
		log = logger.GetLogger()
	}
	g := &Guarded{inner: inner, breaker: breaker, timeout: timeout, log: log.WithContext("component", "gateway")}
	if b, ok := inner.(Batcher); ok {
		return &guardedBatcher{Guarded: g, batch: b}
	}
	return g
}

// countsAsOutage keeps not-found and validation answers from tripping the
// breaker; those mean the store is reachable.
func countsAsOutage(err error) bool {
	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound, apperr.CodeValidation:
		return false
	}
	return !errors.Is(err, context.Canceled)
}

func (g *Guarded) do(ctx context.Context, op string, write bool, fn func(ctx context.Context) error) error {
	if write {
		metrics.IncrementGatewayWrites()
	} else {
		metrics.IncrementGatewayReads()
	}
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	err := g.breaker.Call(func() error { return fn(callCtx) }, countsAsOutage)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrCircuitOpen):
		metrics.IncrementBreakerRejections()
		g.log.Warn("gateway_circuit_open", "op", op)
		return apperr.Wrap(apperr.CodeUnavailable, "document store unavailable", err)
	case errors.Is(err, context.DeadlineExceeded):
		metrics.IncrementGatewayFailures()
		g.log.Warn("gateway_timeout", "op", op, "timeout", g.timeout.String())
		code := apperr.CodeUnavailable
		if write {
			code = apperr.CodeWriteFailed
		}
		return apperr.Wrap(code, "document store timed out", err)
	}
	if countsAsOutage(err) {
		metrics.IncrementGatewayFailures()
		g.log.Error("gateway_call_failed", "op", op, "error", err.Error())
	}
	return err
}

func (g *Guarded) State() CircuitState { return g.breaker.GetState() }

func (g *Guarded) GetNovel(ctx context.Context, id string) (*models.Novel, error) {
	var out *models.Novel
	err := g.do(ctx, OpGetNovel, false, func(ctx context.Context) error {
		var err error
		out, err = g.inner.GetNovel(ctx, id)
		return err
	})
	return out, err
}

func (g *Guarded) QueryNovels(ctx context.Context, filter NovelFilter) ([]models.Novel, error) {
	var out []models.Novel
	err := g.do(ctx, OpQueryNovels, false, func(ctx context.Context) error {
		var err error
		out, err = g.inner.QueryNovels(ctx, filter)
		return err
	})
	return out, err
}

func (g *Guarded) CreateNovel(ctx context.Context, novel *models.Novel) (string, error) {
	var id string
	err := g.do(ctx, OpCreateNovel, true, func(ctx context.Context) error {
		var err error
		id, err = g.inner.CreateNovel(ctx, novel)
		return err
	})
	return id, err
}

func (g *Guarded) UpdateNovel(ctx context.Context, id string, update NovelUpdate) error {
	return g.do(ctx, OpUpdateNovel, true, func(ctx context.Context) error {
		return g.inner.UpdateNovel(ctx, id, update)
	})
}

func (g *Guarded) ListChapters(ctx context.Context, novelID string) ([]models.Chapter, error) {
	var out []models.Chapter
	err := g.do(ctx, OpListChapters, false, func(ctx context.Context) error {
		var err error
		out, err = g.inner.ListChapters(ctx, novelID)
		return err
	})
	return out, err
}

func (g *Guarded) CreateChapter(ctx context.Context, novelID string, chapter *models.Chapter) (string, error) {
	var id string
	err := g.do(ctx, OpCreateChapter, true, func(ctx context.Context) error {
		var err error
		id, err = g.inner.CreateChapter(ctx, novelID, chapter)
		return err
	})
	return id, err
}

func (g *Guarded) UpdateChapter(ctx context.Context, novelID, chapterID string, update ChapterUpdate) error {
	return g.do(ctx, OpUpdateChapter, true, func(ctx context.Context) error {
		return g.inner.UpdateChapter(ctx, novelID, chapterID, update)
	})
}

func (g *Guarded) GetUserData(ctx context.Context, uid string) (*models.UserData, error) {
	var out *models.UserData
	err := g.do(ctx, OpGetUserData, false, func(ctx context.Context) error {
		var err error
		out, err = g.inner.GetUserData(ctx, uid)
		return err
	})
	return out, err
}

func (g *Guarded) AddToLibrary(ctx context.Context, uid, novelID string) error {
	return g.do(ctx, OpAddToLibrary, true, func(ctx context.Context) error {
		return g.inner.AddToLibrary(ctx, uid, novelID)
	})
}

func (g *Guarded) RemoveFromLibrary(ctx context.Context, uid, novelID string) error {
	return g.do(ctx, OpRemoveFromLibrary, true, func(ctx context.Context) error {
		return g.inner.RemoveFromLibrary(ctx, uid, novelID)
	})
}

func (g *guardedBatcher) CreateChapterWithCount(ctx context.Context, novelID string, chapter *models.Chapter, count int) (string, error) {
	var id string
	err := g.do(ctx, OpCreateChapter, true, func(ctx context.Context) error {
		var err error
		id, err = g.batch.CreateChapterWithCount(ctx, novelID, chapter, count)
		return err
	})
	return id, err
}
