package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/pkg/models"
	"github.com/google/uuid"
)

// MemoryGateway is a map-backed store. Failures can be injected per
// operation with Fail.
type MemoryGateway struct {
	mu       sync.RWMutex
	novels   map[string]*models.Novel
	chapters map[string]map[string]*models.Chapter
	users    map[string]*models.UserData
	failures map[string]error
	calls    map[string]int
	now      func() time.Time
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		novels:   make(map[string]*models.Novel),
		chapters: make(map[string]map[string]*models.Chapter),
		users:    make(map[string]*models.UserData),
		failures: make(map[string]error),
		calls:    make(map[string]int),
		now:      time.Now,
	}
}

// Fail makes every later call of op return err until Clear is called.
func (g *MemoryGateway) Fail(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = err
}

func (g *MemoryGateway) Clear(op string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.failures, op)
}

// Calls returns how many times op was attempted.
func (g *MemoryGateway) Calls(op string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.calls[op]
}

// must be called with mu held
func (g *MemoryGateway) attempt(op string) error {
	g.calls[op]++
	return g.failures[op]
}

// PutNovel stores a novel as-is, keeping its id.
func (g *MemoryGateway) PutNovel(n models.Novel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := cloneNovel(n)
	g.novels[n.ID] = &cp
}

// PutChapter stores a chapter as-is under novelID.
func (g *MemoryGateway) PutChapter(novelID string, c models.Chapter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chapters[novelID] == nil {
		g.chapters[novelID] = make(map[string]*models.Chapter)
	}
	cp := cloneChapter(c)
	g.chapters[novelID][c.ID] = &cp
}

func (g *MemoryGateway) PutUserData(u models.UserData) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := u
	cp.Library = append([]string(nil), u.Library...)
	g.users[u.UID] = &cp
}

func (g *MemoryGateway) GetNovel(ctx context.Context, id string) (*models.Novel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.attempt(OpGetNovel); err != nil {
		return nil, err
	}
	n, ok := g.novels[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("novel %s not found", id))
	}
	cp := cloneNovel(*n)
	return &cp, nil
}

func (g *MemoryGateway) QueryNovels(ctx context.Context, filter NovelFilter) ([]models.Novel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.attempt(OpQueryNovels); err != nil {
		return nil, err
	}
	out := make([]models.Novel, 0, len(g.novels))
	for _, n := range g.novels {
		if filter.AuthorID != "" && n.AuthorID != filter.AuthorID {
			continue
		}
		out = append(out, cloneNovel(*n))
	}
	sortNewestFirst(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (g *MemoryGateway) CreateNovel(ctx context.Context, novel *models.Novel) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.attempt(OpCreateNovel); err != nil {
		return "", err
	}
	cp := cloneNovel(*novel)
	cp.ID = uuid.New().String()
	now := g.now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	g.novels[cp.ID] = &cp
	return cp.ID, nil
}

func (g *MemoryGateway) UpdateNovel(ctx context.Context, id string, update NovelUpdate) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.attempt(OpUpdateNovel); err != nil {
		return err
	}
	n, ok := g.novels[id]
	if !ok {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("novel %s not found", id))
	}
	applyNovelUpdate(n, update, g.now())
	return nil
}

func (g *MemoryGateway) ListChapters(ctx context.Context, novelID string) ([]models.Chapter, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.attempt(OpListChapters); err != nil {
		return nil, err
	}
	out := make([]models.Chapter, 0, len(g.chapters[novelID]))
	for _, c := range g.chapters[novelID] {
		out = append(out, cloneChapter(*c))
	}
	models.SortChapters(out)
	return out, nil
}

func (g *MemoryGateway) CreateChapter(ctx context.Context, novelID string, chapter *models.Chapter) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.attempt(OpCreateChapter); err != nil {
		return "", err
	}
	return g.insertChapter(novelID, chapter), nil
}

// CreateChapterWithCount inserts the chapter and sets the novel's count
// under one lock; an injected failure on either operation writes nothing.
func (g *MemoryGateway) CreateChapterWithCount(ctx context.Context, novelID string, chapter *models.Chapter, count int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.attempt(OpCreateChapter); err != nil {
		return "", err
	}
	if err := g.attempt(OpUpdateNovel); err != nil {
		return "", err
	}
	n, ok := g.novels[novelID]
	if !ok {
		return "", apperr.New(apperr.CodeNotFound, fmt.Sprintf("novel %s not found", novelID))
	}
	id := g.insertChapter(novelID, chapter)
	applyNovelUpdate(n, NovelUpdate{ChapterCount: &count}, g.now())
	return id, nil
}

func (g *MemoryGateway) insertChapter(novelID string, chapter *models.Chapter) string {
	cp := cloneChapter(*chapter)
	cp.ID = uuid.New().String()
	if g.chapters[novelID] == nil {
		g.chapters[novelID] = make(map[string]*models.Chapter)
	}
	g.chapters[novelID][cp.ID] = &cp
	return cp.ID
}

func (g *MemoryGateway) UpdateChapter(ctx context.Context, novelID, chapterID string, update ChapterUpdate) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.attempt(OpUpdateChapter); err != nil {
		return err
	}
	c, ok := g.chapters[novelID][chapterID]
	if !ok {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("chapter %s not found", chapterID))
	}
	applyChapterUpdate(c, update)
	return nil
}

func (g *MemoryGateway) GetUserData(ctx context.Context, uid string) (*models.UserData, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.attempt(OpGetUserData); err != nil {
		return nil, err
	}
	u, ok := g.users[uid]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("user %s not found", uid))
	}
	cp := *u
	cp.Library = append([]string(nil), u.Library...)
	return &cp, nil
}

func (g *MemoryGateway) AddToLibrary(ctx context.Context, uid, novelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.attempt(OpAddToLibrary); err != nil {
		return err
	}
	u, ok := g.users[uid]
	if !ok {
		u = &models.UserData{UID: uid}
		g.users[uid] = u
	}
	if !u.InLibrary(novelID) {
		u.Library = append(u.Library, novelID)
	}
	return nil
}

func (g *MemoryGateway) RemoveFromLibrary(ctx context.Context, uid, novelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.attempt(OpRemoveFromLibrary); err != nil {
		return err
	}
	u, ok := g.users[uid]
	if !ok {
		return nil
	}
	kept := u.Library[:0]
	for _, id := range u.Library {
		if id != novelID {
			kept = append(kept, id)
		}
	}
	u.Library = kept
	return nil
}

func cloneNovel(n models.Novel) models.Novel {
	n.Tags = append([]string(nil), n.Tags...)
	if n.Rating != nil {
		r := *n.Rating
		n.Rating = &r
	}
	return n
}

func cloneChapter(c models.Chapter) models.Chapter {
	c.Pages = models.NormalizePages(c.Pages, nil)
	return c
}

func sortNewestFirst(novels []models.Novel) {
	sort.SliceStable(novels, func(i, j int) bool {
		if !novels[i].CreatedAt.Equal(novels[j].CreatedAt) {
			return novels[i].CreatedAt.After(novels[j].CreatedAt)
		}
		return novels[i].ID < novels[j].ID
	})
}

func (g *MemoryGateway) PutDemoNovel(ctx context.Context, novel models.Novel, chapters []models.Chapter) error {
	g.PutNovel(novel)
	for _, c := range chapters {
		g.PutChapter(novel.ID, c)
	}
	return nil
}
