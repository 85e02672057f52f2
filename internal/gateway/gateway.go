// Package gateway is the document-store contract behind every view: the
// novels collection, each novel's chapters, and per-user documents.
package gateway

import (
	"context"
	"time"

	"github.com/binhbb2204/nocturne/pkg/models"
)

// Operation names, used for logging and failure injection.
const (
	OpGetNovel          = "get_novel"
	OpQueryNovels       = "query_novels"
	OpCreateNovel       = "create_novel"
	OpUpdateNovel       = "update_novel"
	OpListChapters      = "list_chapters"
	OpCreateChapter     = "create_chapter"
	OpUpdateChapter     = "update_chapter"
	OpGetUserData       = "get_user_data"
	OpAddToLibrary      = "add_to_library"
	OpRemoveFromLibrary = "remove_from_library"
)

// NovelFilter selects novels. Zero values mean no constraint; Limit <= 0
// returns everything.
type NovelFilter struct {
	AuthorID string
	Limit    int
}

// NovelUpdate is a partial write. Nil fields are left untouched.
type NovelUpdate struct {
	Title        *string
	Description  *string
	CoverURL     *string
	Category     *string
	Tags         []string
	IsPublished  *bool
	ChapterCount *int
}

type ChapterUpdate struct {
	Title       *string
	Pages       []string
	LastUpdated time.Time
}

type Gateway interface {
	GetNovel(ctx context.Context, id string) (*models.Novel, error)
	QueryNovels(ctx context.Context, filter NovelFilter) ([]models.Novel, error)
	CreateNovel(ctx context.Context, novel *models.Novel) (string, error)
	UpdateNovel(ctx context.Context, id string, update NovelUpdate) error

	ListChapters(ctx context.Context, novelID string) ([]models.Chapter, error)
	CreateChapter(ctx context.Context, novelID string, chapter *models.Chapter) (string, error)
	UpdateChapter(ctx context.Context, novelID, chapterID string, update ChapterUpdate) error

	GetUserData(ctx context.Context, uid string) (*models.UserData, error)
	// AddToLibrary and RemoveFromLibrary are idempotent set operations on
	// UserData.Library.
	AddToLibrary(ctx context.Context, uid, novelID string) error
	RemoveFromLibrary(ctx context.Context, uid, novelID string) error
}

// Batcher is implemented by stores that can create a chapter and set the
// parent's chapter count in one atomic write.
type Batcher interface {
	CreateChapterWithCount(ctx context.Context, novelID string, chapter *models.Chapter, count int) (string, error)
}

func IntPtr(v int) *int          { return &v }
func StringPtr(v string) *string { return &v }
func BoolPtr(v bool) *bool       { return &v }

func applyNovelUpdate(n *models.Novel, u NovelUpdate, now time.Time) {
	if u.Title != nil {
		n.Title = *u.Title
	}
	if u.Description != nil {
		n.Description = *u.Description
	}
	if u.CoverURL != nil {
		n.CoverURL = *u.CoverURL
	}
	if u.Category != nil {
		n.Category = *u.Category
	}
	if u.Tags != nil {
		n.Tags = append([]string(nil), u.Tags...)
	}
	if u.IsPublished != nil {
		n.IsPublished = *u.IsPublished
	}
	if u.ChapterCount != nil {
		n.ChapterCount = *u.ChapterCount
	}
	n.UpdatedAt = now
}

func applyChapterUpdate(c *models.Chapter, u ChapterUpdate) {
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Pages != nil {
		c.Pages = models.NormalizePages(u.Pages, nil)
	}
	if !u.LastUpdated.IsZero() {
		c.LastUpdated = u.LastUpdated
	}
}
