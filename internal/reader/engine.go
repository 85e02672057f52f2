// Package reader implements paginated reading: the navigation state
// machine, its input bindings, and the mounted reader session.
package reader

import (
	"fmt"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/pkg/models"
)

// Location addresses a chapter. EnterAtEnd opens it on its last page.
type Location struct {
	NovelID    string `json:"novel_id"`
	ChapterID  string `json:"chapter_id"`
	EnterAtEnd bool   `json:"enter_at_end,omitempty"`
}

type MoveKind int

const (
	MoveNone MoveKind = iota
	MovePage
	MoveChapter
)

func (k MoveKind) String() string {
	switch k {
	case MovePage:
		return "page"
	case MoveChapter:
		return "chapter"
	default:
		return "none"
	}
}

// Move is the outcome of a transition. MoveChapter carries the location
// the caller must navigate to; the engine itself does not change chapter.
type Move struct {
	Kind   MoveKind
	Target Location
}

type Engine struct {
	novel    models.Novel
	chapters []models.Chapter
	current  int
	page     int
}

// NewEngine positions a reader at loc. chapters are sorted by order; a
// chapter id absent from them is NOT_FOUND.
func NewEngine(novel models.Novel, chapters []models.Chapter, loc Location) (*Engine, error) {
	sorted := make([]models.Chapter, len(chapters))
	copy(sorted, chapters)
	models.SortChapters(sorted)

	idx := -1
	for i := range sorted {
		if sorted[i].ID == loc.ChapterID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("chapter %s not found in novel %s", loc.ChapterID, novel.ID))
	}
	// Pages are normalized at decode time; guard against hand-built values.
	sorted[idx].Pages = models.NormalizePages(sorted[idx].Pages, nil)

	e := &Engine{novel: novel, chapters: sorted, current: idx}
	if loc.EnterAtEnd {
		e.page = e.lastPage()
	}
	return e, nil
}

func (e *Engine) lastPage() int { return len(e.chapters[e.current].Pages) - 1 }

func (e *Engine) Advance() Move {
	if e.page < e.lastPage() {
		e.page++
		return Move{Kind: MovePage}
	}
	if e.current+1 < len(e.chapters) {
		return Move{Kind: MoveChapter, Target: Location{NovelID: e.novel.ID, ChapterID: e.chapters[e.current+1].ID}}
	}
	return Move{Kind: MoveNone}
}

func (e *Engine) Retreat() Move {
	if e.page > 0 {
		e.page--
		return Move{Kind: MovePage}
	}
	if e.current > 0 {
		return Move{Kind: MoveChapter, Target: Location{
			NovelID:    e.novel.ID,
			ChapterID:  e.chapters[e.current-1].ID,
			EnterAtEnd: true,
		}}
	}
	return Move{Kind: MoveNone}
}

// JumpTo navigates to chapterID at its first page.
func (e *Engine) JumpTo(chapterID string) Move {
	return Move{Kind: MoveChapter, Target: Location{NovelID: e.novel.ID, ChapterID: chapterID}}
}

// Seek moves within the current chapter, clamping page to its bounds.
// Stateless transports use it to restore a position.
func (e *Engine) Seek(page int) {
	switch {
	case page < 0:
		page = 0
	case page > e.lastPage():
		page = e.lastPage()
	}
	e.page = page
}

func (e *Engine) Novel() models.Novel       { return e.novel }
func (e *Engine) Chapters() []models.Chapter { return e.chapters }
func (e *Engine) Chapter() models.Chapter    { return e.chapters[e.current] }
func (e *Engine) ChapterIndex() int          { return e.current }
func (e *Engine) Page() int                  { return e.page }
func (e *Engine) PageCount() int             { return len(e.chapters[e.current].Pages) }
func (e *Engine) Text() string               { return e.chapters[e.current].Pages[e.page] }
func (e *Engine) AtLastPage() bool           { return e.page == e.lastPage() }
func (e *Engine) HasNext() bool              { return e.current+1 < len(e.chapters) }
func (e *Engine) HasPrev() bool              { return e.current > 0 }

// ShowNextPrompt reports whether the "next chapter" prompt is visible.
func (e *Engine) ShowNextPrompt() bool { return e.AtLastPage() && e.HasNext() }

func (e *Engine) Location() Location {
	return Location{NovelID: e.novel.ID, ChapterID: e.chapters[e.current].ID}
}
