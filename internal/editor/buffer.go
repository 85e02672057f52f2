package editor

import (
	"fmt"
	"strings"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/pkg/models"
)

// UntitledChapter is the title saved for chapters left without one.
const UntitledChapter = "Untitled"

// Buffer is the chapter being authored. It always holds at least one page.
type Buffer struct {
	ChapterID string   `json:"chapter_id,omitempty"`
	Title     string   `json:"title"`
	Pages     []string `json:"pages"`
	Cursor    int      `json:"cursor"`
}

// NewBuffer is an empty new chapter: one blank page, no title.
func NewBuffer() *Buffer {
	return &Buffer{Pages: []string{""}}
}

func BufferFor(ch models.Chapter) *Buffer {
	return &Buffer{
		ChapterID: ch.ID,
		Title:     ch.Title,
		Pages:     models.NormalizePages(ch.Pages, nil),
	}
}

func (b *Buffer) IsNew() bool { return b.ChapterID == "" }

func (b *Buffer) AddPage() {
	b.Pages = append(b.Pages, "")
	b.Cursor = len(b.Pages) - 1
}

// DeletePage removes the page at the cursor. The last remaining page is
// cleared instead of removed.
func (b *Buffer) DeletePage() {
	if len(b.Pages) == 1 {
		b.Pages[0] = ""
		b.Cursor = 0
		return
	}
	b.Pages = append(b.Pages[:b.Cursor], b.Pages[b.Cursor+1:]...)
	b.Cursor--
	if b.Cursor < 0 {
		b.Cursor = 0
	}
}

func (b *Buffer) SetText(text string) { b.Pages[b.Cursor] = text }

func (b *Buffer) Text() string { return b.Pages[b.Cursor] }

func (b *Buffer) GoTo(page int) error {
	if page < 0 || page >= len(b.Pages) {
		return apperr.New(apperr.CodeValidation, fmt.Sprintf("page %d out of range", page))
	}
	b.Cursor = page
	return nil
}

// SaveTitle is the title persisted for the buffer.
func (b *Buffer) SaveTitle() string {
	if strings.TrimSpace(b.Title) == "" {
		return UntitledChapter
	}
	return b.Title
}

func (b *Buffer) PagesCopy() []string {
	out := make([]string, len(b.Pages))
	copy(out, b.Pages)
	return out
}
