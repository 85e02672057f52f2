package models

import (
	"encoding/json"
	"sort"
	"time"
)

type Chapter struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Pages       []string  `json:"pages"`
	Order       int       `json:"order"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type chapterWire struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Pages       []string  `json:"pages"`
	Content     *string   `json:"content,omitempty"`
	Order       int       `json:"order"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// UnmarshalJSON accepts both the paged shape and the legacy single
// "content" shape, normalizing to Pages.
func (c *Chapter) UnmarshalJSON(data []byte) error {
	var w chapterWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Chapter{
		ID:          w.ID,
		Title:       w.Title,
		Pages:       NormalizePages(w.Pages, w.Content),
		Order:       w.Order,
		LastUpdated: w.LastUpdated,
	}
	return nil
}

// NormalizePages folds the two stored chapter shapes into a page slice
// with at least one element.
func NormalizePages(pages []string, content *string) []string {
	if len(pages) > 0 {
		out := make([]string, len(pages))
		copy(out, pages)
		return out
	}
	if content != nil {
		return []string{*content}
	}
	return []string{""}
}

func (c *Chapter) PageCount() int { return len(c.Pages) }

// SortChapters orders chapters by Order ascending. Equal orders fall back
// to ID so the reading sequence is deterministic.
func SortChapters(chapters []Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		if chapters[i].Order != chapters[j].Order {
			return chapters[i].Order < chapters[j].Order
		}
		return chapters[i].ID < chapters[j].ID
	})
}

// ChapterSummary is the table-of-contents view of a chapter.
type ChapterSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	PageCount int    `json:"page_count"`
}

func (c *Chapter) Summary() ChapterSummary {
	return ChapterSummary{ID: c.ID, Title: c.Title, Order: c.Order, PageCount: len(c.Pages)}
}

func Summaries(chapters []Chapter) []ChapterSummary {
	out := make([]ChapterSummary, 0, len(chapters))
	for i := range chapters {
		out = append(out, chapters[i].Summary())
	}
	return out
}
