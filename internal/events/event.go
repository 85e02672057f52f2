// Package events fans out content changes to live transports.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	NovelCreated     EventType = "novel_created"
	ChapterPublished EventType = "chapter_published"
	ChapterUpdated   EventType = "chapter_updated"
	LibraryChanged   EventType = "library_changed"
)

type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	NovelID   string                 `json:"novel_id"`
	ChapterID string                 `json:"chapter_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

func NewEvent(eventType EventType, novelID string, data map[string]interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		NovelID:   novelID,
		Timestamp: time.Now(),
		Data:      data,
	}
}
