package models

import "time"

type Novel struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CoverURL     string    `json:"coverUrl,omitempty"`
	Tags         []string  `json:"tags"`
	Category     string    `json:"category,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	IsPublished  bool      `json:"isPublished"`
	ChapterCount int       `json:"chapterCount"`
	Rating       *float64  `json:"rating,omitempty"`
}

// HasTag reports whether tag is in the novel's tag list.
func (n *Novel) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// UserData is the per-reader document in the users collection.
type UserData struct {
	UID     string   `json:"uid"`
	Tokens  int      `json:"tokens"`
	Library []string `json:"library"`
}

func (u *UserData) InLibrary(novelID string) bool {
	if u == nil {
		return false
	}
	for _, id := range u.Library {
		if id == novelID {
			return true
		}
	}
	return false
}
