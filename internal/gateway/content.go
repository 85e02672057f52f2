package gateway

import (
	"context"

	"github.com/binhbb2204/nocturne/pkg/metrics"
	"github.com/binhbb2204/nocturne/pkg/models"
)

// Content is a novel with its chapters sorted for reading.
type Content struct {
	Novel    models.Novel
	Chapters []models.Chapter
	Demo     bool
}

// LoadContent fetches a novel and its chapters. Demo ids are answered from
// the bundled dataset without touching gw.
func LoadContent(ctx context.Context, gw Gateway, novelID string) (*Content, error) {
	src := gw
	demo := IsDemoID(novelID)
	if demo {
		src = NewDemoGateway()
		metrics.IncrementDemoFallbacks()
	}
	novel, err := src.GetNovel(ctx, novelID)
	if err != nil {
		return nil, err
	}
	chapters, err := src.ListChapters(ctx, novelID)
	if err != nil {
		return nil, err
	}
	models.SortChapters(chapters)
	return &Content{Novel: *novel, Chapters: chapters, Demo: demo}, nil
}
