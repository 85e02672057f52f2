package catalog

import (
	"context"
	"strings"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/pkg/models"
)

const (
	HomeLimit   = 10
	FilterAll   = "All"
	trendingEnd = 4
	newEnd      = 5
)

// Filters are the category chips shown above the feed.
var Filters = []string{FilterAll, "Fantasy", "Romance", "SF", "Mystery", "Horror", "Adventure"}

type Feed struct {
	Category string         `json:"category"`
	Filters  []string       `json:"filters"`
	Hero     *models.Novel  `json:"hero,omitempty"`
	Trending []models.Novel `json:"trending"`
	New      []models.Novel `json:"new"`
	DemoMode bool           `json:"demo_mode"`
}

// Home builds the feed from the newest novels. The first is the hero,
// items 1..3 are trending and items 0..4 are new.
func (s *Service) Home(ctx context.Context, category string) (*Feed, error) {
	if category == "" {
		category = FilterAll
	}
	feed := &Feed{Category: category, Filters: Filters}

	novels, err := s.gw.QueryNovels(ctx, gateway.NovelFilter{Limit: HomeLimit})
	if err != nil {
		if !apperr.IsFallback(err) {
			s.log.Error("home_load_failed", "error", err.Error())
			return nil, err
		}
		novels = s.fallback("home", err)
		feed.DemoMode = true
	}

	novels = filterCategory(novels, category)
	if len(novels) > 0 {
		hero := novels[0]
		feed.Hero = &hero
	}
	feed.Trending = window(novels, 1, trendingEnd)
	feed.New = window(novels, 0, newEnd)
	return feed, nil
}

func filterCategory(novels []models.Novel, category string) []models.Novel {
	if strings.EqualFold(category, FilterAll) {
		return novels
	}
	out := make([]models.Novel, 0, len(novels))
	for i := range novels {
		if strings.EqualFold(novels[i].Category, category) || novels[i].HasTag(category) {
			out = append(out, novels[i])
		}
	}
	return out
}

func window(novels []models.Novel, from, to int) []models.Novel {
	if to > len(novels) {
		to = len(novels)
	}
	if from >= to {
		return []models.Novel{}
	}
	return append([]models.Novel(nil), novels[from:to]...)
}
