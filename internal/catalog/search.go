package catalog

import (
	"context"
	"strings"

	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/pkg/models"
	"golang.org/x/text/cases"
)

type SearchResult struct {
	Query    string         `json:"query"`
	Novels   []models.Novel `json:"novels"`
	DemoMode bool           `json:"demo_mode"`
}

// Search matches q against title, author name and tags, case-folded. The
// candidate set is every stored novel plus any demo novel the store lacks;
// an empty or failing store searches the demo set alone.
func (s *Service) Search(ctx context.Context, q string) (*SearchResult, error) {
	res := &SearchResult{Query: q}

	all, err := s.gw.QueryNovels(ctx, gateway.NovelFilter{})
	switch {
	case err != nil:
		all = s.fallback("search", err)
		res.DemoMode = true
	case len(all) == 0:
		all = gateway.DemoNovels()
	default:
		all = mergeDemo(all)
	}

	res.Novels = match(all, q)
	return res, nil
}

func mergeDemo(novels []models.Novel) []models.Novel {
	seen := make(map[string]bool, len(novels))
	for _, n := range novels {
		seen[n.ID] = true
	}
	for _, d := range gateway.DemoNovels() {
		if !seen[d.ID] {
			novels = append(novels, d)
		}
	}
	return novels
}

func match(novels []models.Novel, q string) []models.Novel {
	q = strings.TrimSpace(q)
	if q == "" {
		return novels
	}
	fold := cases.Fold()
	needle := fold.String(q)
	contains := func(s string) bool { return strings.Contains(fold.String(s), needle) }

	out := make([]models.Novel, 0, len(novels))
	for _, n := range novels {
		if contains(n.Title) || contains(n.AuthorName) || anyTag(n.Tags, contains) {
			out = append(out, n)
		}
	}
	return out
}

func anyTag(tags []string, pred func(string) bool) bool {
	for _, t := range tags {
		if pred(t) {
			return true
		}
	}
	return false
}
