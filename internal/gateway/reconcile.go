package gateway

import (
	"context"

	"github.com/binhbb2204/nocturne/pkg/logger"
)

// ReconcileChapterCount sets the novel's chapterCount to the number of
// persisted chapters. It reports whether a write was needed.
func ReconcileChapterCount(ctx context.Context, gw Gateway, novelID string) (bool, error) {
	novel, err := gw.GetNovel(ctx, novelID)
	if err != nil {
		return false, err
	}
	chapters, err := gw.ListChapters(ctx, novelID)
	if err != nil {
		return false, err
	}
	if novel.ChapterCount == len(chapters) {
		return false, nil
	}
	count := len(chapters)
	if err := gw.UpdateNovel(ctx, novelID, NovelUpdate{ChapterCount: &count}); err != nil {
		return false, err
	}
	return true, nil
}

// ReconcileAll repairs every novel matching filter. Per-novel failures are
// logged and skipped.
func ReconcileAll(ctx context.Context, gw Gateway, filter NovelFilter, log *logger.Logger) (repaired int, err error) {
	if log == nil {
		log = logger.GetLogger()
	}
	novels, err := gw.QueryNovels(ctx, filter)
	if err != nil {
		return 0, err
	}
	for _, n := range novels {
		fixed, err := ReconcileChapterCount(ctx, gw, n.ID)
		if err != nil {
			log.Warn("reconcile_failed", "novel_id", n.ID, "error", err.Error())
			continue
		}
		if fixed {
			repaired++
			log.Info("chapter_count_repaired", "novel_id", n.ID, "was", n.ChapterCount)
		}
	}
	return repaired, nil
}
