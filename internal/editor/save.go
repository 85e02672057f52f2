package editor

import (
	"context"
	"time"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/pkg/metrics"
	"github.com/binhbb2204/nocturne/pkg/models"
)

// Save persists the buffer. An existing chapter is overwritten in place.
// A new chapter takes the next order, joins the chapter list as the active
// chapter, and the novel's chapterCount is set to that order.
//
// Stores implementing gateway.Batcher write both in one batch. Otherwise
// the count is a second write; if it fails the chapter is kept and the
// returned WRITE_FAILED error is marked as a partial save for
// gateway.ReconcileChapterCount to repair.
//
// Saves are serialized, but the buffer stays editable while one is in
// flight. The new chapter id is bound only to the buffer that was saved.
func (s *Session) Save(ctx context.Context) (models.Chapter, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.mode != ModeEditing {
		defer s.mu.Unlock()
		return models.Chapter{}, invalid(s.mode, "save")
	}
	novel := *s.novel
	saved := s.buffer
	buf := *s.buffer
	buf.Pages = s.buffer.PagesCopy()
	order := len(s.chapters) + 1
	s.mu.Unlock()

	now := s.now()
	if !buf.IsNew() {
		return s.overwrite(ctx, novel, buf, now)
	}

	ch := models.Chapter{
		Title:       buf.SaveTitle(),
		Pages:       buf.Pages,
		Order:       order,
		LastUpdated: now,
	}

	var partial error
	if b, ok := s.gw.(gateway.Batcher); ok {
		id, err := b.CreateChapterWithCount(ctx, novel.ID, &ch, order)
		if err != nil {
			s.log.Error("chapter_save_failed", "novel_id", novel.ID, "order", order, "error", err.Error())
			return models.Chapter{}, asWriteFailure(err, "failed to save chapter")
		}
		ch.ID = id
	} else {
		id, err := s.gw.CreateChapter(ctx, novel.ID, &ch)
		if err != nil {
			s.log.Error("chapter_save_failed", "novel_id", novel.ID, "order", order, "error", err.Error())
			return models.Chapter{}, asWriteFailure(err, "failed to save chapter")
		}
		ch.ID = id
		if err := s.gw.UpdateNovel(ctx, novel.ID, gateway.NovelUpdate{ChapterCount: &order}); err != nil {
			metrics.IncrementPartialSaves()
			s.log.Error("chapter_count_update_failed", "novel_id", novel.ID, "chapter_id", id, "order", order, "error", err.Error())
			partial = apperr.WithMetadata(apperr.CodeWriteFailed,
				"chapter saved but the novel's chapter count was not updated",
				map[string]string{apperr.MetaPartialSave: "true", "novel_id": novel.ID, "chapter_id": id},
				err)
		}
	}
	metrics.IncrementChaptersSaved()

	s.mu.Lock()
	if s.mode == ModeEditing && s.novel.ID == novel.ID {
		s.chapters = append(s.chapters, ch)
		if s.buffer == saved {
			s.buffer.ChapterID = ch.ID
		}
		if partial == nil {
			s.novel.ChapterCount = order
		}
	}
	s.mu.Unlock()

	if partial != nil {
		return ch, partial
	}
	novel.ChapterCount = order
	s.log.Info("chapter_created", "novel_id", novel.ID, "chapter_id", ch.ID, "order", order, "pages", len(ch.Pages))
	if s.notifier != nil {
		s.notifier.ChapterSaved(novel, ch, true)
	}
	return ch, nil
}

func (s *Session) overwrite(ctx context.Context, novel models.Novel, buf Buffer, now time.Time) (models.Chapter, error) {
	title := buf.SaveTitle()
	err := s.gw.UpdateChapter(ctx, novel.ID, buf.ChapterID, gateway.ChapterUpdate{
		Title:       &title,
		Pages:       buf.Pages,
		LastUpdated: now,
	})
	if err != nil {
		s.log.Error("chapter_save_failed", "novel_id", novel.ID, "chapter_id", buf.ChapterID, "error", err.Error())
		return models.Chapter{}, asWriteFailure(err, "failed to save chapter")
	}
	metrics.IncrementChaptersSaved()

	var saved models.Chapter
	s.mu.Lock()
	if s.mode == ModeEditing && s.novel.ID == novel.ID {
		for i := range s.chapters {
			if s.chapters[i].ID == buf.ChapterID {
				s.chapters[i].Title = title
				s.chapters[i].Pages = buf.Pages
				s.chapters[i].LastUpdated = now
				saved = s.chapters[i]
				break
			}
		}
	}
	s.mu.Unlock()
	if saved.ID == "" {
		saved = models.Chapter{ID: buf.ChapterID, Title: title, Pages: buf.Pages, LastUpdated: now}
	}

	s.log.Info("chapter_updated", "novel_id", novel.ID, "chapter_id", buf.ChapterID, "pages", len(buf.Pages))
	if s.notifier != nil {
		s.notifier.ChapterSaved(novel, saved, false)
	}
	return saved, nil
}
