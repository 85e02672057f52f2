// Package editor implements the author's session: the dashboard of owned
// novels, the new-novel wizard, and the multi-page chapter editor.
package editor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/internal/identity"
	"github.com/binhbb2204/nocturne/internal/view"
	"github.com/binhbb2204/nocturne/pkg/logger"
	"github.com/binhbb2204/nocturne/pkg/metrics"
	"github.com/binhbb2204/nocturne/pkg/models"
)

type Mode int

const (
	ModeDashboard Mode = iota
	ModeWizard
	ModeEditing
)

func (m Mode) String() string {
	switch m {
	case ModeWizard:
		return "wizard"
	case ModeEditing:
		return "editing"
	default:
		return "dashboard"
	}
}

// Notifier hears about authored content. Created is false for chapter
// overwrites.
type Notifier interface {
	NovelCreated(novel models.Novel)
	ChapterSaved(novel models.Novel, chapter models.Chapter, created bool)
}

var activeSessions int64

type Session struct {
	gw       gateway.Gateway
	user     identity.User
	log      *logger.Logger
	notifier Notifier
	now      func() time.Time

	guard view.Guard

	saveMu sync.Mutex

	mu       sync.Mutex
	mode     Mode
	novels   []models.Novel
	wizard   *Wizard
	novel    *models.Novel
	chapters []models.Chapter
	buffer   *Buffer
	font     FontSize
	closed   int32
}

// NewSession opens an editor for ident. It refuses unless the identity is
// ready and authenticated.
func NewSession(gw gateway.Gateway, ident identity.Session, log *logger.Logger) (*Session, error) {
	user, err := ident.Require()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetLogger()
	}
	metrics.SetActiveEditors(atomic.AddInt64(&activeSessions, 1))
	return &Session{
		gw:   gw,
		user: *user,
		log:  log.WithContext("component", "editor", "author_id", user.ID),
		now:  time.Now,
		mode: ModeDashboard,
		font: DefaultFontSize,
	}, nil
}

func (s *Session) SetNotifier(n Notifier) { s.notifier = n }

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func invalid(from Mode, action string) error {
	return apperr.New(apperr.CodeInvalidTransition, fmt.Sprintf("cannot %s from %s", action, from))
}

// LoadDashboard fetches the novels owned by the author.
func (s *Session) LoadDashboard(ctx context.Context) ([]models.Novel, error) {
	if m := s.Mode(); m != ModeDashboard {
		return nil, invalid(m, "load dashboard")
	}
	tok := s.guard.Begin()
	novels, err := s.gw.QueryNovels(ctx, gateway.NovelFilter{AuthorID: s.user.ID})
	if err != nil {
		s.log.Warn("dashboard_load_failed", "error", err.Error())
		return nil, err
	}
	if !s.guard.Apply(tok, func() {
		s.mu.Lock()
		s.novels = novels
		s.mu.Unlock()
	}) {
		return nil, errStale
	}
	return novels, nil
}

var errStale = apperr.New(apperr.CodeInvalidTransition, "editor view was superseded")

func (s *Session) StartWizard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeDashboard {
		return invalid(s.mode, "start wizard")
	}
	s.mode = ModeWizard
	s.wizard = NewWizard()
	return nil
}

func (s *Session) CancelWizard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeWizard {
		return invalid(s.mode, "cancel wizard")
	}
	s.mode = ModeDashboard
	s.wizard = nil
	return nil
}

// Wizard runs fn against the open wizard.
func (s *Session) Wizard(fn func(w *Wizard) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeWizard {
		return invalid(s.mode, "edit wizard")
	}
	return fn(s.wizard)
}

// FinishWizard creates the drafted novel and opens it for editing.
func (s *Session) FinishWizard(ctx context.Context) (*models.Novel, error) {
	s.mu.Lock()
	if s.mode != ModeWizard {
		defer s.mu.Unlock()
		return nil, invalid(s.mode, "finish wizard")
	}
	if err := s.wizard.Ready(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	draft := s.wizard.Draft(s.user.ID, s.user.DisplayName)
	s.mu.Unlock()

	now := s.now()
	draft.CreatedAt, draft.UpdatedAt = now, now
	id, err := s.gw.CreateNovel(ctx, &draft)
	if err != nil {
		s.log.Error("novel_create_failed", "error", err.Error())
		return nil, asWriteFailure(err, "failed to create novel")
	}
	draft.ID = id
	s.log.Info("novel_created", "novel_id", id, "category", draft.Category)
	if s.notifier != nil {
		s.notifier.NovelCreated(draft)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeWizard {
		return &draft, nil
	}
	s.enterEditingLocked(draft, nil)
	return &draft, nil
}

// OpenNovel enters editing for one of the author's novels.
func (s *Session) OpenNovel(ctx context.Context, novelID string) error {
	if m := s.Mode(); m != ModeDashboard {
		return invalid(m, "open novel")
	}
	tok := s.guard.Begin()
	novel, err := s.gw.GetNovel(ctx, novelID)
	if err != nil {
		return err
	}
	if novel.AuthorID != s.user.ID {
		return apperr.New(apperr.CodePermissionDenied, "novel belongs to another author")
	}
	chapters, err := s.gw.ListChapters(ctx, novelID)
	if err != nil {
		return err
	}
	models.SortChapters(chapters)

	var applyErr error
	if !s.guard.Apply(tok, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.mode != ModeDashboard {
			applyErr = invalid(s.mode, "open novel")
			return
		}
		s.enterEditingLocked(*novel, chapters)
	}) {
		return errStale
	}
	return applyErr
}

func (s *Session) enterEditingLocked(novel models.Novel, chapters []models.Chapter) {
	s.mode = ModeEditing
	s.wizard = nil
	s.novel = &novel
	s.chapters = chapters
	s.buffer = NewBuffer()
}

func (s *Session) Exit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return invalid(s.mode, "exit editor")
	}
	s.mode = ModeDashboard
	s.novel = nil
	s.chapters = nil
	s.buffer = nil
	return nil
}

// Edit runs fn against the chapter buffer.
func (s *Session) Edit(fn func(b *Buffer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return invalid(s.mode, "edit chapter")
	}
	return fn(s.buffer)
}

func (s *Session) SelectChapter(chapterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return invalid(s.mode, "select chapter")
	}
	for _, ch := range s.chapters {
		if ch.ID == chapterID {
			s.buffer = BufferFor(ch)
			return nil
		}
	}
	return apperr.New(apperr.CodeNotFound, fmt.Sprintf("chapter %s not found", chapterID))
}

// NewChapter swaps in a blank buffer. The previous buffer is left intact
// for a save that may still hold it.
func (s *Session) NewChapter() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return invalid(s.mode, "new chapter")
	}
	s.buffer = NewBuffer()
	return nil
}

func (s *Session) AddPage() error { return s.Edit(func(b *Buffer) error { b.AddPage(); return nil }) }

func (s *Session) DeletePage() error {
	return s.Edit(func(b *Buffer) error { b.DeletePage(); return nil })
}

func (s *Session) SetPageText(text string) error {
	return s.Edit(func(b *Buffer) error { b.SetText(text); return nil })
}

func (s *Session) SetChapterTitle(title string) error {
	return s.Edit(func(b *Buffer) error { b.Title = title; return nil })
}

func (s *Session) GoToPage(page int) error {
	return s.Edit(func(b *Buffer) error { return b.GoTo(page) })
}

func (s *Session) LargerFont() FontSize {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.font = s.font.Larger()
	return s.font
}

func (s *Session) SmallerFont() FontSize {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.font = s.font.Smaller()
	return s.font
}

func (s *Session) Preview() (Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return Preview{}, invalid(s.mode, "preview")
	}
	return Preview{
		Text:       s.buffer.Text(),
		FontSize:   s.font.Preview(),
		EditorFont: int(s.font),
		Page:       s.buffer.Cursor,
		PageCount:  len(s.buffer.Pages),
	}, nil
}

// Snapshot is the session state a transport renders.
type Snapshot struct {
	Mode     string                  `json:"mode"`
	Novels   []models.Novel          `json:"novels,omitempty"`
	Wizard   *Wizard                 `json:"wizard,omitempty"`
	Novel    *models.Novel           `json:"novel,omitempty"`
	Chapters []models.ChapterSummary `json:"chapters,omitempty"`
	Buffer   *Buffer                 `json:"buffer,omitempty"`
	FontSize int                     `json:"font_size"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{Mode: s.mode.String(), FontSize: int(s.font)}
	switch s.mode {
	case ModeDashboard:
		snap.Novels = append([]models.Novel(nil), s.novels...)
	case ModeWizard:
		w := *s.wizard
		snap.Wizard = &w
	case ModeEditing:
		n := *s.novel
		snap.Novel = &n
		snap.Chapters = models.Summaries(s.chapters)
		b := *s.buffer
		b.Pages = s.buffer.PagesCopy()
		snap.Buffer = &b
	}
	return snap
}

// Close releases the session; in-flight dashboard and open loads are
// discarded.
func (s *Session) Close() {
	s.guard.Close()
	if atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		metrics.SetActiveEditors(atomic.AddInt64(&activeSessions, -1))
	}
}

func asWriteFailure(err error, msg string) error {
	switch apperr.CodeOf(err) {
	case apperr.CodeInternal:
		return apperr.Wrap(apperr.CodeWriteFailed, msg, err)
	}
	return err
}
