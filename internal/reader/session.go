package reader

import (
	"context"
	"errors"
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

// ErrStale is returned by Load when a newer load or Close overtook it.
var ErrStale = errors.New("reader: load superseded")

// Viewport is the surface the reader scrolls back to the top after every
// page or chapter change.
type Viewport interface {
	ScrollToOrigin()
}

type nopViewport struct{}

func (nopViewport) ScrollToOrigin() {}

// View is what a transport renders.
type View struct {
	Novel          models.Novel            `json:"novel"`
	Chapters       []models.ChapterSummary `json:"chapters"`
	ChapterID      string                  `json:"chapter_id"`
	ChapterTitle   string                  `json:"chapter_title"`
	ChapterIndex   int                     `json:"chapter_index"`
	Page           int                     `json:"page"`
	PageCount      int                     `json:"page_count"`
	Text           string                  `json:"text"`
	HasPrev        bool                    `json:"has_prev"`
	HasNext        bool                    `json:"has_next"`
	ShowNextPrompt bool                    `json:"show_next_prompt"`
	ShowGuide      bool                    `json:"show_guide"`
	ScrollToTop    bool                    `json:"scroll_to_top"`
	Saved          bool                    `json:"saved"`
	DemoMode       bool                    `json:"demo_mode"`
	Unavailable    bool                    `json:"unavailable,omitempty"`
}

var activeSessions int64

// Session is one mounted reader. Every chapter change re-mounts it, which
// re-fetches the novel and its chapters.
type Session struct {
	gw       gateway.Gateway
	ident    identity.Session
	layout   Layout
	viewport Viewport
	log      *logger.Logger
	now      func() time.Time

	guard view.Guard

	mu     sync.Mutex
	engine *Engine
	guide  Guide
	saved  bool
	demo   bool
	closed int32
}

func NewSession(gw gateway.Gateway, ident identity.Session, layout Layout, viewport Viewport, log *logger.Logger) *Session {
	if viewport == nil {
		viewport = nopViewport{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	metrics.SetActiveReaders(atomic.AddInt64(&activeSessions, 1))
	return &Session{
		gw:       gw,
		ident:    ident,
		layout:   layout,
		viewport: viewport,
		log:      log.WithContext("component", "reader"),
		now:      time.Now,
	}
}

// SetClock replaces the session clock; used by tests of the guide window.
func (s *Session) SetClock(now func() time.Time) { s.now = now }

// Load mounts loc. A chapter id missing from the novel leaves the session
// in the unavailable state and returns NOT_FOUND.
func (s *Session) Load(ctx context.Context, loc Location) (View, error) {
	tok := s.guard.Begin()

	content, err := gateway.LoadContent(ctx, s.gw, loc.NovelID)
	var engine *Engine
	if err == nil {
		engine, err = NewEngine(content.Novel, content.Chapters, loc)
	}
	saved := false
	if err == nil && s.ident.Authenticated() {
		saved = s.inLibrary(ctx, loc.NovelID)
	}

	var out View
	applied := s.guard.Apply(tok, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.engine = nil
			out = View{Unavailable: true}
			return
		}
		s.engine = engine
		s.demo = content.Demo
		s.saved = saved
		s.guide.Start(s.now(), s.layout)
		s.viewport.ScrollToOrigin()
		out = s.viewLocked()
		out.ScrollToTop = true
	})
	if !applied {
		return View{}, ErrStale
	}
	if err != nil {
		s.log.Warn("reader_load_failed", "novel_id", loc.NovelID, "chapter_id", loc.ChapterID, "error", err.Error())
		return out, err
	}
	s.log.Debug("reader_mounted", "novel_id", loc.NovelID, "chapter_id", loc.ChapterID, "page", out.Page)
	return out, nil
}

func (s *Session) inLibrary(ctx context.Context, novelID string) bool {
	u, err := s.gw.GetUserData(ctx, s.ident.UID())
	if err != nil {
		if apperr.CodeOf(err) != apperr.CodeNotFound {
			s.log.Warn("library_lookup_failed", "novel_id", novelID, "error", err.Error())
		}
		return false
	}
	return u.InLibrary(novelID)
}

// Refresh re-fetches the mounted novel and keeps the reader on the same
// chapter and page. Used when the novel changes under an open reader.
func (s *Session) Refresh(ctx context.Context) (View, error) {
	s.mu.Lock()
	if s.engine == nil {
		s.mu.Unlock()
		return View{Unavailable: true}, apperr.New(apperr.CodeNotFound, "content unavailable")
	}
	loc := s.engine.Location()
	loc.EnterAtEnd = false
	page := s.engine.Page()
	s.mu.Unlock()

	tok := s.guard.Begin()
	content, err := gateway.LoadContent(ctx, s.gw, loc.NovelID)
	if err != nil {
		s.log.Warn("reader_refresh_failed", "novel_id", loc.NovelID, "error", err.Error())
		return s.View(), err
	}
	engine, err := NewEngine(content.Novel, content.Chapters, loc)
	if err != nil {
		return s.View(), err
	}
	engine.Seek(page)

	var out View
	if !s.guard.Apply(tok, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.engine = engine
		out = s.viewLocked()
	}) {
		return View{}, ErrStale
	}
	return out, nil
}

// View returns the current render state without side effects.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return View{Unavailable: true}
	}
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	e := s.engine
	ch := e.Chapter()
	return View{
		Novel:          e.Novel(),
		Chapters:       models.Summaries(e.Chapters()),
		ChapterID:      ch.ID,
		ChapterTitle:   ch.Title,
		ChapterIndex:   e.ChapterIndex(),
		Page:           e.Page(),
		PageCount:      e.PageCount(),
		Text:           e.Text(),
		HasPrev:        e.HasPrev(),
		HasNext:        e.HasNext(),
		ShowNextPrompt: e.ShowNextPrompt(),
		ShowGuide:      s.guide.Visible(s.now()),
		Saved:          s.saved,
		DemoMode:       s.demo,
	}
}

// Seek restores a page position within the mounted chapter.
func (s *Session) Seek(page int) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return View{Unavailable: true}
	}
	s.engine.Seek(page)
	return s.viewLocked()
}

// DismissGuide hides the keyboard guide for the rest of the session.
func (s *Session) DismissGuide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guide.Start(s.now(), Layout{})
	s.guide.until = time.Time{}
}

func (s *Session) Advance(ctx context.Context) (View, error) {
	return s.step(ctx, (*Engine).Advance)
}

func (s *Session) Retreat(ctx context.Context) (View, error) {
	return s.step(ctx, (*Engine).Retreat)
}

func (s *Session) JumpTo(ctx context.Context, chapterID string) (View, error) {
	return s.step(ctx, func(e *Engine) Move { return e.JumpTo(chapterID) })
}

// Key applies a keyboard event; unbound keys are ignored.
func (s *Session) Key(ctx context.Context, key string) (View, error) {
	return s.act(ctx, KeyAction(key))
}

// Tap applies a tap at x pixels from the content's left edge.
func (s *Session) Tap(ctx context.Context, x float64) (View, error) {
	return s.act(ctx, s.layout.TapAction(x))
}

func (s *Session) act(ctx context.Context, a Action) (View, error) {
	switch a {
	case ActionAdvance:
		return s.Advance(ctx)
	case ActionRetreat:
		return s.Retreat(ctx)
	}
	return s.View(), nil
}

func (s *Session) step(ctx context.Context, transition func(*Engine) Move) (View, error) {
	s.mu.Lock()
	if s.engine == nil {
		s.mu.Unlock()
		return View{Unavailable: true}, apperr.New(apperr.CodeNotFound, "content unavailable")
	}
	m := transition(s.engine)
	switch m.Kind {
	case MovePage:
		s.viewport.ScrollToOrigin()
		v := s.viewLocked()
		v.ScrollToTop = true
		s.mu.Unlock()
		return v, nil
	case MoveChapter:
		s.mu.Unlock()
		return s.Load(ctx, m.Target)
	}
	v := s.viewLocked()
	s.mu.Unlock()
	return v, nil
}

// ToggleLibrary flips the current novel's membership in the reader's
// library and returns the new saved state.
func (s *Session) ToggleLibrary(ctx context.Context) (bool, error) {
	user, err := s.ident.Require()
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	if s.engine == nil {
		s.mu.Unlock()
		return false, apperr.New(apperr.CodeNotFound, "content unavailable")
	}
	novelID := s.engine.Novel().ID
	wasSaved := s.saved
	s.mu.Unlock()

	saved, err := gateway.ToggleLibrary(ctx, s.gw, user.ID, novelID, wasSaved)
	if err != nil {
		s.log.Error("library_toggle_failed", "novel_id", novelID, "error", err.Error())
		return wasSaved, err
	}

	s.mu.Lock()
	s.saved = saved
	s.mu.Unlock()
	return saved, nil
}

// Close unmounts the session; in-flight loads are discarded.
func (s *Session) Close() {
	s.guard.Close()
	if atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		metrics.SetActiveReaders(atomic.AddInt64(&activeSessions, -1))
	}
}
