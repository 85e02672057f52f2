package editor

import (
	"net/http"
	"sync"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/auth"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Handler keeps one editor session per author across requests.
type Handler struct {
	gw       gateway.Gateway
	notifier Notifier
	log      *logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewHandler(gw gateway.Gateway, notifier Notifier, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Handler{gw: gw, notifier: notifier, log: log, sessions: make(map[string]*Session)}
}

// RegisterRoutes mounts the editor under rg. rg must already run
// auth.Identify.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	e := rg.Group("/editor", auth.RequireAuth())
	e.GET("", h.State)
	e.GET("/options", h.Options)
	e.POST("/dashboard", h.Dashboard)
	e.POST("/wizard/start", h.do(func(c *gin.Context, s *Session) error { return s.StartWizard() }))
	e.POST("/wizard/cancel", h.do(func(c *gin.Context, s *Session) error { return s.CancelWizard() }))
	e.PUT("/wizard/details", h.WizardDetails)
	e.PUT("/wizard/cover", h.WizardCover)
	e.PUT("/wizard/category", h.WizardCategory)
	e.POST("/wizard/next", h.do(func(c *gin.Context, s *Session) error {
		return s.Wizard(func(w *Wizard) error { return w.Next() })
	}))
	e.POST("/wizard/back", h.do(func(c *gin.Context, s *Session) error {
		return s.Wizard(func(w *Wizard) error { return w.Back() })
	}))
	e.POST("/wizard/finish", h.do(func(c *gin.Context, s *Session) error {
		_, err := s.FinishWizard(c.Request.Context())
		return err
	}))
	e.POST("/novels/:novelId/open", h.do(func(c *gin.Context, s *Session) error {
		return s.OpenNovel(c.Request.Context(), c.Param("novelId"))
	}))
	e.POST("/chapters/new", h.do(func(c *gin.Context, s *Session) error { return s.NewChapter() }))
	e.POST("/chapters/:chapterId/select", h.do(func(c *gin.Context, s *Session) error {
		return s.SelectChapter(c.Param("chapterId"))
	}))
	e.PUT("/title", h.Title)
	e.POST("/pages/add", h.do(func(c *gin.Context, s *Session) error { return s.AddPage() }))
	e.POST("/pages/delete", h.do(func(c *gin.Context, s *Session) error { return s.DeletePage() }))
	e.PUT("/pages/text", h.PageText)
	e.POST("/pages/goto", h.GoTo)
	e.POST("/font/:direction", h.Font)
	e.GET("/preview", h.Preview)
	e.POST("/save", h.Save)
	e.POST("/exit", h.do(func(c *gin.Context, s *Session) error { return s.Exit() }))
	e.DELETE("", h.Close)
}

// session returns the caller's editor, opening one on first use.
func (h *Handler) session(c *gin.Context) (*Session, error) {
	ident := auth.SessionFrom(c)
	user, err := ident.Require()
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[user.ID]; ok {
		return s, nil
	}
	s, err := NewSession(h.gw, ident, h.log)
	if err != nil {
		return nil, err
	}
	if h.notifier != nil {
		s.SetNotifier(h.notifier)
	}
	h.sessions[user.ID] = s
	h.log.Debug("editor_session_opened", "author_id", user.ID)
	return s, nil
}

func (h *Handler) do(fn func(c *gin.Context, s *Session) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := h.session(c)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		if err := fn(c, s); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, s.Snapshot())
	}
}

func (h *Handler) State(c *gin.Context) {
	h.do(func(*gin.Context, *Session) error { return nil })(c)
}

func (h *Handler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"covers":     Covers,
		"categories": Categories,
		"font": gin.H{
			"default": DefaultFontSize,
			"min":     MinFontSize,
			"max":     MaxFontSize,
			"step":    FontStep,
		},
	})
}

func (h *Handler) Dashboard(c *gin.Context) {
	h.do(func(c *gin.Context, s *Session) error {
		_, err := s.LoadDashboard(c.Request.Context())
		return err
	})(c)
}

type detailsRequest struct {
	Title    string `json:"title"`
	Synopsis string `json:"synopsis"`
}

func (h *Handler) WizardDetails(c *gin.Context) {
	var req detailsRequest
	if !bind(c, &req) {
		return
	}
	h.do(func(_ *gin.Context, s *Session) error {
		return s.Wizard(func(w *Wizard) error {
			w.SetDetails(req.Title, req.Synopsis)
			return nil
		})
	})(c)
}

func (h *Handler) WizardCover(c *gin.Context) {
	var req struct {
		Cover string `json:"cover" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	h.do(func(_ *gin.Context, s *Session) error {
		return s.Wizard(func(w *Wizard) error { return w.SelectCover(req.Cover) })
	})(c)
}

func (h *Handler) WizardCategory(c *gin.Context) {
	var req struct {
		Category string `json:"category" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	h.do(func(_ *gin.Context, s *Session) error {
		return s.Wizard(func(w *Wizard) error { return w.SelectCategory(req.Category) })
	})(c)
}

func (h *Handler) Title(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if !bind(c, &req) {
		return
	}
	h.do(func(_ *gin.Context, s *Session) error { return s.SetChapterTitle(req.Title) })(c)
}

func (h *Handler) PageText(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if !bind(c, &req) {
		return
	}
	h.do(func(_ *gin.Context, s *Session) error { return s.SetPageText(req.Text) })(c)
}

func (h *Handler) GoTo(c *gin.Context) {
	var req struct {
		Page int `json:"page"`
	}
	if !bind(c, &req) {
		return
	}
	h.do(func(_ *gin.Context, s *Session) error { return s.GoToPage(req.Page) })(c)
}

func (h *Handler) Font(c *gin.Context) {
	h.do(func(c *gin.Context, s *Session) error {
		switch c.Param("direction") {
		case "larger":
			s.LargerFont()
		case "smaller":
			s.SmallerFont()
		default:
			return apperr.New(apperr.CodeValidation, "direction must be larger or smaller")
		}
		return nil
	})(c)
}

func (h *Handler) Preview(c *gin.Context) {
	s, err := h.session(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	p, err := s.Preview()
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Save(c *gin.Context) {
	s, err := h.session(c)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	ch, err := s.Save(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chapter": ch, "state": s.Snapshot()})
}

// Close drops the caller's session.
func (h *Handler) Close(c *gin.Context) {
	uid := auth.SessionFrom(c).UID()
	h.mu.Lock()
	s, ok := h.sessions[uid]
	delete(h.sessions, uid)
	h.mu.Unlock()
	if ok {
		s.Close()
	}
	c.JSON(http.StatusOK, gin.H{"message": "editor closed"})
}

// Shutdown closes every open session.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for uid, s := range h.sessions {
		s.Close()
		delete(h.sessions, uid)
	}
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
