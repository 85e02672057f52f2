package reader

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/auth"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Handler serves the reader over stateless HTTP. Each request mounts a
// session at the client's position, applies one transition and unmounts.
type Handler struct {
	gw  gateway.Gateway
	log *logger.Logger
}

func NewHandler(gw gateway.Gateway, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Handler{gw: gw, log: log}
}

type TransitionRequest struct {
	Page        int     `json:"page"`
	Width       int     `json:"width"`
	FinePointer bool    `json:"fine_pointer"`
	GuideSeen   bool    `json:"guide_seen"`
	Key         string  `json:"key"`
	X           float64 `json:"x"`
	ChapterID   string  `json:"chapter_id"`
}

func (h *Handler) Get(c *gin.Context) {
	layout := Layout{Width: queryInt(c, "width"), FinePointer: c.Query("pointer") == "fine"}
	loc := Location{
		NovelID:    c.Param("novelId"),
		ChapterID:  c.Param("chapterId"),
		EnterAtEnd: c.Query("pos") == "end",
	}
	s := NewSession(h.gw, auth.SessionFrom(c), layout, nil, h.log)
	defer s.Close()

	v, err := s.Load(c.Request.Context(), loc)
	if err != nil {
		h.respondErr(c, v, err)
		return
	}
	if p := c.Query("page"); p != "" && !loc.EnterAtEnd {
		v = s.Seek(queryInt(c, "page"))
	}
	if c.Query("guide_seen") == "true" {
		s.DismissGuide()
		v.ShowGuide = false
	}
	c.JSON(http.StatusOK, v)
}

// Transition handles POST .../:action for advance, retreat, key, tap and
// jump.
func (h *Handler) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	s := NewSession(h.gw, auth.SessionFrom(c), Layout{Width: req.Width, FinePointer: req.FinePointer}, nil, h.log)
	defer s.Close()

	v, err := s.Load(ctx, Location{NovelID: c.Param("novelId"), ChapterID: c.Param("chapterId")})
	if err != nil {
		h.respondErr(c, v, err)
		return
	}
	s.Seek(req.Page)
	if req.GuideSeen {
		s.DismissGuide()
	}

	var apply func(context.Context) (View, error)
	switch c.Param("action") {
	case "advance":
		apply = s.Advance
	case "retreat":
		apply = s.Retreat
	case "key":
		apply = func(ctx context.Context) (View, error) { return s.Key(ctx, req.Key) }
	case "tap":
		apply = func(ctx context.Context) (View, error) { return s.Tap(ctx, req.X) }
	case "jump":
		if req.ChapterID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chapter_id is required"})
			return
		}
		apply = func(ctx context.Context) (View, error) { return s.JumpTo(ctx, req.ChapterID) }
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown reader action"})
		return
	}

	v, err = apply(ctx)
	if err != nil {
		h.respondErr(c, v, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) respondErr(c *gin.Context, v View, err error) {
	if errors.Is(err, apperr.NotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "content unavailable", "code": apperr.CodeNotFound, "view": v})
		return
	}
	apperr.Respond(c, err)
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}
