package catalog

import (
	"net/http"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/auth"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the browsing views on rg. rg must already run
// auth.Identify.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/home", h.Home)
	rg.GET("/search", h.Search)
	rg.GET("/novels/:id", h.Detail)
	rg.POST("/novels/:id/library", auth.RequireAuth(), h.ToggleLibrary)
	rg.GET("/library", auth.RequireAuth(), h.Library)
	rg.GET("/profile", auth.RequireAuth(), h.Profile)
}

func (h *Handler) Home(c *gin.Context) {
	feed, err := h.svc.Home(c.Request.Context(), c.Query("category"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h *Handler) Search(c *gin.Context) {
	res, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Detail(c *gin.Context) {
	d, err := h.svc.Detail(c.Request.Context(), c.Param("id"), auth.SessionFrom(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) ToggleLibrary(c *gin.Context) {
	novelID := c.Param("id")
	saved, err := h.svc.ToggleLibrary(c.Request.Context(), auth.SessionFrom(c), novelID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"novel_id": novelID, "saved": saved})
}

func (h *Handler) Library(c *gin.Context) {
	novels, err := h.svc.Library(c.Request.Context(), auth.SessionFrom(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"novels": novels, "count": len(novels)})
}

func (h *Handler) Profile(c *gin.Context) {
	p, err := h.svc.Profile(c.Request.Context(), auth.SessionFrom(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
