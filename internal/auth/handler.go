package auth

import (
	"net/http"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/identity"
	"github.com/binhbb2204/nocturne/pkg/models"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	provider *identity.Provider
}

func NewHandler(p *identity.Provider) *Handler {
	return &Handler{provider: p}
}

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.provider.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.provider.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(c *gin.Context) {
	token := BearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return
	}
	if err := h.provider.SignOut(c.Request.Context(), token); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me reports the caller's session state; anonymous callers get 200 with
// state "absent".
func (h *Handler) Me(c *gin.Context) {
	s := SessionFrom(c)
	c.JSON(http.StatusOK, gin.H{"state": s.State.String(), "user": s.User})
}
