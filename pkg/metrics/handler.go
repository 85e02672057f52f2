package metrics

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) Metrics(c *gin.Context) {
	snap := Snapshot()
	body := gin.H{}
	for k, v := range snap {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}
