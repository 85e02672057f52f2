package health

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/gin-gonic/gin"
)

// BreakerState reports the gateway circuit breaker.
type BreakerState interface {
	State() gateway.CircuitState
}

type Handler struct {
	db      *sql.DB
	breaker BreakerState
}

// NewHandler checks db on readiness. breaker may be nil.
func NewHandler(db *sql.DB, breaker BreakerState) *Handler {
	return &Handler{db: db, breaker: breaker}
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Readyz fails when the database is unreachable. An open breaker still
// reports ready as degraded, since reads are answered from demo data.
func (h *Handler) Readyz(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "database_not_initialized"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "database_ping_failed"})
		return
	}

	body := gin.H{"status": "ready"}
	if h.breaker != nil {
		state := h.breaker.State()
		body["gateway"] = state.String()
		if state == gateway.StateOpen {
			body["status"] = "degraded"
		}
	}
	c.JSON(http.StatusOK, body)
}
