package websocket

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/auth"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/internal/reader"
	"github.com/binhbb2204/nocturne/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pingPeriod     = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server hosts live reader sessions at /ws/read.
type Server struct {
	gw          gateway.Gateway
	manager     *Manager
	handler     *Handler
	broadcaster *Broadcaster
	log         *logger.Logger
}

func NewServer(gw gateway.Gateway, log *logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithContext("component", "websocket")
	manager := NewManager()
	go manager.Run()
	return &Server{
		gw:          gw,
		manager:     manager,
		handler:     NewHandler(),
		broadcaster: NewBroadcaster(manager, log),
		log:         log,
	}
}

func (s *Server) Broadcaster() *Broadcaster { return s.broadcaster }

func (s *Server) Manager() *Manager { return s.manager }

func (s *Server) Stop() { s.manager.Stop() }

// HandleWebSocket mounts a reader from the query (novel, chapter, pos,
// width, pointer) and upgrades. The first message is the mounted view.
// The route must run auth.Identify; anonymous readers are allowed.
func (s *Server) HandleWebSocket(c *gin.Context) {
	novelID, chapterID := c.Query("novel"), c.Query("chapter")
	if novelID == "" || chapterID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "novel and chapter are required"})
		return
	}
	width, _ := strconv.Atoi(c.Query("width"))
	layout := reader.Layout{Width: width, FinePointer: c.Query("pointer") == "fine"}
	ident := auth.SessionFrom(c)

	session := reader.NewSession(s.gw, ident, layout, nil, s.log)
	v, err := session.Load(c.Request.Context(), reader.Location{
		NovelID:    novelID,
		ChapterID:  chapterID,
		EnterAtEnd: c.Query("pos") == "end",
	})
	if err != nil {
		session.Close()
		if errors.Is(err, apperr.NotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "content unavailable", "code": apperr.CodeNotFound})
			return
		}
		apperr.Respond(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		session.Close()
		s.log.Error("ws_upgrade_failed", "error", err.Error())
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		UserID:      ident.UID(),
		NovelID:     novelID,
		Conn:        conn,
		Send:        make(chan []byte, 64),
		Manager:     s.manager,
		Session:     session,
		ConnectedAt: time.Now(),
		log:         s.log,
	}
	s.manager.Register(client)
	s.log.Info("ws_reader_connected", "client_id", client.ID, "novel_id", novelID, "user_id", client.UserID)

	client.sendView(MessageTypeView, v)
	go client.WritePump()
	go client.ReadPump(s.handler)
}
