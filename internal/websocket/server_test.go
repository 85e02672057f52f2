package websocket_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/binhbb2204/nocturne/internal/auth"
	"github.com/binhbb2204/nocturne/internal/events"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/internal/identity"
	"github.com/binhbb2204/nocturne/internal/websocket"
	"github.com/binhbb2204/nocturne/pkg/database"
	"github.com/binhbb2204/nocturne/pkg/models"
	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	gw     *gateway.MemoryGateway
	server *websocket.Server
	url    string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "ws.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gw := gateway.NewMemoryGateway()
	gw.PutNovel(models.Novel{ID: "n1", Title: "Live", ChapterCount: 1})
	gw.PutChapter("n1", models.Chapter{ID: "c1", Title: "One", Pages: []string{"a", "b"}, Order: 1})

	server := websocket.NewServer(gw, nil)
	t.Cleanup(server.Stop)
	r := gin.New()
	r.GET("/ws/read", auth.Identify(identity.NewProvider(db, "test-secret", nil, nil)), server.HandleWebSocket)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return &fixture{gw: gw, server: server, url: "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/read"}
}

func readMessage(t *testing.T, conn *ws.Conn) websocket.ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg websocket.ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestReaderSessionOverWebsocket(t *testing.T) {
	f := setup(t)
	conn, _, err := ws.DefaultDialer.Dial(f.url+"?novel=n1&chapter=c1&width=375", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msg := readMessage(t, conn)
	if msg.Type != websocket.MessageTypeView || msg.View.Page != 0 || msg.View.PageCount != 2 {
		t.Fatalf("unexpected mount message: %+v", msg)
	}

	conn.WriteJSON(websocket.ClientMessage{Type: websocket.MessageTypeAdvance})
	msg = readMessage(t, conn)
	if msg.View == nil || msg.View.Page != 1 || msg.View.ShowNextPrompt {
		t.Fatalf("unexpected advance view: %+v", msg)
	}

	conn.WriteJSON(websocket.ClientMessage{Type: "shout"})
	if msg = readMessage(t, conn); msg.Type != websocket.MessageTypeError {
		t.Fatalf("expected error for unknown type, got %+v", msg)
	}

	conn.WriteJSON(websocket.ClientMessage{Type: websocket.MessageTypeLibrary})
	msg = readMessage(t, conn)
	if msg.Type != websocket.MessageTypeError || msg.Code != "UNAUTHENTICATED" {
		t.Fatalf("anonymous library toggle should require login, got %+v", msg)
	}
}

func TestPublishedChapterRefreshesReaders(t *testing.T) {
	f := setup(t)
	conn, _, err := ws.DefaultDialer.Dial(f.url+"?novel=n1&chapter=c1&pos=end", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if msg := readMessage(t, conn); msg.View.HasNext {
		t.Fatalf("no next chapter yet: %+v", msg.View)
	}

	router := events.NewRouter(nil)
	f.server.Broadcaster().Subscribe(router)
	f.gw.PutChapter("n1", models.Chapter{ID: "c2", Title: "Two", Pages: []string{"c"}, Order: 2})
	router.Route(events.NewEvent(events.ChapterPublished, "n1", nil))

	msg := readMessage(t, conn)
	if msg.Type != websocket.MessageTypeRefresh || !msg.View.ShowNextPrompt || msg.View.Page != 1 {
		t.Fatalf("expected refresh with next prompt, got %+v", msg)
	}
}

func TestRejectsMissingContent(t *testing.T) {
	f := setup(t)
	_, resp, err := ws.DefaultDialer.Dial(f.url+"?novel=n1&chapter=missing", nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", resp)
	}

	_, resp, _ = ws.DefaultDialer.Dial(f.url, nil)
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without params, got %v", resp)
	}
}

func TestManagerRoomsStartEmpty(t *testing.T) {
	m := websocket.NewManager()
	go m.Run()
	defer m.Stop()
	if m.ClientCount() != 0 || m.RoomClientCount("n1") != 0 || len(m.Room("n1")) != 0 {
		t.Fatal("expected empty manager")
	}
}
