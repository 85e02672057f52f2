package cli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/binhbb2204/nocturne/cli/config"
	"github.com/binhbb2204/nocturne/internal/reader"
	live "github.com/binhbb2204/nocturne/internal/websocket"
	"github.com/binhbb2204/nocturne/pkg/models"
)

func TestDecodeKeys(t *testing.T) {
	got := decodeKeys([]byte("\x1b[C\x1b[Dnpsgq"))
	want := []keyAction{keyNext, keyPrev, keyNextChapter, keyPrevChapter, keyLibrary, keyDismiss, keyQuit}
	if len(got) != len(want) {
		t.Fatalf("expected %d actions, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("action %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if acts := decodeKeys([]byte{3}); len(acts) != 1 || acts[0] != keyQuit {
		t.Fatalf("expected ctrl-c to quit, got %v", acts)
	}
}

func TestChapterJumpsStayInRange(t *testing.T) {
	v := reader.View{
		ChapterIndex: 0,
		Chapters:     []models.ChapterSummary{{ID: "c1"}, {ID: "c2"}},
	}
	if _, ok := keyPrevChapter.message(v); ok {
		t.Fatal("expected no jump before the first chapter")
	}
	msg, ok := keyNextChapter.message(v)
	if !ok || msg.Type != live.MessageTypeJump || msg.ChapterID != "c2" {
		t.Fatalf("unexpected jump %+v", msg)
	}
	v.ChapterIndex = 1
	if _, ok := keyNextChapter.message(v); ok {
		t.Fatal("expected no jump past the last chapter")
	}
	msg, _ = keyNext.message(v)
	if msg.Type != live.MessageTypeKey || msg.Key != reader.KeyNext {
		t.Fatalf("unexpected page turn %+v", msg)
	}
}

func TestRenderViewUsesCarriageReturns(t *testing.T) {
	out := renderView(reader.View{
		Novel:          models.Novel{Title: "Void Code"},
		ChapterTitle:   "Boot",
		Page:           1,
		PageCount:      3,
		Text:           "line one\nline two",
		ShowNextPrompt: true,
		Saved:          true,
	}, true)
	if strings.Contains(strings.ReplaceAll(out, "\r\n", ""), "\n") {
		t.Fatal("expected every newline to carry a carriage return")
	}
	for _, want := range []string{"Void Code", "Page 2 / 3", "★", "(updated)", "End of chapter"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestSplitPages(t *testing.T) {
	pages := splitPages("First page.\r\n---\n\nSecond page.\n  ---  \n\n---\nThird.")
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d: %q", len(pages), pages)
	}
	if pages[1] != "Second page." {
		t.Fatalf("unexpected page %q", pages[1])
	}
}

func TestSetConfigValue(t *testing.T) {
	cfg := config.Default()
	if err := setConfigValue(cfg, "reader.width", "600"); err != nil {
		t.Fatalf("set width: %v", err)
	}
	if cfg.Reader.Width != 600 {
		t.Fatalf("expected width 600, got %d", cfg.Reader.Width)
	}
	if err := setConfigValue(cfg, "server.http_port", "abc"); err == nil {
		t.Fatal("expected invalid port to fail")
	}
	if err := setConfigValue(cfg, "sync.auto", "true"); err == nil {
		t.Fatal("expected unknown key to fail")
	}
}

func testClient(t *testing.T, h http.HandlerFunc) *apiClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Server.Host = u.Hostname()
	cfg.Server.HTTPPort, _ = strconv.Atoi(u.Port())
	cfg.User.Token = "tok"
	return newClientFor(cfg)
}

func TestClientSendsBearerToken(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"novels":[{"id":"demo_1"}],"count":1}`))
	})
	var res struct {
		Count int `json:"count"`
	}
	if err := client.get(context.Background(), "/api/library", &res); err != nil {
		t.Fatalf("get: %v", err)
	}
	if res.Count != 1 {
		t.Fatalf("expected count 1, got %d", res.Count)
	}
}

func TestClientDecodesLoginPrompt(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"login required","code":"UNAUTHENTICATED","prompt":"login_required","redirect":"/auth"}`))
	})
	err := client.post(context.Background(), "/api/novels/n1/library", nil, nil)
	if !isLoginRequired(err) {
		t.Fatalf("expected login prompt, got %v", err)
	}
	var ae *apiError
	if !errors.As(err, &ae) || ae.Code != "UNAUTHENTICATED" {
		t.Fatalf("expected decoded api error, got %#v", err)
	}
}

func TestClientFlagsPartialSave(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"chapter count not updated","code":"WRITE_FAILED","partial_save":true}`))
	})
	err := client.post(context.Background(), "/api/editor/save", nil, nil)
	var ae *apiError
	if !errors.As(err, &ae) || !ae.PartialSave || ae.Status != http.StatusBadGateway {
		t.Fatalf("expected partial save error, got %#v", err)
	}
}
