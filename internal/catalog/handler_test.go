package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/binhbb2204/nocturne/internal/auth"
	"github.com/binhbb2204/nocturne/internal/catalog"
	"github.com/binhbb2204/nocturne/internal/gateway"
	"github.com/binhbb2204/nocturne/internal/identity"
	"github.com/binhbb2204/nocturne/pkg/database"
	"github.com/gin-gonic/gin"
)

func catalogRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	p := identity.NewProvider(db, "test-secret", nil, nil)
	resp, err := p.Register(context.Background(), "reader@example.com", "Secret123", "Reader")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	gw := gateway.NewMemoryGateway()
	seedNovels(gw, 3)
	r := gin.New()
	catalog.NewHandler(catalog.NewService(gw, nil)).RegisterRoutes(r.Group("/api", auth.Identify(p)))
	return r, resp.Token
}

func get(r http.Handler, method, path, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHandlerHome(t *testing.T) {
	r, _ := catalogRouter(t)
	w, body := get(r, http.MethodGet, "/api/home", "")
	if w.Code != http.StatusOK {
		t.Fatalf("home: %d", w.Code)
	}
	hero := body["hero"].(map[string]interface{})
	if hero["id"] != "n1" || body["demo_mode"] != false {
		t.Fatalf("unexpected home body: %v", body)
	}
}

func TestHandlerLibraryToggleNeedsLogin(t *testing.T) {
	r, token := catalogRouter(t)
	w, body := get(r, http.MethodPost, "/api/novels/n1/library", "")
	if w.Code != http.StatusUnauthorized || body["prompt"] != "login_required" || body["redirect"] != "/auth" {
		t.Fatalf("expected login prompt, got %d %v", w.Code, body)
	}

	w, body = get(r, http.MethodPost, "/api/novels/n1/library", token)
	if w.Code != http.StatusOK || body["saved"] != true {
		t.Fatalf("toggle: %d %v", w.Code, body)
	}
	w, body = get(r, http.MethodGet, "/api/library", token)
	if w.Code != http.StatusOK || body["count"].(float64) != 1 {
		t.Fatalf("library: %d %v", w.Code, body)
	}
}

func TestHandlerDetailNotFound(t *testing.T) {
	r, _ := catalogRouter(t)
	if w, _ := get(r, http.MethodGet, "/api/novels/missing", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
