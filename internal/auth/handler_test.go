package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/binhbb2204/nocturne/internal/auth"
	"github.com/binhbb2204/nocturne/internal/identity"
	"github.com/binhbb2204/nocturne/pkg/database"
	"github.com/gin-gonic/gin"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	p := identity.NewProvider(db, "test-secret", nil, nil)
	h := auth.NewHandler(p)
	r := gin.New()
	r.Use(auth.Identify(p))
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.GET("/auth/me", h.Me)
	r.GET("/private", auth.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": auth.SessionFrom(c).UID()})
	})
	return r
}

func do(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "author@example.com", "password": "Secret123", "display_name": "Author One",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "author@example.com", "password": "Secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var login struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	json.Unmarshal(w.Body.Bytes(), &login)

	w = do(r, http.MethodGet, "/private", login.Token, nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(login.UserID)) {
		t.Fatalf("private: %d %s", w.Code, w.Body.String())
	}

	if w = do(r, http.MethodPost, "/auth/logout", login.Token, nil); w.Code != http.StatusOK {
		t.Fatalf("logout: %d", w.Code)
	}
	if w = do(r, http.MethodGet, "/private", login.Token, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}

func TestRequireAuthPromptsLogin(t *testing.T) {
	r := setupRouter(t)
	w := do(r, http.MethodGet, "/private", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["prompt"] != "login_required" {
		t.Fatalf("expected login prompt, got %v", body)
	}
}

func TestMeAnonymous(t *testing.T) {
	r := setupRouter(t)
	w := do(r, http.MethodGet, "/auth/me", "", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"absent"`)) {
		t.Fatalf("unexpected me response: %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRejectsBadBody(t *testing.T) {
	r := setupRouter(t)
	w := do(r, http.MethodPost, "/auth/register", "", map[string]string{"email": "x"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
