package identity_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/identity"
	"github.com/binhbb2204/nocturne/pkg/database"
)

func setupProvider(t *testing.T) *identity.Provider {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "identity.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return identity.NewProvider(db, "test-secret", identity.NewMemoryBlacklist(), nil)
}

func TestSessionRequire(t *testing.T) {
	if _, err := identity.LoadingSession().Require(); !errors.Is(err, apperr.SessionLoading) {
		t.Fatalf("expected loading error, got %v", err)
	}
	if _, err := identity.AbsentSession().Require(); !errors.Is(err, apperr.Unauthenticated) {
		t.Fatalf("expected login required, got %v", err)
	}
	u, err := identity.ReadySession(identity.User{ID: "u1"}).Require()
	if err != nil || u.ID != "u1" {
		t.Fatalf("expected ready user, got %v %v", u, err)
	}
	if identity.AbsentSession().UID() != "" {
		t.Fatal("absent session should have no uid")
	}
}

func TestRegisterSignInCurrentUser(t *testing.T) {
	ctx := context.Background()
	p := setupProvider(t)

	reg, err := p.Register(ctx, "Writer@Example.com", "Secret123", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.DisplayName != "writer" || reg.Email != "writer@example.com" {
		t.Fatalf("unexpected registration: %+v", reg)
	}

	if _, err := p.Register(ctx, "writer@example.com", "Secret123", "Other"); !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected duplicate email rejection, got %v", err)
	}

	login, err := p.SignIn(ctx, "writer@example.com", "Secret123")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	s := p.CurrentUser(ctx, login.Token)
	if s.State != identity.Ready || s.User.ID != reg.UserID {
		t.Fatalf("expected ready session for %s, got %+v", reg.UserID, s)
	}

	if _, err := p.SignIn(ctx, "writer@example.com", "Wrong1234"); !errors.Is(err, apperr.Unauthenticated) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := p.SignIn(ctx, "nobody@example.com", "Secret123"); !errors.Is(err, apperr.Unauthenticated) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	p := setupProvider(t)
	if _, err := p.Register(context.Background(), "not-an-email", "Secret123", ""); !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	if _, err := p.Register(context.Background(), "a@b.co", "weak", ""); !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected weak password, got %v", err)
	}
}

func TestSignOutRevokesToken(t *testing.T) {
	ctx := context.Background()
	p := setupProvider(t)
	reg, err := p.Register(ctx, "reader@example.com", "Secret123", "Reader")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := p.SignOut(ctx, reg.Token); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if s := p.CurrentUser(ctx, reg.Token); s.State != identity.Absent {
		t.Fatalf("expected absent after sign out, got %v", s.State)
	}
	if s := p.CurrentUser(ctx, ""); s.State != identity.Absent {
		t.Fatalf("expected absent without token, got %v", s.State)
	}
	if s := p.CurrentUser(ctx, "garbage"); s.State != identity.Absent {
		t.Fatalf("expected absent for bad token, got %v", s.State)
	}
}

func TestMemoryBlacklistExpires(t *testing.T) {
	ctx := context.Background()
	b := identity.NewMemoryBlacklist()
	b.Revoke(ctx, "tok", 20*time.Millisecond)
	if ok, _ := b.Revoked(ctx, "tok"); !ok {
		t.Fatal("expected token revoked")
	}
	time.Sleep(40 * time.Millisecond)
	if ok, _ := b.Revoked(ctx, "tok"); ok {
		t.Fatal("expected revocation to expire")
	}
}
