package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/pkg/logger"
	"github.com/binhbb2204/nocturne/pkg/models"
	"github.com/binhbb2204/nocturne/pkg/utils"
)

// Provider is the email/password identity provider backed by the accounts
// table. Sessions are JWTs signed with secret.
type Provider struct {
	db        *sql.DB
	secret    string
	blacklist Blacklist
	log       *logger.Logger
}

func NewProvider(db *sql.DB, secret string, blacklist Blacklist, log *logger.Logger) *Provider {
	if blacklist == nil {
		blacklist = NewMemoryBlacklist()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Provider{db: db, secret: secret, blacklist: blacklist, log: log.WithContext("component", "identity")}
}

func (p *Provider) Register(ctx context.Context, email, password, displayName string) (*models.AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.New(apperr.CodeValidation, "invalid email format")
	}
	if err := validatePasswordStrength(password); err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, err.Error(), err)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	userID, err := utils.GenerateID(16)
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, display_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, email, displayName, hash, time.Now().UnixMilli())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: accounts.email") {
			return nil, apperr.New(apperr.CodeValidation, "email already registered")
		}
		return nil, apperr.Wrap(apperr.CodeWriteFailed, "failed to create account", err)
	}
	p.log.Info("account_registered", "user_id", userID)

	return p.issue(models.Account{ID: userID, Email: email, DisplayName: displayName})
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	acct, err := p.account(ctx, `email = ?`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperr.NotFound) {
			return nil, apperr.New(apperr.CodeUnauthenticated, "invalid credentials")
		}
		return nil, err
	}
	if err := utils.CheckPassword(acct.PasswordHash, password); err != nil {
		return nil, apperr.New(apperr.CodeUnauthenticated, "invalid credentials")
	}
	p.log.Info("signed_in", "user_id", acct.ID)
	return p.issue(*acct)
}

// SignOut revokes token for the rest of its lifetime.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := utils.ValidateJWT(token, p.secret)
	if err != nil {
		return apperr.Wrap(apperr.CodeUnauthenticated, "invalid token", err)
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := p.blacklist.Revoke(ctx, token, ttl); err != nil {
		return apperr.Wrap(apperr.CodeUnavailable, "failed to revoke token", err)
	}
	p.log.Info("signed_out", "user_id", claims.UserID)
	return nil
}

// CurrentUser resolves token to a Session. A missing, invalid or revoked
// token is Absent; a store that cannot answer leaves the session Loading.
func (p *Provider) CurrentUser(ctx context.Context, token string) Session {
	if token == "" {
		return AbsentSession()
	}
	claims, err := utils.ValidateJWT(token, p.secret)
	if err != nil {
		return AbsentSession()
	}
	revoked, err := p.blacklist.Revoked(ctx, token)
	if err != nil {
		p.log.Warn("blacklist_lookup_failed", "error", err.Error())
		return LoadingSession()
	}
	if revoked {
		return AbsentSession()
	}

	acct, err := p.account(ctx, `id = ?`, claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.NotFound) {
			return AbsentSession()
		}
		p.log.Warn("account_lookup_failed", "user_id", claims.UserID, "error", err.Error())
		return LoadingSession()
	}
	return ReadySession(User{
		ID:          acct.ID,
		DisplayName: acct.DisplayName,
		Email:       acct.Email,
		PhotoURL:    acct.PhotoURL,
	})
}

func (p *Provider) account(ctx context.Context, where string, arg interface{}) (*models.Account, error) {
	var (
		a       models.Account
		created int64
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, photo_url, password_hash, created_at FROM accounts WHERE `+where, arg).
		Scan(&a.ID, &a.Email, &a.DisplayName, &a.PhotoURL, &a.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.CodeNotFound, "account not found")
		}
		return nil, apperr.Wrap(apperr.CodeUnavailable, "account lookup failed", err)
	}
	a.CreatedAt = time.UnixMilli(created)
	return &a, nil
}

func (p *Provider) issue(a models.Account) (*models.AuthResponse, error) {
	token, err := utils.GenerateJWT(a.ID, a.DisplayName, a.Email, p.secret)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &models.AuthResponse{
		Token:       token,
		UserID:      a.ID,
		DisplayName: a.DisplayName,
		Email:       a.Email,
		ExpiresAt:   time.Now().Add(utils.TokenTTL),
	}, nil
}

func validatePasswordStrength(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("password too weak: must be at least 8 characters with mixed case and numbers")
	}
	var lower, upper, digit bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !(lower && upper && digit) {
		return fmt.Errorf("password too weak: must be at least 8 characters with mixed case and numbers")
	}
	return nil
}
