package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/binhbb2204/nocturne/cli/config"
	"github.com/go-resty/resty/v2"
)

// apiError mirrors the server's error body.
type apiError struct {
	Status      int    `json:"-"`
	Message     string `json:"error"`
	Code        string `json:"code"`
	Prompt      string `json:"prompt"`
	PartialSave bool   `json:"partial_save"`
}

func (e *apiError) Error() string {
	if e.Prompt == "login_required" {
		return "login required: run nocturne auth login"
	}
	if e.Message == "" {
		return fmt.Sprintf("server returned HTTP %d", e.Status)
	}
	return e.Message
}

func isLoginRequired(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && (ae.Status == http.StatusUnauthorized || ae.Prompt == "login_required")
}

type apiClient struct {
	cfg  *config.Config
	http *resty.Client
}

func newClient() (*apiClient, error) {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrNotInitialized) {
			return nil, fmt.Errorf("%w: run nocturne config init", err)
		}
		return nil, err
	}
	return newClientFor(cfg), nil
}

func newClientFor(cfg *config.Config) *apiClient {
	rc := resty.New().
		SetBaseURL(cfg.ServerURL()).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json")
	if cfg.User.Token != "" {
		rc.SetAuthToken(cfg.User.Token)
	}
	return &apiClient{cfg: cfg, http: rc}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	req := c.http.R().SetContext(ctx).SetError(&apiError{})
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	if resp.IsError() {
		ae, _ := resp.Error().(*apiError)
		if ae == nil {
			ae = &apiError{}
		}
		ae.Status = resp.StatusCode()
		return ae
	}
	return nil
}

func (c *apiClient) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *apiClient) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *apiClient) put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}
