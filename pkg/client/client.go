// Package client is a typed HTTP client for the Scholar Share API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
)

// ErrAlreadyVoted is returned when the server rejects a repeat vote.
var ErrAlreadyVoted = errors.New("already voted on this material")

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Session mirrors the server's auth response.
type Session struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// ListOptions narrows a material listing. Zero values mean no restriction.
type ListOptions struct {
	Search   string
	Category model.Category
	Year     model.AcademicYear
	Sort     string
}

type listResponse struct {
	Materials []model.Material `json:"materials"`
	Total     int              `json:"total"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithVoteCache attaches an optimistic vote cache that is updated
// speculatively on Vote and reconciled against the server's response.
func WithVoteCache(cache *VoteCache) Option {
	return func(c *Client) { c.votes = cache }
}

// Client talks to one Scholar Share server. It is safe for concurrent use.
// The bearer token from Register/Login is remembered for later calls and
// dropped again as soon as the server answers 401.
type Client struct {
	baseURL string
	httpc   *http.Client
	votes   *VoteCache

	mu    sync.RWMutex
	token string
}

// New builds a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken installs a previously saved bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token, empty when logged out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Register creates an account and remembers the returned token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*Session, error) {
	var sess Session
	err := c.doJSON(ctx, http.MethodPost, "/auth/register",
		map[string]string{"name": name, "email": email, "password": password}, &sess)
	if err != nil {
		return nil, err
	}
	c.SetToken(sess.Token)
	return &sess, nil
}

// Login exchanges credentials for a session and remembers the token.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var sess Session
	err := c.doJSON(ctx, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}, &sess)
	if err != nil {
		return nil, err
	}
	c.SetToken(sess.Token)
	return &sess, nil
}

// Materials lists materials matching the given options.
func (c *Client) Materials(ctx context.Context, opts ListOptions) ([]model.Material, error) {
	q := url.Values{}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Category != "" {
		q.Set("category", string(opts.Category))
	}
	if opts.Year != "" {
		q.Set("year", string(opts.Year))
	}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	path := "/materials"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var res listResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Materials, nil
}

// Material fetches one material with its voter ids and reports.
func (c *Client) Material(ctx context.Context, id string) (*model.Material, error) {
	var m model.Material
	if err := c.doJSON(ctx, http.MethodGet, "/materials/"+url.PathEscape(id), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// UserMaterials lists the materials shared by one user.
func (c *Client) UserMaterials(ctx context.Context, userID string) ([]model.Material, error) {
	var res listResponse
	err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/materials", nil, &res)
	if err != nil {
		return nil, err
	}
	return res.Materials, nil
}

// Vote casts a vote and returns the updated material. When a vote cache is
// attached the counts are bumped speculatively before the request and either
// confirmed from the server's answer or rolled back on failure.
func (c *Client) Vote(ctx context.Context, materialID string, vote model.VoteType) (*model.Material, error) {
	if c.votes != nil {
		c.votes.Apply(materialID, vote)
	}

	var m model.Material
	err := c.doJSON(ctx, http.MethodPost, "/materials/"+url.PathEscape(materialID)+"/vote",
		map[string]string{"voteType": string(vote)}, &m)
	if err != nil {
		if c.votes != nil {
			c.votes.Rollback(materialID)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == "ALREADY_VOTED" {
			return nil, ErrAlreadyVoted
		}
		return nil, err
	}

	if c.votes != nil {
		c.votes.Confirm(materialID, m.Upvotes, m.Downvotes)
	}
	return &m, nil
}

// Report files a moderation report against a material.
func (c *Client) Report(ctx context.Context, materialID, reason string) (*model.Report, error) {
	var rep model.Report
	err := c.doJSON(ctx, http.MethodPost, "/materials/"+url.PathEscape(materialID)+"/report",
		map[string]string{"reason": reason}, &rep)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// Delete removes one of the caller's materials.
func (c *Client) Delete(ctx context.Context, materialID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/materials/"+url.PathEscape(materialID), nil, nil)
}

// DownloadURL asks for a time-limited link to the stored document.
func (c *Client) DownloadURL(ctx context.Context, materialID string) (string, error) {
	var res struct {
		URL string `json:"url"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/materials/"+url.PathEscape(materialID)+"/download", nil, &res)
	if err != nil {
		return "", err
	}
	return res.URL, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		// An expired or revoked token means the session is gone for good.
		if resp.StatusCode == http.StatusUnauthorized {
			c.SetToken("")
		}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		return &APIError{
			Status:  resp.StatusCode,
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
