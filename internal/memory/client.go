// Package memory is a typed HTTP client for the external long-term-memory
// service. The service owns storage, ranking, and entity-graph construction;
// this client only moves JSON.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	TypeContext      = "Context"
	TypeConversation = "Conversation"
)

// Unit is one storable memory: a dialogue chunk or a session summary.
type Unit struct {
	Content    string   `json:"content"`
	MemoryType string   `json:"memory_type"`
	Tags       []string `json:"tags,omitempty"`
}

// BatchOptions control server-side processing of a batch store.
type BatchOptions struct {
	ExtractEntities bool `json:"extract_entities"`
	CreateEdges     bool `json:"create_edges"`
}

// Recalled is one piece of ranked evidence returned by Recall. Depending on
// the endpoint the text lives either at the top level or under experience.
type Recalled struct {
	Score      float64 `json:"score"`
	Content    string  `json:"content,omitempty"`
	Experience struct {
		Content string   `json:"content"`
		Tags    []string `json:"tags,omitempty"`
	} `json:"experience,omitempty"`
}

// Text returns the evidence text regardless of response shape.
func (m *Recalled) Text() string {
	if m == nil {
		return ""
	}
	if s := strings.TrimSpace(m.Experience.Content); s != "" {
		return s
	}
	return strings.TrimSpace(m.Content)
}

// APIError represents a non-2xx response from the memory service.
type APIError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *APIError) Error() string {
	if e == nil {
		return "memory: api error <nil>"
	}
	msg := strings.TrimSpace(string(e.Body))
	if msg != "" {
		return fmt.Sprintf("memory: api error (%s): %s", e.Status, msg)
	}
	return fmt.Sprintf("memory: api error (%s)", e.Status)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if c == nil || hc == nil {
			return
		}
		c.httpClient = hc
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c == nil {
			return
		}
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// Client is the façade over the memory service's store/recall/admin API.
// Authentication is a static X-API-Key header.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL string, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type rememberRequest struct {
	UserID     string   `json:"user_id"`
	Content    string   `json:"content"`
	MemoryType string   `json:"memory_type"`
	Tags       []string `json:"tags,omitempty"`
}

// Remember stores one unit under the given user namespace.
func (c *Client) Remember(ctx context.Context, userID string, unit Unit) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return errors.New("memory: empty user id")
	}

	req := rememberRequest{
		UserID:     userID,
		Content:    unit.Content,
		MemoryType: unit.MemoryType,
		Tags:       unit.Tags,
	}
	return c.post(ctx, "/api/remember", req, nil)
}

type rememberBatchRequest struct {
	UserID   string       `json:"user_id"`
	Memories []Unit       `json:"memories"`
	Options  BatchOptions `json:"options"`
}

type rememberBatchResponse struct {
	Created int `json:"created"`
}

// RememberBatch stores units in one call and returns the created count.
func (c *Client) RememberBatch(ctx context.Context, userID string, units []Unit, opts BatchOptions) (int, error) {
	if err := c.check(ctx); err != nil {
		return 0, err
	}
	if strings.TrimSpace(userID) == "" {
		return 0, errors.New("memory: empty user id")
	}
	if len(units) == 0 {
		return 0, nil
	}

	var resp rememberBatchResponse
	if err := c.post(ctx, "/api/remember/batch", rememberBatchRequest{
		UserID:   userID,
		Memories: units,
		Options:  opts,
	}, &resp); err != nil {
		return 0, err
	}
	return resp.Created, nil
}

type recallRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Mode   string `json:"mode"`
}

type recallResponse struct {
	Memories []Recalled `json:"memories"`
}

// Recall returns ranked evidence for the query. Mode selects the service's
// retrieval strategy (hybrid, associative, ...). An empty result is valid.
func (c *Client) Recall(ctx context.Context, userID string, query string, limit int, mode string) ([]Recalled, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("memory: empty user id")
	}
	if limit <= 0 {
		limit = 5
	}
	if strings.TrimSpace(mode) == "" {
		mode = "hybrid"
	}

	var resp recallResponse
	if err := c.post(ctx, "/api/recall", recallRequest{
		UserID: userID,
		Query:  query,
		Limit:  limit,
		Mode:   mode,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.Memories, nil
}

// DeleteUser removes a user namespace; purge also drops derived graph state.
func (c *Client) DeleteUser(ctx context.Context, userID string, purge bool) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("memory: empty user id")
	}

	endpoint := c.baseURL + "/api/users/" + url.PathEscape(userID)
	if purge {
		endpoint += "?purge=true"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("memory: build request: %w", err)
	}
	return c.do(req, nil)
}

// Health pings the service's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("memory: build request: %w", err)
	}
	return c.do(req, nil)
}

func (c *Client) check(ctx context.Context) error {
	if c == nil || c.httpClient == nil {
		return errors.New("memory: nil client")
	}
	if ctx == nil {
		return errors.New("memory: nil context")
	}
	if c.baseURL == "" {
		return errors.New("memory: empty base url")
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("memory: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("memory: build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("memory: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       raw,
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("memory: parse response: %w", err)
	}
	return nil
}
