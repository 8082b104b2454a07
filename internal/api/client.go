package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bz888/scribe/internal/api/server/handlers"
	"github.com/bz888/scribe/internal/logger"
)

// Generation calls block until the backend answers, so the timeout is
// generous.
const defaultTimeout = 3 * time.Minute

// Client talks to the scribe API server on behalf of the TUI and CLI.
type Client struct {
	base *url.URL
	http *http.Client
	log  *logger.Logger
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Missing []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func NewClient(baseURL string) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: defaultTimeout},
		log:  logger.NewLogger("api client"),
	}, nil
}

func (c *Client) Status(ctx context.Context) (handlers.StatusResponse, error) {
	var out handlers.StatusResponse
	err := c.do(ctx, http.MethodGet, "/status", nil, &out)
	return out, err
}

func (c *Client) Options(ctx context.Context) (handlers.OptionsResponse, error) {
	var out handlers.OptionsResponse
	err := c.do(ctx, http.MethodGet, "/options", nil, &out)
	return out, err
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out handlers.CategoriesResponse
	err := c.do(ctx, http.MethodGet, "/templates", nil, &out)
	return out.Categories, err
}

func (c *Client) Category(ctx context.Context, name string) (handlers.CategoryResponse, error) {
	var out handlers.CategoryResponse
	err := c.do(ctx, http.MethodGet, "/templates/"+url.PathEscape(name), nil, &out)
	return out, err
}

func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var out handlers.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, &out); err != nil {
		return "", err
	}
	c.log.Info("Session created:", out.ID)
	return out.ID, nil
}

func (c *Client) Messages(ctx context.Context, sessionID string) ([]handlers.Message, error) {
	var out handlers.MessagesResponse
	err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "messages"), nil, &out)
	return out.Messages, err
}

// Chat sends text and returns the messages it appended.
func (c *Client) Chat(ctx context.Context, sessionID string, req handlers.ChatRequest) ([]handlers.Message, error) {
	c.log.Info("Input request:", req.Text)
	var out handlers.MessagesResponse
	err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "chat"), req, &out)
	return out.Messages, err
}

func (c *Client) Image(ctx context.Context, sessionID string, req handlers.ImageRequest) ([]handlers.Message, error) {
	var out handlers.MessagesResponse
	err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "images"), req, &out)
	return out.Messages, err
}

// Rework runs regenerate, expand or shorten on the message at index.
func (c *Client) Rework(ctx context.Context, sessionID string, index int, action string, req handlers.ReworkRequest) (handlers.Message, error) {
	var out handlers.Message
	path := sessionPath(sessionID, "messages", strconv.Itoa(index), action)
	err := c.do(ctx, http.MethodPost, path, req, &out)
	return out, err
}

func (c *Client) Template(ctx context.Context, sessionID string, req handlers.TemplateRequest) ([]handlers.Message, error) {
	var out handlers.MessagesResponse
	err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "template"), req, &out)
	return out.Messages, err
}

func (c *Client) Clear(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, sessionPath(sessionID, "messages"), nil, nil)
}

func (c *Client) Stats(ctx context.Context, sessionID string) (handlers.StatsResponse, error) {
	var out handlers.StatsResponse
	err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "stats"), nil, &out)
	return out, err
}

// Export returns the rendered chat history in format ("txt" or "md").
func (c *Client) Export(ctx context.Context, sessionID, format string) ([]byte, error) {
	path := sessionPath(sessionID, "export") + "?format=" + url.QueryEscape(format)
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func sessionPath(id string, parts ...string) string {
	segs := append([]string{"sessions", url.PathEscape(id)}, parts...)
	return "/" + strings.Join(segs, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Error("Failed to decode response:", err)
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// send performs the request and turns non-2xx answers into *APIError.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		bts, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize request: %w", err)
		}
		r = bytes.NewReader(bts)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("Failed to send request:", err)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload handlers.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Missing = payload.Missing
		}
		return nil, apiErr
	}
	return resp, nil
}
