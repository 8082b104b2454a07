package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bz888/scribe/internal/gateway"
)

const defaultTimeout = 60 * time.Second

// Client holds the long-lived HTTP client and resolved endpoint of one backend.
type Client struct {
	name    string
	base    *url.URL
	http    *http.Client
	chatUrl *url.URL
	headers http.Header
}

// ClientConfig holds the configuration for the client
type ClientConfig struct {
	Name     string
	BaseURL  string // overrides Scheme and Host when set
	Scheme   string
	Host     string
	ChatPath string
	Timeout  time.Duration
}

// NewClient creates a new API client with configurable base URL and endpoint
func NewClient(config ClientConfig) (*Client, error) {
	baseURL := &url.URL{Scheme: config.Scheme, Host: config.Host}
	if config.BaseURL != "" {
		parsed, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
		if err != nil {
			return nil, gateway.ConfigError(config.Name, "invalid base url: "+err.Error())
		}
		baseURL = parsed
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		name:    config.Name,
		base:    baseURL,
		http:    &http.Client{Timeout: timeout},
		chatUrl: baseURL.JoinPath(config.ChatPath),
		headers: make(http.Header),
	}, nil
}

func (c *Client) GetChatURL() string {
	return c.chatUrl.String()
}

type response struct {
	status      int
	contentType string
	body        []byte
}

// postJSON sends data to endpoint and returns the raw response. Transport
// failures are reported as gateway network errors.
func (c *Client) postJSON(ctx context.Context, endpoint string, data any) (*response, error) {
	bts, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(bts))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		request.Header[k] = v
	}

	resp, err := c.http.Do(request)
	if err != nil {
		return nil, gateway.NetworkError(c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gateway.NetworkError(c.name, err)
	}

	return &response{
		status:      resp.StatusCode,
		contentType: strings.ToLower(resp.Header.Get("Content-Type")),
		body:        body,
	}, nil
}

// errorDetail extracts a human readable message from an error payload. It
// understands {"error":"..."}, {"error":{"message":"..."}} and
// {"errors":[{"message":"..."}]}; anything else is returned raw.
func errorDetail(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		if len(bytes.TrimSpace(body)) == 0 {
			return "empty response body"
		}
		return gateway.Snippet(body)
	}

	switch e := payload["error"].(type) {
	case string:
		if e != "" {
			return e
		}
	case map[string]any:
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
	}

	if list, ok := payload["errors"].([]any); ok {
		var msgs []string
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				if msg, ok := m["message"].(string); ok && msg != "" {
					msgs = append(msgs, msg)
				}
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return gateway.Snippet(body)
}
