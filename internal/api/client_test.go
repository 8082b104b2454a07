package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bz888/scribe/internal/api/server"
	"github.com/bz888/scribe/internal/api/server/handlers"
	"github.com/bz888/scribe/internal/chat"
	"github.com/bz888/scribe/internal/gateway"
	"github.com/bz888/scribe/internal/session"
	"github.com/bz888/scribe/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, messages []chat.Turn) (string, error) {
	return "echo: " + messages[len(messages)-1].Content, nil
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	catalog, err := templates.Load()
	require.NoError(t, err)

	gw := gateway.New(gateway.WithText(echoCompleter{}, nil))
	handler := handlers.NewHandler(session.NewRegistry(), session.NewController(gw, catalog), catalog, gw)

	srv := httptest.NewServer(server.NewRouter(handler))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL + "/")
	require.NoError(t, err)
	return c
}

func TestClientConversation(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	id, err := c.CreateSession(ctx)
	require.NoError(t, err)

	msgs, err := c.Chat(ctx, id, handlers.ChatRequest{Text: "hello"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "echo: hello", msgs[1].Text)

	msg, err := c.Rework(ctx, id, 1, "expand", handlers.ReworkRequest{})
	require.NoError(t, err)
	assert.Equal(t, "echo: Expand: echo: hello", msg.Text)

	st, err := c.Stats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Messages)

	md, err := c.Export(ctx, id, "md")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Chat History"))

	require.NoError(t, c.Clear(ctx, id))
	all, err := c.Messages(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestClientCatalog(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cats)

	cat, err := c.Category(ctx, "Marketing & Business")
	require.NoError(t, err)
	assert.Equal(t, "Product Description", cat.Templates[0].Name)

	opts, err := c.Options(ctx)
	require.NoError(t, err)
	assert.Contains(t, opts.Tones, "Formal")

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.TextAvailable)
	assert.False(t, status.ImageAvailable)
}

func TestClientErrors(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.Messages(ctx, "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	id, err := c.CreateSession(ctx)
	require.NoError(t, err)

	_, err = c.Template(ctx, id, handlers.TemplateRequest{
		Category: "Personal",
		Name:     "Thank You Note",
		Values:   map[string]string{},
	})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.NotEmpty(t, apiErr.Missing)
}
