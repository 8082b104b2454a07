package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bz888/scribe/internal/chat"
	"github.com/bz888/scribe/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newCloudflare(t *testing.T, handler http.HandlerFunc) *CloudflareClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewCloudflareClient(CloudflareConfig{
		AccountID: "acct",
		APIToken:  "token",
		BaseURL:   srv.URL,
	})
	require.NoError(t, err)
	return c
}

func TestCloudflareMissingCredentials(t *testing.T) {
	_, err := NewCloudflareClient(CloudflareConfig{AccountID: "acct"})
	assert.ErrorIs(t, err, gateway.ErrConfig)

	_, err = NewCloudflareClient(CloudflareConfig{APIToken: "token"})
	assert.ErrorIs(t, err, gateway.ErrConfig)
}

func TestCloudflareRequest(t *testing.T) {
	var got map[string]any
	c := newCloudflare(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/client/v4/accounts/acct/ai/run/"+DefaultImageModel, r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("raw-image"))
	})

	images, err := c.Generate(context.Background(), gateway.ImageRequest{
		Prompt: "a red apple",
		Width:  512,
		Height: 768,
		Extra:  map[string]any{"num_steps": 20},
	})

	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("raw-image")}, images)
	assert.Equal(t, "a red apple", got["prompt"])
	assert.EqualValues(t, 512, got["width"])
	assert.EqualValues(t, 768, got["height"])
	assert.EqualValues(t, 20, got["num_steps"])
}

func TestCloudflareImagesArray(t *testing.T) {
	first := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	second := base64.StdEncoding.EncodeToString([]byte{4, 5, 6})
	c := newCloudflare(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"result":{"images":["`+first+`","`+second+`"]}}`)
	})

	images, err := c.Generate(context.Background(), gateway.ImageRequest{Prompt: "x", Width: 1024, Height: 1024})

	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, []byte{1, 2, 3}, images[0])
	assert.Equal(t, []byte{4, 5, 6}, images[1])
}

func TestCloudflareQuotaExceeded(t *testing.T) {
	c := newCloudflare(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"quota exceeded"}`)
	})

	_, err := c.Generate(context.Background(), gateway.ImageRequest{Prompt: "x"})

	require.Error(t, err)
	assert.ErrorIs(t, err, gateway.ErrBackend)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "500")
}

func TestParseImageResponse(t *testing.T) {
	img := base64.StdEncoding.EncodeToString([]byte("png"))

	tests := []struct {
		name    string
		resp    response
		want    [][]byte
		wantErr error
	}{
		{
			name: "single image",
			resp: response{status: 200, body: []byte(`{"result":{"image":"` + img + `"}}`)},
			want: [][]byte{[]byte("png")},
		},
		{
			name: "list of results",
			resp: response{status: 200, body: []byte(`{"result":[{"image":"` + img + `"},{"image":"` + img + `"}]}`)},
			want: [][]byte{[]byte("png"), []byte("png")},
		},
		{
			name: "jpeg without content type",
			resp: response{status: 200, contentType: "application/octet-stream", body: []byte{0xff, 0xd8, 0xff, 0xe0}},
			want: [][]byte{{0xff, 0xd8, 0xff, 0xe0}},
		},
		{
			name: "png without content type",
			resp: response{status: 200, body: []byte("\x89PNG\r\n\x1a\n")},
			want: [][]byte{[]byte("\x89PNG\r\n\x1a\n")},
		},
		{
			name:    "empty body",
			resp:    response{status: 200},
			wantErr: gateway.ErrDecode,
		},
		{
			name:    "not json",
			resp:    response{status: 200, body: []byte("<html>oops</html>")},
			wantErr: gateway.ErrDecode,
		},
		{
			name:    "error payload without result",
			resp:    response{status: 200, body: []byte(`{"success":false,"errors":[{"message":"bad prompt"}]}`)},
			wantErr: gateway.ErrBackend,
		},
		{
			name:    "no recognised field",
			resp:    response{status: 200, body: []byte(`{"result":{"data":"abc"}}`)},
			wantErr: gateway.ErrDecode,
		},
		{
			name:    "invalid base64",
			resp:    response{status: 200, body: []byte(`{"result":{"image":"%%%"}}`)},
			wantErr: gateway.ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images, err := parseImageResponse("cloudflare", &tt.resp)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, images)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, images)
		})
	}
}

func TestParseImageResponseKeepsBodyForDiagnostics(t *testing.T) {
	_, err := parseImageResponse("cloudflare", &response{status: 200, body: []byte(`{"result":{"data":"abc"}}`)})

	var gwErr *gateway.Error
	require.ErrorAs(t, err, &gwErr)
	assert.Contains(t, gwErr.Body, `"data":"abc"`)
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "quota exceeded", errorDetail([]byte(`{"error":"quota exceeded"}`)))
	assert.Equal(t, "invalid key", errorDetail([]byte(`{"error":{"message":"invalid key","type":"auth"}}`)))
	assert.Equal(t, "a; b", errorDetail([]byte(`{"errors":[{"message":"a"},{"message":"b"}]}`)))
	assert.Equal(t, "empty response body", errorDetail(nil))
	assert.Equal(t, "Bad Gateway", errorDetail([]byte("Bad Gateway")))
}

func newGroq(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewGroqClient(OpenAIConfig{APIKey: "gsk_test", BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestGroqMissingKey(t *testing.T) {
	_, err := NewGroqClient(OpenAIConfig{})
	assert.ErrorIs(t, err, gateway.ErrConfig)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestGroqDefaultEndpoint(t *testing.T) {
	c, err := NewGroqClient(OpenAIConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.groq.com/openai/v1/chat/completions", c.GetChatURL())
}

func TestOpenAICompleteRequestShape(t *testing.T) {
	var got OpenAIChatRequest
	c := newGroq(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"id":"1","choices":[{"index":0,"message":{"role":"assistant","content":"  Hello!  "}}]}`)
	})

	reply, err := c.Complete(context.Background(), []chat.Turn{
		{Role: chat.RoleSystem, Content: "Use a formal tone."},
		{Role: chat.RoleUser, Content: "Hi"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello!", reply)
	assert.Equal(t, DefaultGroqModel, got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Hi", got.Messages[1].Content)
}

func TestOpenAICompleteErrors(t *testing.T) {
	t.Run("backend", func(t *testing.T) {
		c := newGroq(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"error":{"message":"rate limit reached"}}`)
		})
		_, err := c.Complete(context.Background(), nil)
		assert.ErrorIs(t, err, gateway.ErrBackend)
		assert.Contains(t, err.Error(), "rate limit reached")
	})

	t.Run("no choices", func(t *testing.T) {
		c := newGroq(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"choices":[]}`)
		})
		_, err := c.Complete(context.Background(), nil)
		assert.ErrorIs(t, err, gateway.ErrDecode)
	})

	t.Run("network", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		c, err := NewGroqClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
		require.NoError(t, err)
		srv.Close()

		_, err = c.Complete(context.Background(), nil)
		assert.ErrorIs(t, err, gateway.ErrNetwork)
	})
}

func TestOllamaComplete(t *testing.T) {
	var got OllamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"model":"llama3.2","message":{"role":"assistant","content":"hey\n"},"done":true,"eval_count":3}`)
	}))
	defer srv.Close()

	c, err := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	reply, err := c.Complete(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "hi"}})

	require.NoError(t, err)
	assert.Equal(t, "hey", reply)
	assert.False(t, got.Stream)
	assert.Equal(t, 0.7, got.Options.Temperature)
	assert.Equal(t, 1024, got.Options.NumPredict)
}

func TestGeminiMissingKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), GeminiConfig{})
	assert.ErrorIs(t, err, gateway.ErrConfig)
}

func TestGeminiContents(t *testing.T) {
	system, contents := geminiContents([]chat.Turn{
		{Role: chat.RoleSystem, Content: "Be brief."},
		{Role: chat.RoleUser, Content: "Hi"},
		{Role: chat.RoleAssistant, Content: "Hello"},
		{Role: chat.RoleUser, Content: "Again"},
	})

	assert.Equal(t, "Be brief.", system)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "Again", contents[2].Parts[0].Text)
}

func TestZeroTemperatureIsSent(t *testing.T) {
	zero := 0.0

	var groqReq OpenAIChatRequest
	groqSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&groqReq))
		io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer groqSrv.Close()

	groq, err := NewGroqClient(OpenAIConfig{APIKey: "k", BaseURL: groqSrv.URL, Temperature: &zero})
	require.NoError(t, err)
	_, err = groq.Complete(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, groqReq.Temperature)

	var ollamaReq OllamaChatRequest
	ollamaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ollamaReq))
		io.WriteString(w, `{"message":{"role":"assistant","content":"ok"},"done":true}`)
	}))
	defer ollamaSrv.Close()

	ollama, err := NewOllamaClient(OllamaConfig{BaseURL: ollamaSrv.URL, Temperature: &zero})
	require.NoError(t, err)
	_, err = ollama.Complete(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, ollamaReq.Options.Temperature)
}

func TestGeminiErrorKinds(t *testing.T) {
	err := geminiError(fmt.Errorf("generate: %w", genai.APIError{Code: 429, Message: "quota exceeded", Status: "RESOURCE_EXHAUSTED"}))
	assert.ErrorIs(t, err, gateway.ErrBackend)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")

	var gwErr *gateway.Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, 429, gwErr.Status)

	err = geminiError(&genai.APIError{Code: 500, Message: "internal"})
	assert.ErrorIs(t, err, gateway.ErrBackend)
	assert.Contains(t, err.Error(), "internal")

	err = geminiError(errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, err, gateway.ErrNetwork)
}
