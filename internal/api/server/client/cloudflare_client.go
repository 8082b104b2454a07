package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bz888/scribe/internal/gateway"
	"github.com/bz888/scribe/internal/logger"
)

const DefaultImageModel = "@cf/stabilityai/stable-diffusion-xl-base-1.0"

var (
	jpegMagic = []byte{0xff, 0xd8, 0xff}
	pngMagic  = []byte{0x89, 'P', 'N', 'G'}
)

// CloudflareClient runs text-to-image models on Cloudflare Workers AI.
type CloudflareClient struct {
	*Client
	log *logger.Logger
}

type CloudflareConfig struct {
	AccountID string
	APIToken  string
	Model     string
	BaseURL   string
	Timeout   time.Duration
}

// NewCloudflareClient validates credentials up front; the returned client is
// meant to be kept for the lifetime of the gateway.
func NewCloudflareClient(cfg CloudflareConfig) (*CloudflareClient, error) {
	if strings.TrimSpace(cfg.AccountID) == "" || strings.TrimSpace(cfg.APIToken) == "" {
		return nil, gateway.ConfigError("cloudflare", "missing CLOUDFLARE_API_TOKEN or CLOUDFLARE_ACCOUNT_ID")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultImageModel
	}

	c, err := NewClient(ClientConfig{
		Name:     "cloudflare",
		BaseURL:  cfg.BaseURL,
		Scheme:   "https",
		Host:     "api.cloudflare.com",
		ChatPath: fmt.Sprintf("/client/v4/accounts/%s/ai/run/%s", cfg.AccountID, cfg.Model),
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	c.headers.Set("Authorization", "Bearer "+cfg.APIToken)

	return &CloudflareClient{Client: c, log: logger.NewLogger("cloudflare client")}, nil
}

// Generate posts {prompt, width, height, ...extra} and returns every image
// found in the response, in order.
func (c *CloudflareClient) Generate(ctx context.Context, req gateway.ImageRequest) ([][]byte, error) {
	payload := make(map[string]any, len(req.Extra)+3)
	for k, v := range req.Extra {
		payload[k] = v
	}
	payload["prompt"] = req.Prompt
	payload["width"] = req.Width
	payload["height"] = req.Height

	resp, err := c.postJSON(ctx, c.GetChatURL(), payload)
	if err != nil {
		return nil, err
	}
	c.log.Info("image response: status ", resp.status, ", ", len(resp.body), " bytes")

	return parseImageResponse(c.name, resp)
}

func parseImageResponse(op string, resp *response) ([][]byte, error) {
	if resp.status != http.StatusOK {
		return nil, gateway.BackendError(op, resp.status, errorDetail(resp.body))
	}
	if len(resp.body) == 0 {
		return nil, gateway.DecodeError(op, "empty response body", nil, nil)
	}
	if strings.HasPrefix(resp.contentType, "image/") || isImageData(resp.body) {
		return [][]byte{resp.body}, nil
	}

	var data struct {
		Result json.RawMessage `json:"result"`
		Error  any             `json:"error"`
		Errors []any           `json:"errors"`
	}
	if err := json.Unmarshal(resp.body, &data); err != nil {
		return nil, gateway.DecodeError(op, "invalid response format", resp.body, err)
	}

	if len(data.Result) == 0 || string(data.Result) == "null" {
		if data.Error != nil || len(data.Errors) > 0 {
			return nil, gateway.BackendError(op, resp.status, errorDetail(resp.body))
		}
		return nil, gateway.DecodeError(op, "no result in response", resp.body, nil)
	}

	encoded, err := imageFields(data.Result)
	if err != nil {
		return nil, gateway.DecodeError(op, "invalid result", resp.body, err)
	}
	if len(encoded) == 0 {
		return nil, gateway.DecodeError(op, "no image in result", resp.body, nil)
	}

	images := make([][]byte, 0, len(encoded))
	for i, s := range encoded {
		img, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, gateway.DecodeError(op, fmt.Sprintf("decoding image %d", i), resp.body, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// imageFields collects base64 strings from {image}, {images:[...]} and
// [{image}, ...] results.
func imageFields(raw json.RawMessage) ([]string, error) {
	type entry struct {
		Image  string   `json:"image"`
		Images []string `json:"images"`
	}

	var out []string
	collect := func(e entry) {
		if e.Image != "" {
			out = append(out, e.Image)
		}
		for _, img := range e.Images {
			if img != "" {
				out = append(out, img)
			}
		}
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []entry
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		for _, e := range list {
			collect(e)
		}
		return out, nil
	}

	var single entry
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	collect(single)
	return out, nil
}

func isImageData(body []byte) bool {
	head := body
	if len(head) > 10 {
		head = head[:10]
	}
	return bytes.HasPrefix(body, jpegMagic) || bytes.Contains(head, pngMagic)
}
