package imagegen

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"comicapi/internal/config"
)

// OpenAIGenerator implements Generator with the OpenAI images API.
// It is safe for concurrent use by multiple goroutines.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	size   string
}

// NewOpenAI builds a generator from cfg. It fails with ErrMissingAPIKey when cfg.APIKey is empty.
func NewOpenAI(cfg config.OpenAIConfig) (*OpenAIGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	occ := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		occ.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	hc := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	if cfg.TimeoutSec > 0 {
		hc.Timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	occ.HTTPClient = hc

	model := cfg.Model
	if model == "" {
		model = "gpt-image-1"
	}
	size := cfg.Size
	if size == "" {
		size = openai.CreateImageSize1024x1024
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(occ),
		model:  model,
		size:   size,
	}, nil
}

var _ Generator = (*OpenAIGenerator)(nil)

// Generate requests exactly one image and returns its base64 payload.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ImageRequest{
		Prompt: prompt,
		Model:  g.model,
		N:      1,
		Size:   g.size,
	}
	// gpt-image models always answer with base64 and reject response_format.
	if !strings.HasPrefix(g.model, "gpt-image") {
		req.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	resp, err := g.client.CreateImage(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", ErrNoImageData
	}
	return resp.Data[0].B64JSON, nil
}
