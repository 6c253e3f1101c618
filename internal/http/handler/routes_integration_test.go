package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"comicapi/internal/model"
	"comicapi/internal/service"
	"comicapi/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	payload string
	calls   atomic.Int32
}

func (g *stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	g.calls.Add(1)
	return g.payload, nil
}

func tinyPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newStack(t *testing.T, gen *stubGenerator) (*fiber.App, string) {
	t.Helper()
	base := t.TempDir()
	store, err := storage.NewLocal(base, "generated")
	require.NoError(t, err)

	var svc service.ImageService
	if gen != nil {
		svc = service.NewImageService(gen, store, 20)
	} else {
		svc = service.NewImageService(nil, store, 20)
	}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, svc, nil)
	return app, base
}

func TestEndToEnd_GenerateThenList(t *testing.T) {
	gen := &stubGenerator{payload: tinyPNG(t)}
	app, base := newStack(t, gen)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/generate", `{"text":"  Two robots share an umbrella in the rain  "}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res model.GenerationResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "data:image/png;base64,"+gen.payload, res.ImageURL)
	assert.Contains(t, res.PromptUsed, "Two robots share an umbrella in the rain")
	assert.True(t, strings.HasPrefix(res.FilePath, "generated/scene_"))
	assert.FileExists(t, filepath.Join(base, res.FilePath))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/images", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []model.ListedImage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.Equal(t, res.FilePath, items[0].FilePath)

	onDisk, err := os.ReadFile(filepath.Join(base, res.FilePath))
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(onDisk), items[0].ImageURL)
}

func TestEndToEnd_ShortTextSkipsGenerator(t *testing.T) {
	gen := &stubGenerator{payload: tinyPNG(t)}
	app, _ := newStack(t, gen)

	for _, text := range []string{"", "         ", "123456789", "  abc  "} {
		body, _ := json.Marshal(model.GenerationRequest{Text: text})
		resp, err := app.Test(jsonRequest(http.MethodPost, "/generate", string(body)))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "text %q", text)
	}
	assert.Zero(t, gen.calls.Load())
}

func TestEndToEnd_Unconfigured(t *testing.T) {
	app, _ := newStack(t, nil)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/generate", `{"text":"A perfectly valid scene description"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "NOT_CONFIGURED", decodeError(t, resp).Code)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/images", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	assert.Equal(t, "[]", buf.String())
}

func TestEndToEnd_InvalidPayloadFromAPI(t *testing.T) {
	gen := &stubGenerator{payload: base64.StdEncoding.EncodeToString([]byte("not a png"))}
	app, base := newStack(t, gen)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/generate", `{"text":"A perfectly valid scene description"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "GENERATION_FAILED", body.Code)
	assert.True(t, strings.HasPrefix(body.Message, "Image generation failed: invalid image payload"))

	entries, err := os.ReadDir(filepath.Join(base, "generated"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
