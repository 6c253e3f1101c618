package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"comicapi/internal/model"
	serviceMocks "comicapi/internal/service/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, reg *prometheus.Registry) (*fiber.App, *serviceMocks.MockImageService) {
	t.Helper()
	mockSvc := new(serviceMocks.MockImageService)
	app, err := New(Options{
		Service:   mockSvc,
		AccessLog: io.Discard,
		Location:  time.UTC,
		Registry:  reg,
	})
	require.NoError(t, err)
	return app, mockSvc
}

func TestCORS(t *testing.T) {
	app, _ := newTestApp(t, nil)

	t.Run("preflight allows any origin, method and header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
		req.Header.Set("Origin", "https://comics.example.org")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-Custom-Header")

		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Headers"))
	})

	t.Run("simple request carries allow origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")

		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestNew_Routes(t *testing.T) {
	app, mockSvc := newTestApp(t, nil)
	mockSvc.On("List", mock.Anything).Return([]model.ListedImage{}, nil).Once()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/images", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	// Metrics stay off without a registry.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	mockSvc.AssertExpectations(t)
}

func TestNew_Metrics(t *testing.T) {
	app, _ := newTestApp(t, prometheus.NewRegistry())

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/health",status="200"} 1`)
}
