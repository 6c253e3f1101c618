// Package imagegen talks to the external image-generation API.
package imagegen

import (
	"context"
	"errors"
)

var (
	// ErrMissingAPIKey is returned by constructors when no credential is configured.
	ErrMissingAPIKey = errors.New("api key is required")
	// ErrNoImageData is returned when the API answers without an image payload.
	ErrNoImageData = errors.New("no image data returned from the image API")
)

// Generator produces one image for a prompt and returns it as a base64-encoded payload.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
