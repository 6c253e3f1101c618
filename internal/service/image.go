package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"comicapi/internal/imagegen"
	"comicapi/internal/model"
	"comicapi/internal/prompt"
	"comicapi/internal/storage"
)

// MinTextLength is the minimum number of characters in a trimmed scene description.
const MinTextLength = 10

// DefaultListLimit is the hard cap on listed images. Smaller positive limits are honored.
const DefaultListLimit = 20

// listReadConcurrency bounds parallel file reads while building a listing.
const listReadConcurrency = 4

var (
	ErrTextTooShort  = fmt.Errorf("text must be at least %d characters long", MinTextLength)
	ErrNotConfigured = errors.New("image generator is not configured")
)

// GenerationError wraps any failure after validation: the API call, an empty payload or persistence.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "image generation failed: " + e.Err.Error() }

func (e *GenerationError) Unwrap() error { return e.Err }

var tracer = otel.Tracer("comicapi/internal/service")

// ImageService defines the use cases for comic panel images.
type ImageService interface {
	// Generate validates text, builds the prompt, requests one image and stores it.
	// It either fully succeeds or returns an error; nothing partial is returned.
	Generate(ctx context.Context, text string) (*model.GenerationResult, error)

	// List returns the most recently stored images, newest first.
	List(ctx context.Context) ([]model.ListedImage, error)
}

// imageService is a concrete implementation of ImageService.
// It keeps no state between requests.
type imageService struct {
	gen       imagegen.Generator
	store     storage.ImageStore
	listLimit int
}

// NewImageService constructs a new ImageService.
// gen may be nil, in which case Generate fails with ErrNotConfigured.
// listLimit is clamped to (0, DefaultListLimit].
func NewImageService(gen imagegen.Generator, store storage.ImageStore, listLimit int) ImageService {
	if listLimit <= 0 || listLimit > DefaultListLimit {
		listLimit = DefaultListLimit
	}
	return &imageService{gen: gen, store: store, listLimit: listLimit}
}

func (s *imageService) Generate(ctx context.Context, text string) (*model.GenerationResult, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinTextLength {
		return nil, ErrTextTooShort
	}
	if s.gen == nil {
		return nil, ErrNotConfigured
	}

	ctx, span := tracer.Start(ctx, "ImageService.Generate")
	defer span.End()

	p := prompt.Build(text)
	span.SetAttributes(attribute.Int("prompt.length", len(p)))

	b64, err := s.gen.Generate(ctx, p)
	if err == nil && b64 == "" {
		err = imagegen.ErrNoImageData
	}
	if err != nil {
		return nil, s.fail(span, err)
	}

	path, err := s.store.Save(ctx, b64)
	if err != nil {
		return nil, s.fail(span, err)
	}
	span.SetAttributes(attribute.String("image.path", path))

	return &model.GenerationResult{
		Status:     model.StatusSuccess,
		ImageURL:   model.PNGDataURI(b64),
		FilePath:   path,
		PromptUsed: p,
	}, nil
}

func (s *imageService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return &GenerationError{Err: err}
}

// List reads the newest stored images and returns each as a data URI.
func (s *imageService) List(ctx context.Context) ([]model.ListedImage, error) {
	infos, err := s.store.List(ctx, s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	items := make([]model.ListedImage, len(infos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listReadConcurrency)
	for i, info := range infos {
		g.Go(func() error {
			data, err := s.store.Read(gctx, info.Path)
			if err != nil {
				return fmt.Errorf("read %s: %w", info.Path, err)
			}
			items[i] = model.ListedImage{
				FilePath: info.Path,
				ImageURL: model.PNGDataURI(base64.StdEncoding.EncodeToString(data)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}
