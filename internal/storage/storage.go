package storage

import (
	"context"
	"errors"
	"time"
)

// Package storage persists generated images as flat PNG files and scans them back for listing.
// The directory is the only store; nothing is indexed in memory between calls.

// ErrInvalidInput is returned when a payload is empty or is not decodable image data.
var ErrInvalidInput = errors.New("invalid image payload")

// ImageInfo describes one stored image.
// Path is relative to the store's base directory and always uses forward slashes.
type ImageInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// ImageStore saves base64 image payloads and reads stored images back.
type ImageStore interface {
	// Save decodes a base64 payload (optionally prefixed with a data URI header), normalizes it
	// to an RGBA PNG and writes it under a unique timestamp-derived name. It returns the relative path.
	Save(ctx context.Context, payload string) (string, error)
	// List returns at most limit images, newest modification time first.
	// A missing or empty directory yields an empty slice.
	List(ctx context.Context, limit int) ([]ImageInfo, error)
	// Read returns the raw bytes of an image previously returned by Save or List.
	Read(ctx context.Context, path string) ([]byte, error)
}
