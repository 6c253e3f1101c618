package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
)

const (
	filePrefix = "scene_"
	fileExt    = ".png"
	// maxCollisionRetries bounds how far Save walks forward when a name already exists on disk.
	maxCollisionRetries = 1000
)

// LocalStore is an ImageStore on the local filesystem.
// It is safe for concurrent use by multiple goroutines.
type LocalStore struct {
	baseDir string
	dir     string
	now     func() time.Time
	// lastStamp holds the last issued stamp in microseconds since the epoch.
	lastStamp atomic.Int64
}

// NewLocal creates a store writing into baseDir/subdir, creating the directory if absent.
func NewLocal(baseDir, subdir string) (*LocalStore, error) {
	if subdir == "" {
		return nil, fmt.Errorf("generated images directory is required")
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	dir := filepath.Join(base, subdir)
	if rel, err := filepath.Rel(base, dir); err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("generated dir %q escapes base dir", subdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create generated dir: %w", err)
	}
	return &LocalStore{baseDir: base, dir: dir, now: time.Now}, nil
}

var _ ImageStore = (*LocalStore)(nil)

// Dir returns the absolute path of the generated images directory.
func (s *LocalStore) Dir() string { return s.dir }

// Save implements ImageStore.
func (s *LocalStore) Save(ctx context.Context, payload string) (string, error) {
	data, err := encodeRGBA(payload)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create generated dir: %w", err)
	}

	stamp := s.nextStamp()
	for i := 0; i < maxCollisionRetries; i++ {
		name := filepath.Join(s.dir, fileName(stamp))
		err := writeExclusive(name, data)
		if err == nil {
			return s.relative(name)
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("write image: %w", err)
		}
		stamp = s.bumpPast(stamp)
	}
	return "", fmt.Errorf("write image: no free file name after %d attempts", maxCollisionRetries)
}

// List implements ImageStore.
func (s *LocalStore) List(ctx context.Context, limit int) ([]ImageInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []ImageInfo{}, nil
		}
		return nil, fmt.Errorf("read generated dir: %w", err)
	}

	pngs := lo.Filter(entries, func(e fs.DirEntry, _ int) bool {
		return e.Type().IsRegular() && strings.HasSuffix(e.Name(), fileExt)
	})

	infos := make([]ImageInfo, 0, len(pngs))
	for _, e := range pngs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fi, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		rel, err := s.relative(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		infos = append(infos, ImageInfo{Path: rel, Size: fi.Size(), ModTime: fi.ModTime()})
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if !infos[i].ModTime.Equal(infos[j].ModTime) {
			return infos[i].ModTime.After(infos[j].ModTime)
		}
		return infos[i].Path > infos[j].Path
	})

	if limit >= 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

// Read implements ImageStore.
func (s *LocalStore) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full := filepath.Join(s.baseDir, filepath.FromSlash(path))
	rel, err := filepath.Rel(s.dir, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("path %q is outside the generated images directory", path)
	}
	return os.ReadFile(full)
}

func (s *LocalStore) relative(full string) (string, error) {
	rel, err := filepath.Rel(s.baseDir, full)
	if err != nil {
		return "", fmt.Errorf("relative path: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// nextStamp returns the current UTC time in microseconds, strictly greater than any stamp
// previously issued by this store.
func (s *LocalStore) nextStamp() int64 {
	now := s.now().UTC().UnixMicro()
	for {
		last := s.lastStamp.Load()
		next := now
		if next <= last {
			next = last + 1
		}
		if s.lastStamp.CompareAndSwap(last, next) {
			return next
		}
	}
}

// bumpPast reserves a stamp after taken, used when taken already exists on disk.
func (s *LocalStore) bumpPast(taken int64) int64 {
	for {
		last := s.lastStamp.Load()
		next := taken + 1
		if next <= last {
			next = last + 1
		}
		if s.lastStamp.CompareAndSwap(last, next) {
			return next
		}
	}
}

// fileName formats a microsecond stamp as scene_YYYYMMDDHHMMSSffffff.png.
func fileName(micros int64) string {
	t := time.UnixMicro(micros).UTC()
	return fmt.Sprintf("%s%s%06d%s", filePrefix, t.Format("20060102150405"), t.Nanosecond()/1000, fileExt)
}

// decodePayload strips an optional data URI header and decodes the base64 body.
func decodePayload(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: missing base64 image data", ErrInvalidInput)
	}
	if _, after, found := strings.Cut(payload, ","); found {
		payload = after
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, fmt.Errorf("%w: missing base64 image data", ErrInvalidInput)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return raw, nil
}

// encodeRGBA decodes the payload as an image and re-encodes it as an 8-bit RGBA PNG.
func encodeRGBA(payload string) ([]byte, error) {
	raw, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}

	var buf bytes.Buffer
	if err := encodePNGRGBA(&buf, toNRGBA(src)); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// toNRGBA copies src into a non-premultiplied RGBA buffer anchored at the origin.
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if n, ok := src.(*image.NRGBA); ok {
		row := b.Dx() * 4
		for y := 0; y < b.Dy(); y++ {
			off := n.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+row], n.Pix[off:off+row])
		}
		return dst
	}
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func writeExclusive(name string, data []byte) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(name)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}
