// Package upload gates files before they reach blob storage and reaps blobs
// that were never attached to a submission.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/garnizeh/intake/internal/apperr"
	"github.com/garnizeh/intake/internal/storage"
)

// DefaultLimit is the size ceiling; files of this size or larger are refused.
const DefaultLimit int64 = 10 << 20

// DefaultExtensions are accepted when no list is configured.
var DefaultExtensions = []string{"pdf", "jpg", "jpeg", "png"}

// sniffed maps an extension to the content type its bytes must carry.
// Extensions outside this table are accepted on name alone.
var sniffed = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// File is an incoming upload. Size is the size the client declared.
type File struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Result describes an accepted and stored file.
type Result struct {
	URL      string
	Key      string
	Filename string
	MimeType string
	Size     int64
}

// Guard checks size and type, then forwards the bytes to a BlobStore.
// It keeps no state between calls.
type Guard struct {
	limit   int64
	allowed map[string]bool
	store   storage.BlobStore
	logger  *slog.Logger
}

// NewGuard builds a Guard. Zero limit and empty extensions use the defaults.
func NewGuard(store storage.BlobStore, limit int64, extensions []string, logger *slog.Logger) *Guard {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}
	return &Guard{limit: limit, allowed: allowed, store: store, logger: logger}
}

// Limit returns the size ceiling in bytes.
func (g *Guard) Limit() int64 { return g.limit }

// Check validates name and declared size without reading content.
func (g *Guard) Check(filename string, size int64) error {
	ext := extension(filename)
	if !g.allowed[ext] {
		return fmt.Errorf("%w: %q", apperr.ErrUnsupportedType, ext)
	}
	if size >= g.limit {
		return fmt.Errorf("%w: %d bytes", apperr.ErrPayloadTooLarge, size)
	}
	return nil
}

// Accept validates f and stores it. Nothing reaches the store unless both the
// declared and the actual size are under the limit and the content matches
// the extension.
func (g *Guard) Accept(ctx context.Context, f File) (*Result, error) {
	name := filepath.Base(strings.ReplaceAll(f.Filename, "\\", "/"))
	if err := g.Check(name, f.Size); err != nil {
		return nil, err
	}

	buf, err := io.ReadAll(io.LimitReader(f.Content, g.limit))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(buf)) >= g.limit {
		return nil, fmt.Errorf("%w: body exceeds declared size", apperr.ErrPayloadTooLarge)
	}

	mime := mimetype.Detect(buf)
	ext := extension(name)
	if want, ok := sniffed[ext]; ok && !mime.Is(want) {
		return nil, fmt.Errorf("%w: content is %s, not %s", apperr.ErrUnsupportedType, mime.String(), want)
	}

	obj, err := g.store.Store(ctx, bytes.NewReader(buf), name)
	if err != nil {
		return nil, apperr.Gateway("store blob", err)
	}

	g.logger.Info("upload accepted", slog.String("filename", name), slog.Int("size", len(buf)), slog.String("key", obj.Key))
	return &Result{URL: obj.URL, Key: obj.Key, Filename: name, MimeType: mime.String(), Size: int64(len(buf))}, nil
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
