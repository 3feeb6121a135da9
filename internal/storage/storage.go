// Package storage holds blob stores that accept uploaded files and hand back
// public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Object identifies a stored blob.
type Object struct {
	Key string
	URL string
}

// BlobStore persists file bytes and serves them under a public URL.
type BlobStore interface {
	Store(ctx context.Context, r io.Reader, filename string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// LocalStore keeps blobs in a directory served under baseURL.
type LocalStore struct {
	dir     string
	baseURL string
	logger  *slog.Logger
}

var _ BlobStore = (*LocalStore)(nil)

// NewLocalStore creates dir if needed. baseURL is the absolute URL the
// directory is served from, e.g. http://localhost:8080/uploads.
func NewLocalStore(dir, baseURL string, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid public base url: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}, nil
}

// Dir returns the directory blobs are written to.
func (s *LocalStore) Dir() string { return s.dir }

// Store writes r to a uniquely named file. The key keeps the original
// extension so static serving picks the right content type. Data is written
// to a temp file first; a failed copy leaves nothing behind.
func (s *LocalStore) Store(ctx context.Context, r io.Reader, filename string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := uuid.NewString() + strings.ToLower(path.Ext(filename))

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, key)); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("commit blob: %w", err)
	}

	s.logger.Debug("blob stored", slog.String("key", key), slog.String("filename", filename))
	return &Object{Key: key, URL: s.baseURL + "/" + key}, nil
}

// Delete removes a blob. Deleting a missing key is not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("invalid blob key %q", key)
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
