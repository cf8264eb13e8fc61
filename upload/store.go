// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

var (
	ErrTooLarge           = errors.New("upload exceeds size limit")
	ErrUnsupportedType    = errors.New("unsupported content type")
	ErrEmpty              = errors.New("upload is empty")
	ErrInvalidKey         = errors.New("invalid object key")
	ErrObjectNotFound     = errors.New("object not found")
	ErrStoreNotConfigured = errors.New("upload store not configured")
)

// Allowed content types and the extension stored objects get.
var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// Object describes a stored upload.
type Object struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Store is the object storage the handlers depend on.
type Store interface {
	Put(ctx context.Context, prefix, contentType string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, Object, error)
}

// DirStore keeps objects as files below a root directory.
type DirStore struct {
	root     string
	maxBytes int64
}

// NewDirStore creates root if needed.
func NewDirStore(root string, maxBytes int64) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DirStore{root: root, maxBytes: maxBytes}, nil
}

// Put stores r under "<prefix>/<uuid><ext>". The content is written to a
// temporary file first and renamed once it is complete and within limits.
func (s *DirStore) Put(ctx context.Context, prefix, contentType string, r io.Reader) (Object, error) {
	ext, ok := allowedTypes[contentType]
	if !ok {
		return Object{}, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if !validSegment(prefix) {
		return Object{}, fmt.Errorf("%w: prefix %q", ErrInvalidKey, prefix)
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}

	dir := filepath.Join(s.root, prefix)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Object{}, fmt.Errorf("failed to create upload directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	// Read one byte past the limit to tell "exactly max" from "too large".
	n, err := io.Copy(tmp, io.LimitReader(r, s.maxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Object{}, fmt.Errorf("failed to write upload: %w", err)
	}
	if n > s.maxBytes {
		return Object{}, fmt.Errorf("%w of %s", ErrTooLarge, humanize.IBytes(uint64(s.maxBytes)))
	}
	if n == 0 {
		return Object{}, ErrEmpty
	}

	key := path.Join(prefix, uuid.NewString()+ext)
	if err := os.Rename(tmp.Name(), s.filePath(key)); err != nil {
		return Object{}, fmt.Errorf("failed to store upload: %w", err)
	}

	slog.Info("object stored", "key", key, "size", humanize.IBytes(uint64(n)))
	return Object{Key: key, ContentType: contentType, Size: n}, nil
}

// Open returns a reader for a stored object.
func (s *DirStore) Open(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, Object{}, err
	}

	prefix, name := path.Split(key)
	prefix = strings.TrimSuffix(prefix, "/")
	if !validSegment(prefix) || !validSegment(name) {
		return nil, Object{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	f, err := os.Open(s.filePath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, Object{}, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("failed to open object: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Object{}, fmt.Errorf("failed to stat object: %w", err)
	}

	return f, Object{Key: key, ContentType: contentTypeFor(name), Size: info.Size()}, nil
}

func (s *DirStore) filePath(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// validSegment accepts a single non-hidden path element.
func validSegment(seg string) bool {
	if seg == "" || strings.HasPrefix(seg, ".") {
		return false
	}
	return !strings.ContainsAny(seg, `/\`)
}

func contentTypeFor(name string) string {
	ext := path.Ext(name)
	for ct, e := range allowedTypes {
		if e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}
