// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ImageStore holds prefetched artwork as raw bytes on disk, keyed by
// source URL. Bytes are never decoded; decoding is the presentation
// layer's concern.
type ImageStore struct {
	dir string
}

// NewImageStore creates an image store rooted at dir. The directory is
// created lazily on first write.
func NewImageStore(dir string) *ImageStore {
	return &ImageStore{dir: dir}
}

// Path returns the backing file path for a source URL.
func (s *ImageStore) Path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+".img")
}

// Put atomically stores the image bytes fetched from url.
func (s *ImageStore) Put(url string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ErrWriteFailure, s.dir, err)
	}

	path := s.Path(url)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write image: %v", ErrWriteFailure, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: replace image: %v", ErrWriteFailure, err)
	}
	return nil
}

// Has reports whether an image for url is already cached.
func (s *ImageStore) Has(url string) bool {
	_, err := os.Stat(s.Path(url))
	return err == nil
}

// Get returns the cached bytes for url. Returns ErrNotFound when no
// image is cached and ErrReadFailure for any other read problem.
func (s *ImageStore) Get(url string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(url))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: image %s", ErrNotFound, url)
		}
		return nil, fmt.Errorf("%w: read image: %v", ErrReadFailure, err)
	}
	return data, nil
}

// Remove deletes the cached image for url, if any.
func (s *ImageStore) Remove(url string) error {
	if err := os.Remove(s.Path(url)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove image: %v", ErrWriteFailure, err)
	}
	return nil
}

// Clear deletes the image directory and recreates it empty.
func (s *ImageStore) Clear() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("%w: clear %s: %v", ErrWriteFailure, s.dir, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: recreate %s: %v", ErrWriteFailure, s.dir, err)
	}
	return nil
}
