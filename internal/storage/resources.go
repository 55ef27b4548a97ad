// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/scribe-tui/internal/model"
)

// =============================================================================
// RESOURCE STORE
// =============================================================================

// ResourceStore copies uploaded attachment files into managed storage so
// messages can reference them after the source file moves or disappears.
type ResourceStore struct {
	// BaseDir is the directory for stored resources
	// Default: ~/.scribe/resources/
	BaseDir string
}

// NewResourceStore creates a resource store rooted at the default
// directory.
func NewResourceStore() (*ResourceStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewResourceStoreWithDir(filepath.Join(homeDir, ".scribe", "resources"))
}

// NewResourceStoreWithDir creates a resource store with a custom directory.
func NewResourceStoreWithDir(baseDir string) (*ResourceStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &ResourceStore{BaseDir: baseDir}, nil
}

// Store copies one file into managed storage and returns its resource
// record. The stored copy is named by resource id to avoid collisions
// between same-named uploads.
func (s *ResourceStore) Store(sourcePath string) (model.Resource, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return model.Resource{}, err
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return model.Resource{}, err
	}
	defer src.Close()

	id := model.NewResourceID()
	ext := filepath.Ext(sourcePath)
	storedPath := filepath.Join(s.BaseDir, id+ext)

	dst, err := os.OpenFile(storedPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return model.Resource{}, err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(storedPath)
		return model.Resource{}, err
	}
	if err := dst.Close(); err != nil {
		os.Remove(storedPath)
		return model.Resource{}, err
	}

	return model.Resource{
		ID:         id,
		Name:       filepath.Base(sourcePath),
		SourcePath: sourcePath,
		StoredPath: storedPath,
		MimeType:   mime.TypeByExtension(ext),
		Size:       info.Size(),
		UploadedAt: time.Now(),
	}, nil
}

// StoreAll copies a batch of files and returns their resource records.
// Fails on the first error; already-stored copies from the batch are
// removed so a failed upload leaves nothing behind.
func (s *ResourceStore) StoreAll(paths []string) ([]model.Resource, error) {
	var resources []model.Resource
	for _, path := range paths {
		res, err := s.Store(path)
		if err != nil {
			for _, stored := range resources {
				os.Remove(stored.StoredPath)
			}
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, nil
}

// Remove deletes a stored resource file. Missing files are not an error.
func (s *ResourceStore) Remove(res model.Resource) error {
	err := os.Remove(res.StoredPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
