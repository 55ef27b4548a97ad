// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// RESOURCE TYPE
// =============================================================================

// Resource is a reference to an uploaded attachment. Uploads happen before
// the user message is persisted, so a persisted message only ever carries
// fully materialized references.
type Resource struct {
	ID string `json:"id"`

	// Name is the display name (the base name of the uploaded file).
	Name string `json:"name"`

	// SourcePath is the local path the file was uploaded from.
	SourcePath string `json:"source_path"`

	// StoredPath is where the upload landed inside the data directory.
	StoredPath string `json:"stored_path"`

	// MimeType as sniffed at upload time (best effort, may be empty).
	MimeType string `json:"mime_type,omitempty"`

	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewResourceID creates a unique resource ID.
func NewResourceID() string {
	return "res_" + uuid.NewString()
}
