package models

import (
	"encoding/json"
	"time"
)

// ManifestRecord is a stored manifest row.
type ManifestRecord struct {
	ID          string               `json:"id"`
	Label       string               `json:"label"`
	Description string               `json:"description,omitempty"`
	Manifest    json.RawMessage      `json:"manifest,omitempty"`
	Metadata    *DescriptiveMetadata `json:"metadata,omitempty"`
	FileIDs     []string             `json:"file_ids,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// FileRecord is a stored blob row.
type FileRecord struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	BlobID    string    `json:"blob_id"`
	FileType  string    `json:"file_type,omitempty"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
