package grpcserver

import (
	"encoding/json"

	"iiifhub/pkg/models"
)

type AssembleRequest struct {
	Resources []models.ImageResource    `json:"resources"`
	Metadata  models.DescriptiveMetadata `json:"metadata"`
	FileIDs   []string                   `json:"file_ids,omitempty"`
}

type AssembleResponse struct {
	ID       string          `json:"id"`
	Manifest json.RawMessage `json:"manifest"`
}

type ImportRequest struct {
	URL string `json:"url"`
}

type ImportResponse struct {
	Resources []models.ImageResource `json:"resources"`
	Count     int                    `json:"count"`
}

type GetManifestRequest struct {
	ID string `json:"id"`
}

type GetManifestResponse struct {
	ID       string          `json:"id"`
	Manifest json.RawMessage `json:"manifest"`
}
