package manifest

import (
	"context"
	"encoding/json"
	"path"

	"github.com/charmbracelet/log"

	"iiifhub/internal/apperr"
	"iiifhub/internal/logging"
	"iiifhub/pkg/models"
)

// Service assembles manifests and keeps them so their ids resolve.
type Service struct {
	Assembler *Assembler
	Repo      *Repo
	BaseURL   string
	Logger    *log.Logger
}

func NewService(repo *Repo, baseURL string, logger *log.Logger) *Service {
	return &Service{
		Assembler: NewAssembler(),
		Repo:      repo,
		BaseURL:   baseURL,
		Logger:    logging.Or(logger).WithPrefix("manifest"),
	}
}

// Create assembles and stores a manifest. fileIDs defaults to the ids of the
// local resources.
func (s *Service) Create(ctx context.Context, resources []models.ImageResource, meta models.DescriptiveMetadata, fileIDs []string) (*models.Manifest, error) {
	const op = "manifest.create"

	m, err := s.Assembler.Assemble(resources, meta, s.BaseURL)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(m)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, op, "encode manifest", err)
	}

	if fileIDs == nil {
		for _, r := range resources {
			if r.Origin == models.OriginLocal {
				fileIDs = append(fileIDs, r.ID)
			}
		}
	}

	rec := models.ManifestRecord{
		ID:          RecordID(m),
		Label:       meta.Title,
		Description: meta.Description,
		Manifest:    body,
		Metadata:    &meta,
		FileIDs:     fileIDs,
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperr.Wrap(apperr.KindValidation, op, "unknown file id", err)
		}
		return nil, apperr.Wrap(apperr.KindStorage, op, "store manifest", err)
	}

	s.Logger.Info("manifest stored", "id", rec.ID, "canvases", len(m.Items), "files", len(fileIDs))
	return m, nil
}

// Get returns the stored manifest document.
func (s *Service) Get(ctx context.Context, id string) (json.RawMessage, error) {
	const op = "manifest.get"

	body, err := s.Repo.GetManifestJSON(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, op, "load manifest", err)
	}
	if body == nil {
		return nil, apperr.New(apperr.KindNotFound, op, "manifest not found")
	}
	return body, nil
}

// UpdateMetadata replaces the descriptive metadata stored for manifest id.
func (s *Service) UpdateMetadata(ctx context.Context, id string, meta models.DescriptiveMetadata) error {
	const op = "manifest.update_metadata"

	body, err := s.Repo.GetManifestJSON(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, op, "load manifest", err)
	}
	if body == nil {
		return apperr.New(apperr.KindNotFound, op, "manifest not found")
	}
	if err := s.Repo.UpsertMetadata(ctx, id, meta); err != nil {
		return apperr.Wrap(apperr.KindStorage, op, "store metadata", err)
	}
	s.Logger.Info("metadata updated", "id", id)
	return nil
}

// RecordID is the storage key of m: the last segment of its IIIF id, so the
// id served at ManifestPath resolves back to the row.
func RecordID(m *models.Manifest) string {
	return path.Base(m.ID)
}
