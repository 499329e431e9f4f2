package manifest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"iiifhub/internal/apperr"
	"iiifhub/pkg/models"
)

// URL path shapes shared with the serving side. Changing them breaks every
// manifest already handed out.
const (
	ManifestPath    = "/api/manifests/iiif"
	DirectImagePath = "/api/direct-image"
	CanvasPath      = "/canvas"
	ProviderPath    = "/provider"
)

// Fallbacks used when a resource does not declare its own values.
const (
	DefaultWidth     = 1000
	DefaultHeight    = 1000
	DefaultMediaType = "image/jpeg"
)

// Assembler builds canonical manifests. It holds no mutable state and is safe
// for concurrent use.
type Assembler struct {
	// NewID returns a fresh globally unique manifest identifier.
	NewID func() string
}

func NewAssembler() *Assembler {
	return &Assembler{NewID: uuid.NewString}
}

// Assemble turns resources and metadata into one manifest. Canvas order equals
// resource order. It performs no I/O.
func (a *Assembler) Assemble(resources []models.ImageResource, meta models.DescriptiveMetadata, baseURL string) (*models.Manifest, error) {
	const op = "manifest.assemble"

	if err := validate(resources, meta, baseURL); err != nil {
		return nil, err
	}
	base := strings.TrimRight(baseURL, "/")

	newID := a.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	id := newID()
	if id == "" {
		return nil, apperr.New(apperr.KindValidation, op, "empty manifest id")
	}

	m := &models.Manifest{
		Context:          models.PresentationContext,
		ID:               base + ManifestPath + "/" + id,
		Type:             "Manifest",
		Label:            models.Lang(meta.Title),
		Metadata:         metadataEntries(meta),
		Items:            make([]models.Canvas, 0, len(resources)),
		ViewingDirection: models.ViewingLeftToRight,
	}
	if meta.Description != "" {
		m.Summary = models.Lang(meta.Description)
	}

	for i, r := range resources {
		m.Items = append(m.Items, canvasFor(base, i, r))
	}

	first, _ := m.Items[0].PaintingBody()
	m.Thumbnail = []models.ImageRef{{ID: first.ID, Type: "Image", Format: first.Format}}

	if meta.Rights != "" {
		m.Rights = meta.Rights
		m.RequiredStatement = &models.MetadataEntry{
			Label: models.Lang("Rights"),
			Value: models.Lang(meta.Rights),
		}
	}
	if meta.Publisher != "" {
		m.Provider = []models.Agent{{
			ID:    base + ProviderPath,
			Type:  "Agent",
			Label: models.Lang(meta.Publisher),
		}}
	}
	return m, nil
}

func validate(resources []models.ImageResource, meta models.DescriptiveMetadata, baseURL string) error {
	const op = "manifest.assemble"

	if len(resources) == 0 {
		return apperr.Validation(op, "at least one image resource is required")
	}
	if strings.TrimSpace(meta.Title) == "" {
		return apperr.Validation(op, "title is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		return apperr.Validation(op, "base url is required")
	}

	seen := make(map[string]struct{}, len(resources))
	for i, r := range resources {
		if r.ID == "" {
			return apperr.Validation(op, fmt.Sprintf("resource %d has no id", i))
		}
		if _, dup := seen[r.ID]; dup {
			return apperr.Validation(op, fmt.Sprintf("duplicate resource id %q", r.ID))
		}
		seen[r.ID] = struct{}{}

		switch r.Origin {
		case models.OriginLocal:
			if r.Path == "" {
				return apperr.Validation(op, fmt.Sprintf("local resource %q has no storage path", r.ID))
			}
		case models.OriginExternal:
			if r.URL == "" {
				return apperr.Validation(op, fmt.Sprintf("external resource %q has no url", r.ID))
			}
		default:
			return apperr.Validation(op, fmt.Sprintf("resource %q has unknown origin %q", r.ID, r.Origin))
		}
	}
	return nil
}

func canvasFor(base string, index int, r models.ImageResource) models.Canvas {
	canvasID := base + CanvasPath + "/" + r.ID

	label := r.Label
	if label == "" {
		label = fmt.Sprintf("Image %d", index+1)
	}
	width, height := r.Width, r.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	format := r.MediaType
	if format == "" {
		format = DefaultMediaType
	}

	return models.Canvas{
		ID:     canvasID,
		Type:   "Canvas",
		Label:  models.Lang(label),
		Height: height,
		Width:  width,
		Items: []models.AnnotationPage{{
			ID:   canvasID + "/page",
			Type: "AnnotationPage",
			Items: []models.Annotation{{
				ID:         canvasID + "/page/annotation",
				Type:       "Annotation",
				Motivation: models.MotivationPainting,
				Body: models.ImageBody{
					ID:     imageURL(base, r),
					Type:   "Image",
					Format: format,
					Height: height,
					Width:  width,
				},
				Target: canvasID,
			}},
		}},
	}
}

// imageURL keeps local images behind our redirect so manifests never depend
// on the storage provider's URL scheme.
func imageURL(base string, r models.ImageResource) string {
	if r.Origin == models.OriginLocal {
		return base + DirectImagePath + "/" + strings.TrimLeft(r.Path, "/")
	}
	return r.URL
}

// metadataEntries lists every non-empty element except title and description,
// which are promoted to label and summary.
func metadataEntries(meta models.DescriptiveMetadata) []models.MetadataEntry {
	var out []models.MetadataEntry
	for _, f := range meta.Fields() {
		if f.Value == "" || f.Name == "title" || f.Name == "description" {
			continue
		}
		out = append(out, models.MetadataEntry{
			Label: models.Lang(models.ElementLabel(f.Name)),
			Value: models.Lang(f.Value),
		})
	}
	return out
}
