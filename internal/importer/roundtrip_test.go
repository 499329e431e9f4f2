package importer_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iiifhub/internal/importer"
	"iiifhub/internal/manifest"
	"iiifhub/pkg/models"
)

func TestAssembledManifestRoundTrips(t *testing.T) {
	resources := []models.ImageResource{
		{ID: "f1", Label: "one.jpg", Origin: models.OriginLocal, Path: "f1.jpg"},
		{ID: "external-0", Label: "Folio", URL: "https://img.example/a.jpg", Origin: models.OriginExternal, Width: 640, Height: 480},
		{ID: "f2", Origin: models.OriginLocal, Path: "f2.png", MediaType: "image/png"},
	}
	meta := models.DescriptiveMetadata{Title: "T", Rights: "R", Creator: "C"}

	m, err := manifest.NewAssembler().Assemble(resources, meta, "https://hub.example")
	require.NoError(t, err)

	body, err := json.Marshal(m)
	require.NoError(t, err)

	got, err := importer.Extract(body, nil)
	require.NoError(t, err)
	require.Len(t, got, len(m.Items))

	for i, c := range m.Items {
		b, ok := c.PaintingBody()
		require.True(t, ok)
		assert.Equal(t, b.ID, got[i].URL)
		assert.Equal(t, c.Label.First("en"), got[i].Label)
		assert.Equal(t, b.Width, got[i].Width)
		assert.Equal(t, b.Format, got[i].MediaType)
	}

	var doc struct {
		Metadata []models.MetadataEntry `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))
	back := models.MetadataFromEntries(doc.Metadata)
	assert.Equal(t, "R", back.Rights)
	assert.Equal(t, "C", back.Creator)
}
