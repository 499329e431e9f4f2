package grpcserver

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"iiifhub/internal/apperr"
	"iiifhub/internal/manifest"
	"iiifhub/pkg/models"
)

type memManifests struct {
	mu     sync.Mutex
	asm    *manifest.Assembler
	stored map[string]json.RawMessage
}

func (m *memManifests) Create(ctx context.Context, resources []models.ImageResource, meta models.DescriptiveMetadata, fileIDs []string) (*models.Manifest, error) {
	out, err := m.asm.Assemble(resources, meta, "https://hub.example")
	if err != nil {
		return nil, err
	}
	body, _ := json.Marshal(out)
	m.mu.Lock()
	m.stored[manifest.RecordID(out)] = body
	m.mu.Unlock()
	return out, nil
}

func (m *memManifests) Get(ctx context.Context, id string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.stored[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "test.get", "manifest not found")
	}
	return body, nil
}

type stubImporter struct {
	resources []models.ImageResource
	err       error
}

func (s stubImporter) Import(ctx context.Context, url string) ([]models.ImageResource, error) {
	return s.resources, s.err
}

func dial(t *testing.T, imp Importer) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	Register(s, NewServer(&memManifests{asm: manifest.NewAssembler(), stored: map[string]json.RawMessage{}}, imp, nil))
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestAssembleThenGet(t *testing.T) {
	c := dial(t, stubImporter{})
	ctx := context.Background()

	resp, err := c.Assemble(ctx, &AssembleRequest{
		Resources: []models.ImageResource{{ID: "e0", URL: "https://img.example/a.jpg", Origin: models.OriginExternal}},
		Metadata:  models.DescriptiveMetadata{Title: "Over the wire"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)

	var m models.Manifest
	require.NoError(t, json.Unmarshal(resp.Manifest, &m))
	assert.Equal(t, "Over the wire", m.Label.First("en"))

	got, err := c.GetManifest(ctx, &GetManifestRequest{ID: resp.ID})
	require.NoError(t, err)
	assert.JSONEq(t, string(resp.Manifest), string(got.Manifest))
}

func TestErrorCodes(t *testing.T) {
	ctx := context.Background()

	c := dial(t, stubImporter{err: apperr.Fetch("importer.import", 404, "failed to fetch manifest")})

	_, err := c.Assemble(ctx, &AssembleRequest{Metadata: models.DescriptiveMetadata{Title: "x"}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.GetManifest(ctx, &GetManifestRequest{ID: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.GetManifest(ctx, &GetManifestRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Import(ctx, &ImportRequest{URL: "https://x.org/m"})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	c = dial(t, stubImporter{err: apperr.Format("importer.extract", "document is not a IIIF manifest")})
	_, err = c.Import(ctx, &ImportRequest{URL: "https://x.org/m"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestImport(t *testing.T) {
	c := dial(t, stubImporter{resources: []models.ImageResource{{ID: "external-0", URL: "https://a/b.jpg", Origin: models.OriginExternal}}})

	resp, err := c.Import(context.Background(), &ImportRequest{URL: "https://x.org/m"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "https://a/b.jpg", resp.Resources[0].URL)
}
