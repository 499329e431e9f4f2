package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IIIFHUB_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, int64(500000), cfg.Upload.CompressThreshold)
	assert.Equal(t, 2000, cfg.Upload.MaxDimension)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "iiifhub.yaml")
	content := `
http_addr: ":9000"
public_base_url: "https://yaml.example/"
fetch_timeout: 5s
upload:
  max_dimension: 1200
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("IIIFHUB_CONFIG", path)
	t.Setenv("IIIFHUB_HTTP_ADDR", ":9100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.HTTPAddr, "env wins over yaml")
	assert.Equal(t, "https://yaml.example", cfg.PublicBaseURL, "trailing slash trimmed")
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 1200, cfg.Upload.MaxDimension)
	assert.Equal(t, 80, cfg.Upload.JPEGQuality, "default kept")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IIIFHUB_CONFIG", "")
	t.Setenv("IIIFHUB_FETCH_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}
