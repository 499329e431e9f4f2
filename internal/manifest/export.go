package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// IndexEntry is one line of the export index.
type IndexEntry struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	File      string    `json:"file"`
	CreatedAt time.Time `json:"created_at"`
}

const exportPage = 100

// Export writes every stored manifest to dir/<id>.json and an index.json
// listing them newest first. It returns the number of manifests written.
func Export(ctx context.Context, repo *Repo, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure export dir: %w", err)
	}

	index := make([]IndexEntry, 0)
	for offset := 0; ; offset += exportPage {
		recs, err := repo.List(ctx, exportPage, offset)
		if err != nil {
			return 0, err
		}
		for _, rec := range recs {
			body, err := repo.GetManifestJSON(ctx, rec.ID)
			if err != nil {
				return 0, err
			}
			if body == nil {
				// deleted between list and read
				continue
			}
			name := rec.ID + ".json"
			if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
				return 0, fmt.Errorf("write %s: %w", name, err)
			}
			index = append(index, IndexEntry{ID: rec.ID, Label: rec.Label, File: name, CreatedAt: rec.CreatedAt})
		}
		if len(recs) < exportPage {
			break
		}
	}

	b, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.json"), b, 0o644); err != nil {
		return 0, fmt.Errorf("write index: %w", err)
	}
	return len(index), nil
}
