package upload

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"iiifhub/pkg/models"
)

const chunkSize = 64 << 10

// FileStorage keeps blobs on local disk and registers each one in the files
// table. Blob names are <uuid><ext> so paths are safe to expose in URLs.
type FileStorage struct {
	Root       string
	PublicBase string
	Repo       *FileRepo
}

func NewFileStorage(root, publicBase string, repo *FileRepo) (*FileStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ensure storage dir: %w", err)
	}
	return &FileStorage{Root: root, PublicBase: strings.TrimRight(publicBase, "/"), Repo: repo}, nil
}

func (s *FileStorage) Upload(ctx context.Context, f File, progress func(int)) (Stored, error) {
	if len(f.Data) == 0 {
		return Stored{}, errors.New("empty file")
	}

	ext := strings.ToLower(extOf(f.Name))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(f.ContentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	blobID := uuid.NewString() + ext
	target := filepath.Join(s.Root, blobID)

	sum, err := s.write(ctx, target, f.Data, progress)
	if err != nil {
		_ = os.Remove(target)
		return Stored{}, err
	}

	rec := models.FileRecord{
		ID:       uuid.NewString(),
		Filename: f.Name,
		BlobID:   blobID,
		FileType: f.ContentType,
		Size:     int64(len(f.Data)),
		Checksum: sum,
	}
	if s.Repo != nil {
		if err := s.Repo.Create(ctx, rec); err != nil {
			_ = os.Remove(target)
			return Stored{}, err
		}
	}
	return Stored{ResourceID: rec.ID, Path: blobID}, nil
}

func (s *FileStorage) write(ctx context.Context, target string, data []byte, progress func(int)) (string, error) {
	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer out.Close()

	h, _ := blake2b.New256(nil)
	total := len(data)
	for off := 0; off < total; off += chunkSize {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		end := min(off+chunkSize, total)
		chunk := data[off:end]
		if _, err := out.Write(chunk); err != nil {
			return "", fmt.Errorf("write blob: %w", err)
		}
		h.Write(chunk)
		if progress != nil {
			progress(end * 100 / total)
		}
	}
	if err := out.Sync(); err != nil {
		return "", fmt.Errorf("sync blob: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// PublicURL is where clients download the blob stored at path.
func (s *FileStorage) PublicURL(path string) string {
	if path == "" {
		return ""
	}
	return s.PublicBase + "/files/" + path
}

// Open resolves a blob path inside Root, rejecting anything that escapes it.
func (s *FileStorage) Open(path string) (string, bool) {
	clean := filepath.Base(filepath.Clean("/" + path))
	if clean != path || clean == "." || clean == "/" {
		return "", false
	}
	full := filepath.Join(s.Root, clean)
	if st, err := os.Stat(full); err != nil || st.IsDir() {
		return "", false
	}
	return full, true
}

func (s *FileStorage) Exists(path string) bool {
	_, ok := s.Open(path)
	return ok
}
