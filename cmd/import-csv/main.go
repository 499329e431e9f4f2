package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"iiifhub/internal/importer"
	"iiifhub/internal/logging"
	"iiifhub/internal/manifest"
	"iiifhub/pkg/database"
	"iiifhub/pkg/models"
	"iiifhub/pkg/utils"
)

// Each row names a remote manifest (url) and the Dublin Core elements of the
// manifest built from its images; title is required.
func main() {
	in := flag.String("in", "data/manifests.csv", "input CSV path (url,title,... columns)")
	flag.Parse()

	cfg, err := utils.Load()
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		logger.Fatal("open db", "err", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("db migrate failed", "err", err)
	}

	f, err := os.Open(*in)
	if err != nil {
		logger.Fatal("open input", "err", err)
	}
	defer f.Close()

	imp := importer.NewNormalizer(importer.NewHTTPFetcher(cfg.FetchTimeout), logger)
	svc := manifest.NewService(manifest.NewRepo(db), cfg.PublicBaseURL, logger)

	sum, err := importRows(ctx, f, imp, svc, logger)
	if err != nil {
		logger.Fatal("import failed", "err", err)
	}
	logger.Info("import finished", "created", sum.Created, "failed", sum.Failed, "skipped", sum.Skipped)
}

type manifestImporter interface {
	Import(ctx context.Context, url string) ([]models.ImageResource, error)
}

type creator interface {
	Create(ctx context.Context, resources []models.ImageResource, meta models.DescriptiveMetadata, fileIDs []string) (*models.Manifest, error)
}

type summary struct {
	Created int
	Failed  int
	Skipped int
}

// importRows processes rows independently; one failing row never stops the
// rest. Only a malformed CSV is fatal.
func importRows(ctx context.Context, in io.Reader, imp manifestImporter, svc creator, logger *log.Logger) (summary, error) {
	var sum summary

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return sum, fmt.Errorf("read header: %w", err)
	}
	if _, ok := header["url"]; !ok {
		return sum, errors.New("missing url column")
	}

	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sum, err
		}

		url := valueAt(header, row, "url")
		var meta models.DescriptiveMetadata
		for _, name := range models.Elements {
			meta.Set(name, valueAt(header, row, name))
		}
		if url == "" || meta.Title == "" {
			sum.Skipped++
			continue
		}

		resources, err := imp.Import(ctx, url)
		if err == nil && len(resources) == 0 {
			err = errors.New("manifest has no images")
		}
		if err == nil {
			var m *models.Manifest
			m, err = svc.Create(ctx, resources, meta, []string{})
			if err == nil {
				sum.Created++
				logger.Info("manifest created", "line", line, "id", manifest.RecordID(m), "images", len(resources))
				continue
			}
		}
		sum.Failed++
		logger.Warn("row failed", "line", line, "url", url, "err", err)
	}
	return sum, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
