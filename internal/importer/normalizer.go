// Package importer turns foreign IIIF manifests (Presentation 2 or 3) into a
// uniform list of external image resources.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"iiifhub/internal/apperr"
	"iiifhub/internal/logging"
	"iiifhub/pkg/models"
)

type containerKind int

const (
	containerUnrecognized containerKind = iota
	containerV3
	containerV2
)

func (k containerKind) String() string {
	switch k {
	case containerV3:
		return "items"
	case containerV2:
		return "sequences"
	default:
		return "unrecognized"
	}
}

// container is the parsed top level of a manifest. Dispatch is decided by
// which key holds an array, never by a declared version.
type container struct {
	kind    containerKind
	entries []json.RawMessage // canvases for V3, sequences for V2
}

type document struct {
	Context   json.RawMessage `json:"@context"`
	Items     json.RawMessage `json:"items"`
	Sequences json.RawMessage `json:"sequences"`
}

// Normalizer fetches manifests and extracts their images. Each Import call is
// independent; concurrent calls are neither serialized nor de-duplicated.
type Normalizer struct {
	Fetcher Fetcher
	Logger  *log.Logger
}

func NewNormalizer(fetcher Fetcher, logger *log.Logger) *Normalizer {
	return &Normalizer{Fetcher: fetcher, Logger: logging.Or(logger).WithPrefix("importer")}
}

// Import fetches the manifest at rawURL and returns its images. Canvases that
// yield no image are skipped; an empty result is not an error.
func (n *Normalizer) Import(ctx context.Context, rawURL string) ([]models.ImageResource, error) {
	const op = "importer.import"

	target, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	resp, err := n.Fetcher.Get(ctx, target)
	if errors.Is(err, ErrDocumentTooLarge) {
		return nil, apperr.Wrap(apperr.KindFormat, op, "manifest is too large", err)
	}
	if err != nil {
		e := apperr.Fetch(op, 0, "failed to fetch manifest")
		e.Cause = err
		return nil, e
	}
	if resp.Status < 200 || resp.Status > 299 {
		return nil, apperr.Fetch(op, resp.Status, fmt.Sprintf("failed to fetch manifest: status %d", resp.Status))
	}

	resources, err := extract(resp.Body, n.logger())
	if err != nil {
		return nil, err
	}
	n.logger().Info("manifest imported", "url", target, "images", len(resources))
	return resources, nil
}

// Extract normalizes an already fetched manifest body.
func Extract(body []byte, logger *log.Logger) ([]models.ImageResource, error) {
	return extract(body, logging.Or(logger))
}

func (n *Normalizer) logger() *log.Logger {
	return logging.Or(n.Logger)
}

func validateURL(raw string) (string, error) {
	const op = "importer.import"

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.Validation(op, "url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", apperr.Validation(op, "invalid url format")
	}
	return u.String(), nil
}

func parseContainer(body []byte) (container, error) {
	const op = "importer.extract"

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return container{}, apperr.Format(op, "document is not a JSON object")
	}

	hasContext := len(bytes.TrimSpace(doc.Context)) > 0 && !isNull(doc.Context)
	if !hasContext || (isAbsent(doc.Items) && isAbsent(doc.Sequences)) {
		return container{}, apperr.Format(op, "document is not a IIIF manifest")
	}

	if isArray(doc.Items) {
		var canvases []json.RawMessage
		if err := json.Unmarshal(doc.Items, &canvases); err == nil {
			return container{kind: containerV3, entries: canvases}, nil
		}
	}
	if isArray(doc.Sequences) {
		var sequences []json.RawMessage
		if err := json.Unmarshal(doc.Sequences, &sequences); err == nil {
			return container{kind: containerV2, entries: sequences}, nil
		}
	}
	return container{kind: containerUnrecognized}, apperr.Format(op, "no items or sequences array")
}

func extract(body []byte, logger *log.Logger) ([]models.ImageResource, error) {
	c, err := parseContainer(body)
	if err != nil {
		return nil, err
	}

	var (
		canvases []json.RawMessage
		parse    func(json.RawMessage) (string, imageFields, error)
	)
	switch c.kind {
	case containerV3:
		canvases, parse = c.entries, parseV3Canvas
	case containerV2:
		var skipped int
		canvases, skipped = flattenSequences(c.entries)
		if skipped > 0 {
			logger.Warn("skipped malformed sequences", "count", skipped)
		}
		parse = parseV2Canvas
	}

	out := make([]models.ImageResource, 0, len(canvases))
	for i, raw := range canvases {
		label, img, err := parse(raw)
		if err != nil {
			logger.Warn("skipping canvas", "container", c.kind, "index", i, "err", err)
			continue
		}
		if label == "" {
			label = fmt.Sprintf("Image %d", i+1)
		}
		r, ok := img.resource(fmt.Sprintf("external-%d", i), label)
		if !ok {
			logger.Warn("skipping canvas without image url", "container", c.kind, "index", i)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isAbsent(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || isNull(raw)
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
