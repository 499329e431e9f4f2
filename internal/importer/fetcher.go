package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxDocumentSize bounds how much of a remote manifest we read.
const maxDocumentSize = 32 << 20

// ErrDocumentTooLarge is returned when a remote document exceeds maxDocumentSize.
var ErrDocumentTooLarge = errors.New("document exceeds 32 MiB")

// Response is the part of an HTTP reply the normalizer needs.
type Response struct {
	Status int
	Body   []byte
}

// Fetcher retrieves a remote document. Implementations return an error only
// for transport failures; non-2xx replies come back as a Response.
type Fetcher interface {
	Get(ctx context.Context, url string) (*Response, error)
}

// HTTPFetcher fetches manifests over HTTP with JSON content negotiation.
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/ld+json, application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxDocumentSize {
		return nil, ErrDocumentTooLarge
	}
	return &Response{Status: resp.StatusCode, Body: body}, nil
}
