package importer

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, f Fetcher, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewNormalizer(f, nil)).RegisterRoutes(r.Group("/api"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/fetch-external-manifest", strings.NewReader(body)))
	return w
}

func TestFetchHandler(t *testing.T) {
	w := serve(t, &stubFetcher{resp: &Response{Status: 200, Body: []byte(v2Manifest)}}, `{"url": "https://example.org/m.json"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), `"origin":"external"`)
}

func TestFetchHandlerStatuses(t *testing.T) {
	cases := []struct {
		name    string
		fetcher Fetcher
		body    string
		want    int
	}{
		{"bad json", &stubFetcher{}, `nope`, http.StatusBadRequest},
		{"bad url", &stubFetcher{}, `{"url": "ftp://x"}`, http.StatusBadRequest},
		{"remote 404", &stubFetcher{resp: &Response{Status: 404}}, `{"url": "https://x.org/m"}`, http.StatusNotFound},
		{"remote 503", &stubFetcher{resp: &Response{Status: 503}}, `{"url": "https://x.org/m"}`, http.StatusServiceUnavailable},
		{"unreachable", &stubFetcher{err: errors.New("dial")}, `{"url": "https://x.org/m"}`, http.StatusBadGateway},
		{"not a manifest", &stubFetcher{resp: &Response{Status: 200, Body: []byte(`{"a": 1}`)}}, `{"url": "https://x.org/m"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(t, tc.fetcher, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}
