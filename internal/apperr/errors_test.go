package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsExistingKind(t *testing.T) {
	inner := Format("importer.extract", "no container")
	wrapped := Wrap(KindFetch, "importer.import", "fetch failed", fmt.Errorf("outer: %w", inner))

	assert.True(t, IsKind(wrapped, KindFormat))
	assert.False(t, IsKind(wrapped, KindFetch))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(KindUpload, "op", "msg", nil))
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindUpload, "upload.process", "store failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "upload.process: store failed: disk full", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("op", "bad"), http.StatusBadRequest},
		{"format", Format("op", "bad"), http.StatusBadRequest},
		{"not found", New(KindNotFound, "op", "missing"), http.StatusNotFound},
		{"fetch with remote status", Fetch("op", http.StatusNotFound, "missing"), http.StatusNotFound},
		{"fetch transport", Fetch("op", 0, "refused"), http.StatusBadGateway},
		{"upload", New(KindUpload, "op", "x"), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}
