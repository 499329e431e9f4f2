package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUploadTaskResource(t *testing.T) {
	base := UploadTask{
		Filename:    "p1.jpg",
		ContentType: "image/jpeg",
		Status:      TaskUploaded,
		ResourceID:  "r1",
		Path:        "b1.jpg",
	}

	r, ok := base.Resource("http://hub/files/b1.jpg")
	assert.True(t, ok)
	assert.Equal(t, OriginLocal, r.Origin)
	assert.Equal(t, "image/jpeg", r.MediaType)

	pdf := base
	pdf.ContentType = "application/pdf"
	_, ok = pdf.Resource("")
	assert.False(t, ok)

	upper := base
	upper.ContentType = "IMAGE/PNG"
	_, ok = upper.Resource("")
	assert.True(t, ok)

	pending := base
	pending.Status = TaskPending
	_, ok = pending.Resource("")
	assert.False(t, ok)
}
