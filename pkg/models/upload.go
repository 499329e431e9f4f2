package models

import (
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of an UploadTask.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskUploading TaskStatus = "uploading"
	TaskUploaded  TaskStatus = "uploaded"
	TaskError     TaskStatus = "error"
)

// UploadTask tracks one file through the upload pipeline.
type UploadTask struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type,omitempty"`
	Size        int64      `json:"size"`
	Status      TaskStatus `json:"status"`
	Progress    int        `json:"progress"`
	LastError   string     `json:"last_error,omitempty"`
	ResourceID  string     `json:"resource_id,omitempty"`
	Path        string     `json:"path,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsImage reports whether the task carries an image/* payload.
func (t UploadTask) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(t.ContentType), "image/")
}

// Resource converts an uploaded image task into a local ImageResource.
// Other files stay in storage but never become canvases.
// publicURL is the storage's URL for the task path; it may be empty.
func (t UploadTask) Resource(publicURL string) (ImageResource, bool) {
	if t.Status != TaskUploaded || t.Path == "" || !t.IsImage() {
		return ImageResource{}, false
	}
	return ImageResource{
		ID:           t.ResourceID,
		Label:        t.Filename,
		URL:          publicURL,
		ThumbnailURL: publicURL,
		MediaType:    t.ContentType,
		Origin:       OriginLocal,
		Path:         t.Path,
	}, true
}
