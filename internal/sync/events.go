package sync

import (
	"time"

	"iiifhub/pkg/models"
)

const (
	EventProgress  = "upload.progress"
	EventCompleted = "upload.completed"
	EventFailed    = "upload.failed"
)

type UploadEvent struct {
	Type     string                `json:"type"` // one of the Event* constants
	Task     models.UploadTask     `json:"task"`
	Resource *models.ImageResource `json:"resource,omitempty"` // set on completion
	At       time.Time             `json:"at"`
}

// EventFromTask classifies a task snapshot. publicURL may be nil.
func EventFromTask(t models.UploadTask, publicURL func(string) string) UploadEvent {
	ev := UploadEvent{Type: EventProgress, Task: t, At: time.Now().UTC()}
	switch t.Status {
	case models.TaskUploaded:
		ev.Type = EventCompleted
		u := ""
		if publicURL != nil {
			u = publicURL(t.Path)
		}
		if r, ok := t.Resource(u); ok {
			ev.Resource = &r
		}
	case models.TaskError:
		ev.Type = EventFailed
	}
	return ev
}
