package models

// Origin tells the assembler how to reference an image.
type Origin string

const (
	// OriginLocal images live in our storage and are served through the
	// direct-image redirect, keyed by Path.
	OriginLocal Origin = "local"
	// OriginExternal images are embedded by their foreign URL.
	OriginExternal Origin = "external"
)

// ImageResource is a single image ready to become a canvas.
type ImageResource struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	MediaType    string `json:"media_type,omitempty"`
	Origin       Origin `json:"origin"`
	Path         string `json:"path,omitempty"` // storage path, local only
}
