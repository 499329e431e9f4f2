package importer

import (
	"bytes"
	"encoding/json"
	"strings"

	"iiifhub/pkg/models"
)

// Image API path suffixes used when only an image service is declared.
const (
	fullImageSuffix = "/full/max/0/default.jpg"
	thumbnailSuffix = "/full/200,/0/default.jpg"
)

// Defaults for values a source manifest may omit.
const (
	defaultWidth     = 1000
	defaultHeight    = 1000
	defaultMediaType = "image/jpeg"
)

// service is an image service reference. Presentation 3 uses "id",
// Presentation 2 uses "@id"; both appear in the wild in either version.
type service struct {
	ID   text `json:"id"`
	LDID text `json:"@id"`
}

func (s service) identifier() string {
	if s.ID != "" {
		return string(s.ID)
	}
	return string(s.LDID)
}

// text decodes a JSON string; any other JSON type leaves it empty.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) == nil {
		*t = text(s)
	}
	return nil
}

// dimension decodes a positive JSON number; anything else leaves it 0 so the
// default applies.
type dimension int

func (d *dimension) UnmarshalJSON(b []byte) error {
	var f float64
	if json.Unmarshal(b, &f) == nil && f > 0 {
		*d = dimension(f)
	}
	return nil
}

// first decodes element 0 of a JSON array into v. Later elements are never
// looked at. It reports false when raw is not a non-empty array or the first
// element is not an object.
func first(raw json.RawMessage, v any) bool {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
		return false
	}
	return decodeObject(list[0], v)
}

// decodeObject decodes raw into v when raw is a JSON object.
func decodeObject(raw json.RawMessage, v any) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// serviceID returns the first service identifier from either a single
// service object or an array of them.
func serviceID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var one service
	if raw[0] == '[' {
		if !first(raw, &one) {
			return ""
		}
	} else if !decodeObject(raw, &one) {
		return ""
	}
	return strings.TrimRight(one.identifier(), "/")
}

// decodeLabel accepts a plain string, a language map ({"en": ["..."]}) or a
// legacy value object ({"@value": "..."}). It returns "" when none match.
func decodeLabel(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if v, ok := obj[models.DefaultLanguage]; ok {
		var values []string
		if err := json.Unmarshal(v, &values); err == nil && len(values) > 0 {
			return values[0]
		}
	}
	if v, ok := obj["@value"]; ok {
		var value string
		if err := json.Unmarshal(v, &value); err == nil {
			return value
		}
	}
	return ""
}

// imageFields is what either version yields for one canvas image.
type imageFields struct {
	directID  string
	serviceID string
	width     int
	height    int
	format    string
}

// resource converts the fields into an external ImageResource. ok is false
// when neither a direct id nor a service id was found.
func (f imageFields) resource(id, label string) (models.ImageResource, bool) {
	r := models.ImageResource{
		ID:        id,
		Label:     label,
		Width:     defaultWidth,
		Height:    defaultHeight,
		MediaType: defaultMediaType,
		Origin:    models.OriginExternal,
	}

	switch {
	case f.directID != "":
		r.URL = f.directID
		r.ThumbnailURL = f.directID
		if f.width > 0 {
			r.Width = f.width
		}
		if f.height > 0 {
			r.Height = f.height
		}
		if f.format != "" {
			r.MediaType = f.format
		}
	case f.serviceID != "":
		r.URL = f.serviceID + fullImageSuffix
		r.ThumbnailURL = f.serviceID + thumbnailSuffix
	default:
		return models.ImageResource{}, false
	}
	return r, true
}
