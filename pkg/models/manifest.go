package models

// Presentation API 3 constants that are part of the output compatibility surface.
const (
	PresentationContext = "http://iiif.io/api/presentation/3/context.json"
	DefaultLanguage     = "en"
	MotivationPainting  = "painting"
	ViewingLeftToRight  = "left-to-right"
)

// LangMap is a IIIF language map: {"en": ["value"]}.
type LangMap map[string][]string

// Lang builds a single-value language map under DefaultLanguage.
func Lang(v string) LangMap {
	return LangMap{DefaultLanguage: {v}}
}

// First returns the first value under lang, falling back to any language.
func (m LangMap) First(lang string) string {
	if vs := m[lang]; len(vs) > 0 {
		return vs[0]
	}
	for _, vs := range m {
		if len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// Manifest is the canonical output document. Optional members carry omitempty
// so an absent value is never encoded as null.
type Manifest struct {
	Context           string          `json:"@context"`
	ID                string          `json:"id"`
	Type              string          `json:"type"`
	Label             LangMap         `json:"label"`
	Summary           LangMap         `json:"summary,omitempty"`
	Metadata          []MetadataEntry `json:"metadata,omitempty"`
	Items             []Canvas        `json:"items"`
	Thumbnail         []ImageRef      `json:"thumbnail,omitempty"`
	Rights            string          `json:"rights,omitempty"`
	RequiredStatement *MetadataEntry  `json:"requiredStatement,omitempty"`
	Provider          []Agent         `json:"provider,omitempty"`
	ViewingDirection  string          `json:"viewingDirection,omitempty"`
}

// MetadataEntry is one label/value pair of manifest metadata.
type MetadataEntry struct {
	Label LangMap `json:"label"`
	Value LangMap `json:"value"`
}

type Canvas struct {
	ID     string           `json:"id"`
	Type   string           `json:"type"`
	Label  LangMap          `json:"label"`
	Height int              `json:"height"`
	Width  int              `json:"width"`
	Items  []AnnotationPage `json:"items"`
}

type AnnotationPage struct {
	ID    string       `json:"id"`
	Type  string       `json:"type"`
	Items []Annotation `json:"items"`
}

type Annotation struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Motivation string    `json:"motivation"`
	Body       ImageBody `json:"body"`
	Target     string    `json:"target"`
}

// ImageBody is the painting annotation body.
type ImageBody struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Format string `json:"format"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// ImageRef is a thumbnail reference.
type ImageRef struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Format string `json:"format,omitempty"`
}

type Agent struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Label LangMap `json:"label"`
}

// PaintingBody returns the body of the canvas' single painting annotation.
func (c Canvas) PaintingBody() (ImageBody, bool) {
	if len(c.Items) == 0 || len(c.Items[0].Items) == 0 {
		return ImageBody{}, false
	}
	return c.Items[0].Items[0].Body, true
}
