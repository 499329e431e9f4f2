package importer

import (
	"encoding/json"
	"errors"
)

var errNoImage = errors.New("no image annotation")

// Presentation 3: canvas.items[0] (AnnotationPage) .items[0] (Annotation) .body
type v3Canvas struct {
	Label json.RawMessage `json:"label"`
	Items json.RawMessage `json:"items"`
}

type v3AnnotationPage struct {
	Items json.RawMessage `json:"items"`
}

type v3Annotation struct {
	Body json.RawMessage `json:"body"`
}

type v3Body struct {
	ID      text            `json:"id"`
	Width   dimension       `json:"width"`
	Height  dimension       `json:"height"`
	Format  text            `json:"format"`
	Service json.RawMessage `json:"service"`
}

func parseV3Canvas(raw json.RawMessage) (label string, img imageFields, err error) {
	var c v3Canvas
	if err := json.Unmarshal(raw, &c); err != nil {
		return "", imageFields{}, err
	}
	label = decodeLabel(c.Label)

	var (
		page v3AnnotationPage
		anno v3Annotation
		body v3Body
	)
	if !first(c.Items, &page) || !first(page.Items, &anno) {
		return label, imageFields{}, errNoImage
	}
	// a body is usually one object; some producers wrap it in an array
	if !decodeObject(anno.Body, &body) && !first(anno.Body, &body) {
		return label, imageFields{}, errNoImage
	}
	return label, imageFields{
		directID:  string(body.ID),
		serviceID: serviceID(body.Service),
		width:     int(body.Width),
		height:    int(body.Height),
		format:    string(body.Format),
	}, nil
}
