package importer

import "encoding/json"

// Presentation 2: sequences[*].canvases[*].images[0].resource
type v2Sequence struct {
	Canvases []json.RawMessage `json:"canvases"`
}

type v2Canvas struct {
	Label  json.RawMessage `json:"label"`
	Images json.RawMessage `json:"images"`
}

type v2Image struct {
	Resource json.RawMessage `json:"resource"`
}

type v2Resource struct {
	ID      text            `json:"@id"`
	Width   dimension       `json:"width"`
	Height  dimension       `json:"height"`
	Format  text            `json:"format"`
	Service json.RawMessage `json:"service"`
}

func parseV2Canvas(raw json.RawMessage) (label string, img imageFields, err error) {
	var c v2Canvas
	if err := json.Unmarshal(raw, &c); err != nil {
		return "", imageFields{}, err
	}
	label = decodeLabel(c.Label)

	var (
		image v2Image
		res   v2Resource
	)
	if !first(c.Images, &image) || !decodeObject(image.Resource, &res) {
		return label, imageFields{}, errNoImage
	}
	return label, imageFields{
		directID:  string(res.ID),
		serviceID: serviceID(res.Service),
		width:     int(res.Width),
		height:    int(res.Height),
		format:    string(res.Format),
	}, nil
}

// flattenSequences returns every canvas of every sequence in document order.
// A sequence that does not decode is skipped.
func flattenSequences(sequences []json.RawMessage) (canvases []json.RawMessage, skipped int) {
	for _, raw := range sequences {
		var seq v2Sequence
		if err := json.Unmarshal(raw, &seq); err != nil {
			skipped++
			continue
		}
		canvases = append(canvases, seq.Canvases...)
	}
	return canvases, skipped
}
