package upload

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultCompressThreshold = 500000
	DefaultMaxDimension      = 2000
	DefaultJPEGQuality       = 80
)

// ImageCompressor downsizes large images before upload. Anything it cannot
// handle comes back as an error and the caller keeps the original.
type ImageCompressor struct {
	Threshold    int64
	MaxDimension int
	Quality      int
}

func NewImageCompressor(threshold int64, maxDim, quality int) *ImageCompressor {
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &ImageCompressor{Threshold: threshold, MaxDimension: maxDim, Quality: quality}
}

func (c *ImageCompressor) Compress(f File) (File, error) {
	if !isImage(f) || int64(len(f.Data)) < c.Threshold {
		return f, nil
	}

	src, format, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return f, fmt.Errorf("decode %s: %w", f.Name, err)
	}

	img := c.fit(src)

	var buf bytes.Buffer
	out := f
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.Quality})
	default:
		err = png.Encode(&buf, img)
		out.ContentType = "image/png"
		out.Name = withExt(f.Name, ".png")
	}
	if err != nil {
		return f, fmt.Errorf("encode %s: %w", f.Name, err)
	}

	if buf.Len() >= len(f.Data) {
		return f, nil
	}
	out.Data = buf.Bytes()
	return out, nil
}

// fit scales img so its longer side is at most MaxDimension.
func (c *ImageCompressor) fit(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)
	if longest <= c.MaxDimension {
		return src
	}

	nw := w * c.MaxDimension / longest
	nh := h * c.MaxDimension / longest
	dst := image.NewRGBA(image.Rect(0, 0, max(nw, 1), max(nh, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func isImage(f File) bool {
	if strings.HasPrefix(f.ContentType, "image/") {
		return true
	}
	switch strings.ToLower(extOf(f.Name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

func extOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || strings.ContainsRune(name[i:], '/') {
		return ""
	}
	return name[i:]
}

func withExt(name, ext string) string {
	if e := extOf(name); e != "" {
		return name[:len(name)-len(e)] + ext
	}
	return name + ext
}
