package upload

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noisyImage(w, h int) *image.RGBA {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompressSmallFilePassesThrough(t *testing.T) {
	c := NewImageCompressor(0, 0, 0)
	f := File{Name: "tiny.png", ContentType: "image/png", Data: encodePNG(t, noisyImage(4, 4))}

	out, err := c.Compress(f)
	require.NoError(t, err)
	assert.Equal(t, f, out)
}

func TestCompressNonImagePassesThrough(t *testing.T) {
	c := &ImageCompressor{Threshold: 1, MaxDimension: 10, Quality: 80}
	f := File{Name: "notes.txt", ContentType: "text/plain", Data: bytes.Repeat([]byte("a"), 100)}

	out, err := c.Compress(f)
	require.NoError(t, err)
	assert.Equal(t, f, out)
}

func TestCompressUndecodableImageFails(t *testing.T) {
	c := &ImageCompressor{Threshold: 1, MaxDimension: 10, Quality: 80}
	f := File{Name: "broken.jpg", ContentType: "image/jpeg", Data: []byte("definitely not a jpeg")}

	out, err := c.Compress(f)
	require.Error(t, err)
	assert.Equal(t, f, out)
}

func TestCompressDownscalesJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, noisyImage(400, 200), &jpeg.Options{Quality: 100}))

	c := &ImageCompressor{Threshold: 1, MaxDimension: 100, Quality: 60}
	out, err := c.Compress(File{Name: "wide.jpg", ContentType: "image/jpeg", Data: buf.Bytes()})
	require.NoError(t, err)

	assert.Equal(t, "wide.jpg", out.Name)
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.Less(t, len(out.Data), buf.Len())

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestCompressDownscalesPNG(t *testing.T) {
	data := encodePNG(t, noisyImage(300, 600))

	c := &ImageCompressor{Threshold: 1, MaxDimension: 150, Quality: 80}
	out, err := c.Compress(File{Name: "tall.png", ContentType: "image/png", Data: data})
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 75, cfg.Width)
	assert.Equal(t, 150, cfg.Height)
}

func TestCompressKeepsOriginalWhenNotSmaller(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, noisyImage(64, 64), &jpeg.Options{Quality: 10}))
	f := File{Name: "small.jpg", ContentType: "image/jpeg", Data: buf.Bytes()}

	// no scaling and a higher quality only grows the file
	c := &ImageCompressor{Threshold: 1, MaxDimension: 2000, Quality: 100}
	out, err := c.Compress(f)
	require.NoError(t, err)
	assert.Equal(t, f, out)
}

func TestWithExt(t *testing.T) {
	assert.Equal(t, "scan.png", withExt("scan.gif", ".png"))
	assert.Equal(t, "scan.png", withExt("scan", ".png"))
	assert.Equal(t, "", extOf("dir.d/file"))
}
