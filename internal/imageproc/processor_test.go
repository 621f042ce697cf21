package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		MaxWidth:          200,
		MaxHeight:         200,
		Quality:           90,
		Format:            "jpeg",
		Background:        color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		MaxUploadBytes:    8 << 20,
		ReencodeOverBytes: 3 << 20,
	}
}

func writeJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0640))
	return path
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0640))
	return path
}

func TestProcessDownsizesToCanvas(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "big.jpg", 800, 400)

	out, err := Process(path, testOptions())
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.MimeType)
	assert.Equal(t, "big.jpg", out.Filename)

	img, _, err := image.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestProcessPassThroughSmallFitting(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "small.jpg", 150, 150)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	out, err := Process(path, testOptions())
	require.NoError(t, err)
	assert.Equal(t, raw, out.Data, "small fitting image should not be re-encoded")
}

func TestProcessConvertsPNGToJPEG(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "pic.png", 500, 500)

	out, err := Process(path, testOptions())
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.MimeType)
	assert.Equal(t, "pic.jpg", out.Filename)
}

func TestProcessRejectsTinyImage(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "tiny.jpg", 50, 50)

	_, err := Process(path, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum")
}

func TestProcessRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.jpg")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not an image"), 0640))

	_, err := Process(path, testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestProcessRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeJPEG(t, dir, "big.jpg", 300, 300)

	opts := testOptions()
	opts.MaxUploadBytes = 10
	_, err := Process(path, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload limit")
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#FF8000")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 128, B: 0, A: 255}, c)

	_, err = ParseHexColor("red")
	assert.Error(t, err)
}
