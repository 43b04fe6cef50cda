package cutout

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_ParseShape(t *testing.T) {
	assert := assert.New(t)

	s, err := ParseShape("Circle")
	assert.NoError(err)
	assert.Equal(Circle, s)
	assert.Equal("_circle", s.Suffix())

	s, err = ParseShape("square")
	assert.NoError(err)
	assert.Equal("", s.Suffix())

	_, err = ParseShape("hexagon")
	assert.Error(err)
}

func TestExport_SquareContainsImage(t *testing.T) {
	assert := assert.New(t)

	// A wide image is letterboxed vertically and upscaled.
	img := ExportSquare(solidImage(100, 50, color.NRGBA{R: 255, A: 255}), IconSize)
	assert.Equal(image.Rect(0, 0, IconSize, IconSize), img.Bounds())

	assert.Zero(alphaAt(img, 256, 10))
	assert.Zero(alphaAt(img, 256, 500))
	assert.Equal(uint8(255), alphaAt(img, 256, 256))
	assert.Equal(uint8(255), alphaAt(img, 2, 256))

	// A tall image is pillarboxed.
	img = ExportSquare(solidImage(50, 200, color.NRGBA{B: 255, A: 255}), 100)
	assert.Zero(alphaAt(img, 10, 50))
	assert.Equal(uint8(255), alphaAt(img, 50, 50))
	assert.Zero(alphaAt(img, 90, 50))
}

func TestExport_SquareKeepsTransparency(t *testing.T) {
	src := solidImage(64, 64, color.NRGBA{R: 255, A: 255})
	for y := 0; y < 64; y++ {
		for x := 0; x < 32; x++ {
			src.Pix[src.PixOffset(x, y)+3] = 0
		}
	}
	img := ExportSquare(src, 128)
	assert.Zero(t, alphaAt(img, 10, 64))
	assert.Equal(t, uint8(255), alphaAt(img, 118, 64))
}

func TestExport_Circle(t *testing.T) {
	assert := assert.New(t)
	img := ExportCircle(solidImage(64, 64, color.NRGBA{G: 255, A: 255}), 128)

	// Corners are clipped, the center is kept.
	assert.Zero(alphaAt(img, 0, 0))
	assert.Zero(alphaAt(img, 127, 127))
	assert.Zero(alphaAt(img, 5, 5))
	assert.Equal(uint8(255), alphaAt(img, 64, 64))
	assert.Equal(uint8(255), alphaAt(img, 64, 2))

	// The edge is anti-aliased.
	edge := alphaAt(img, 64, 0)
	assert.True(edge > 0 && edge < 255, "edge alpha %d", edge)
}

func TestExport_EncodePNG(t *testing.T) {
	data, err := EncodePNG(Circle.Export(gradientImage(30, 20), 64))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
}
