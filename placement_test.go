package cutout

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlacement_ContainFit(t *testing.T) {
	assert := assert.New(t)

	p := NewPlacement(320, 420, 200, 300)
	assert.InDelta(1.4, p.Scale, 1e-9)
	assert.InDelta(280, p.DrawWidth, 1e-9)
	assert.InDelta(420, p.DrawHeight, 1e-9)
	assert.InDelta(20, p.OffsetX, 1e-9)
	assert.InDelta(0, p.OffsetY, 1e-9)
	assert.Equal(image.Rect(20, 0, 300, 420), p.Rect())

	p = NewPlacement(400, 400, 800, 200)
	assert.InDelta(0.5, p.Scale, 1e-9)
	assert.InDelta(0, p.OffsetX, 1e-9)
	assert.InDelta(150, p.OffsetY, 1e-9)

	// Small images are upscaled.
	p = NewPlacement(100, 100, 10, 20)
	assert.InDelta(5, p.Scale, 1e-9)
	assert.InDelta(25, p.OffsetX, 1e-9)
}

func TestPlacement_SourceSpace(t *testing.T) {
	assert := assert.New(t)
	p := NewPlacement(320, 420, 200, 300)

	sx, sy, ok := p.ToSourceSpace(20, 0)
	assert.True(ok)
	assert.InDelta(0, sx, 1e-9)
	assert.InDelta(0, sy, 1e-9)

	sx, sy, ok = p.ToSourceSpace(300, 420)
	assert.True(ok)
	assert.InDelta(200, sx, 1e-9)
	assert.InDelta(300, sy, 1e-9)

	_, _, ok = p.ToSourceSpace(19.9, 10)
	assert.False(ok)
	_, _, ok = p.ToSourceSpace(300.1, 10)
	assert.False(ok)

	x, y := p.ToSurfaceSpace(100, 150)
	assert.InDelta(160, x, 1e-9)
	assert.InDelta(210, y, 1e-9)
}

func TestPlacement_SurfaceSize(t *testing.T) {
	assert.Equal(t, image.Pt(320, 420), SurfaceSize(0, 0))
	assert.Equal(t, image.Pt(320, 420), SurfaceSize(200, 100))
	assert.Equal(t, image.Pt(640, 480), SurfaceSize(640, 480))
}

func TestPlacement_InvalidSource(t *testing.T) {
	p := NewPlacement(320, 420, 0, 10)
	assert.Equal(t, Placement{}, p)
	_, _, ok := p.ToSourceSpace(0, 0)
	assert.False(t, ok)
}
