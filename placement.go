package cutout

import (
	"image"
	"math"

	"github.com/esimov/cutout/utils"
	"golang.org/x/image/math/f64"
)

// Minimum surface dimension used when the hosting container reports a smaller size.
const (
	MinSurfaceWidth  = 320
	MinSurfaceHeight = 420
)

// Placement describes how the source image is fitted ("contain") into the surface.
type Placement struct {
	OffsetX    float64
	OffsetY    float64
	DrawWidth  float64
	DrawHeight float64
	Scale      float64

	SourceWidth  int
	SourceHeight int
}

// SurfaceSize returns the surface dimension derived from the container layout.
func SurfaceSize(containerW, containerH int) image.Point {
	return image.Pt(
		utils.Max(MinSurfaceWidth, containerW),
		utils.Max(MinSurfaceHeight, containerH),
	)
}

// NewPlacement computes the aspect preserving placement of a sourceW x sourceH
// image centered inside a surfaceW x surfaceH surface.
func NewPlacement(surfaceW, surfaceH, sourceW, sourceH int) Placement {
	if sourceW <= 0 || sourceH <= 0 {
		return Placement{}
	}
	scale := math.Min(
		float64(surfaceW)/float64(sourceW),
		float64(surfaceH)/float64(sourceH),
	)
	dw := float64(sourceW) * scale
	dh := float64(sourceH) * scale

	return Placement{
		OffsetX:      (float64(surfaceW) - dw) / 2,
		OffsetY:      (float64(surfaceH) - dh) / 2,
		DrawWidth:    dw,
		DrawHeight:   dh,
		Scale:        scale,
		SourceWidth:  sourceW,
		SourceHeight: sourceH,
	}
}

// Contains reports whether the surface point lies inside the drawn rectangle, edges included.
func (p Placement) Contains(x, y float64) bool {
	return x >= p.OffsetX && x <= p.OffsetX+p.DrawWidth &&
		y >= p.OffsetY && y <= p.OffsetY+p.DrawHeight
}

// ToSourceSpace maps a surface point into source image coordinates.
// The mapping is defined only inside the drawn rectangle, otherwise ok is false.
func (p Placement) ToSourceSpace(x, y float64) (sx, sy float64, ok bool) {
	if p.Scale == 0 || !p.Contains(x, y) {
		return 0, 0, false
	}
	return (x - p.OffsetX) / p.Scale, (y - p.OffsetY) / p.Scale, true
}

// ToSurfaceSpace maps a source image point into surface coordinates.
func (p Placement) ToSurfaceSpace(sx, sy float64) (x, y float64) {
	return sx*p.Scale + p.OffsetX, sy*p.Scale + p.OffsetY
}

// Rect returns the smallest pixel rectangle enclosing the drawn area.
func (p Placement) Rect() image.Rectangle {
	return image.Rect(
		int(math.Floor(p.OffsetX)),
		int(math.Floor(p.OffsetY)),
		int(math.Ceil(p.OffsetX+p.DrawWidth)),
		int(math.Ceil(p.OffsetY+p.DrawHeight)),
	)
}

// transform returns the source to surface affine matrix.
func (p Placement) transform() f64.Aff3 {
	return f64.Aff3{
		p.Scale, 0, p.OffsetX,
		0, p.Scale, p.OffsetY,
	}
}
