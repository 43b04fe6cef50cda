package cutout

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/esimov/cutout/utils"
)

// Brush limits and defaults.
const (
	MinBrushSize     = 4
	DefaultBrushSize = 25

	MinOpacity  = 0.1
	MaxOpacity  = 1.0
	MaxSoftness = 0.8
)

// Mode is the compositing mode of a brush application.
type Mode int

const (
	// Erase subtracts alpha under the stencil.
	Erase Mode = iota
	// Restore paints the source image back under the stencil.
	Restore
)

func (m Mode) String() string {
	switch m {
	case Erase:
		return "erase"
	case Restore:
		return "restore"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Flip returns the opposite mode.
func (m Mode) Flip() Mode {
	if m == Restore {
		return Erase
	}
	return Restore
}

// ParseMode converts the textual mode representation.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "erase", "eraser":
		return Erase, nil
	case "restore":
		return Restore, nil
	}
	return Erase, fmt.Errorf("unsupported brush mode: %q", s)
}

// BrushSettings holds the user controlled brush parameters.
// The setters clamp the values into their valid range.
type BrushSettings struct {
	Size     int
	Opacity  float64
	Softness float64
	Mode     Mode
}

// DefaultBrush returns a hard edged, fully opaque eraser.
func DefaultBrush() BrushSettings {
	return BrushSettings{
		Size:    DefaultBrushSize,
		Opacity: MaxOpacity,
		Mode:    Erase,
	}
}

// SetSize sets the brush diameter in pixels.
func (b *BrushSettings) SetSize(px int) {
	b.Size = utils.Max(MinBrushSize, px)
}

// SetOpacity sets the brush opacity as a fraction.
func (b *BrushSettings) SetOpacity(v float64) {
	b.Opacity = utils.Clamp(v, MinOpacity, MaxOpacity)
}

// SetOpacityPercent sets the brush opacity as a percentage.
func (b *BrushSettings) SetOpacityPercent(pct float64) {
	b.SetOpacity(pct / 100)
}

// SetSoftness sets the width of the feathered edge as a fraction of the radius.
func (b *BrushSettings) SetSoftness(v float64) {
	b.Softness = utils.Clamp(v, 0, MaxSoftness)
}

// SetSoftnessPercent sets the brush softness as a percentage.
func (b *BrushSettings) SetSoftnessPercent(pct float64) {
	b.SetSoftness(pct / 100)
}

// SetMode sets the persisted brush mode.
func (b *BrushSettings) SetMode(m Mode) {
	if m != Restore {
		m = Erase
	}
	b.Mode = m
}

// Radius returns the brush radius.
func (b BrushSettings) Radius() float64 {
	return float64(b.Size) / 2
}

// Stencil returns the stencil of the brush centered at (x, y).
func (b BrushSettings) Stencil(x, y float64) Stencil {
	return Stencil{
		X:        x,
		Y:        y,
		Radius:   b.Radius(),
		Opacity:  b.Opacity,
		Softness: b.Softness,
	}
}

// Stencil is the soft edged circular opacity mask of a single brush application.
// The coverage is constant inside the inner radius and decays linearly to zero at the radius.
type Stencil struct {
	X, Y     float64
	Radius   float64
	Opacity  float64
	Softness float64
}

// Inner returns the radius of the full opacity disk.
func (s Stencil) Inner() float64 {
	return s.Radius * (1 - s.Softness)
}

// CoverageAt returns the stencil opacity at distance d from the center.
func (s Stencil) CoverageAt(d float64) float64 {
	inner := s.Inner()
	switch {
	case d > s.Radius:
		return 0
	case d <= inner:
		return s.Opacity
	}
	return s.Opacity * (s.Radius - d) / (s.Radius - inner)
}

// Coverage returns the stencil opacity at the center of the pixel (x, y).
func (s Stencil) Coverage(x, y int) float64 {
	dx := float64(x) + 0.5 - s.X
	dy := float64(y) + 0.5 - s.Y
	return s.CoverageAt(math.Hypot(dx, dy))
}

// Bounds returns the pixel rectangle touched by the stencil.
func (s Stencil) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(s.X-s.Radius)),
		int(math.Floor(s.Y-s.Radius)),
		int(math.Ceil(s.X+s.Radius)),
		int(math.Ceil(s.Y+s.Radius)),
	)
}
