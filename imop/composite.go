// Package imop implements the Porter-Duff composition operations
// used for mixing a graphic element with its backdrop.
// Porter and Duff presented in their paper 12 different composition operation,
// but the image/draw core package implements only the source-over-destination and source.
// This package is aimed to overcome the missing composite operations.
//
// Every operation can be restricted by a coverage function, which acts as a soft clip:
// it scales the source alpha and leaves the pixels with zero coverage untouched.
// Besides the Porter-Duff set, Lerp moves the destination toward the source by the coverage.
// The brush engine uses DstOut for erasing, Lerp for restoring and
// the export pipeline uses DstIn for the circle clipping.
package imop

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/esimov/cutout/utils"
)

const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
	Lerp    = "lerp"
)

// Coverage returns the fraction of the source, in the [0, 1] range, reaching the pixel at (x, y).
type Coverage func(x, y int) float64

// Composite holds the currently active composition operation.
type Composite struct {
	current string
	ops     []string
}

// InitOp initializes a new Composite with SrcOver as the default operation.
func InitOp() *Composite {
	return &Composite{
		current: SrcOver,
		ops: []string{
			Clear,
			Copy,
			Dst,
			SrcOver,
			DstOver,
			SrcIn,
			DstIn,
			SrcOut,
			DstOut,
			SrcAtop,
			DstAtop,
			Xor,
			Lerp,
		},
	}
}

// Set activates one of the supported composition operations.
func (op *Composite) Set(cop string) error {
	if !utils.Contains(op.ops, cop) {
		return fmt.Errorf("unsupported composite operation: %q", cop)
	}
	op.current = cop
	return nil
}

// Get returns the currently active composition operation.
func (op *Composite) Get() string {
	return op.current
}

// Draw composites src onto dst inside the rectangle r using the active operation.
// The source pixel at (x, y) is read from src at the same coordinate; a nil src
// is treated as an opaque black source, which is what the alpha-only operations need.
// A nil cov means full coverage. The dst image is modified in place.
func (op *Composite) Draw(dst *image.NRGBA, r image.Rectangle, src *image.NRGBA, cov Coverage) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	opaque := color.NRGBA{A: 0xff}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := 1.0
			if cov != nil {
				c = cov(x, y)
				if c <= 0 {
					continue
				}
			}
			s := opaque
			if src != nil {
				if !(image.Point{X: x, Y: y}).In(src.Rect) {
					s = color.NRGBA{}
				} else {
					i := src.PixOffset(x, y)
					s = color.NRGBA{R: src.Pix[i], G: src.Pix[i+1], B: src.Pix[i+2], A: src.Pix[i+3]}
				}
			}
			i := dst.PixOffset(x, y)
			d := color.NRGBA{R: dst.Pix[i], G: dst.Pix[i+1], B: dst.Pix[i+2], A: dst.Pix[i+3]}

			res := Mix(op.current, s, d, c)
			dst.Pix[i+0] = res.R
			dst.Pix[i+1] = res.G
			dst.Pix[i+2] = res.B
			dst.Pix[i+3] = res.A
		}
	}
}

// Mix applies the composition operation on a single source and destination pixel.
// The source alpha is scaled by the coverage value before applying the alpha composition formula.
// When only the destination contributes to the result, its color channels are preserved
// even if the resulting alpha drops to zero.
func Mix(cop string, s, d color.NRGBA, coverage float64) color.NRGBA {
	coverage = utils.Clamp(coverage, 0, 1)

	as := float64(s.A) / 255 * coverage
	ab := float64(d.A) / 255

	if cop == Lerp {
		return lerp(s, d, coverage)
	}

	var fa, fb float64
	switch cop {
	case Clear:
		return color.NRGBA{}
	case Copy:
		fa, fb = 1, 0
	case Dst:
		fa, fb = 0, 1
	case SrcOver:
		fa, fb = 1, 1-as
	case DstOver:
		fa, fb = 1-ab, 1
	case SrcIn:
		fa, fb = ab, 0
	case DstIn:
		fa, fb = 0, as
	case SrcOut:
		fa, fb = 1-ab, 0
	case DstOut:
		fa, fb = 0, 1-as
	case SrcAtop:
		fa, fb = ab, 1-as
	case DstAtop:
		fa, fb = 1-ab, as
	case Xor:
		fa, fb = 1-ab, 1-as
	default:
		return d
	}

	an := as*fa + ab*fb
	if fa == 0 {
		// Destination only: the color channels are left as they are.
		return color.NRGBA{R: d.R, G: d.G, B: d.B, A: toUint8(an * 255)}
	}
	if an <= 0 {
		return color.NRGBA{}
	}

	// Non-premultiplied result: (Cs·αs·Fa + Cb·αb·Fb) / αo.
	mix := func(cs, cb uint8) uint8 {
		return toUint8((float64(cs)*as*fa + float64(cb)*ab*fb) / an)
	}
	return color.NRGBA{
		R: mix(s.R, d.R),
		G: mix(s.G, d.G),
		B: mix(s.B, d.B),
		A: toUint8(an * 255),
	}
}

// lerp interpolates between the premultiplied destination and source colors.
// The result never gets more opaque than the most opaque of the two.
func lerp(s, d color.NRGBA, t float64) color.NRGBA {
	as := float64(s.A) / 255
	ab := float64(d.A) / 255

	an := ab + (as-ab)*t
	if an <= 0 {
		return color.NRGBA{}
	}
	mix := func(cs, cb uint8) uint8 {
		pb := float64(cb) * ab
		return toUint8((pb + (float64(cs)*as-pb)*t) / an)
	}
	return color.NRGBA{
		R: mix(s.R, d.R),
		G: mix(s.G, d.G),
		B: mix(s.B, d.B),
		A: toUint8(an * 255),
	}
}

func toUint8(v float64) uint8 {
	return uint8(utils.Clamp(math.Round(v), 0, 255))
}
