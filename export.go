package cutout

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/esimov/cutout/imop"
	"github.com/esimov/cutout/utils"
)

// IconSize is the side of the exported icons.
const IconSize = 512

// ShapeType is the shape of an exported icon.
type ShapeType string

const (
	Square ShapeType = "square"
	Circle ShapeType = "circle"
)

// ParseShape converts the textual shape representation.
func ParseShape(s string) (ShapeType, error) {
	switch ShapeType(strings.ToLower(strings.TrimSpace(s))) {
	case Square:
		return Square, nil
	case Circle:
		return Circle, nil
	}
	return "", fmt.Errorf("unsupported icon shape: %q", s)
}

// Suffix returns the file name suffix of the uploaded icon.
func (s ShapeType) Suffix() string {
	if s == Circle {
		return "_circle"
	}
	return ""
}

// Export renders the image as an icon of the given shape.
func (s ShapeType) Export(img image.Image, size int) *image.NRGBA {
	if s == Circle {
		return ExportCircle(img, size)
	}
	return ExportSquare(img, size)
}

// ExportSquare fits the image, preserving its aspect ratio, in the center
// of a transparent size x size canvas. Smaller images are upscaled.
func ExportSquare(img image.Image, size int) *image.NRGBA {
	if size <= 0 {
		size = IconSize
	}
	dst := imaging.New(size, size, color.NRGBA{})

	b := img.Bounds()
	if b.Empty() {
		return dst
	}
	scale := math.Min(float64(size)/float64(b.Dx()), float64(size)/float64(b.Dy()))
	w := utils.Clamp(int(math.Round(float64(b.Dx())*scale)), 1, size)
	h := utils.Clamp(int(math.Round(float64(b.Dy())*scale)), 1, size)

	fitted := imaging.Resize(img, w, h, imaging.Lanczos)
	return imaging.Paste(dst, fitted, image.Pt((size-w)/2, (size-h)/2))
}

// ExportCircle exports the square icon clipped by its inscribed circle.
// The circle edge is anti-aliased over a single pixel.
func ExportCircle(img image.Image, size int) *image.NRGBA {
	dst := ExportSquare(img, size)
	mask := circleMask(dst.Bounds().Dx())

	op := imop.InitOp()
	op.Set(imop.DstIn)
	op.Draw(dst, dst.Bounds(), mask, nil)

	return dst
}

// circleMask returns an alpha mask holding the disk inscribed in a size x size square.
func circleMask(size int) *image.NRGBA {
	mask := image.NewNRGBA(image.Rect(0, 0, size, size))
	r := float64(size) / 2
	if r <= 0 {
		return mask
	}
	st := Stencil{
		X:        r,
		Y:        r,
		Radius:   r,
		Opacity:  1,
		Softness: math.Min(1, 1/r),
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			mask.Pix[mask.PixOffset(x, y)+3] = uint8(math.Round(st.Coverage(x, y) * 255))
		}
	}
	return mask
}

// EncodePNG returns the PNG encoded icon.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeImage(&buf, img, ".png"); err != nil {
		return nil, fmt.Errorf("could not encode the icon: %w", err)
	}
	return buf.Bytes(), nil
}
