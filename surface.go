package cutout

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/esimov/cutout/imop"
	xdraw "golang.org/x/image/draw"
)

var resampler = xdraw.CatmullRom

var snapshotEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// Surface is the mutable, fixed size pixel buffer being edited.
type Surface struct {
	img  *image.NRGBA
	comp *imop.Composite

	// source and placement are the restore reference set by DrawFullImage.
	// layer holds the source rendered at the placement, the restore strokes read from it
	// so a restored pixel gets exactly the value it had after loading.
	source    image.Image
	placement Placement
	layer     *image.NRGBA
}

// NewSurface creates a transparent surface of the given size.
func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	return &Surface{
		img:  image.NewNRGBA(image.Rect(0, 0, width, height)),
		comp: imop.InitOp(),
	}, nil
}

// Bounds returns the surface bounds.
func (s *Surface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

// Clear makes every pixel fully transparent.
func (s *Surface) Clear() {
	for i := range s.img.Pix {
		s.img.Pix[i] = 0
	}
}

// DrawFullImage replaces the surface content with the source image fitted at
// the placement. The source is kept as the reference of the restore strokes.
func (s *Surface) DrawFullImage(src image.Image, p Placement) {
	s.source = src
	s.placement = p
	s.layer = nil

	s.Clear()
	if src == nil {
		return
	}
	s.layer = s.sample(s.Bounds())
	s.comp.Set(imop.Copy)
	s.comp.Draw(s.img, s.layer.Rect, s.layer, nil)
}

// CompositeStencil applies a single stencil on the surface with the given mode.
// Stencils falling outside of the surface are clipped; a restore stencil
// centered outside of the drawn image rectangle is a no-op.
func (s *Surface) CompositeStencil(st Stencil, mode Mode) {
	r := st.Bounds().Intersect(s.Bounds())
	if r.Empty() || st.Radius <= 0 {
		return
	}

	switch mode {
	case Erase:
		s.comp.Set(imop.DstOut)
		s.comp.Draw(s.img, r, nil, st.Coverage)
	case Restore:
		if s.layer == nil || !s.placement.Contains(st.X, st.Y) {
			return
		}
		s.comp.Set(imop.Lerp)
		s.comp.Draw(s.img, r, s.layer, st.Coverage)
	}
}

// sample renders the part of the source image which lands in the r surface rectangle.
// Texels outside of the source bounds stay transparent.
func (s *Surface) sample(r image.Rectangle) *image.NRGBA {
	dst := image.NewRGBA(r)
	sr := s.source.Bounds()

	// Account for the source images not anchored at the origin.
	s2d := s.placement.transform()
	s2d[2] -= s.placement.Scale * float64(sr.Min.X)
	s2d[5] -= s.placement.Scale * float64(sr.Min.Y)
	resampler.Transform(dst, s2d, s.source, sr, xdraw.Src, nil)

	return rgbaToNRGBA(dst)
}

// Snapshot encodes the full surface content as PNG.
func (s *Surface) Snapshot() ([]byte, error) {
	var buf bytes.Buffer
	if err := snapshotEncoder.Encode(&buf, s.img); err != nil {
		return nil, fmt.Errorf("could not encode the surface snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Restore replaces the surface content with the decoded snapshot.
// On error the surface is left untouched.
func (s *Surface) Restore(data []byte) error {
	img, err := s.decodeSnapshot(data)
	if err != nil {
		return err
	}
	s.replace(img)
	return nil
}

// decodeSnapshot decodes a snapshot without touching the surface.
func (s *Surface) decodeSnapshot(data []byte) (*image.NRGBA, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{What: "history snapshot", Err: err}
	}
	if src.Bounds().Size() != s.Bounds().Size() {
		return nil, &DecodeError{
			What: "history snapshot",
			Err:  fmt.Errorf("size %v does not match the surface size %v", src.Bounds().Size(), s.Bounds().Size()),
		}
	}
	return imgToNRGBA(src), nil
}

func (s *Surface) replace(img *image.NRGBA) {
	copy(s.img.Pix, img.Pix)
}

// Image returns a point-in-time copy of the surface content.
func (s *Surface) Image() *image.NRGBA {
	dst := image.NewNRGBA(s.img.Rect)
	copy(dst.Pix, s.img.Pix)
	return dst
}

// rgbaToNRGBA converts the premultiplied pixels to non-premultiplied ones, keeping the bounds.
func rgbaToNRGBA(src *image.RGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	for y := src.Rect.Min.Y; y < src.Rect.Max.Y; y++ {
		for x := src.Rect.Min.X; x < src.Rect.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.RGBAAt(x, y)).(color.NRGBA)
			dst.SetNRGBA(x, y, c)
		}
	}
	return dst
}
