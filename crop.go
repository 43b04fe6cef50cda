package cutout

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/esimov/cutout/utils"
)

// Crop box defaults.
const (
	DefaultAspect = 1.0
	AutoCropArea  = 0.65
	// ZoomStep is the relative box size change of a zoom in/out toolbar action.
	ZoomStep = 0.08
)

// Cropper is the capability the editor needs from a crop tool.
type Cropper interface {
	// CroppedRegion returns the selected region resized to w x h.
	// A non-positive dimension keeps the region size.
	CroppedRegion(w, h int) (*image.NRGBA, error)
	// Reset restores the initial crop box.
	Reset() error
	// SetAspect constrains the box to the width/height ratio. Zero means free.
	SetAspect(ratio float64) error
	// Destroy tears the tool down; every later call fails with ErrCropperDestroyed.
	Destroy()
}

// BoxCropper is a rectangular crop box laid over the source image.
type BoxCropper struct {
	img       *image.NRGBA
	box       image.Rectangle
	aspect    float64
	destroyed bool
}

var _ Cropper = (*BoxCropper)(nil)

// NewBoxCropper creates a crop tool with a square box covering
// AutoCropArea of the image, centered.
func NewBoxCropper(img image.Image) *BoxCropper {
	c := &BoxCropper{
		img:    imgToNRGBA(img),
		aspect: DefaultAspect,
	}
	c.box = c.initialBox()
	return c
}

// Box returns the current crop box in image coordinates.
func (c *BoxCropper) Box() image.Rectangle {
	return c.box
}

// Aspect returns the box aspect ratio constraint.
func (c *BoxCropper) Aspect() float64 {
	return c.aspect
}

// SetBox moves the crop box. The box is constrained to the aspect ratio,
// keeping its width, and clamped inside the image.
func (c *BoxCropper) SetBox(r image.Rectangle) error {
	if c.destroyed {
		return ErrCropperDestroyed
	}
	r = r.Canon()
	w, h := r.Dx(), r.Dy()
	if c.aspect > 0 {
		h = int(math.Round(float64(w) / c.aspect))
	}
	c.box = c.fit(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2, w, h)
	return nil
}

// Reset restores the initial crop box.
func (c *BoxCropper) Reset() error {
	if c.destroyed {
		return ErrCropperDestroyed
	}
	c.box = c.initialBox()
	return nil
}

// SetAspect changes the aspect ratio, keeping the box center and its area as much as possible.
func (c *BoxCropper) SetAspect(ratio float64) error {
	if c.destroyed {
		return ErrCropperDestroyed
	}
	if ratio < 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 0
	}
	c.aspect = ratio
	if ratio == 0 {
		return nil
	}
	area := float64(c.box.Dx() * c.box.Dy())
	w := int(math.Round(math.Sqrt(area * ratio)))
	h := int(math.Round(float64(w) / ratio))
	cx, cy := c.center()
	c.box = c.fit(cx, cy, w, h)
	return nil
}

// Center moves the box to the center of the image.
func (c *BoxCropper) Center() error {
	if c.destroyed {
		return ErrCropperDestroyed
	}
	b := c.img.Bounds()
	c.box = c.fit(b.Dx()/2, b.Dy()/2, c.box.Dx(), c.box.Dy())
	return nil
}

// CenterOn moves the center of the box to the (x, y) image point, keeping the box inside the image.
func (c *BoxCropper) CenterOn(x, y int) error {
	if c.destroyed {
		return ErrCropperDestroyed
	}
	c.box = c.fit(x, y, c.box.Dx(), c.box.Dy())
	return nil
}

// Maximize grows the box to the largest one respecting the aspect ratio, centered on the image.
func (c *BoxCropper) Maximize() error {
	if c.destroyed {
		return ErrCropperDestroyed
	}
	b := c.img.Bounds()
	w, h := c.maxSize()
	c.box = c.fit(b.Dx()/2, b.Dy()/2, w, h)
	return nil
}

// Zoom grows (positive ratio) or shrinks (negative ratio) the box about its center
// by the given fraction of its size, keeping the aspect ratio and the box inside the image.
func (c *BoxCropper) Zoom(ratio float64) error {
	if c.destroyed {
		return ErrCropperDestroyed
	}
	f := 1 + ratio
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.New("invalid zoom ratio")
	}
	w := int(math.Round(float64(c.box.Dx()) * f))
	h := int(math.Round(float64(c.box.Dy()) * f))
	if c.aspect > 0 {
		h = int(math.Round(float64(w) / c.aspect))
	}
	cx, cy := c.center()
	c.box = c.fit(cx, cy, w, h)
	return nil
}

// CenterOnFace centers the box on the most confident face found by the detector.
// It reports whether a face has been found.
func (c *BoxCropper) CenterOnFace(d *FaceDetector) (bool, error) {
	if c.destroyed {
		return false, ErrCropperDestroyed
	}
	faces := d.Detect(c.img)
	if len(faces) == 0 {
		return false, nil
	}
	face := faces[0].Rect
	w, h := c.box.Dx(), c.box.Dy()
	if face.Dx() > w || face.Dy() > h {
		// Grow the box to include the whole face.
		w = utils.Max(w, face.Dx())
		h = utils.Max(h, face.Dy())
		if c.aspect > 0 {
			w = utils.Max(w, int(math.Round(float64(h)*c.aspect)))
			h = int(math.Round(float64(w) / c.aspect))
		}
	}
	c.box = c.fit(face.Min.X+face.Dx()/2, face.Min.Y+face.Dy()/2, w, h)
	return true, nil
}

// CroppedRegion returns a copy of the selected region, resized to w x h with the
// Lanczos filter when both dimensions are positive.
func (c *BoxCropper) CroppedRegion(w, h int) (*image.NRGBA, error) {
	if c.destroyed {
		return nil, ErrCropperDestroyed
	}
	region := imaging.Crop(c.img, c.box)
	if w <= 0 || h <= 0 {
		return region, nil
	}
	return imaging.Resize(region, w, h, imaging.Lanczos), nil
}

// Destroy releases the image. The cropper cannot be used afterwards.
func (c *BoxCropper) Destroy() {
	c.destroyed = true
	c.img = nil
	c.box = image.Rectangle{}
}

func (c *BoxCropper) center() (int, int) {
	return c.box.Min.X + c.box.Dx()/2, c.box.Min.Y + c.box.Dy()/2
}

// maxSize returns the largest box dimension respecting the aspect ratio.
func (c *BoxCropper) maxSize() (int, int) {
	b := c.img.Bounds()
	if c.aspect <= 0 {
		return b.Dx(), b.Dy()
	}
	w, h := float64(b.Dx()), float64(b.Dy())
	if w/h > c.aspect {
		w = h * c.aspect
	} else {
		h = w / c.aspect
	}
	return int(math.Round(w)), int(math.Round(h))
}

func (c *BoxCropper) initialBox() image.Rectangle {
	b := c.img.Bounds()
	w, h := c.maxSize()
	w = int(math.Round(float64(w) * AutoCropArea))
	h = int(math.Round(float64(h) * AutoCropArea))
	return c.fit(b.Dx()/2, b.Dy()/2, w, h)
}

// fit returns the w x h box centered at (cx, cy), shrunk to the image size and shifted inside it.
func (c *BoxCropper) fit(cx, cy, w, h int) image.Rectangle {
	b := c.img.Bounds()
	if c.aspect > 0 {
		if mw, mh := c.maxSize(); w > mw || h > mh {
			w, h = mw, mh
		}
	}
	w = utils.Clamp(w, 1, b.Dx())
	h = utils.Clamp(h, 1, b.Dy())

	x := utils.Clamp(cx-w/2, 0, b.Dx()-w)
	y := utils.Clamp(cy-h/2, 0, b.Dy()-h)
	return image.Rect(x, y, x+w, y+h)
}
