package gui

import (
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"github.com/esimov/cutout"
	"github.com/esimov/cutout/utils"
)

const checkerSize = 8

var (
	checkerLight = color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	checkerDark  = color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
)

// fitViewport centers the surface in the window, scaled down (or up) to fit.
func fitViewport(win, surface image.Point) cutout.Viewport {
	vp := cutout.Viewport{
		SurfaceWidth:  surface.X,
		SurfaceHeight: surface.Y,
	}
	if surface.X <= 0 || surface.Y <= 0 || win.X <= 0 || win.Y <= 0 {
		return vp
	}
	r := math.Min(float64(win.X)/float64(surface.X), float64(win.Y)/float64(surface.Y))
	vp.Width = float64(surface.X) * r
	vp.Height = float64(surface.Y) * r
	vp.Left = (float64(win.X) - vp.Width) / 2
	vp.Top = (float64(win.Y) - vp.Height) / 2
	return vp
}

// getRatio returns the ratio keeping a w x h window inside the screen limits.
func getRatio(w, h float64) float64 {
	r := 1.0
	if w > maxScreenX || h > maxScreenY {
		wr := maxScreenX / w // width ratio
		hr := maxScreenY / h // height ratio

		r = utils.Min(wr, hr)
	}
	return r
}

// drawChecker paints the transparency checkerboard under the displayed surface.
func drawChecker(ops *op.Ops, r image.Rectangle) {
	defer clip.Rect(r).Push(ops).Pop()
	paint.ColorOp{Color: checkerLight}.Add(ops)
	paint.PaintOp{}.Add(ops)

	for y := r.Min.Y; y < r.Max.Y; y += checkerSize {
		for x := r.Min.X; x < r.Max.X; x += checkerSize {
			if ((x-r.Min.X)/checkerSize+(y-r.Min.Y)/checkerSize)%2 == 0 {
				continue
			}
			cell := image.Rect(x, y, x+checkerSize, y+checkerSize).Intersect(r)
			paint.FillShape(ops, checkerDark, clip.Rect(cell).Op())
		}
	}
}

// drawSurface paints the surface image stretched over the viewport.
func drawSurface(ops *op.Ops, img image.Image, vp cutout.Viewport) {
	if vp.SurfaceWidth == 0 {
		return
	}
	scale := float32(vp.Width / float64(vp.SurfaceWidth))
	tr := f32.Affine2D{}.
		Scale(f32.Point{}, f32.Pt(scale, scale)).
		Offset(f32.Pt(float32(vp.Left), float32(vp.Top)))
	defer op.Affine(tr).Push(ops).Pop()
	defer clip.Rect{Max: img.Bounds().Size()}.Push(ops).Pop()

	src := paint.NewImageOp(img)
	src.Add(ops)
	paint.PaintOp{}.Add(ops)
}

// drawCircle outlines the brush footprint at the (x,y) window coordinate.
func drawCircle(ops *op.Ops, x, y, radius, width float32, col color.NRGBA) {
	if radius <= 0 {
		return
	}
	var (
		orig = f32.Pt(x-radius, y)
		p1   = f32.Pt(x, y).Sub(orig)
		p2   = p1
		path clip.Path
	)

	path.Begin(ops)
	path.Move(orig)
	path.Arc(p1, p2, 2*math.Pi)
	path.Close()

	defer clip.Stroke{Path: path.End(), Width: width}.Op().Push(ops).Pop()
	paint.ColorOp{Color: col}.Add(ops)
	paint.PaintOp{}.Add(ops)
}

// setColor converts any color to the non-premultiplied Gio paint color.
func setColor(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}
