package cutout

// Viewport describes the rectangle, in client (device) coordinates, where the
// surface is displayed. The displayed size may differ from the backing surface size.
type Viewport struct {
	Left, Top     float64
	Width, Height float64

	SurfaceWidth  int
	SurfaceHeight int
}

// IdentityViewport returns a viewport where the client and surface coordinates coincide.
func IdentityViewport(surfaceW, surfaceH int) Viewport {
	return Viewport{
		Width:         float64(surfaceW),
		Height:        float64(surfaceH),
		SurfaceWidth:  surfaceW,
		SurfaceHeight: surfaceH,
	}
}

// ToSurfaceSpace converts the client coordinates into surface pixel coordinates,
// scaling each axis by the surface to displayed size ratio.
func (v Viewport) ToSurfaceSpace(clientX, clientY float64) (x, y float64) {
	sx, sy := 1.0, 1.0
	if v.Width > 0 {
		sx = float64(v.SurfaceWidth) / v.Width
	}
	if v.Height > 0 {
		sy = float64(v.SurfaceHeight) / v.Height
	}
	return (clientX - v.Left) * sx, (clientY - v.Top) * sy
}
