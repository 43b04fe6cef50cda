package cutout

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func newTestSurface(t *testing.T, src image.Image, w, h int) *Surface {
	t.Helper()
	s, err := NewSurface(w, h)
	require.NoError(t, err)
	sb := src.Bounds()
	s.DrawFullImage(src, NewPlacement(w, h, sb.Dx(), sb.Dy()))
	return s
}

func alphaAt(img *image.NRGBA, x, y int) uint8 {
	return img.Pix[img.PixOffset(x, y)+3]
}

func TestSurface_InvalidSize(t *testing.T) {
	_, err := NewSurface(0, 10)
	assert.Error(t, err)
}

func TestSurface_DrawFullImageLetterbox(t *testing.T) {
	s := newTestSurface(t, solidImage(200, 100, color.NRGBA{R: 255, A: 255}), 100, 100)
	img := s.Image()

	// The image is fitted into the 100x50 band centered vertically.
	assert.Zero(t, alphaAt(img, 50, 10))
	assert.Zero(t, alphaAt(img, 50, 90))
	assert.Equal(t, uint8(255), alphaAt(img, 50, 50))
}

func TestSurface_Clear(t *testing.T) {
	s := newTestSurface(t, solidImage(10, 10, color.NRGBA{R: 255, G: 10, A: 255}), 10, 10)
	s.Clear()
	for _, v := range s.Image().Pix {
		if v != 0 {
			t.Fatalf("expected a transparent surface, got %d", v)
		}
	}
}

func TestSurface_HardEraseDisk(t *testing.T) {
	s := newTestSurface(t, gradientImage(100, 100), 100, 100)
	before := s.Image()

	b := DefaultBrush()
	b.SetSize(20)
	st := b.Stencil(50, 50)
	s.CompositeStencil(st, Erase)
	after := s.Image()

	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			d := math.Hypot(float64(x)+0.5-50, float64(y)+0.5-50)
			i := after.PixOffset(x, y)
			if d <= st.Radius {
				assert.Zero(t, after.Pix[i+3], "pixel (%d,%d) should be erased", x, y)
			} else {
				assert.Equal(t, before.Pix[i:i+4], after.Pix[i:i+4], "pixel (%d,%d) should be untouched", x, y)
			}
		}
	}
}

func TestSurface_SoftEraseEdge(t *testing.T) {
	s := newTestSurface(t, solidImage(100, 100, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), 100, 100)

	b := DefaultBrush()
	b.SetSize(50)
	b.SetSoftness(0.4)
	s.CompositeStencil(b.Stencil(50.5, 50.5), Erase)
	img := s.Image()

	assert.Zero(t, alphaAt(img, 50, 50))
	assert.Zero(t, alphaAt(img, 65, 50))
	// Halfway through the feathered ring.
	assert.InDelta(t, 128, int(alphaAt(img, 70, 50)), 1)
	assert.Equal(t, uint8(255), alphaAt(img, 76, 50))

	// Erasing keeps the color channels.
	i := img.PixOffset(70, 50)
	assert.Equal(t, []uint8{10, 20, 30}, img.Pix[i:i+3])
}

func TestSurface_EraseRestoreRoundTrip(t *testing.T) {
	s := newTestSurface(t, gradientImage(120, 80), 100, 100)
	initial := s.Image()

	b := DefaultBrush()
	b.SetSize(30)
	for _, pt := range [][2]float64{{50, 50}, {30, 40}, {70, 60}} {
		s.CompositeStencil(b.Stencil(pt[0], pt[1]), Erase)
	}
	assert.NotEqual(t, initial.Pix, s.Image().Pix)

	for _, pt := range [][2]float64{{50, 50}, {30, 40}, {70, 60}} {
		s.CompositeStencil(b.Stencil(pt[0], pt[1]), Restore)
	}
	assert.Equal(t, initial.Pix, s.Image().Pix)
}

func TestSurface_RestoreOutsidePlacement(t *testing.T) {
	// 200x100 source fitted at y in [25, 75].
	s := newTestSurface(t, solidImage(200, 100, color.NRGBA{G: 255, A: 255}), 100, 100)

	b := DefaultBrush()
	b.SetSize(30)
	s.CompositeStencil(b.Stencil(50, 30), Erase)
	before := s.Image()

	s.CompositeStencil(b.Stencil(50, 15), Restore)
	assert.Equal(t, before.Pix, s.Image().Pix)

	s.CompositeStencil(b.Stencil(-40, -40), Erase)
	s.CompositeStencil(b.Stencil(500, 500), Restore)
	assert.Equal(t, before.Pix, s.Image().Pix)

	// Centered inside, the stroke restores the erased area.
	s.CompositeStencil(b.Stencil(50, 30), Restore)
	assert.Equal(t, uint8(255), alphaAt(s.Image(), 50, 30))
}

func TestSurface_RestorePartialOverlapKeepsLetterbox(t *testing.T) {
	// 200x100 source fitted at y in [25, 75].
	s := newTestSurface(t, solidImage(200, 100, color.NRGBA{G: 255, A: 255}), 100, 100)
	initial := s.Image()

	b := DefaultBrush()
	b.SetSize(30)
	s.CompositeStencil(b.Stencil(50, 26), Erase)
	s.CompositeStencil(b.Stencil(50, 26), Restore)
	img := s.Image()

	for y := 0; y < 25; y++ {
		for x := 0; x < 100; x++ {
			if a := alphaAt(img, x, y); a != 0 {
				t.Fatalf("letterbox pixel (%d,%d) got alpha %d", x, y, a)
			}
		}
	}
	assert.Equal(t, uint8(255), alphaAt(img, 50, 25))
	assert.Equal(t, initial.Pix, img.Pix)
}

func TestSurface_RestoreTranslucentSource(t *testing.T) {
	s := newTestSurface(t, solidImage(100, 100, color.NRGBA{R: 200, G: 40, B: 90, A: 128}), 100, 100)
	initial := s.Image()

	b := DefaultBrush()
	b.SetSize(20)

	// Restoring untouched pixels changes nothing, however many times.
	for i := 0; i < 3; i++ {
		s.CompositeStencil(b.Stencil(50, 50), Restore)
		assert.Equal(t, initial.Pix, s.Image().Pix)
	}

	b.SetOpacity(0.5)
	s.CompositeStencil(b.Stencil(50, 50), Erase)
	assert.Less(t, alphaAt(s.Image(), 50, 50), alphaAt(initial, 50, 50))

	// A soft, partial restore approaches the source without overshooting it.
	soft := b
	soft.SetOpacity(0.3)
	soft.SetSoftness(0.8)
	for i := 0; i < 5; i++ {
		s.CompositeStencil(soft.Stencil(50, 50), Restore)
		img := s.Image()
		for j := 3; j < len(img.Pix); j += 4 {
			if img.Pix[j] > initial.Pix[j] {
				t.Fatalf("restored alpha %d exceeds the source alpha %d", img.Pix[j], initial.Pix[j])
			}
		}
	}

	b.SetOpacity(1)
	s.CompositeStencil(b.Stencil(50, 50), Restore)
	assert.Equal(t, initial.Pix, s.Image().Pix)
}

func TestSurface_RestoreWithoutSource(t *testing.T) {
	s, err := NewSurface(10, 10)
	require.NoError(t, err)

	s.CompositeStencil(DefaultBrush().Stencil(5, 5), Restore)
	assert.Equal(t, make([]uint8, 10*10*4), s.Image().Pix)
}

func TestSurface_SnapshotRestore(t *testing.T) {
	s := newTestSurface(t, gradientImage(64, 64), 64, 64)

	b := DefaultBrush()
	b.SetSoftness(0.5)
	b.SetOpacity(0.6)
	s.CompositeStencil(b.Stencil(20, 20), Erase)
	want := s.Image()

	data, err := s.Snapshot()
	require.NoError(t, err)

	s.CompositeStencil(b.Stencil(40, 40), Erase)
	require.NoError(t, s.Restore(data))
	assert.Equal(t, want.Pix, s.Image().Pix)
}

func TestSurface_RestoreDecodeError(t *testing.T) {
	s := newTestSurface(t, gradientImage(32, 32), 32, 32)
	want := s.Image()

	err := s.Restore([]byte("not a png"))
	var derr *DecodeError
	assert.ErrorAs(t, err, &derr)
	assert.Equal(t, want.Pix, s.Image().Pix)

	other := newTestSurface(t, gradientImage(16, 16), 16, 16)
	data, err := other.Snapshot()
	require.NoError(t, err)
	assert.ErrorAs(t, s.Restore(data), &derr)
	assert.Equal(t, want.Pix, s.Image().Pix)
}

func TestSurface_ImageIsCopy(t *testing.T) {
	s := newTestSurface(t, gradientImage(16, 16), 16, 16)
	img := s.Image()
	img.Pix[3] = 0
	assert.Equal(t, uint8(255), alphaAt(s.Image(), 0, 0))
}
