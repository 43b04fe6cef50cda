package cutout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) (*StrokeController, *Session) {
	t.Helper()
	s, err := OpenSession(gradientImage(100, 100), 100, 100)
	require.NoError(t, err)
	return NewStrokeController(s, IdentityViewport(100, 100)), s
}

func down(x, y float64, mods Modifiers) PointerEvent {
	return PointerEvent{Type: PointerDown, X: x, Y: y, Modifiers: mods}
}

func move(x, y float64) PointerEvent {
	return PointerEvent{Type: PointerMove, X: x, Y: y}
}

func up(x, y float64) PointerEvent {
	return PointerEvent{Type: PointerUp, X: x, Y: y}
}

func TestStroke_OneSnapshotPerStroke(t *testing.T) {
	c, s := newTestController(t)

	for _, ev := range []PointerEvent{down(20, 20, 0), move(30, 20), move(40, 20), up(40, 20)} {
		require.NoError(t, c.Handle(ev))
	}
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 2, s.HistoryLen())

	img, err := s.Export()
	require.NoError(t, err)
	assert.Zero(t, alphaAt(img, 20, 20))
	assert.Zero(t, alphaAt(img, 30, 20))
	assert.Zero(t, alphaAt(img, 40, 20))
	assert.Equal(t, uint8(255), alphaAt(img, 80, 80))
}

func TestStroke_IdleIgnoresMoveAndUp(t *testing.T) {
	c, s := newTestController(t)
	before := exportPix(t, s)

	require.NoError(t, c.Handle(move(50, 50)))
	require.NoError(t, c.Handle(up(50, 50)))
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 1, s.HistoryLen())
	assert.Equal(t, before, exportPix(t, s))
}

func TestStroke_ModifierOverrideIsNotPersisted(t *testing.T) {
	c, s := newTestController(t)

	require.NoError(t, c.Handle(down(50, 50, ModAlt)))
	assert.Equal(t, Stroking, c.State())
	assert.Equal(t, Restore, c.EffectiveMode())
	require.NoError(t, c.Handle(up(50, 50)))
	assert.Equal(t, Erase, s.Brush().Mode)

	// A restore stroke over an intact image leaves it as it was.
	assert.Equal(t, 2, s.HistoryLen())
	img, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, uint8(255), alphaAt(img, 50, 50))

	require.NoError(t, c.Handle(down(50, 50, ModShift)))
	assert.Equal(t, Erase, c.EffectiveMode())
	require.NoError(t, c.Handle(up(50, 50)))

	s.UpdateBrush(func(b *BrushSettings) { b.SetMode(Restore) })
	require.NoError(t, c.Handle(down(50, 50, ModAlt|ModShift)))
	assert.Equal(t, Erase, c.EffectiveMode())
	require.NoError(t, c.Handle(up(50, 50)))
}

func TestStroke_BrushChangesApplyToNextStroke(t *testing.T) {
	c, s := newTestController(t)

	require.NoError(t, c.Handle(down(50, 50, 0)))
	s.UpdateBrush(func(b *BrushSettings) { b.SetSize(80) })
	require.NoError(t, c.Handle(up(50, 50)))

	img, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, uint8(255), alphaAt(img, 50, 70))
}

func TestStroke_ViewportMapping(t *testing.T) {
	c, s := newTestController(t)
	c.SetViewport(Viewport{Left: 100, Top: 100, Width: 50, Height: 50, SurfaceWidth: 100, SurfaceHeight: 100})

	require.NoError(t, c.Handle(down(125, 125, 0)))
	require.NoError(t, c.Handle(up(125, 125)))

	img, err := s.Export()
	require.NoError(t, err)
	assert.Zero(t, alphaAt(img, 50, 50))
	assert.Equal(t, uint8(255), alphaAt(img, 25, 25))
}

func TestStroke_Interpolation(t *testing.T) {
	sparse, s1 := newTestController(t)
	dense, s2 := newTestController(t)
	dense.Spacing = 0.25

	for _, c := range []*StrokeController{sparse, dense} {
		require.NoError(t, c.Handle(down(10, 50, 0)))
		require.NoError(t, c.Handle(move(90, 50)))
		require.NoError(t, c.Handle(up(90, 50)))
	}

	img1, err := s1.Export()
	require.NoError(t, err)
	img2, err := s2.Export()
	require.NoError(t, err)

	assert.Equal(t, uint8(255), alphaAt(img1, 50, 50))
	assert.Zero(t, alphaAt(img2, 50, 50))
	assert.Equal(t, 2, s2.HistoryLen())
}

func TestStroke_NoSession(t *testing.T) {
	c, s := newTestController(t)
	require.NoError(t, c.Handle(down(50, 50, 0)))
	s.Close()

	assert.ErrorIs(t, c.Handle(move(60, 50)), ErrNoSession)
	assert.Equal(t, Idle, c.State())
}

func TestStroke_BusyDropsStampButKeepsState(t *testing.T) {
	c, s := newTestController(t)
	s.decoding.Store(true)

	assert.ErrorIs(t, c.Handle(down(50, 50, 0)), ErrBusy)
	assert.Equal(t, Stroking, c.State())
	s.decoding.Store(false)

	require.NoError(t, c.Handle(up(50, 50)))
	assert.Equal(t, 1, s.HistoryLen())
	img, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, uint8(255), alphaAt(img, 50, 50))
}

func TestStroke_DroppedStrokeRecordsNoSnapshot(t *testing.T) {
	c, s := newTestController(t)

	for _, ev := range []PointerEvent{down(20, 20, 0), move(30, 20), up(30, 20)} {
		require.NoError(t, c.Handle(ev))
	}
	require.Equal(t, 2, s.HistoryLen())
	erased := exportPix(t, s)

	s.decoding.Store(true)
	assert.ErrorIs(t, c.Handle(down(60, 60, 0)), ErrBusy)
	assert.ErrorIs(t, c.Handle(move(70, 60)), ErrBusy)
	s.decoding.Store(false)
	require.NoError(t, c.Handle(up(70, 60)))

	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 2, s.HistoryLen())
	assert.Equal(t, erased, exportPix(t, s))

	// The first undo reverts the real stroke.
	require.NoError(t, s.Undo())
	img, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, uint8(255), alphaAt(img, 20, 20))
}

func TestStroke_PartiallyDroppedStrokeIsRecorded(t *testing.T) {
	c, s := newTestController(t)

	s.decoding.Store(true)
	assert.ErrorIs(t, c.Handle(down(20, 20, 0)), ErrBusy)
	s.decoding.Store(false)
	require.NoError(t, c.Handle(move(40, 20)))
	require.NoError(t, c.Handle(up(40, 20)))

	assert.Equal(t, 2, s.HistoryLen())
}

func TestStroke_Run(t *testing.T) {
	c, s := newTestController(t)

	events := make(chan PointerEvent, 4)
	events <- down(20, 20, 0)
	events <- move(25, 25)
	events <- up(25, 25)
	close(events)

	require.NoError(t, c.Run(context.Background(), events))
	assert.Equal(t, 2, s.HistoryLen())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Run(ctx, make(chan PointerEvent)), context.Canceled)
}
