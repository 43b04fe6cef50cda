package cutout

import (
	"context"
	"errors"
	"math"
)

// EventType is the kind of a pointer event.
type EventType int

const (
	PointerDown EventType = iota
	PointerMove
	PointerUp
)

// Modifiers is the set of modifier keys held during a pointer event.
type Modifiers uint8

const (
	ModAlt Modifiers = 1 << iota
	ModShift
	ModCtrl
)

// Contain reports whether m contains all the modifiers of m2.
func (m Modifiers) Contain(m2 Modifiers) bool {
	return m&m2 == m2
}

// PointerEvent is a device independent pointer event expressed in client coordinates.
type PointerEvent struct {
	Type      EventType
	X, Y      float64
	Modifiers Modifiers
}

// StrokeState is the state of the stroke controller.
type StrokeState int

const (
	Idle StrokeState = iota
	Stroking
)

// StrokeController turns a pointer down/move/up sequence into brush applications.
// Holding the Override modifiers on pointer down flips the brush mode for that stroke only.
type StrokeController struct {
	// Override is the modifier set flipping the effective mode of a stroke.
	Override Modifiers
	// Spacing, as a fraction of the brush radius, of the stamps interpolated
	// between two consecutive pointer positions. Zero disables the interpolation.
	Spacing float64

	session  *Session
	viewport Viewport

	state StrokeState
	mode  Mode
	brush BrushSettings
	lastX float64
	lastY float64
	// stamped is set once a stencil of the ongoing stroke reached the surface.
	stamped bool
}

// NewStrokeController creates an idle controller editing the session displayed through the viewport.
func NewStrokeController(s *Session, vp Viewport) *StrokeController {
	return &StrokeController{
		Override: ModAlt,
		session:  s,
		viewport: vp,
	}
}

// SetViewport updates the displayed surface rectangle, e.g. after a window resize.
func (c *StrokeController) SetViewport(vp Viewport) {
	c.viewport = vp
}

// State returns the current state of the controller.
func (c *StrokeController) State() StrokeState {
	return c.state
}

// EffectiveMode returns the mode of the ongoing stroke.
func (c *StrokeController) EffectiveMode() Mode {
	return c.mode
}

// Handle feeds a single pointer event into the state machine. ErrBusy means the
// stamp was dropped because of a decode in flight; the state still advances.
// A pointer up records a snapshot only if the stroke changed the surface.
func (c *StrokeController) Handle(ev PointerEvent) error {
	if !c.session.Active() {
		c.state = Idle
		return ErrNoSession
	}
	x, y := c.viewport.ToSurfaceSpace(ev.X, ev.Y)

	switch ev.Type {
	case PointerDown:
		c.brush = c.session.Brush()
		c.mode = c.brush.Mode
		if c.Override != 0 && ev.Modifiers.Contain(c.Override) {
			c.mode = c.mode.Flip()
		}
		c.state = Stroking
		c.lastX, c.lastY = x, y
		err := c.session.Stamp(x, y, c.mode)
		c.stamped = err == nil
		return err
	case PointerMove:
		if c.state != Stroking {
			return nil
		}
		err := c.interpolate(x, y)
		e := c.session.Stamp(x, y, c.mode)
		if e == nil {
			c.stamped = true
		} else if err == nil {
			err = e
		}
		c.lastX, c.lastY = x, y
		return err
	case PointerUp:
		if c.state != Stroking {
			return nil
		}
		c.state = Idle
		// A stroke entirely dropped while busy left the surface as it was.
		if !c.stamped {
			return nil
		}
		return c.session.EndStroke()
	}
	return nil
}

// interpolate stamps the intermediate positions between the last and the current point
// with the brush captured at the start of the stroke.
func (c *StrokeController) interpolate(x, y float64) error {
	if c.Spacing <= 0 {
		return nil
	}
	step := math.Max(1, c.brush.Radius()*c.Spacing)
	dist := math.Hypot(x-c.lastX, y-c.lastY)
	n := int(dist / step)

	var err error
	for i := 1; i < n; i++ {
		t := float64(i) / float64(n)
		px := c.lastX + (x-c.lastX)*t
		py := c.lastY + (y-c.lastY)*t
		e := c.session.StampWith(c.brush, px, py, c.mode)
		if e == nil {
			c.stamped = true
		} else if err == nil {
			err = e
		}
	}
	return err
}

// Run consumes the pointer events until the channel is closed or the context is done.
// Dropped stamps are ignored; any other error stops the loop.
func (c *StrokeController) Run(ctx context.Context, events <-chan PointerEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := c.Handle(ev); err != nil && !errors.Is(err, ErrBusy) {
				return err
			}
		}
	}
}
