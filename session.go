package cutout

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
)

// Session is a single cutout editing session. It owns the surface, the source image,
// its placement, the brush settings and the undo history.
//
// The surface is mutated synchronously by the stroke input. A snapshot decode (undo)
// may run in a separate goroutine: while it is in flight every stamp is dropped
// with ErrBusy. Export can be called from any goroutine, it returns a point-in-time copy.
type Session struct {
	mu sync.RWMutex

	surface   *Surface
	source    image.Image
	placement Placement
	brush     BrushSettings
	history   *History

	decoding atomic.Bool
	closed   atomic.Bool
}

// OpenSession starts an editing session over src, fitted into a surface of
// the given size. The initial, unmodified state is recorded in the history.
func OpenSession(src image.Image, width, height int) (*Session, error) {
	if src == nil {
		return nil, errors.New("cannot open an editing session without a source image")
	}
	sb := src.Bounds()
	if sb.Empty() {
		return nil, fmt.Errorf("invalid source image size %dx%d", sb.Dx(), sb.Dy())
	}

	surface, err := NewSurface(width, height)
	if err != nil {
		return nil, err
	}

	s := &Session{
		surface:   surface,
		source:    src,
		placement: NewPlacement(width, height, sb.Dx(), sb.Dy()),
		brush:     DefaultBrush(),
		history:   NewHistory(HistoryCapacity),
	}
	s.surface.DrawFullImage(src, s.placement)

	initial, err := s.surface.Snapshot()
	if err != nil {
		return nil, err
	}
	s.history.Reset(initial)

	return s, nil
}

// Close tears down the session. Every later operation returns ErrNoSession.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed.Store(true)
	s.history.Reset(nil)
	s.surface = nil
	s.source = nil
}

// Active reports whether the session is open.
func (s *Session) Active() bool {
	return s != nil && !s.closed.Load()
}

// Busy reports whether a snapshot decode is in flight.
func (s *Session) Busy() bool {
	return s.decoding.Load()
}

// Size returns the surface dimension.
func (s *Session) Size() image.Point {
	if !s.Active() {
		return image.Point{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.surface == nil {
		return image.Point{}
	}
	return s.surface.Bounds().Size()
}

// Placement returns how the source image is fitted into the surface.
func (s *Session) Placement() Placement {
	if !s.Active() {
		return Placement{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.placement
}

// Brush returns the current brush settings.
func (s *Session) Brush() BrushSettings {
	if s == nil {
		return DefaultBrush()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.brush
}

// UpdateBrush mutates the brush settings. The change applies to the next stencil.
func (s *Session) UpdateBrush(fn func(b *BrushSettings)) error {
	if !s.Active() {
		return ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.brush)
	return nil
}

// HistoryLen returns the number of recorded snapshots.
func (s *Session) HistoryLen() int {
	if !s.Active() {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Len()
}

// Stamp applies one stencil of the current brush centered at the (x, y) surface point.
func (s *Session) Stamp(x, y float64, mode Mode) error {
	return s.stamp(nil, x, y, mode)
}

// StampWith applies one stencil of the given brush, ignoring the session settings.
func (s *Session) StampWith(b BrushSettings, x, y float64, mode Mode) error {
	return s.stamp(&b, x, y, mode)
}

func (s *Session) stamp(b *BrushSettings, x, y float64, mode Mode) error {
	if !s.Active() {
		return ErrNoSession
	}
	if s.decoding.Load() {
		return ErrBusy
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return ErrNoSession
	}
	if b == nil {
		b = &s.brush
	}
	s.surface.CompositeStencil(b.Stencil(x, y), mode)
	return nil
}

// EndStroke records the surface state after a completed stroke.
func (s *Session) EndStroke() error {
	if !s.Active() {
		return ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return ErrNoSession
	}
	data, err := s.surface.Snapshot()
	if err != nil {
		return err
	}
	s.history.Push(data)
	return nil
}

// Undo reverts the surface to the previous snapshot. It is a no-op when only
// the initial state is left. On a decode failure the surface and history are untouched.
func (s *Session) Undo() error {
	if !s.Active() {
		return ErrNoSession
	}
	if !s.decoding.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.decoding.Store(false)

	return s.undo()
}

// UndoAsync runs the undo in a separate goroutine and reports its result on the returned channel.
// The stroke input is dropped until the decode completes.
func (s *Session) UndoAsync() <-chan error {
	done := make(chan error, 1)
	if !s.Active() {
		done <- ErrNoSession
		return done
	}
	if !s.decoding.CompareAndSwap(false, true) {
		done <- ErrBusy
		return done
	}
	go func() {
		defer s.decoding.Store(false)
		done <- s.undo()
	}()
	return done
}

func (s *Session) undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return ErrNoSession
	}
	_, err := s.history.Undo(s.surface.Restore)
	return err
}

// Export returns a point-in-time copy of the surface content.
func (s *Session) Export() (*image.NRGBA, error) {
	if !s.Active() {
		return nil, ErrNoSession
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.surface == nil {
		return nil, ErrNoSession
	}
	return s.surface.Image(), nil
}

// Snapshot returns the PNG encoded surface content.
func (s *Session) Snapshot() ([]byte, error) {
	if !s.Active() {
		return nil, ErrNoSession
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.surface == nil {
		return nil, ErrNoSession
	}
	return s.surface.Snapshot()
}
