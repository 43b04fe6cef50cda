// Package gui implements the interactive cutout window.
//
// The window displays the editing surface fitted into it, feeds the pointer
// input into the stroke controller and maps the keyboard shortcuts to the
// editor toolbar actions:
//
//	Alt + drag   stroke with the opposite brush mode
//	Ctrl/Cmd+Z   undo
//	E            toggle the erase/restore mode
//	[ ]          decrease/increase the brush size
//	- +          decrease/increase the brush opacity
//	S            save the icon
//	Esc          close the window
package gui

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"

	"gioui.org/app"
	"gioui.org/f32"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"github.com/esimov/cutout"
	"github.com/esimov/cutout/utils"
)

const (
	maxScreenX = 1366
	maxScreenY = 768

	sizeStep    = 5
	opacityStep = 10
	// interpolation spacing of the interactive strokes, as a fraction of the brush radius.
	strokeSpacing = 0.25
)

var (
	defaultBkgColor     = color.NRGBA{R: 0x2b, G: 0x2d, B: 0x31, A: 0xff}
	defaultEraseColor   = color.NRGBA{R: 0xe5, G: 0x39, B: 0x35, A: 0xff}
	defaultRestoreColor = color.NRGBA{R: 0x43, G: 0xa0, B: 0x47, A: 0xff}
)

// SaveFunc is invoked by the save shortcut.
type SaveFunc func(e *cutout.Editor) error

// Gui is the interactive cutout window of an editor in cutout mode.
type Gui struct {
	cfg struct {
		window struct {
			w     float64
			h     float64
			title string
		}
		color struct {
			background color.NRGBA
			erase      color.NRGBA
			restore    color.NRGBA
		}
	}
	proc struct {
		img    image.Image
		dirty  bool
		undo   <-chan error
		cursor f32.Point
		hover  bool
		alt    bool
	}

	editor  *cutout.Editor
	session *cutout.Session
	ctrl    *cutout.StrokeController
	save    SaveFunc
	ops     op.Ops
}

// NewGUI prepares the window for the editor, switching it to the cutout mode if needed.
func NewGUI(e *cutout.Editor, save SaveFunc) (*Gui, error) {
	s := e.Session()
	if s == nil {
		var err error
		if s, err = e.SwitchToCutout(); err != nil {
			return nil, err
		}
	}
	size := s.Size()

	g := &Gui{
		editor:  e,
		session: s,
		ctrl:    cutout.NewStrokeController(s, cutout.IdentityViewport(size.X, size.Y)),
		save:    save,
	}
	g.ctrl.Spacing = strokeSpacing
	g.proc.dirty = true
	g.initWindow(size.X, size.Y)

	return g, nil
}

// initWindow sets up the window size and colors.
func (g *Gui) initWindow(w, h int) {
	r := getRatio(float64(w), float64(h))
	g.cfg.window.w, g.cfg.window.h = float64(w)*r, float64(h)*r
	g.cfg.window.title = fmt.Sprintf("Cutout: %s", g.editor.UploadName())

	g.cfg.color.background = defaultBkgColor
	g.cfg.color.erase = defaultEraseColor
	g.cfg.color.restore = defaultRestoreColor
}

// Run opens the window and processes its events until it's closed.
// It must be called from a goroutine other than the one running app.Main.
func (g *Gui) Run() error {
	w := app.NewWindow(
		app.Title(g.cfg.window.title),
		app.Size(unit.Dp(float32(g.cfg.window.w)), unit.Dp(float32(g.cfg.window.h))),
	)

	for {
		select {
		case e := <-w.Events():
			switch e := e.(type) {
			case system.FrameEvent:
				g.draw(e)
			case key.Event:
				if g.handleKey(w, e) {
					w.Invalidate()
				}
			case system.DestroyEvent:
				return e.Err
			}
		case err := <-g.proc.undo:
			g.proc.undo = nil
			if err != nil && !errors.Is(err, cutout.ErrBusy) {
				log.Println(utils.DecorateText(fmt.Sprintf("Undo failed: %v", err), utils.ErrorMessage))
			}
			g.proc.dirty = true
			w.Invalidate()
		}
	}
}

// handleKey maps the keyboard shortcuts. It reports whether the window needs a redraw.
func (g *Gui) handleKey(w *app.Window, e key.Event) bool {
	g.proc.alt = e.Modifiers.Contain(key.ModAlt)
	if e.State != key.Press {
		return true
	}

	switch {
	case e.Name == key.NameEscape:
		w.Perform(system.ActionClose)
	case e.Name == "Z" && e.Modifiers.Contain(key.ModShortcut):
		if g.proc.undo == nil {
			g.proc.undo = g.session.UndoAsync()
		}
	case e.Name == "E":
		g.updateBrush(func(b *cutout.BrushSettings) { b.SetMode(b.Mode.Flip()) })
	case e.Name == "[":
		g.updateBrush(func(b *cutout.BrushSettings) { b.SetSize(b.Size - sizeStep) })
	case e.Name == "]":
		g.updateBrush(func(b *cutout.BrushSettings) { b.SetSize(b.Size + sizeStep) })
	case e.Name == "-":
		g.updateBrush(func(b *cutout.BrushSettings) { b.SetOpacityPercent(b.Opacity*100 - opacityStep) })
	case e.Name == "+" || e.Name == "=":
		g.updateBrush(func(b *cutout.BrushSettings) { b.SetOpacityPercent(b.Opacity*100 + opacityStep) })
	case e.Name == "S":
		if g.save == nil {
			return false
		}
		// Export takes a point-in-time copy, the editing may go on while saving.
		go func() {
			if err := g.save(g.editor); err != nil {
				log.Println(utils.DecorateText(fmt.Sprintf("Saving the icon failed: %v", err), utils.ErrorMessage))
			}
		}()
	default:
		return false
	}
	return true
}

func (g *Gui) updateBrush(fn func(b *cutout.BrushSettings)) {
	if err := g.session.UpdateBrush(fn); err != nil {
		log.Println(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
}

// handlePointer feeds the pointer events into the stroke controller.
func (g *Gui) handlePointer(gtx layout.Context) {
	for _, ev := range gtx.Events(g) {
		e, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		g.proc.cursor = e.Position
		g.proc.alt = e.Modifiers.Contain(key.ModAlt)

		var typ cutout.EventType
		switch e.Type {
		case pointer.Enter, pointer.Move:
			g.proc.hover = true
			continue
		case pointer.Leave:
			g.proc.hover = false
			continue
		case pointer.Press:
			typ = cutout.PointerDown
		case pointer.Drag:
			typ = cutout.PointerMove
		case pointer.Release, pointer.Cancel:
			typ = cutout.PointerUp
		default:
			continue
		}
		g.proc.hover = true

		err := g.ctrl.Handle(cutout.PointerEvent{
			Type:      typ,
			X:         float64(e.Position.X),
			Y:         float64(e.Position.Y),
			Modifiers: toModifiers(e.Modifiers),
		})
		if err != nil && !errors.Is(err, cutout.ErrBusy) {
			log.Println(utils.DecorateText(err.Error(), utils.ErrorMessage))
		}
		g.proc.dirty = true
	}
}

// draw renders the surface and the brush cursor.
func (g *Gui) draw(e system.FrameEvent) {
	gtx := layout.NewContext(&g.ops, e)

	vp := fitViewport(e.Size, g.session.Size())
	g.ctrl.SetViewport(vp)
	g.handlePointer(gtx)

	paint.Fill(gtx.Ops, g.cfg.color.background)

	if g.proc.dirty || g.proc.img == nil {
		if img, err := g.session.Export(); err == nil {
			g.proc.img = img
		}
		g.proc.dirty = false
	}

	displayed := image.Rect(
		int(vp.Left), int(vp.Top),
		int(vp.Left+vp.Width), int(vp.Top+vp.Height),
	)
	drawChecker(gtx.Ops, displayed)
	if g.proc.img != nil {
		drawSurface(gtx.Ops, g.proc.img, vp)
	}

	if g.proc.hover && vp.SurfaceWidth > 0 {
		brush := g.session.Brush()
		mode := brush.Mode
		if g.ctrl.State() == cutout.Stroking {
			mode = g.ctrl.EffectiveMode()
		} else if g.proc.alt {
			mode = mode.Flip()
		}
		col := g.cfg.color.erase
		if mode == cutout.Restore {
			col = g.cfg.color.restore
		}
		r := float32(brush.Radius() * vp.Width / float64(vp.SurfaceWidth))
		drawCircle(gtx.Ops, g.proc.cursor.X, g.proc.cursor.Y, r, 1.5, setColor(col))
	}

	// Register for the pointer events over the whole window, strokes may leave the surface.
	area := clip.Rect{Max: e.Size}.Push(gtx.Ops)
	pointer.InputOp{
		Tag:   g,
		Types: pointer.Press | pointer.Drag | pointer.Release | pointer.Move | pointer.Enter | pointer.Leave | pointer.Cancel,
		Grab:  g.ctrl.State() == cutout.Stroking,
	}.Add(gtx.Ops)
	area.Pop()

	e.Frame(gtx.Ops)
}

// toModifiers converts the Gio key modifiers.
func toModifiers(m key.Modifiers) cutout.Modifiers {
	var mods cutout.Modifiers
	if m.Contain(key.ModAlt) {
		mods |= cutout.ModAlt
	}
	if m.Contain(key.ModShift) {
		mods |= cutout.ModShift
	}
	if m.Contain(key.ModCtrl) {
		mods |= cutout.ModCtrl
	}
	return mods
}
