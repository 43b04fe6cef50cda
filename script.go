package cutout

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Coordinate spaces of the script points.
const (
	SourceCoords  = "source"
	SurfaceCoords = "surface"
)

// Script describes a headless cutout editing: a sequence of strokes and undos
// replayed through the stroke controller.
//
//	brush: {size: 30, opacity: 100, softness: 40, mode: erase}
//	spacing: 0.25
//	strokes:
//	  - points: [[10, 20], [40, 20], [40, 60]]
//	  - points: [[25, 25]]
//	    alt: true
//	    brush: {size: 12}
//	  - undo: 1
//
// Opacity and softness are percentages, like in the editor toolbar.
type Script struct {
	Brush   *ScriptBrush `yaml:"brush,omitempty"`
	Spacing float64      `yaml:"spacing,omitempty"`
	// Coords is either "source" (default) for source image pixels or "surface".
	Coords string       `yaml:"coords,omitempty"`
	Steps  []ScriptStep `yaml:"strokes"`
}

// ScriptBrush holds the brush settings changed by a script. Missing fields are left as they are.
type ScriptBrush struct {
	Size     *int     `yaml:"size,omitempty"`
	Opacity  *float64 `yaml:"opacity,omitempty"`
	Softness *float64 `yaml:"softness,omitempty"`
	Mode     *Mode    `yaml:"mode,omitempty"`
}

// ScriptStep is either a stroke or an undo of the given number of strokes.
type ScriptStep struct {
	Brush  *ScriptBrush `yaml:"brush,omitempty"`
	Points [][2]float64 `yaml:"points,omitempty"`
	Alt    bool         `yaml:"alt,omitempty"`
	Undo   int          `yaml:"undo,omitempty"`
}

// UnmarshalYAML decodes the textual brush mode.
func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	mode, err := ParseMode(value.Value)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// MarshalYAML encodes the brush mode as text.
func (m Mode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("could not parse the stroke script: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScript reads a YAML script from disk.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read the stroke script: %w", err)
	}
	return ParseScript(data)
}

func (sc *Script) validate() error {
	switch sc.Coords {
	case "", SourceCoords, SurfaceCoords:
	default:
		return fmt.Errorf("unsupported script coordinates: %q", sc.Coords)
	}
	if sc.Spacing < 0 {
		return errors.New("the stroke spacing cannot be negative")
	}
	for i, st := range sc.Steps {
		switch {
		case st.Undo < 0:
			return fmt.Errorf("step %d: negative undo count", i+1)
		case st.Undo > 0 && len(st.Points) > 0:
			return fmt.Errorf("step %d: a step is either a stroke or an undo", i+1)
		case st.Undo == 0 && len(st.Points) == 0:
			return fmt.Errorf("step %d: empty stroke", i+1)
		}
	}
	return nil
}

// Apply replays the script on the session.
func (sc *Script) Apply(ctx context.Context, s *Session) error {
	if !s.Active() {
		return ErrNoSession
	}
	size := s.Size()
	ctrl := NewStrokeController(s, IdentityViewport(size.X, size.Y))
	ctrl.Spacing = sc.Spacing

	if err := sc.Brush.apply(s); err != nil {
		return err
	}
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := st.Brush.apply(s); err != nil {
			return err
		}
		for k := 0; k < st.Undo; k++ {
			if err := s.Undo(); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		if len(st.Points) > 0 {
			if err := sc.stroke(ctrl, s, st); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return nil
}

func (sc *Script) stroke(ctrl *StrokeController, s *Session, st ScriptStep) error {
	var mods Modifiers
	if st.Alt {
		mods = ModAlt
	}
	p := s.Placement()

	last := len(st.Points) - 1
	for i, pt := range st.Points {
		x, y := pt[0], pt[1]
		if sc.Coords != SurfaceCoords {
			x, y = p.ToSurfaceSpace(x, y)
		}
		ev := PointerEvent{Type: PointerMove, X: x, Y: y, Modifiers: mods}
		if i == 0 {
			ev.Type = PointerDown
		}
		if err := ctrl.Handle(ev); err != nil {
			return err
		}
		if i == last {
			ev.Type = PointerUp
			if err := ctrl.Handle(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *ScriptBrush) apply(s *Session) error {
	if b == nil {
		return nil
	}
	return s.UpdateBrush(func(bs *BrushSettings) {
		if b.Size != nil {
			bs.SetSize(*b.Size)
		}
		if b.Opacity != nil {
			bs.SetOpacityPercent(*b.Opacity)
		}
		if b.Softness != nil {
			bs.SetSoftnessPercent(*b.Softness)
		}
		if b.Mode != nil {
			bs.SetMode(*b.Mode)
		}
	})
}
