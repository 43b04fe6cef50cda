package cutout

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleScript = `
brush:
  size: 20
  opacity: 100
  softness: 0
  mode: erase
spacing: 0.25
strokes:
  - points: [[10, 50], [90, 50]]
  - points: [[50, 20]]
  - undo: 1
  - points: [[50, 50]]
    alt: true
    brush: {size: 10}
`

func TestScript_Parse(t *testing.T) {
	assert := assert.New(t)

	sc, err := ParseScript([]byte(sampleScript))
	require.NoError(t, err)
	assert.Equal(0.25, sc.Spacing)
	assert.Len(sc.Steps, 4)
	require.NotNil(t, sc.Brush.Mode)
	assert.Equal(Erase, *sc.Brush.Mode)
	assert.Equal([][2]float64{{10, 50}, {90, 50}}, sc.Steps[0].Points)
	assert.Equal(1, sc.Steps[2].Undo)
	assert.True(sc.Steps[3].Alt)
	assert.Equal(10, *sc.Steps[3].Brush.Size)
}

func TestScript_ParseErrors(t *testing.T) {
	testCases := map[string]string{
		"invalid mode":      "brush: {mode: smudge}\nstrokes: [{points: [[1, 1]]}]",
		"stroke and undo":   "strokes: [{points: [[1, 1]], undo: 1}]",
		"empty stroke":      "strokes: [{alt: true}]",
		"negative undo":     "strokes: [{undo: -1}]",
		"coordinates":       "coords: screen\nstrokes: [{undo: 1}]",
		"negative spacing":  "spacing: -1\nstrokes: [{undo: 1}]",
		"malformed point":   "strokes: [{points: [[1, 2, 3]]}]",
		"malformed content": "strokes: {",
	}
	for name, src := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScript([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestScript_Apply(t *testing.T) {
	s, err := OpenSession(gradientImage(100, 100), 100, 100)
	require.NoError(t, err)
	sc, err := ParseScript([]byte(sampleScript))
	require.NoError(t, err)

	require.NoError(t, sc.Apply(context.Background(), s))

	img, err := s.Export()
	require.NoError(t, err)
	// The interpolated first stroke is kept, the second one is undone
	// and the alt stroke restores the center.
	assert.Zero(t, alphaAt(img, 30, 50))
	assert.Zero(t, alphaAt(img, 70, 50))
	assert.Equal(t, uint8(255), alphaAt(img, 50, 20))
	assert.Equal(t, uint8(255), alphaAt(img, 50, 50))
	assert.Equal(t, 3, s.HistoryLen())

	b := s.Brush()
	assert.Equal(t, 10, b.Size)
	assert.Equal(t, Erase, b.Mode)
}

func TestScript_ApplySourceCoords(t *testing.T) {
	// The 50x50 source is drawn at scale 2.
	s, err := OpenSession(gradientImage(50, 50), 100, 100)
	require.NoError(t, err)
	sc, err := ParseScript([]byte("brush: {size: 10}\nstrokes: [{points: [[40, 40]]}]"))
	require.NoError(t, err)

	require.NoError(t, sc.Apply(context.Background(), s))
	img, err := s.Export()
	require.NoError(t, err)
	assert.Zero(t, alphaAt(img, 80, 80))
	assert.Equal(t, uint8(255), alphaAt(img, 40, 40))
}

func TestScript_ApplyClosedSession(t *testing.T) {
	s, err := OpenSession(gradientImage(10, 10), 10, 10)
	require.NoError(t, err)
	s.Close()

	sc := &Script{Steps: []ScriptStep{{Undo: 1}}}
	assert.ErrorIs(t, sc.Apply(context.Background(), s), ErrNoSession)
}

func TestScript_LoadAndMarshal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strokes.yaml")
	mode := Restore
	size := 40
	out, err := yaml.Marshal(&Script{
		Brush: &ScriptBrush{Size: &size, Mode: &mode},
		Steps: []ScriptStep{{Points: [][2]float64{{1, 2}}}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "mode: restore")
	require.NoError(t, os.WriteFile(path, out, 0644))

	sc, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, Restore, *sc.Brush.Mode)
	assert.Equal(t, 40, *sc.Brush.Size)

	_, err = LoadScript(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
