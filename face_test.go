package cutout

import (
	"encoding/binary"
	"image"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCascade builds a single tree, depth one cascade classifying every
// window with the given leaf prediction against a zero threshold.
func stubCascade(pred float32) []byte {
	buf := make([]byte, 8)
	buf = binary.LittleEndian.AppendUint32(buf, 1) // tree depth
	buf = binary.LittleEndian.AppendUint32(buf, 1) // number of trees
	buf = append(buf, 0, 0, 0, 0)                  // node codes
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(pred))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(pred))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(0))
	return buf
}

func TestFace_NoDetection(t *testing.T) {
	d, err := NewFaceDetector(stubCascade(-1))
	require.NoError(t, err)
	assert.Empty(t, d.Detect(gradientImage(64, 64)))

	c := NewBoxCropper(gradientImage(64, 64))
	before := c.Box()
	found, err := c.CenterOnFace(d)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, before, c.Box())
}

func TestFace_Detection(t *testing.T) {
	d, err := NewFaceDetector(stubCascade(10))
	require.NoError(t, err)

	img := gradientImage(80, 60)
	faces := d.Detect(img)
	require.NotEmpty(t, faces)
	for i, f := range faces {
		assert.True(t, f.Rect.In(img.Bounds()))
		if i > 0 {
			assert.LessOrEqual(t, f.Score, faces[i-1].Score)
		}
	}

	c := NewBoxCropper(img)
	found, err := c.CenterOnFace(d)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, c.Box().In(img.Bounds()))
	assert.Equal(t, c.Box().Dx(), c.Box().Dy())
}

func TestFace_NilDetector(t *testing.T) {
	var d *FaceDetector
	assert.Nil(t, d.Detect(image.NewNRGBA(image.Rect(0, 0, 8, 8))))
}

func TestFace_LoadMissingCascade(t *testing.T) {
	_, err := LoadFaceDetector(filepath.Join(t.TempDir(), "facefinder"))
	assert.Error(t, err)
}
