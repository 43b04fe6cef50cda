package cutout

import (
	"fmt"
	"image"
	"os"
	"sort"

	"github.com/esimov/cutout/utils"
	pigo "github.com/esimov/pigo/core"
)

// Face is a detected face region.
type Face struct {
	Rect  image.Rectangle
	Score float32
}

// FaceDetector locates faces with a pigo cascade classifier.
// It is used for centering the crop box on the portrait subject.
type FaceDetector struct {
	classifier *pigo.Pigo

	MinSize     int
	ShiftFactor float64
	ScaleFactor float64
	Angle       float64
	// IoUThreshold is the intersection over union value above which two detections are merged.
	IoUThreshold float64
	// MinScore drops the detections with a lower confidence.
	MinScore float32
}

// NewFaceDetector unpacks the binary cascade file.
func NewFaceDetector(cascade []byte) (*FaceDetector, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}
	return &FaceDetector{
		classifier:   classifier,
		MinSize:      20,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		MinScore:     5.0,
	}, nil
}

// LoadFaceDetector reads the cascade file from disk.
func LoadFaceDetector(path string) (*FaceDetector, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read the cascade file: %w", err)
	}
	return NewFaceDetector(cascade)
}

// Detect returns the faces found in the image, the most confident first.
func (d *FaceDetector) Detect(img image.Image) []Face {
	if d == nil || d.classifier == nil {
		return nil
	}
	src := imgToNRGBA(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()
	if cols == 0 || rows == 0 {
		return nil
	}

	// Transform the image to a pixel array.
	pixels := rgbToGrayscale(src)

	cParams := pigo.CascadeParams{
		MinSize:     d.MinSize,
		MaxSize:     utils.Max(cols, rows),
		ShiftFactor: d.ShiftFactor,
		ScaleFactor: d.ScaleFactor,

		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	// The result contains quadruplets representing the row, column, scale and detection score.
	dets := d.classifier.RunCascade(cParams, d.Angle)
	dets = d.classifier.ClusterDetections(dets, d.IoUThreshold)

	faces := make([]Face, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.MinScore {
			continue
		}
		half := det.Scale / 2
		faces = append(faces, Face{
			Rect: image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).
				Intersect(src.Bounds()),
			Score: det.Q,
		})
	}
	sort.SliceStable(faces, func(i, j int) bool {
		return faces[i].Score > faces[j].Score
	})
	return faces
}
