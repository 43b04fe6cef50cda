package cutout

import (
	"context"
	"fmt"
	"image"
	"io"
	"strings"
	"sync"

	"github.com/esimov/cutout/upload"
)

// DefaultUploadName is used when neither a manual nor a file name is available.
const DefaultUploadName = "icon"

// EditorMode is the active editing tool. The crop and cutout modes are mutually exclusive.
type EditorMode int

const (
	EmptyMode EditorMode = iota
	CropMode
	CutoutMode
)

func (m EditorMode) String() string {
	switch m {
	case CropMode:
		return "crop"
	case CutoutMode:
		return "cutout"
	}
	return "empty"
}

// Uploader sends an encoded icon to the icon library.
type Uploader interface {
	Upload(ctx context.Context, name, suffix string, data []byte) (*upload.Result, error)
}

// Editor ties together the crop tool, the cutout session and the export pipeline
// of a single loaded image.
type Editor struct {
	mu sync.Mutex

	// NewCropper creates the crop tool over the loaded image.
	NewCropper func(img image.Image) Cropper
	// Faces, when set, centers the initial crop box on the detected face.
	Faces *FaceDetector

	container  image.Point
	mode       EditorMode
	source     image.Image
	fileBase   string
	uploadName string
	cropper    Cropper
	session    *Session
}

// NewEditor creates an empty editor. The container size gives the cutout surface
// size, see SurfaceSize.
func NewEditor(containerW, containerH int) *Editor {
	return &Editor{
		NewCropper: func(img image.Image) Cropper {
			return NewBoxCropper(img)
		},
		container: image.Pt(containerW, containerH),
	}
}

// LoadImage decodes the image and opens it in crop mode.
// On a decode error the editor state is left untouched.
func (e *Editor) LoadImage(filename string, r io.Reader) error {
	img, err := DecodeImage(r)
	if err != nil {
		return err
	}
	return e.SetImage(filename, img)
}

// SetImage replaces the edited image and switches to crop mode.
func (e *Editor) SetImage(filename string, img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return ErrNoImage
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reset()
	e.source = img
	e.fileBase = FilenameToName(filename)
	return e.switchToCrop()
}

// Mode returns the active editing mode.
func (e *Editor) Mode() EditorMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Source returns the loaded image.
func (e *Editor) Source() image.Image {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

// Session returns the cutout session, nil outside of the cutout mode.
func (e *Editor) Session() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Cropper returns the crop tool, nil outside of the crop mode.
func (e *Editor) Cropper() Cropper {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cropper
}

// SwitchToCrop closes the cutout session and opens a new crop tool.
func (e *Editor) SwitchToCrop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.switchToCrop()
}

func (e *Editor) switchToCrop() error {
	if e.source == nil {
		return ErrNoImage
	}
	e.session.Close()
	e.session = nil

	if e.cropper != nil {
		e.cropper.Destroy()
	}
	e.cropper = e.NewCropper(e.source)
	if bc, ok := e.cropper.(*BoxCropper); ok && e.Faces != nil {
		if _, err := bc.CenterOnFace(e.Faces); err != nil {
			return err
		}
	}
	e.mode = CropMode
	return nil
}

// SwitchToCutout destroys the crop tool and starts a cutout session over the full image.
func (e *Editor) SwitchToCutout() (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cropper != nil {
		e.cropper.Destroy()
		e.cropper = nil
	}
	if e.source == nil {
		e.mode = EmptyMode
		return nil, ErrNoImage
	}
	e.session.Close()

	size := SurfaceSize(e.container.X, e.container.Y)
	s, err := OpenSession(e.source, size.X, size.Y)
	if err != nil {
		e.session = nil
		e.mode = EmptyMode
		return nil, err
	}
	e.session = s
	e.mode = CutoutMode
	return s, nil
}

// Reset closes the session, destroys the crop tool and forgets the image.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *Editor) reset() {
	e.session.Close()
	e.session = nil
	if e.cropper != nil {
		e.cropper.Destroy()
		e.cropper = nil
	}
	e.source = nil
	e.fileBase = ""
	e.uploadName = ""
	e.mode = EmptyMode
}

// SetUploadName sets the manual icon name.
func (e *Editor) SetUploadName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.uploadName = name
}

// UploadName returns the manual name, or the loaded file name, or DefaultUploadName.
func (e *Editor) UploadName() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if name := strings.TrimSpace(e.uploadName); name != "" {
		return name
	}
	if e.fileBase != "" {
		return e.fileBase
	}
	return DefaultUploadName
}

// Export renders the icon of the given shape from the active mode: the surface
// content in cutout mode, the crop box content in crop mode.
func (e *Editor) Export(shape ShapeType) (*image.NRGBA, error) {
	e.mu.Lock()
	mode, session, cropper := e.mode, e.session, e.cropper
	e.mu.Unlock()

	switch mode {
	case CutoutMode:
		img, err := session.Export()
		if err != nil {
			return nil, err
		}
		return shape.Export(img, IconSize), nil
	case CropMode:
		// A free aspect box is contained, never stretched, into the icon.
		region, err := cropper.CroppedRegion(0, 0)
		if err != nil {
			return nil, err
		}
		return shape.Export(region, IconSize), nil
	}
	return nil, ErrNoImage
}

// Upload exports the icon and sends it to the library under the upload name.
// Editing may continue while the upload is in progress.
func (e *Editor) Upload(ctx context.Context, up Uploader, shape ShapeType) (*upload.Result, error) {
	img, err := e.Export(shape)
	if err != nil {
		return nil, err
	}
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	res, err := up.Upload(ctx, e.UploadName(), shape.Suffix(), data)
	if err != nil {
		return nil, fmt.Errorf("could not upload the %s icon: %w", shape, err)
	}
	return res, nil
}
