package cutout

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/esimov/cutout/utils"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// Supported source files.
var validExtensions = []string{".jpg", ".png", ".jpeg", ".bmp", ".gif"}

// Ops holds the options of a batch icon export.
type Ops struct {
	// Src is a file, a directory, an URL or the pipe name.
	Src string
	// Dst is the output file, directory or pipe name. Empty means no output, e.g. upload only.
	Dst      string
	PipeName string
	Workers  int

	Shape ShapeType
	// Size is the side of the exported icons, IconSize if zero.
	Size int
	// Cutout exports the cutout surface instead of the crop box. It's implied by a script.
	Cutout bool
	Script *Script
	// Container is the size of the cutout surface container.
	Container image.Point
	// Faces, when set, centers the crop box on the detected face.
	Faces *FaceDetector
	// Name is the manual upload name, used only for a single source image.
	Name     string
	Uploader Uploader

	// Log receives the status messages, os.Stderr if nil.
	Log     io.Writer
	Spinner *utils.Spinner
}

// result holds the relevant information about the processed image.
type result struct {
	path  string
	name  string
	saved bool
	err   error
}

// Execute exports the icon of every source image. A failing image of a directory
// does not stop the others; the returned error reports the number of failures.
func (op *Ops) Execute(ctx context.Context) error {
	if op.Spinner == nil {
		msg := utils.StatusLine("⇢ exporting the icons...", utils.DefaultMessage)
		op.Spinner = utils.NewSpinner(msg, 80*time.Millisecond, true)
		op.Spinner.SetWriter(op.logger())
	}
	src := op.Src

	// Check if source path is a local image or URL.
	if utils.IsValidUrl(src) {
		f, err := utils.DownloadImage(src)
		if f != nil {
			defer os.Remove(f.Name())
			f.Close()
		}
		if err != nil {
			return fmt.Errorf("failed to load the source image: %w", err)
		}
		if op.Name == "" {
			op.Name = FilenameToName(strings.SplitN(filepath.Base(src), "?", 2)[0])
		}
		src = f.Name()
	}

	var (
		fs  os.FileInfo
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if src == op.PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(src)
	}
	if err != nil {
		return fmt.Errorf("failed to load the source image: %w", err)
	}

	now := time.Now()
	op.Spinner.Start()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		err = op.processDir(ctx, src)
	case mode.IsRegular() || mode&os.ModeNamedPipe != 0 || src == op.PipeName:
		if op.Dst != "" && op.Dst != op.PipeName && !isValidExtension(filepath.Ext(op.Dst), []string{".png", ".jpg", ".jpeg", ".bmp"}) {
			err = fmt.Errorf("%v file type not supported", filepath.Ext(op.Dst))
			break
		}
		res := op.process(ctx, src, op.Dst, op.Name)
		op.printOpStatus(res)
		err = res.err
	default:
		err = fmt.Errorf("unsupported source: %s", src)
	}

	if err != nil {
		op.Spinner.StopMsg = utils.StatusLine("exporting the icons failed ✘", utils.ErrorMessage) + "\n"
		op.Spinner.Stop()
		return err
	}
	op.Spinner.StopMsg = utils.StatusLine("the icons have been exported successfully ✔", utils.SuccessMessage) + "\n"
	op.Spinner.Stop()

	fmt.Fprintf(op.logger(), "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	return nil
}

// processDir exports the images of the directory tree concurrently.
func (op *Ops) processDir(ctx context.Context, src string) error {
	if op.Dst != "" {
		if err := os.MkdirAll(op.Dst, 0755); err != nil {
			return fmt.Errorf("unable to create the destination directory: %w", err)
		}
	}

	// Limit the concurrently running workers to maxWorkers.
	workers := op.Workers
	if workers <= 0 || workers > maxWorkers {
		workers = runtime.NumCPU()
	}

	ch := make(chan result)
	done := make(chan interface{})
	defer close(done)

	paths, errc := walkDir(done, src, validExtensions)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			op.consumer(ctx, ch, done, paths)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	var failed, total int
	for res := range ch {
		total++
		if res.err != nil {
			failed++
		}
		op.printOpStatus(res)
	}

	if err := <-errc; err != nil {
		return fmt.Errorf("could not walk the source directory: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, total)
	}
	return nil
}

// consumer reads the path names from the paths channel and exports the icon of each image.
func (op *Ops) consumer(
	ctx context.Context,
	res chan<- result,
	done <-chan interface{},
	paths <-chan string,
) {
	for src := range paths {
		var dst string
		if op.Dst != "" {
			dst = filepath.Join(op.Dst, FilenameToName(src)+op.Shape.Suffix()+".png")
		}
		r := op.process(ctx, src, dst, "")

		select {
		case <-done:
			return
		case res <- r:
		}
	}
}

// process exports, saves and uploads the icon of a single image.
func (op *Ops) process(ctx context.Context, in, out, name string) result {
	res := result{path: in}
	if out != "" {
		res.path = out
	}
	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}

	src, err := op.openSource(in)
	if err != nil {
		res.err = err
		return res
	}
	defer src.Close()

	e := NewEditor(op.Container.X, op.Container.Y)
	e.Faces = op.Faces
	if err := e.LoadImage(op.sourceName(in), src); err != nil {
		res.err = err
		return res
	}
	if name != "" {
		e.SetUploadName(name)
	}
	res.name = e.UploadName()

	if op.Cutout || op.Script != nil {
		s, err := e.SwitchToCutout()
		if err != nil {
			res.err = err
			return res
		}
		if op.Script != nil {
			if err := op.Script.Apply(ctx, s); err != nil {
				res.err = err
				return res
			}
		}
	}

	shape := op.Shape
	if shape == "" {
		shape = Square
	}
	icon, err := e.Export(shape)
	if err != nil {
		res.err = err
		return res
	}
	if op.Size > 0 && op.Size != icon.Bounds().Dx() {
		icon = imaging.Resize(icon, op.Size, op.Size, imaging.Lanczos)
	}

	if out != "" {
		if err := op.save(icon, out); err != nil {
			res.err = err
			return res
		}
		res.saved = true
	}
	if op.Uploader != nil {
		data, err := EncodePNG(icon)
		if err != nil {
			res.err = err
			return res
		}
		r, err := op.Uploader.Upload(ctx, res.name, shape.Suffix(), data)
		if err != nil {
			res.err = err
			return res
		}
		res.name = r.Name
	}
	return res
}

// sourceName returns the file name the upload name is derived from.
// The standard input has none, so the default name applies.
func (op *Ops) sourceName(in string) string {
	if in == op.PipeName {
		return ""
	}
	return in
}

// openSource opens the source file or the standard input.
func (op *Ops) openSource(in string) (io.ReadCloser, error) {
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("unable to open the source file: %w", err)
	}
	return f, nil
}

// save encodes the icon into the destination file or the standard output.
// The generated file is removed in case of an error.
func (op *Ops) save(img image.Image, out string) error {
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		return EncodeImage(os.Stdout, img, ".png")
	}

	dst, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("unable to create the destination file: %w", err)
	}
	if err := encodeImg(dst, img); err != nil {
		dst.Close()
		os.Remove(out)
		return err
	}
	return dst.Close()
}

// printOpStatus displays the relevant information about the processed image.
func (op *Ops) printOpStatus(res result) {
	w := op.logger()
	if res.err != nil {
		fmt.Fprintf(w, "\n%s %s\n",
			utils.DecorateText(fmt.Sprintf("Error exporting %s:", filepath.Base(res.path)), utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v", res.err), utils.DefaultMessage),
		)
		return
	}
	if res.saved && res.path != op.PipeName {
		fmt.Fprintf(w, "\nThe icon has been saved as: %s\n",
			utils.DecorateText(filepath.Base(res.path), utils.SuccessMessage),
		)
	}
	if op.Uploader != nil {
		fmt.Fprintf(w, "Uploaded to the icon library as: %s\n",
			utils.DecorateText(res.name, utils.SuccessMessage),
		)
	}
}

func (op *Ops) logger() io.Writer {
	if op.Log == nil {
		return os.Stderr
	}
	return op.Log
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each regular file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan interface{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() || !isValidExtension(filepath.Ext(f.Name()), srcExts) {
				return nil
			}

			select {
			case <-done:
				return errors.New("directory walk cancelled")
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	return utils.Contains(extensions, strings.ToLower(ext))
}
