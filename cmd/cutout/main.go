package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"gioui.org/app"
	"github.com/esimov/cutout"
	"github.com/esimov/cutout/gui"
	"github.com/esimov/cutout/upload"
	"github.com/esimov/cutout/utils"
)

const HelpBanner = `
┌─┐┬ ┬┌┬┐┌─┐┬ ┬┌┬┐
│  │ │ │ │ ││ │ │
└─┘└─┘ ┴ └─┘└─┘ ┴

Square and circle icon maker with manual background cutout.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source image, directory or URL")
	destination = flag.String("out", "", "Destination file or directory (- for stdout)")
	shape       = flag.String("shape", string(cutout.Square), "Icon shape: square or circle")
	size        = flag.Int("size", cutout.IconSize, "Icon size")
	cutoutMode  = flag.Bool("cutout", false, "Export the cutout surface instead of the crop box")
	script      = flag.String("script", "", "YAML stroke script applied in cutout mode")
	width       = flag.Int("width", 0, "Cutout surface container width")
	height      = flag.Int("height", 0, "Cutout surface container height")
	faceDetect  = flag.Bool("face", false, "Center the crop box on the detected face")
	cascade     = flag.String("cc", "", "Cascade classifier")
	doUpload    = flag.Bool("upload", false, "Upload the icon to the icon library")
	endpoint    = flag.String("endpoint", os.Getenv(upload.EndpointEnv), "Icon library upload endpoint")
	name        = flag.String("name", "", "Icon name used for the upload")
	preview     = flag.Bool("preview", false, "Open the interactive cutout window")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	shapeType, err := cutout.ParseShape(*shape)
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	if *destination == "" && !*doUpload && !*preview {
		flag.Usage()
		log.Fatal(utils.DecorateText("\nPlease provide a destination, the -upload or the -preview flag!", utils.ErrorMessage))
	}
	if *faceDetect && len(*cascade) == 0 {
		log.Fatal(utils.DecorateText("Please specify a face classifier in case you are using the -face flag!", utils.ErrorMessage))
	}

	op := &cutout.Ops{
		Src:       *source,
		Dst:       *destination,
		PipeName:  pipeName,
		Workers:   *workers,
		Shape:     shapeType,
		Size:      *size,
		Cutout:    *cutoutMode,
		Container: image.Pt(*width, *height),
		Name:      *name,
	}

	if *script != "" {
		if op.Script, err = cutout.LoadScript(*script); err != nil {
			log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
		}
	}
	if *faceDetect {
		if op.Faces, err = cutout.LoadFaceDetector(*cascade); err != nil {
			log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
		}
	}
	if *doUpload {
		if *endpoint == "" {
			log.Fatalf(utils.DecorateText("Please provide the upload endpoint with -endpoint or %s", utils.ErrorMessage), upload.EndpointEnv)
		}
		op.Uploader = upload.NewClient(*endpoint)
	}

	spinnerText := utils.StatusLine("is exporting the icons...", utils.DefaultMessage)
	op.Spinner = utils.NewSpinner(spinnerText, time.Millisecond*200, true)

	// Capture CTRL-C signal and restore the cursor visibility back.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		op.Spinner.RestoreCursor()
	}()

	if *preview {
		runPreview(ctx, op)
		return
	}
	if err := op.Execute(ctx); err != nil {
		log.Fatalf(
			utils.DecorateText("\nError exporting the icons: %s", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}
}

// runPreview opens the interactive cutout window over a single image.
// The Gio event loop has to run on the main goroutine.
func runPreview(ctx context.Context, op *cutout.Ops) {
	var (
		f   *os.File
		err error
	)
	if utils.IsValidUrl(op.Src) {
		f, err = utils.DownloadImage(op.Src)
		if f != nil {
			defer os.Remove(f.Name())
			f.Seek(0, io.SeekStart)
		}
	} else {
		f, err = os.Open(op.Src)
	}
	if err != nil {
		log.Fatal(utils.DecorateText(fmt.Sprintf("Failed to load the source image: %v", err), utils.ErrorMessage))
	}
	editor := cutout.NewEditor(op.Container.X, op.Container.Y)
	err = editor.LoadImage(op.Src, f)
	f.Close()
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	if op.Name != "" {
		editor.SetUploadName(op.Name)
	}

	s, err := editor.SwitchToCutout()
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	if op.Script != nil {
		if err := op.Script.Apply(ctx, s); err != nil {
			log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
		}
	}

	save := func(e *cutout.Editor) error {
		return saveIcon(ctx, e, op)
	}
	g, err := gui.NewGUI(editor, save)
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}

	go func() {
		if err := g.Run(); err != nil {
			log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
		}
		os.Exit(0)
	}()
	app.Main()
}

// saveIcon writes and uploads the icon exported from the editor.
func saveIcon(ctx context.Context, e *cutout.Editor, op *cutout.Ops) error {
	if op.Dst != "" && op.Dst != pipeName {
		icon, err := e.Export(op.Shape)
		if err != nil {
			return err
		}
		f, err := os.Create(op.Dst)
		if err != nil {
			return fmt.Errorf("unable to create the destination file: %w", err)
		}
		if err := cutout.EncodeImage(f, icon, filepath.Ext(op.Dst)); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("The icon has been saved as: %s", utils.DecorateText(op.Dst, utils.SuccessMessage))
	}
	if op.Uploader != nil {
		res, err := e.Upload(ctx, op.Uploader, op.Shape)
		if err != nil {
			return err
		}
		log.Printf("Uploaded to the icon library as: %s", utils.DecorateText(res.Name, utils.SuccessMessage))
	}
	return nil
}
