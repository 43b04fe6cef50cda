/*
Package cutout is the core of a square and circle icon maker. The source image can be
either cropped to a square box, optionally centered on the detected face, or fitted into
a raster surface where the background is removed manually with a soft edged brush.

The brush has two opposing modes: erase lowers the alpha of the covered pixels, restore
brings back the pixels of the source image exactly as they were drawn initially.
Every completed stroke is recorded in a bounded history, so it can be undone.

The package provides a command line interface, supporting batch export and upload
of the icons and an interactive cutout window. To check the supported commands type:

	$ cutout --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/esimov/cutout"
	)

	func main() {
		s, err := cutout.OpenSession(img, 320, 420)
		if err != nil {
			fmt.Printf("Error opening the session: %s", err.Error())
		}
		defer s.Close()

		ctrl := cutout.NewStrokeController(s, cutout.IdentityViewport(320, 420))
		ctrl.Handle(cutout.PointerEvent{Type: cutout.PointerDown, X: 10, Y: 10})
		ctrl.Handle(cutout.PointerEvent{Type: cutout.PointerUp, X: 10, Y: 10})

		icon, err := s.Export()
		...
	}
*/
package cutout
