package cutout

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned by the editing operations invoked before an image has been loaded.
	ErrNoSession = errors.New("no active editing session")

	// ErrNoImage is returned by the editor operations needing a loaded image.
	ErrNoImage = errors.New("no image loaded")

	// ErrBusy is returned while a snapshot decode is in flight; the stroke input is dropped.
	ErrBusy = errors.New("surface is busy decoding a snapshot")

	// ErrCropperDestroyed is returned by a crop tool which has been torn down.
	ErrCropperDestroyed = errors.New("crop tool has been destroyed")
)

// DecodeError reports a history snapshot or a source image which could not be decoded.
// The operation which triggered it leaves the prior state untouched.
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not decode the %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
