// Package imageengine defines pictDB's JPEG codec and geometry collaborator:
// the external interface the spec calls the "image engine", used to decode
// a JPEG's dimensions and to produce resized JPEG variants.
package imageengine

import "fmt"

// Engine decodes JPEG geometry and produces resized JPEG variants. It is an
// external collaborator: the storage engine never looks inside a JPEG
// stream itself, only through this interface.
type Engine interface {
	// DecodeGeometry returns the pixel width and height of a JPEG image.
	DecodeGeometry(data []byte) (width, height int, err error)
	// ResizeJPEG returns a JPEG-encoded copy of data resized to fit within
	// maxWidth x maxHeight, preserving aspect ratio.
	ResizeJPEG(data []byte, maxWidth, maxHeight int) ([]byte, error)
}

// Error reports an image engine failure. The spec's core maps any Error
// from this package to its ErrVips error kind.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("imageengine: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ResizeRatio computes the aspect-ratio-preserving scale factor for resizing
// an image of size origW x origH to fit within maxW x maxH: the smaller of
// the two per-axis ratios, exactly as specified in spec.md §4.4.
func ResizeRatio(origW, origH, maxW, maxH int) float64 {
	wRatio := float64(maxW) / float64(origW)
	hRatio := float64(maxH) / float64(origH)
	if wRatio > hRatio {
		return hRatio
	}
	return wRatio
}
