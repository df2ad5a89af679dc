package imageengine

import (
	"bytes"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// Standard is the default Engine, implemented entirely in Go: image/jpeg for
// decoding and encoding, golang.org/x/image/draw for resampling. It is the
// concrete collaborator pictDB uses when no other image engine is supplied.
type Standard struct {
	// Quality is the JPEG encoding quality passed to image/jpeg. Zero means
	// jpeg.DefaultQuality.
	Quality int
}

// DecodeGeometry decodes just enough of data to report its pixel dimensions.
func (s Standard) DecodeGeometry(data []byte) (int, int, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, &Error{Op: "DecodeGeometry", Err: err}
	}
	return cfg.Width, cfg.Height, nil
}

// ResizeJPEG decodes data, resamples it to fit within maxWidth x maxHeight
// preserving aspect ratio per ResizeRatio, and re-encodes the result as JPEG.
func (s Standard) ResizeJPEG(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Op: "ResizeJPEG", Err: err}
	}

	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	ratio := ResizeRatio(origW, origH, maxWidth, maxHeight)
	dstW := maxInt(1, int(float64(origW)*ratio))
	dstH := maxInt(1, int(float64(origH)*ratio))

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	opts := &jpeg.Options{Quality: s.Quality}
	if opts.Quality == 0 {
		opts.Quality = jpeg.DefaultQuality
	}
	if err := jpeg.Encode(&buf, dst, opts); err != nil {
		return nil, &Error{Op: "ResizeJPEG", Err: err}
	}
	return buf.Bytes(), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
