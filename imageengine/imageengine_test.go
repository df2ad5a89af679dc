package imageengine

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResizeRatio_PicksSmallerAxis(t *testing.T) {
	// Wide image fit into a square box: width is the binding constraint
	// (256/800 = 0.32 < 256/400 = 0.64).
	require.InDelta(t, 0.32, ResizeRatio(800, 400, 256, 256), 1e-9)
	// Tall image fit into a square box: height is the binding constraint.
	require.InDelta(t, 0.32, ResizeRatio(400, 800, 256, 256), 1e-9)
}

func encodeSolid(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestStandard_DecodeGeometry(t *testing.T) {
	data := encodeSolid(t, 120, 80)
	w, h, err := Standard{}.DecodeGeometry(data)
	require.NoError(t, err)
	require.Equal(t, 120, w)
	require.Equal(t, 80, h)
}

func TestStandard_ResizeJPEG_PreservesAspectAndFits(t *testing.T) {
	data := encodeSolid(t, 800, 400)
	resized, err := Standard{}.ResizeJPEG(data, 200, 200)
	require.NoError(t, err)

	w, h, err := Standard{}.DecodeGeometry(resized)
	require.NoError(t, err)
	require.LessOrEqual(t, w, 200)
	require.LessOrEqual(t, h, 200)
	require.InDelta(t, 2.0, float64(w)/float64(h), 0.05)
}

func TestStandard_DecodeGeometry_RejectsGarbage(t *testing.T) {
	_, _, err := Standard{}.DecodeGeometry([]byte("not a jpeg"))
	require.Error(t, err)
}
