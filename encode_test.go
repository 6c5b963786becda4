package ico

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// manyColorFrame returns a frame with more distinct colors than any palette
// can hold.
func manyColorFrame(size int) *image.RGBA {

	frame := image.NewRGBA(image.Rect(0, 0, size, size))

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			frame.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 4),
				G: uint8(y * 4),
				B: uint8((x + y) * 2),
				A: 255,
			})
		}
	}

	return frame
}

func TestEncodePNGLossy(t *testing.T) {

	frame := manyColorFrame(64)

	opts := &PngOptions{
		Lossy:     true,
		MaxColors: 16,
	}

	body, err := EncodePNG(frame, opts)

	if err != nil {
		t.Fatalf("Failed to encode, %v", err)
	}

	if !pngIndexed(body) {
		t.Fatalf("Lossy output is not indexed, depth %d color type %d", pngBitDepth(body), pngColorType(body))
	}

	im, err := png.Decode(bytes.NewReader(body))

	if err != nil {
		t.Fatalf("Failed to decode lossy output, %v", err)
	}

	if im.Bounds().Dx() != 64 || im.Bounds().Dy() != 64 {
		t.Fatalf("Unexpected dimensions %v", im.Bounds())
	}
}

func TestEncodePNGLossyDither(t *testing.T) {

	frame := manyColorFrame(64)

	opts := &PngOptions{
		Lossy:     true,
		MaxColors: 8,
		Dither:    true,
	}

	body, err := EncodePNG(frame, opts)

	if err != nil {
		t.Fatalf("Failed to encode, %v", err)
	}

	if !pngIndexed(body) {
		t.Fatalf("Dithered output is not indexed, depth %d color type %d", pngBitDepth(body), pngColorType(body))
	}

	_, err = png.Decode(bytes.NewReader(body))

	if err != nil {
		t.Fatalf("Failed to decode dithered output, %v", err)
	}
}

func TestEncodePNGLossless(t *testing.T) {

	frame := manyColorFrame(32)

	opts := &PngOptions{
		Lossy: false,
	}

	body, err := EncodePNG(frame, opts)

	if err != nil {
		t.Fatalf("Failed to encode, %v", err)
	}

	im, err := png.Decode(bytes.NewReader(body))

	if err != nil {
		t.Fatalf("Failed to decode lossless output, %v", err)
	}

	// Full color round trip

	r, g, b, a := im.At(10, 10).RGBA()
	expected := frame.RGBAAt(10, 10)

	if uint8(r>>8) != expected.R || uint8(g>>8) != expected.G || uint8(b>>8) != expected.B || uint8(a>>8) != expected.A {
		t.Fatalf("Lossless output does not round trip at (10, 10)")
	}
}

func TestEncodePNGFallback(t *testing.T) {

	// The RGBA path is what the lossy path falls back to when verification
	// fails so it must always produce a depth the container can carry.

	frame := manyColorFrame(64)

	body, err := encodeRGBA(frame)

	if err != nil {
		t.Fatalf("Failed to encode, %v", err)
	}

	if depth := pngBitDepth(body); depth != 8 {
		t.Fatalf("Expected bit depth 8, got %d", depth)
	}
}

func TestPngIndexed(t *testing.T) {

	frame := manyColorFrame(64)

	truecolor, err := encodeRGBA(frame)

	if err != nil {
		t.Fatalf("Failed to encode, %v", err)
	}

	// A truecolor PNG reads 8 bits per sample too so the bit depth alone
	// cannot distinguish it from an indexed payload

	if pngBitDepth(truecolor) != 8 {
		t.Fatalf("Expected bit depth 8 for truecolor output, got %d", pngBitDepth(truecolor))
	}

	if pngIndexed(truecolor) {
		t.Fatalf("Truecolor output reported as indexed, color type %d", pngColorType(truecolor))
	}

	indexed, err := encodeIndexed(frame, &PngOptions{Lossy: true, MaxColors: 16})

	if err != nil {
		t.Fatalf("Failed to encode, %v", err)
	}

	if !pngIndexed(indexed) {
		t.Fatalf("Indexed output not reported as indexed, depth %d color type %d", pngBitDepth(indexed), pngColorType(indexed))
	}

	if pngIndexed([]byte{0x89, 0x50}) {
		t.Fatalf("Truncated body reported as indexed")
	}
}

func TestClampPaletteColors(t *testing.T) {

	tests := map[int]int{
		1:    4,
		4:    4,
		5:    4,
		8:    8,
		100:  64,
		256:  256,
		1000: 256,
	}

	for count, expected := range tests {

		if got := clampPaletteColors(count); got != expected {
			t.Fatalf("Expected %d for %d, got %d", expected, count, got)
		}
	}
}
