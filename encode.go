package ico

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/makeworld-the-better-one/dither/v2"
)

// MAX_PALETTE_COLORS is the largest palette an indexed-color PNG can carry.
const MAX_PALETTE_COLORS int = 256

// PngOptions describes how frames are encoded as PNG. A single value is
// constructed per batch and passed down unchanged.
type PngOptions struct {
	// Lossy enables palette quantization before encoding.
	Lossy bool
	// Lossless runs the external byte optimizer even when quantization is
	// disabled. It does not change how frames are encoded.
	Lossless bool
	// MaxColors is the palette size ceiling for the lossy path.
	MaxColors int
	// Dither enables ordered (Bayer) dithering during quantization.
	Dither bool
}

// DefaultPngOptions returns options for lossy encoding with a full palette.
func DefaultPngOptions() *PngOptions {

	opts := &PngOptions{
		Lossy:     true,
		Lossless:  false,
		MaxColors: MAX_PALETTE_COLORS,
		Dither:    false,
	}

	return opts
}

// EncodePNG serializes frame as PNG bytes. When opts.Lossy is set the frame
// is quantized to an indexed palette first; if the resulting PNG does not
// hold to 8 bits per pixel or less it is discarded and the frame is
// re-encoded as full 32-bit RGBA.
func EncodePNG(frame *image.RGBA, opts *PngOptions) ([]byte, error) {

	if opts.Lossy {

		body, err := encodeIndexed(frame, opts)

		if err != nil {
			return nil, err
		}

		// A truecolor PNG also reports a bit depth of 8, the IHDR field is
		// bits per sample, so the color type is verified too.
		if pngIndexed(body) {
			return body, nil
		}
	}

	return encodeRGBA(frame)
}

func encodeIndexed(frame *image.RGBA, opts *PngOptions) ([]byte, error) {

	count := clampPaletteColors(opts.MaxColors)

	q := quantize.MedianCutQuantizer{
		AddTransparent: true,
	}

	palette := q.Quantize(make([]color.Color, 0, count), frame)

	var indexed *image.Paletted

	if opts.Dither {

		d := dither.NewDitherer(palette)

		if d != nil {
			d.Mapper = dither.Bayer(8, 8, 1.0)
			indexed = d.DitherPaletted(frame)
		}
	}

	if indexed == nil {
		indexed = image.NewPaletted(frame.Bounds(), palette)
		draw.Draw(indexed, indexed.Bounds(), frame, frame.Bounds().Min, draw.Src)
	}

	enc := png.Encoder{
		CompressionLevel: png.BestCompression,
	}

	var buf bytes.Buffer

	err := enc.Encode(&buf, indexed)

	if err != nil {
		return nil, fmt.Errorf("Failed to encode indexed PNG, %w", err)
	}

	return buf.Bytes(), nil
}

func encodeRGBA(frame *image.RGBA) ([]byte, error) {

	enc := png.Encoder{
		CompressionLevel: png.BestCompression,
	}

	var buf bytes.Buffer

	err := enc.Encode(&buf, frame)

	if err != nil {
		return nil, fmt.Errorf("Failed to encode PNG, %w", err)
	}

	return buf.Bytes(), nil
}

// clampPaletteColors rounds count down to the nearest supported palette size.
func clampPaletteColors(count int) int {

	sizes := []int{256, 128, 64, 32, 16, 8, 4}

	for _, s := range sizes {

		if count >= s {
			return s
		}
	}

	return 4
}

// The IHDR chunk is required to be first so its bit depth and color type
// fields sit at fixed offsets: 8 bytes of signature, 8 bytes of chunk length
// and type, 8 bytes of dimensions.

const pngColorTypeIndexed int = 3

func pngBitDepth(body []byte) int {

	if len(body) < 25 {
		return 0
	}

	return int(body[24])
}

func pngColorType(body []byte) int {

	if len(body) < 26 {
		return -1
	}

	return int(body[25])
}

// pngIndexed reports whether body is an indexed-color PNG at 8 bits per
// sample or less.
func pngIndexed(body []byte) bool {
	return pngBitDepth(body) <= 8 && pngColorType(body) == pngColorTypeIndexed
}
