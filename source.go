package ico

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmptyScene is returned when an SVG document parses successfully but
// contains nothing to draw.
var ErrEmptyScene = errors.New("SVG document contains no drawable paths")

// Source is a decoded input image that can be rendered at arbitrary square
// sizes. A Source is parsed or decoded exactly once and may be rasterized at
// many sizes independently.
type Source interface {
	// Rasterize renders the source into a new size x size RGBA frame. If
	// recolor is a non-empty hex color the frame is filled with that color
	// using the source's alpha shape (source-in compositing).
	Rasterize(size int, recolor string) (*image.RGBA, error)
	// Vector reports whether the source is an SVG document.
	Vector() bool
	// Bytes returns the raw file bytes the source was loaded from.
	Bytes() []byte
}

// NewSource loads path as either an SVG document or a raster image. Raster
// sources are decoded once; SVG sources are parsed once into a scene that is
// re-rendered per size.
func NewSource(path string) (Source, error) {

	body, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("Failed to read %s, %w", path, err)
	}

	if isSVG(path, body) {
		return newVectorSource(path, body)
	}

	return newBitmapSource(path, body)
}

// isSVG sniffs for SVG input by extension first and document prefix second.
func isSVG(path string, body []byte) bool {

	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return true
	}

	trimmed := bytes.TrimLeft(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf")), " \t\r\n")
	return bytes.HasPrefix(trimmed, []byte("<"))
}

type bitmapSource struct {
	body []byte
	im   image.Image
}

func newBitmapSource(path string, body []byte) (Source, error) {

	im, _, err := image.Decode(bytes.NewReader(body))

	if err != nil {
		return nil, fmt.Errorf("Failed to decode %s, %w", path, err)
	}

	s := &bitmapSource{
		body: body,
		im:   im,
	}

	return s, nil
}

func (s *bitmapSource) Rasterize(size int, recolor string) (*image.RGBA, error) {

	// Recoloring only applies to vector content so the recolor argument is
	// ignored for raster sources.
	return ResizeFrame(s.im, size), nil
}

func (s *bitmapSource) Vector() bool {
	return false
}

func (s *bitmapSource) Bytes() []byte {
	return s.body
}

type vectorSource struct {
	body []byte
	icon *oksvg.SvgIcon
	// oksvg mutates the icon's transform when a target rect is assigned so
	// concurrent rasterizations of the same source must be serialized.
	mu sync.Mutex
}

func newVectorSource(path string, body []byte) (Source, error) {

	icon, err := oksvg.ReadIconStream(bytes.NewReader(body), oksvg.WarnErrorMode)

	if err != nil {
		return nil, fmt.Errorf("Failed to parse %s, %w", path, err)
	}

	if icon == nil || len(icon.SVGPaths) == 0 {
		return nil, fmt.Errorf("Failed to render %s, %w", path, ErrEmptyScene)
	}

	s := &vectorSource{
		body: body,
		icon: icon,
	}

	return s, nil
}

func (s *vectorSource) Rasterize(size int, recolor string) (*image.RGBA, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	frame := image.NewRGBA(image.Rect(0, 0, size, size))

	// SetTarget derives independent X and Y scale factors from the document's
	// view box. A non-square view box is stretched to fill the square frame.
	s.icon.SetTarget(0, 0, float64(size), float64(size))

	scanner := rasterx.NewScannerGV(size, size, frame, frame.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)

	s.icon.Draw(raster, 1.0)

	if recolor == "" {
		return frame, nil
	}

	return Recolor(frame, recolor)
}

func (s *vectorSource) Vector() bool {
	return true
}

func (s *vectorSource) Bytes() []byte {
	return s.body
}
