package ico

import (
	"os"
	"path/filepath"
	"testing"
)

const nonSquareSVG string = `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50" viewBox="0 0 100 50"><rect x="0" y="0" width="50" height="50" fill="#ff0000"/></svg>`

func writeTestFile(t *testing.T, name string, body []byte) string {

	path := filepath.Join(t.TempDir(), name)

	err := os.WriteFile(path, body, 0644)

	if err != nil {
		t.Fatalf("Failed to write %s, %v", path, err)
	}

	return path
}

func TestNewSourceRaster(t *testing.T) {

	body, err := encodeRGBA(manyColorFrame(40))

	if err != nil {
		t.Fatalf("Failed to encode test image, %v", err)
	}

	path := writeTestFile(t, "source.png", body)

	source, err := NewSource(path)

	if err != nil {
		t.Fatalf("Failed to load source, %v", err)
	}

	if source.Vector() {
		t.Fatalf("Raster source reported as vector")
	}

	frame, err := source.Rasterize(32, "")

	if err != nil {
		t.Fatalf("Failed to rasterize, %v", err)
	}

	if frame.Bounds().Dx() != 32 || frame.Bounds().Dy() != 32 {
		t.Fatalf("Unexpected dimensions %v", frame.Bounds())
	}
}

func TestNewSourceCorrupt(t *testing.T) {

	path := writeTestFile(t, "corrupt.png", []byte{0x00, 0x01, 0x02, 0x03})

	_, err := NewSource(path)

	if err == nil {
		t.Fatalf("Expected an error loading a corrupt source")
	}
}

func TestNewSourceEmptySVG(t *testing.T) {

	path := writeTestFile(t, "empty.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`))

	_, err := NewSource(path)

	if err == nil {
		t.Fatalf("Expected an error loading an SVG with no drawable paths")
	}
}

func TestVectorSourceNonUniformScale(t *testing.T) {

	path := writeTestFile(t, "wide.svg", []byte(nonSquareSVG))

	source, err := NewSource(path)

	if err != nil {
		t.Fatalf("Failed to load source, %v", err)
	}

	if !source.Vector() {
		t.Fatalf("SVG source not reported as vector")
	}

	frame, err := source.Rasterize(64, "")

	if err != nil {
		t.Fatalf("Failed to rasterize, %v", err)
	}

	if frame.Bounds().Dx() != 64 || frame.Bounds().Dy() != 64 {
		t.Fatalf("Unexpected dimensions %v", frame.Bounds())
	}

	// The 100 x 50 view box is stretched with independent scale factors
	// (0.64 in X, 1.28 in Y) so the 50-unit rect covers x 0-32 at full
	// height. A uniform scale would leave the bottom half empty.

	if frame.RGBAAt(16, 32).A == 0 {
		t.Fatalf("Expected opaque pixel inside the rect at (16, 32)")
	}

	if frame.RGBAAt(16, 60).A == 0 {
		t.Fatalf("Expected opaque pixel at (16, 60), Y axis was not stretched")
	}

	if frame.RGBAAt(48, 32).A != 0 {
		t.Fatalf("Expected transparent pixel outside the rect at (48, 32)")
	}

	if frame.RGBAAt(16, 32).R < 200 {
		t.Fatalf("Expected red fill at (16, 32), got %v", frame.RGBAAt(16, 32))
	}
}

func TestVectorSourceRecolor(t *testing.T) {

	path := writeTestFile(t, "wide.svg", []byte(nonSquareSVG))

	source, err := NewSource(path)

	if err != nil {
		t.Fatalf("Failed to load source, %v", err)
	}

	frame, err := source.Rasterize(64, "0000ff")

	if err != nil {
		t.Fatalf("Failed to rasterize, %v", err)
	}

	px := frame.RGBAAt(16, 32)

	if px.A == 0 {
		t.Fatalf("Expected opaque pixel at (16, 32)")
	}

	if px.B < 200 || px.R > 50 {
		t.Fatalf("Expected blue fill at (16, 32), got %v", px)
	}

	// The alpha shape is preserved

	if frame.RGBAAt(48, 32).A != 0 {
		t.Fatalf("Expected transparent pixel outside the rect at (48, 32)")
	}
}

func TestIsSVG(t *testing.T) {

	if !isSVG("icon.SVG", nil) {
		t.Fatalf("Expected .SVG extension to be detected")
	}

	if !isSVG("icon.xml", []byte("  \n<svg></svg>")) {
		t.Fatalf("Expected document prefix to be detected")
	}

	if isSVG("icon.png", []byte{0x89, 0x50, 0x4E, 0x47}) {
		t.Fatalf("Expected PNG bytes not to be detected as SVG")
	}
}
