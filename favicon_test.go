package ico

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sfomuseum/go-ico/optimize"
	"gocloud.dev/blob/fileblob"
)

func TestFaviconPack(t *testing.T) {

	ctx := context.Background()

	path := writeTestFile(t, "logo.svg", []byte(nonSquareSVG))

	out_dir := t.TempDir()

	bucket, err := fileblob.OpenBucket(out_dir, nil)

	if err != nil {
		t.Fatalf("Failed to open bucket, %v", err)
	}

	defer bucket.Close()

	opts := &FaviconOptions{
		Png:       DefaultPngOptions(),
		Optimizer: &optimize.Null{},
		Bucket:    bucket,
	}

	rsp, err := FaviconPack(ctx, path, opts)

	if err != nil {
		t.Fatalf("Failed to generate favicon pack, %v", err)
	}

	if rsp == nil {
		t.Fatalf("Expected a result")
	}

	if rsp.Warning != "" {
		t.Fatalf("Expected no warning, got %s", rsp.Warning)
	}

	expected := []string{
		"favicon-16x16.png",
		"favicon-32x32.png",
		"apple-touch-icon.png",
		"android-chrome-192x192.png",
		"android-chrome-512x512.png",
		"favicon.ico",
		"favicon.svg",
		"favicon.html",
	}

	for _, name := range expected {

		_, err := os.Stat(filepath.Join(out_dir, name))

		if err != nil {
			t.Fatalf("Expected %s in output, %v", name, err)
		}
	}

	report, err := InspectFile(filepath.Join(out_dir, "favicon.ico"))

	if err != nil {
		t.Fatalf("Failed to inspect favicon.ico, %v", err)
	}

	if report.Count != 2 {
		t.Fatalf("Expected 2 images in favicon.ico, got %d", report.Count)
	}

	if report.Images[0].Width != 16 || report.Images[1].Width != 32 {
		t.Fatalf("Unexpected favicon.ico sizes %d, %d", report.Images[0].Width, report.Images[1].Width)
	}

	// The HTML snippet references the SVG for vector sources

	body, err := os.ReadFile(filepath.Join(out_dir, "favicon.html"))

	if err != nil {
		t.Fatalf("Failed to read favicon.html, %v", err)
	}

	if !strings.Contains(string(body), "favicon.svg") {
		t.Fatalf("Expected favicon.html to reference favicon.svg")
	}
}

func TestFaviconPackRasterSource(t *testing.T) {

	ctx := context.Background()

	body, err := encodeRGBA(manyColorFrame(64))

	if err != nil {
		t.Fatalf("Failed to encode test image, %v", err)
	}

	path := writeTestFile(t, "logo.png", body)

	out_dir := t.TempDir()

	bucket, err := fileblob.OpenBucket(out_dir, nil)

	if err != nil {
		t.Fatalf("Failed to open bucket, %v", err)
	}

	defer bucket.Close()

	opts := &FaviconOptions{
		Png:    DefaultPngOptions(),
		Bucket: bucket,
	}

	_, err = FaviconPack(ctx, path, opts)

	if err != nil {
		t.Fatalf("Failed to generate favicon pack, %v", err)
	}

	// No SVG copy for raster sources

	_, err = os.Stat(filepath.Join(out_dir, "favicon.svg"))

	if !os.IsNotExist(err) {
		t.Fatalf("Did not expect favicon.svg for a raster source")
	}

	html, err := os.ReadFile(filepath.Join(out_dir, "favicon.html"))

	if err != nil {
		t.Fatalf("Failed to read favicon.html, %v", err)
	}

	if strings.Contains(string(html), "favicon.svg") {
		t.Fatalf("Did not expect favicon.html to reference favicon.svg")
	}
}

func TestFaviconPackOptimizerWarning(t *testing.T) {

	ctx := context.Background()

	path := writeTestFile(t, "logo.svg", []byte(nonSquareSVG))

	out_dir := t.TempDir()

	bucket, err := fileblob.OpenBucket(out_dir, nil)

	if err != nil {
		t.Fatalf("Failed to open bucket, %v", err)
	}

	defer bucket.Close()

	opts := &FaviconOptions{
		Png:       DefaultPngOptions(),
		Optimizer: &failingOptimizer{},
		Bucket:    bucket,
	}

	rsp, err := FaviconPack(ctx, path, opts)

	if err != nil {
		t.Fatalf("Failed to generate favicon pack, %v", err)
	}

	// The pack still succeeds, the failure is attached as a warning

	if rsp.Warning == "" {
		t.Fatalf("Expected a warning from the failing optimizer")
	}

	if !strings.Contains(rsp.Warning, "Failed to optimize") {
		t.Fatalf("Unexpected warning, %s", rsp.Warning)
	}

	for _, name := range []string{"favicon.ico", "favicon.html"} {

		_, err := os.Stat(filepath.Join(out_dir, name))

		if err != nil {
			t.Fatalf("Expected %s in output, %v", name, err)
		}
	}
}

func TestFaviconPackCorruptSource(t *testing.T) {

	ctx := context.Background()

	path := writeTestFile(t, "corrupt.png", []byte{0x00, 0x01})

	out_dir := t.TempDir()

	bucket, err := fileblob.OpenBucket(out_dir, nil)

	if err != nil {
		t.Fatalf("Failed to open bucket, %v", err)
	}

	defer bucket.Close()

	opts := &FaviconOptions{
		Bucket: bucket,
	}

	_, err = FaviconPack(ctx, path, opts)

	if err == nil {
		t.Fatalf("Expected an error for a corrupt source")
	}

	if !strings.Contains(err.Error(), "corrupt.png") {
		t.Fatalf("Expected the failing file in the error, got %v", err)
	}

	// The pack is aborted before any derivative outputs are published

	for _, name := range []string{"favicon.html", "favicon.svg", "favicon.ico"} {

		_, err := os.Stat(filepath.Join(out_dir, name))

		if !os.IsNotExist(err) {
			t.Fatalf("Did not expect %s after a failed pack", name)
		}
	}
}
