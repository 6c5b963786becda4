package ico

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/sfomuseum/go-ico/optimize"
	"gocloud.dev/blob"
	"golang.org/x/sync/errgroup"
)

// ProgressEvent is an ephemeral notification emitted as a batch advances.
type ProgressEvent struct {
	// Percentage is the share of files that have reached a terminal state,
	// 0 to 100.
	Percentage int
	// Label is the display name of the file the event refers to.
	Label string
}

// ProgressMonitorFunc receives progress events. It may be invoked from
// multiple goroutines.
type ProgressMonitorFunc func(ProgressEvent)

// ConvertOptions bundles everything one batch conversion needs. Values are
// constructed once at the call boundary and never mutated by the pipeline.
type ConvertOptions struct {
	// Sizes are the pixel sizes rendered into every output container.
	Sizes []int
	// Recolor is an optional RRGGBB color applied to SVG sources.
	Recolor string
	// Png describes how each frame is encoded.
	Png *PngOptions
	// Optimizer shrinks staged PNG files before they are assembled. It may
	// be nil.
	Optimizer optimize.Optimizer
	// Bucket receives the finished containers.
	Bucket *blob.Bucket
	// MaxWorkers caps concurrent file conversions. Zero or less means one
	// worker per CPU.
	MaxWorkers int
	// Monitor receives progress events. It may be nil.
	Monitor ProgressMonitorFunc
}

// Convert renders every file in paths at every requested size and writes one
// ICO container per file to the output bucket. Files are processed
// concurrently; a failure converting one file is recorded in the result and
// does not stop the others. The returned error is reserved for batch-level
// problems that prevent any file from being processed.
func Convert(ctx context.Context, paths []string, opts *ConvertOptions) (*ConversionResult, error) {

	if len(paths) == 0 {
		return nil, fmt.Errorf("Nothing to convert")
	}

	if len(opts.Sizes) == 0 {
		return nil, fmt.Errorf("No sizes to render")
	}

	if opts.Bucket == nil {
		return nil, fmt.Errorf("No output bucket")
	}

	png_opts := opts.Png

	if png_opts == nil {
		png_opts = DefaultPngOptions()
	}

	workers := opts.MaxWorkers

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	result := NewConversionResult()

	total := len(paths)
	var completed int64

	emit := func(ev ProgressEvent) {

		if opts.Monitor != nil {
			opts.Monitor(ev)
		}
	}

	emit(ProgressEvent{Percentage: 0, Label: ""})

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for _, path := range paths {

		path := path

		g.Go(func() error {

			out, warning, err := convertFile(ctx, path, png_opts, opts)

			if err != nil {
				result.AddFailure(filepath.Base(path), err.Error())
			} else {

				result.AddSuccess(out)

				if warning != "" {
					result.AddWarning(warning)
				}
			}

			done := atomic.AddInt64(&completed, 1)
			pct := int(math.Round(100.0 * float64(done) / float64(total)))

			emit(ProgressEvent{Percentage: pct, Label: filepath.Base(path)})

			// Per-file errors never escape the worker.
			return nil
		})
	}

	g.Wait()

	emit(ProgressEvent{Percentage: 100, Label: "Done"})

	return result, nil
}

// convertFile runs the full pipeline for one source: rasterize and encode
// every size into a staging directory, optimize the staged files, assemble
// the container and publish it. The returned warning is non-empty when the
// optimization step failed without affecting the output.
func convertFile(ctx context.Context, path string, png_opts *PngOptions, opts *ConvertOptions) (string, string, error) {

	source, err := NewSource(path)

	if err != nil {
		return "", "", err
	}

	staging, err := os.MkdirTemp("", "ico-staging-*")

	if err != nil {
		return "", "", fmt.Errorf("Failed to create staging directory, %w", err)
	}

	defer os.RemoveAll(staging)

	staged := make([]string, 0, len(opts.Sizes))

	for i, size := range opts.Sizes {

		frame, err := source.Rasterize(size, opts.Recolor)

		if err != nil {
			return "", "", fmt.Errorf("Failed to rasterize at %d, %w", size, err)
		}

		body, err := EncodePNG(frame, png_opts)

		if err != nil {
			return "", "", fmt.Errorf("Failed to encode at %d, %w", size, err)
		}

		// Duplicate sizes are not deduplicated so staged files are keyed by
		// position, not size.
		staged_path := filepath.Join(staging, fmt.Sprintf("%03d-%d.png", i, size))

		err = os.WriteFile(staged_path, body, 0644)

		if err != nil {
			return "", "", fmt.Errorf("Failed to stage %d, %w", size, err)
		}

		staged = append(staged, staged_path)
	}

	warning := optimizeStaged(ctx, opts.Optimizer, staged, png_opts)

	entries := make([]Entry, 0, len(opts.Sizes))

	for i, size := range opts.Sizes {

		body, err := os.ReadFile(staged[i])

		if err != nil {
			return "", "", fmt.Errorf("Failed to read staged image for %d, %w", size, err)
		}

		entries = append(entries, Entry{
			Data:   body,
			Width:  size,
			Height: size,
		})
	}

	name := icoFilename(path)

	err = publishIco(ctx, opts.Bucket, name, entries)

	if err != nil {
		return "", "", err
	}

	log.Printf("Wrote %s\n", name)

	return name, warning, nil
}

// optimizeStaged runs the optimizer over staged PNG files. The step only
// runs when the encoding options ask for lossy or lossless optimization and
// an optimizer is configured. All failures are reduced to a warning string;
// optimization is never load-bearing.
func optimizeStaged(ctx context.Context, opt optimize.Optimizer, paths []string, opts *PngOptions) string {

	if opt == nil {
		return ""
	}

	if !opts.Lossy && !opts.Lossless {
		return ""
	}

	if !opt.Available() {
		return "PNG optimizer is not available, skipping optimization"
	}

	err := opt.Optimize(ctx, paths, opts.Lossy)

	if err != nil {
		return fmt.Sprintf("Failed to optimize PNG files, %v", err)
	}

	return ""
}

func publishIco(ctx context.Context, bucket *blob.Bucket, name string, entries []Entry) error {

	wr, err := bucket.NewWriter(ctx, name, nil)

	if err != nil {
		return fmt.Errorf("Failed to create writer for %s, %w", name, err)
	}

	err = WriteIco(wr, entries)

	if err != nil {
		wr.Close()
		return fmt.Errorf("Failed to write %s, %w", name, err)
	}

	err = wr.Close()

	if err != nil {
		return fmt.Errorf("Failed to close %s after writing, %w", name, err)
	}

	return nil
}

func icoFilename(path string) string {

	base := filepath.Base(path)
	ext := filepath.Ext(base)

	return strings.TrimSuffix(base, ext) + ".ico"
}

// copyToBucket writes the contents of r to key in bucket.
func copyToBucket(ctx context.Context, bucket *blob.Bucket, key string, r io.Reader) error {

	wr, err := bucket.NewWriter(ctx, key, nil)

	if err != nil {
		return fmt.Errorf("Failed to create writer for %s, %w", key, err)
	}

	_, err = io.Copy(wr, r)

	if err != nil {
		wr.Close()
		return fmt.Errorf("Failed to copy %s, %w", key, err)
	}

	err = wr.Close()

	if err != nil {
		return fmt.Errorf("Failed to close %s after writing, %w", key, err)
	}

	return nil
}
