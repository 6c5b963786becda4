package ico

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/template"

	"github.com/sfomuseum/go-ico/optimize"
	"github.com/sfomuseum/go-ico/static"
	"gocloud.dev/blob"
	"golang.org/x/sync/errgroup"
)

// faviconImage is one fixed-size PNG in a favicon pack.
type faviconImage struct {
	Name string
	Size int
}

// The PNG set and the ICO sizes are fixed by web convention and do not track
// the sizes a caller selects for regular ICO conversion.
var faviconImages = []faviconImage{
	{"favicon-16x16.png", 16},
	{"favicon-32x32.png", 32},
	{"apple-touch-icon.png", 180},
	{"android-chrome-192x192.png", 192},
	{"android-chrome-512x512.png", 512},
}

var faviconIcoSizes = []int{16, 32}

const faviconIcoName string = "favicon.ico"
const faviconSvgName string = "favicon.svg"
const faviconHtmlName string = "favicon.html"

// FaviconOptions bundles everything a favicon pack needs.
type FaviconOptions struct {
	// Recolor is an optional RRGGBB color applied to SVG sources.
	Recolor string
	// Png describes how each frame is encoded.
	Png *PngOptions
	// Optimizer shrinks staged PNG files before publication. It may be nil.
	Optimizer optimize.Optimizer
	// Bucket receives the pack.
	Bucket *blob.Bucket
}

// FaviconResult reports a successful favicon pack. Warning is non-empty when
// the PNG optimization step failed without affecting the pack.
type FaviconResult struct {
	Warning string `json:"warning,omitempty"`
}

// FaviconPack generates the full favicon bundle for one source file: the
// fixed PNG set, a small favicon.ico, a verbatim copy of the source if it is
// an SVG, and an HTML snippet referencing everything by its fixed filename.
// A failure producing the ICO aborts the whole pack.
func FaviconPack(ctx context.Context, path string, opts *FaviconOptions) (*FaviconResult, error) {

	if opts.Bucket == nil {
		return nil, fmt.Errorf("No output bucket")
	}

	png_opts := opts.Png

	if png_opts == nil {
		png_opts = DefaultPngOptions()
	}

	source, err := NewSource(path)

	if err != nil {
		return nil, fmt.Errorf("Failed to load %s, %w", filepath.Base(path), err)
	}

	staging, err := os.MkdirTemp("", "favicon-staging-*")

	if err != nil {
		return nil, fmt.Errorf("Failed to create staging directory, %w", err)
	}

	defer os.RemoveAll(staging)

	// The PNG sizes are independent renders of the same decoded source so
	// they can be produced concurrently.

	log.Println("Generate favicon images")

	g := new(errgroup.Group)

	staged := make([]string, len(faviconImages))

	for i, fi := range faviconImages {

		i := i
		fi := fi

		g.Go(func() error {

			frame, err := source.Rasterize(fi.Size, opts.Recolor)

			if err != nil {
				return fmt.Errorf("Failed to rasterize %s, %w", fi.Name, err)
			}

			body, err := EncodePNG(frame, png_opts)

			if err != nil {
				return fmt.Errorf("Failed to encode %s, %w", fi.Name, err)
			}

			staged_path := filepath.Join(staging, fi.Name)

			err = os.WriteFile(staged_path, body, 0644)

			if err != nil {
				return fmt.Errorf("Failed to stage %s, %w", fi.Name, err)
			}

			staged[i] = staged_path
			return nil
		})
	}

	err = g.Wait()

	if err != nil {
		return nil, err
	}

	warning := optimizeStaged(ctx, opts.Optimizer, staged, png_opts)

	for i, fi := range faviconImages {

		r, err := os.Open(staged[i])

		if err != nil {
			return nil, fmt.Errorf("Failed to open staged %s, %w", fi.Name, err)
		}

		err = copyToBucket(ctx, opts.Bucket, fi.Name, r)

		r.Close()

		if err != nil {
			return nil, fmt.Errorf("Failed to publish %s, %w", fi.Name, err)
		}
	}

	// The ICO step reuses the per-size pipeline and its failure is fatal to
	// the pack.

	log.Println("Generate favicon.ico")

	entries := make([]Entry, 0, len(faviconIcoSizes))

	for _, size := range faviconIcoSizes {

		frame, err := source.Rasterize(size, opts.Recolor)

		if err != nil {
			return nil, fmt.Errorf("Failed to generate %s, failed to rasterize at %d, %w", faviconIcoName, size, err)
		}

		body, err := EncodePNG(frame, png_opts)

		if err != nil {
			return nil, fmt.Errorf("Failed to generate %s, failed to encode at %d, %w", faviconIcoName, size, err)
		}

		entries = append(entries, Entry{
			Data:   body,
			Width:  size,
			Height: size,
		})
	}

	err = publishIco(ctx, opts.Bucket, faviconIcoName, entries)

	if err != nil {
		return nil, fmt.Errorf("Failed to generate %s, %w", faviconIcoName, err)
	}

	if source.Vector() {

		log.Println("Copy favicon.svg")

		err = copyToBucket(ctx, opts.Bucket, faviconSvgName, bytes.NewReader(source.Bytes()))

		if err != nil {
			return nil, fmt.Errorf("Failed to publish %s, %w", faviconSvgName, err)
		}
	}

	log.Println("Write favicon.html")

	err = writeFaviconHtml(ctx, opts.Bucket, source.Vector())

	if err != nil {
		return nil, fmt.Errorf("Failed to publish %s, %w", faviconHtmlName, err)
	}

	rsp := &FaviconResult{
		Warning: warning,
	}

	return rsp, nil
}

func writeFaviconHtml(ctx context.Context, bucket *blob.Bucket, has_svg bool) error {

	t, err := template.ParseFS(static.FS, "favicon.html")

	if err != nil {
		return fmt.Errorf("Failed to parse template, %w", err)
	}

	vars := struct {
		SVG bool
	}{
		SVG: has_svg,
	}

	var buf bytes.Buffer

	err = t.Execute(&buf, vars)

	if err != nil {
		return fmt.Errorf("Failed to render template, %w", err)
	}

	return copyToBucket(ctx, bucket, faviconHtmlName, &buf)
}
