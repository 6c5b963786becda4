package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	aa_bucket "github.com/aaronland/gocloud-blob/bucket"
	_ "github.com/aaronland/gocloud-blob-s3"
	"github.com/sfomuseum/go-flags/flagset"
	"github.com/sfomuseum/go-flags/multi"
	"github.com/sfomuseum/go-ico"
	"github.com/sfomuseum/go-ico/optimize"
	_ "gocloud.dev/blob/fileblob"
)

func main() {

	var sizes multi.MultiInt64
	var color string
	var lossy bool
	var lossless bool
	var colors int
	var dither bool
	var oxipng_path string
	var oxipng_timeout int
	var bucket_uri string
	var settings_path string
	var max_workers int
	var verbose bool

	fs := flagset.NewFlagSet("convert")

	fs.Var(&sizes, "size", "One or more pixel sizes to render in to each icon. May be repeated.")
	fs.StringVar(&color, "color", "", "An optional RRGGBB color applied to SVG sources.")
	fs.BoolVar(&lossy, "lossy", true, "Quantize images to an indexed palette before encoding.")
	fs.BoolVar(&lossless, "lossless", false, "Run the byte-level optimizer in lossless mode.")
	fs.IntVar(&colors, "colors", 256, "The maximum palette size for lossy encoding.")
	fs.BoolVar(&dither, "dither", false, "Apply ordered dithering during quantization.")
	fs.StringVar(&oxipng_path, "oxipng", "", "The path to the oxipng binary. If empty the binary is looked up on the PATH.")
	fs.IntVar(&oxipng_timeout, "oxipng-timeout", 0, "An optional timeout in seconds for each oxipng invocation.")
	fs.StringVar(&bucket_uri, "bucket-uri", "cwd://", "A valid gocloud.dev/blob URI where icons will be written.")
	fs.StringVar(&settings_path, "settings", "", "An optional JSON settings document with default values.")
	fs.IntVar(&max_workers, "max-workers", 0, "The maximum number of files to convert at once. Zero or less means one per CPU.")
	fs.BoolVar(&verbose, "verbose", false, "Log progress events.")

	flagset.Parse(fs)

	source_paths := fs.Args()

	ctx := context.Background()

	if settings_path != "" {

		settings, err := ico.LoadSettings(settings_path)

		if err != nil {
			log.Fatalf("Failed to load settings, %v", err)
		}

		// Settings provide defaults for anything not set on the command line

		set := make(map[string]bool)

		fs.Visit(func(f *flag.Flag) {
			set[f.Name] = true
		})

		if !set["size"] && len(settings.Sizes) > 0 {

			for _, s := range settings.Sizes {
				sizes = append(sizes, int64(s))
			}
		}

		if !set["color"] {
			color = settings.Recolor
		}

		if !set["lossy"] {
			lossy = settings.Lossy
		}

		if !set["lossless"] {
			lossless = settings.Lossless
		}

		if !set["colors"] && settings.MaxColors > 0 {
			colors = settings.MaxColors
		}

		if !set["dither"] {
			dither = settings.Dither
		}

		if !set["bucket-uri"] && settings.BucketURI != "" {
			bucket_uri = settings.BucketURI
		}

		if !set["oxipng"] {
			oxipng_path = settings.OxipngPath
		}
	}

	if bucket_uri == "cwd://" {

		cwd, err := os.Getwd()

		if err != nil {
			log.Fatalf("Failed to derive current working directory, %v", err)
		}

		bucket_uri = fmt.Sprintf("file://%s", cwd)
	}

	bucket, err := aa_bucket.OpenBucket(ctx, bucket_uri)

	if err != nil {
		log.Fatalf("Failed to open bucket, %v", err)
	}

	defer bucket.Close()

	int_sizes := make([]int, len(sizes))

	for i, s := range sizes {
		int_sizes[i] = int(s)
	}

	if len(int_sizes) == 0 {
		int_sizes = ico.DefaultSettings().Sizes
	}

	png_opts := &ico.PngOptions{
		Lossy:     lossy,
		Lossless:  lossless,
		MaxColors: colors,
		Dither:    dither,
	}

	opts := &ico.ConvertOptions{
		Sizes:      int_sizes,
		Recolor:    color,
		Png:        png_opts,
		Optimizer:  optimize.NewOxipng(oxipng_path, time.Duration(oxipng_timeout)*time.Second),
		Bucket:     bucket,
		MaxWorkers: max_workers,
	}

	if verbose {

		opts.Monitor = func(ev ico.ProgressEvent) {
			log.Printf("%d%% %s\n", ev.Percentage, ev.Label)
		}
	}

	result, err := ico.Convert(ctx, source_paths, opts)

	if err != nil {
		log.Fatalf("Failed to convert, %v", err)
	}

	for _, w := range result.Warnings {
		log.Printf("Warning: %s\n", w)
	}

	fmt.Println(result.Summary(10))

	if len(result.Failures) > 0 {
		os.Exit(1)
	}
}
