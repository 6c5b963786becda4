package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	aa_bucket "github.com/aaronland/gocloud-blob/bucket"
	_ "github.com/aaronland/gocloud-blob-s3"
	"github.com/sfomuseum/go-flags/flagset"
	"github.com/sfomuseum/go-ico"
	"github.com/sfomuseum/go-ico/optimize"
	_ "gocloud.dev/blob/fileblob"
)

func main() {

	var color string
	var lossy bool
	var lossless bool
	var colors int
	var dither bool
	var oxipng_path string
	var oxipng_timeout int
	var bucket_uri string

	fs := flagset.NewFlagSet("favicon")

	fs.StringVar(&color, "color", "", "An optional RRGGBB color applied to SVG sources.")
	fs.BoolVar(&lossy, "lossy", true, "Quantize images to an indexed palette before encoding.")
	fs.BoolVar(&lossless, "lossless", false, "Run the byte-level optimizer in lossless mode.")
	fs.IntVar(&colors, "colors", 256, "The maximum palette size for lossy encoding.")
	fs.BoolVar(&dither, "dither", false, "Apply ordered dithering during quantization.")
	fs.StringVar(&oxipng_path, "oxipng", "", "The path to the oxipng binary. If empty the binary is looked up on the PATH.")
	fs.IntVar(&oxipng_timeout, "oxipng-timeout", 0, "An optional timeout in seconds for each oxipng invocation.")
	fs.StringVar(&bucket_uri, "bucket-uri", "cwd://", "A valid gocloud.dev/blob URI where the favicon pack will be written.")

	flagset.Parse(fs)

	args := fs.Args()

	if len(args) != 1 {
		log.Fatalf("Expected exactly one source image")
	}

	source_path := args[0]

	ctx := context.Background()

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

	png_opts := &ico.PngOptions{
		Lossy:     lossy,
		Lossless:  lossless,
		MaxColors: colors,
		Dither:    dither,
	}

	opts := &ico.FaviconOptions{
		Recolor:   color,
		Png:       png_opts,
		Optimizer: optimize.NewOxipng(oxipng_path, time.Duration(oxipng_timeout)*time.Second),
		Bucket:    bucket,
	}

	rsp, err := ico.FaviconPack(ctx, source_path, opts)

	if err != nil {
		log.Fatalf("Failed to generate favicon pack, %v", err)
	}

	if rsp.Warning != "" {
		log.Printf("Warning: %s\n", rsp.Warning)
	}

	log.Println("Favicon pack complete")
}
