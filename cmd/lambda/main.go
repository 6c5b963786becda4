package main

import (
	"context"
	"fmt"

	aa_bucket "github.com/aaronland/gocloud-blob/bucket"
	_ "github.com/aaronland/gocloud-blob-s3"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sfomuseum/go-ico"
	_ "gocloud.dev/blob/fileblob"
)

// ConvertRequest is the JSON payload the function is invoked with.
type ConvertRequest struct {
	Paths     []string `json:"paths"`
	Sizes     []int    `json:"sizes"`
	Recolor   string   `json:"recolor,omitempty"`
	Lossy     bool     `json:"lossy"`
	MaxColors int      `json:"max_colors,omitempty"`
	Dither    bool     `json:"dither,omitempty"`
	BucketURI string   `json:"bucket_uri"`
}

func handler(ctx context.Context, req ConvertRequest) (*ico.ConversionResult, error) {

	bucket, err := aa_bucket.OpenBucket(ctx, req.BucketURI)

	if err != nil {
		return nil, fmt.Errorf("Failed to open bucket, %w", err)
	}

	defer bucket.Close()

	png_opts := &ico.PngOptions{
		Lossy:     req.Lossy,
		MaxColors: req.MaxColors,
		Dither:    req.Dither,
	}

	if png_opts.MaxColors == 0 {
		png_opts.MaxColors = ico.MAX_PALETTE_COLORS
	}

	opts := &ico.ConvertOptions{
		Sizes:   req.Sizes,
		Recolor: req.Recolor,
		Png:     png_opts,
		Bucket:  bucket,
	}

	return ico.Convert(ctx, req.Paths, opts)
}

func main() {
	lambda.Start(handler)
}
