package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	aa_bucket "github.com/aaronland/gocloud-blob/bucket"
	_ "github.com/aaronland/gocloud-blob-s3"
	"github.com/go-pdf/fpdf"
	"github.com/sfomuseum/go-flags/flagset"
	"github.com/sfomuseum/go-flags/multi"
	"github.com/sfomuseum/go-ico"
	_ "gocloud.dev/blob/fileblob"
)

func main() {

	var sizes multi.MultiInt64
	var color string
	var title string
	var url string
	var filename string
	var bucket_uri string

	fs := flagset.NewFlagSet("proofsheet")

	fs.Var(&sizes, "size", "One or more pixel sizes to render. May be repeated.")
	fs.StringVar(&color, "color", "", "An optional RRGGBB color applied to SVG sources.")
	fs.StringVar(&title, "title", "", "An optional title for the sheet.")
	fs.StringVar(&url, "url", "", "An optional reference URL rendered as a QR code.")
	fs.StringVar(&filename, "filename", "", "The name of the PDF file to write. If empty the name is derived from the source.")
	fs.StringVar(&bucket_uri, "bucket-uri", "cwd://", "A valid gocloud.dev/blob URI where the sheet will be written.")

	flagset.Parse(fs)

	args := fs.Args()

	if len(args) != 1 {
		log.Fatalf("Expected exactly one source image")
	}

	source_path := args[0]

	if len(sizes) == 0 {
		sizes = multi.MultiInt64{16, 32, 48, 64, 128, 256}
	}

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

	source, err := ico.NewSource(source_path)

	if err != nil {
		log.Fatalf("Failed to load %s, %v", source_path, err)
	}

	int_sizes := make([]int, len(sizes))

	for i, s := range sizes {
		int_sizes[i] = int(s)
	}

	pdf := fpdf.New("L", "in", "Letter", "")

	sheet_opts := &ico.SheetOptions{
		Source:  source,
		Sizes:   int_sizes,
		Recolor: color,
		Title:   title,
		URL:     url,
	}

	err = ico.AddSheet(ctx, pdf, sheet_opts)

	if err != nil {
		log.Fatalf("Failed to add sheet, %v", err)
	}

	if filename == "" {
		base := filepath.Base(source_path)
		filename = fmt.Sprintf("%s-proofsheet.pdf", strings.TrimSuffix(base, filepath.Ext(base)))
	}

	pdf_wr, err := bucket.NewWriter(ctx, filename, nil)

	if err != nil {
		log.Fatalf("Failed to create new writer for %s, %v", filename, err)
	}

	err = pdf.OutputAndClose(pdf_wr)

	if err != nil {
		log.Fatalf("Failed to write %s, %v", filename, err)
	}

	log.Printf("Wrote %s\n", filename)
}
