package ico

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/aaronland/go-image/resize"
	"github.com/boombuler/barcode/qr"
	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/barcode"
)

// SheetOptions describes one proof-sheet page: a source icon rendered at
// every requested size, with captions and an optional reference QR code.
type SheetOptions struct {
	Source  Source
	Sizes   []int
	Recolor string
	Title   string
	URL     string
}

// AddSheet renders a review page of opts.Source at each size in opts.Sizes
// onto pdf. Large renders are scaled down to fit the page.
func AddSheet(ctx context.Context, pdf *fpdf.Fpdf, opts *SheetOptions) error {

	dpi := 150.0

	margin_x := 0.75
	margin_y := 0.75

	max_w := 11.0 - (margin_x * 2)
	max_h := 8.5 - (margin_y * 2)

	cell_gap := 0.25
	caption_h := 0.2

	qr_w := 0.4
	qr_h := 0.4

	footer_y := max_h + 0.25

	pdf.SetFont("Helvetica", "", 8)

	pdf.AddPage()

	if opts.Title != "" {
		pdf.SetY(margin_y * 0.5)
		pdf.SetX(margin_x)
		pdf.CellFormat(max_w, caption_h, opts.Title, "", 0, "L", false, 0, "")
	}

	x := margin_x
	y := margin_y

	for _, size := range opts.Sizes {

		frame, err := opts.Source.Rasterize(size, opts.Recolor)

		if err != nil {
			return fmt.Errorf("Failed to rasterize at %d, %w", size, err)
		}

		var im image.Image = frame

		im_w := float64(size) / dpi
		im_h := float64(size) / dpi

		// Scale oversized renders down to fit the page

		if im_w > max_w || im_h > max_h {

			max_dim := min(max_w, max_h)

			new_im, err := resize.ResizeImage(ctx, im, int(max_dim*dpi))

			if err != nil {
				return fmt.Errorf("Failed to resize render for %d, %w", size, err)
			}

			im = new_im

			new_dims := new_im.Bounds()
			im_w = float64(new_dims.Max.X) / dpi
			im_h = float64(new_dims.Max.Y) / dpi
		}

		if x+im_w > margin_x+max_w {
			x = margin_x
			y += max_h / 2
		}

		im_tmpfile, err := os.CreateTemp("", "*.png")

		if err != nil {
			return fmt.Errorf("Failed to create temp file for %d, %w", size, err)
		}

		im_path := im_tmpfile.Name()
		defer os.Remove(im_path)

		err = png.Encode(im_tmpfile, im)

		if err != nil {
			im_tmpfile.Close()
			return fmt.Errorf("Failed to encode render for %d, %w", size, err)
		}

		err = im_tmpfile.Close()

		if err != nil {
			return fmt.Errorf("Failed to close temp file for %d, %w", size, err)
		}

		im_r, err := os.Open(im_path)

		if err != nil {
			return fmt.Errorf("Failed to open %s for reading, %w", im_path, err)
		}

		defer im_r.Close()

		im_opts := fpdf.ImageOptions{
			ImageType: "png",
			ReadDpi:   false,
		}

		info := pdf.RegisterImageOptionsReader(im_path, im_opts, im_r)
		info.SetDpi(dpi)

		pdf.ImageOptions(im_path, x, y, im_w, im_h, false, im_opts, 0, "")

		caption := fmt.Sprintf("%d x %d", size, size)

		pdf.SetY(y + im_h + 0.05)
		pdf.SetX(x)
		pdf.CellFormat(im_w, caption_h, caption, "", 0, "L", false, 0, "")

		x += im_w + cell_gap
	}

	// QR code

	if opts.URL != "" {

		key := barcode.RegisterQR(pdf, opts.URL, qr.H, qr.Unicode)
		barcode.Barcode(pdf, key, margin_x, footer_y, qr_h, qr_w, false)

		pdf.SetY(footer_y + qr_h + 0.05)
		pdf.SetX(margin_x)
		pdf.CellFormat(max_w, caption_h, opts.URL, "", 0, "L", false, 0, "")
	}

	return nil
}
