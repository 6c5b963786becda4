package ico

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/fogleman/colormap"
	"github.com/fogleman/gg"
)

// Recolor fills frame's alpha shape with the color described by hex,
// discarding the original colors (source-in compositing).
func Recolor(frame *image.RGBA, hex string) (*image.RGBA, error) {

	hex = strings.TrimPrefix(hex, "#")

	if len(hex) != 6 {
		return nil, fmt.Errorf("Invalid color '%s', expected RRGGBB", hex)
	}

	bounds := frame.Bounds()

	w := bounds.Dx()
	h := bounds.Dy()

	mask := image.NewAlpha(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			mask.SetAlpha(x, y, color.Alpha{A: frame.RGBAAt(x, y).A})
		}
	}

	dc := gg.NewContext(w, h)

	err := dc.SetMask(mask)

	if err != nil {
		return nil, fmt.Errorf("Failed to assign alpha mask, %w", err)
	}

	dc.SetColor(colormap.ParseColor(hex))
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), dc.Image(), dc.Image().Bounds().Min, draw.Src)

	return out, nil
}
