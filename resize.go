package ico

import (
	"image"

	"golang.org/x/image/draw"
)

// ResizeFrame scales im to an exact size x size RGBA frame using CatmullRom
// resampling. The result is deterministic for a given input and size.
func ResizeFrame(im image.Image, size int) *image.RGBA {

	frame := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(frame, frame.Bounds(), im, im.Bounds(), draw.Over, nil)

	return frame
}
