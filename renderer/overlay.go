package renderer

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const overlayLineHeight = 15

// DrawOverlay writes lines of debug text in the top-left corner of img over
// a dark backing box.
func DrawOverlay(img *image.RGBA, lines ...string) {
	if img == nil || len(lines) == 0 {
		return
	}
	face := basicfont.Face7x13

	width := 0
	for _, l := range lines {
		if w := font.MeasureString(face, l).Ceil(); w > width {
			width = w
		}
	}
	box := image.Rect(0, 0, width+8, len(lines)*overlayLineHeight+6).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(color.RGBA{0, 0, 0, 160}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: face,
	}
	for i, l := range lines {
		d.Dot = fixed.Point26_6{X: fixed.I(4), Y: fixed.I(13 + i*overlayLineHeight)}
		d.DrawString(l)
	}
}
