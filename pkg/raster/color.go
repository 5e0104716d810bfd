package raster

import (
	"image"
	"image/color"
)

// LabelColor returns the false color used for component id.
// Background (0) maps to black.
func LabelColor(id uint32) color.NRGBA {
	return color.NRGBA{
		R: uint8(uint64(id) * 131 % 255),
		G: uint8(uint64(id) * 241 % 255),
		B: uint8(uint64(id) * 251 % 255),
		A: 0xff,
	}
}

// Colorize renders l as a false-color image. Callers normalize l first so
// that the same partition always produces the same picture.
func Colorize(l *LabelMap) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, l.Cols, l.Rows))
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Cols; c++ {
			img.SetNRGBA(c, r, LabelColor(l.At(r, c)))
		}
	}
	return img
}
