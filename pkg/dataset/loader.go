package dataset

import (
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register the webp decoder

	"github.com/matzehuels/labelbench/pkg/errors"
	"github.com/matzehuels/labelbench/pkg/raster"
)

// DefaultThreshold is the grayscale level above which a pixel is foreground.
const DefaultThreshold = 100

// Loader reads a binary image from a path.
type Loader interface {
	Load(path string) (*raster.BinaryImage, error)
}

// ImageLoader decodes any format imaging understands, converts it to
// grayscale and thresholds it.
type ImageLoader struct {
	Threshold uint8
}

var _ Loader = ImageLoader{}

// NewImageLoader returns a loader using DefaultThreshold.
func NewImageLoader() ImageLoader {
	return ImageLoader{Threshold: DefaultThreshold}
}

// Load returns ErrCodeLoadFailure when the file is missing or cannot be decoded.
func (l ImageLoader) Load(path string) (*raster.BinaryImage, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoadFailure, err, "load %s", path)
	}
	gray := imaging.Grayscale(src)
	b := gray.Bounds()
	img := raster.NewBinaryImage(b.Dy(), b.Dx())
	for r := 0; r < b.Dy(); r++ {
		row := gray.Pix[r*gray.Stride:]
		for c := 0; c < b.Dx(); c++ {
			if row[c*4] > l.Threshold {
				img.Pix[r*b.Dx()+c] = 1
			}
		}
	}
	return img, nil
}
