package dataset

import "path"

// Bucket counts for the naming contract.
const (
	SizeBuckets    = 8
	DensityBuckets = 9
)

// Buckets extracts the size and density classes from a file name.
//
// Only names whose first three characters are ASCII digits participate. The
// first digit is the size class (edge 32·2^i) and the second the density class
// (0.1·(i+1)). Digits outside 0..7 and 0..8 respectively are excluded, not
// clamped. Directory components are ignored.
func Buckets(name string) (size, density int, ok bool) {
	base := path.Base(name)
	if len(base) < 3 {
		return 0, 0, false
	}
	for i := 0; i < 3; i++ {
		if base[i] < '0' || base[i] > '9' {
			return 0, 0, false
		}
	}
	size, density = int(base[0]-'0'), int(base[1]-'0')
	if size >= SizeBuckets || density >= DensityBuckets {
		return 0, 0, false
	}
	return size, density, true
}

// SizeEdge returns the image edge length in pixels for size class i.
func SizeEdge(i int) int { return 32 << i }

// SizeArea returns the pixel area for size class i, the value reports plot.
func SizeArea(i int) int {
	e := SizeEdge(i)
	return e * e
}

// DensityValue returns the foreground density for density class i.
func DensityValue(i int) float64 { return float64(i+1) / 10 }
