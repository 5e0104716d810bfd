package bench

import (
	"strconv"

	"github.com/matzehuels/labelbench/pkg/dataset"
)

// BucketStats holds the density, normalized density and size averages of a
// run, indexed [algorithm][bucket].
type BucketStats struct {
	Names      []string
	Density    [][dataset.DensityBuckets]AggregateCell
	Normalized [][dataset.DensityBuckets]AggregateCell
	Size       [][dataset.SizeBuckets]AggregateCell
}

// Bucketize routes each present file's minimum time into its size and density
// buckets. Files outside the naming contract are ignored.
//
// The normalized value divides the minimum by the file's null labeler
// minimum; it is skipped for files whose null minimum is unavailable or zero.
func Bucketize(run *TrialRun) *BucketStats {
	algs := run.Minimum.Cols
	b := &BucketStats{
		Names:      run.Names,
		Density:    make([][dataset.DensityBuckets]AggregateCell, algs),
		Normalized: make([][dataset.DensityBuckets]AggregateCell, algs),
		Size:       make([][dataset.SizeBuckets]AggregateCell, algs),
	}

	for f, rec := range run.Dataset.Files {
		if !rec.Present {
			continue
		}
		size, density, ok := dataset.Buckets(rec.Name)
		if !ok {
			continue
		}
		null := run.NullMinimum.At(f, 0)
		for a, r := range run.Minimum.Row(f) {
			if !r.Valid {
				continue
			}
			b.Density[a][density].Add(r.Millis)
			b.Size[a][size].Add(r.Millis)
			if null.Valid && null.Millis > 0 {
				b.Normalized[a][density].Add(r.Millis / null.Millis)
			}
		}
	}
	return b
}

// Row is one line of a bucketed report: an x value and one average per
// algorithm. NoData marks rows whose first algorithm has no samples; renderers
// comment them out instead of drawing a zero.
type Row struct {
	X      string
	Values []float64
	NoData bool
}

// DensityRows returns one row per density class, labeled 0.1 to 0.9.
func (b *BucketStats) DensityRows() []Row {
	return densityRows(b.Density)
}

// NormalizedRows is DensityRows over the null-normalized cells.
func (b *BucketStats) NormalizedRows() []Row {
	return densityRows(b.Normalized)
}

// SizeRows returns one row per size class, labeled by pixel area.
func (b *BucketStats) SizeRows() []Row {
	rows := make([]Row, dataset.SizeBuckets)
	for i := range rows {
		rows[i] = Row{X: strconv.Itoa(dataset.SizeArea(i)), Values: make([]float64, len(b.Size))}
		for a := range b.Size {
			rows[i].Values[a], _ = b.Size[a][i].Average()
		}
		rows[i].NoData = len(b.Size) == 0 || b.Size[0][i].NoData()
	}
	return rows
}

func densityRows(cells [][dataset.DensityBuckets]AggregateCell) []Row {
	rows := make([]Row, dataset.DensityBuckets)
	for i := range rows {
		rows[i] = Row{
			X:      strconv.FormatFloat(dataset.DensityValue(i), 'g', -1, 64),
			Values: make([]float64, len(cells)),
		}
		for a := range cells {
			rows[i].Values[a], _ = cells[a][i].Average()
		}
		rows[i].NoData = len(cells) == 0 || cells[0][i].NoData()
	}
	return rows
}
