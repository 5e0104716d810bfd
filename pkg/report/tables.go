package report

import (
	"bytes"
	"math"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/labelbench/pkg/bench"
	"github.com/matzehuels/labelbench/pkg/dataset"
	"github.com/matzehuels/labelbench/pkg/errors"
	"github.com/matzehuels/labelbench/pkg/raster"
)

var _ bench.TrialSink = (*Sink)(nil)

// WriteResults writes the per-file minimum matrix of run.
func (s *Sink) WriteResults(run *bench.TrialRun) error {
	return s.write(s.ResultsPath(run.Dataset.Name), s.fileTable(run, run.Minimum))
}

// WriteTrial writes the current matrix after trial t.
func (s *Sink) WriteTrial(run *bench.TrialRun, t int) error {
	return s.write(s.MiddlePath(run.Dataset.Name, t), s.fileTable(run, run.Current))
}

// WriteColorized renders a normalized label map as a false-color PNG.
func (s *Sink) WriteColorized(ds *dataset.Dataset, file int, algorithm string, labels *raster.LabelMap) error {
	path := s.ColorPath(ds.Name, ds.Files[file].Name, algorithm)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, raster.Colorize(labels), imaging.PNG); err != nil {
		return errors.Wrap(errors.ErrCodeSinkWrite, err, "encode %s", path)
	}
	return s.write(path, &buf)
}

// fileTable renders one row per present file. Missing files are left out.
func (s *Sink) fileTable(run *bench.TrialRun, m *bench.Matrix) *bytes.Buffer {
	var buf bytes.Buffer
	buf.WriteString("#")
	for _, name := range run.Names {
		buf.WriteString("\t" + name)
		if s.WriteCounts {
			buf.WriteString("\tn_label")
		}
	}
	buf.WriteString("\n")

	for f, rec := range run.Dataset.Files {
		if !rec.Present {
			continue
		}
		buf.WriteString(rec.Name + "\t")
		for a, r := range m.Row(f) {
			buf.WriteString(cell(r) + "\t")
			if s.WriteCounts {
				buf.WriteString(strconv.FormatUint(uint64(run.Counts[f][a]), 10) + "\t")
			}
		}
		buf.WriteString("\n")
	}
	return &buf
}

func cell(r bench.TrialResult) string {
	if !r.Valid {
		return "-"
	}
	return formatFloat(r.Millis)
}

// WriteAverages writes one line per algorithm with its average and a value
// rounded to two decimals for plot labels. Algorithms without data are
// written as commented-out lines.
func (s *Sink) WriteAverages(dataset string, names []string, cells []bench.AggregateCell) error {
	var buf bytes.Buffer
	buf.WriteString("#Algorithm\tAverage\tRound Average for Graphs\n")
	for i, name := range names {
		avg, ok := cells[i].Average()
		if !ok {
			buf.WriteString("#" + name + "\t\t\n")
			continue
		}
		buf.WriteString(name + "\t" + formatFloat(avg) + "\t" + strconv.FormatFloat(avg, 'f', 2, 64) + "\n")
	}
	return s.write(s.AveragesPath(dataset), &buf)
}

// WriteBuckets writes the density, normalized density and size tables.
func (s *Sink) WriteBuckets(dataset string, b *bench.BucketStats) error {
	dir := s.DatasetDir(dataset)
	tables := []struct {
		file, header string
		rows         []bench.Row
	}{
		{DensityFile, "#Density", b.DensityRows()},
		{NormalizedFile, "#DensityNorm", b.NormalizedRows()},
		{SizeFile, "#Size", b.SizeRows()},
	}
	for _, t := range tables {
		if err := s.write(filepath.Join(dir, t.file), bucketTable(t.header, b.Names, t.rows)); err != nil {
			return err
		}
	}
	return nil
}

func bucketTable(header string, names []string, rows []bench.Row) *bytes.Buffer {
	var buf bytes.Buffer
	buf.WriteString(header)
	for _, n := range names {
		buf.WriteString("\t" + n)
	}
	buf.WriteString("\n")
	for _, r := range rows {
		if r.NoData {
			buf.WriteString("#")
		}
		buf.WriteString(r.X + "\t")
		for _, v := range r.Values {
			buf.WriteString(formatFloat(v) + "\t")
		}
		buf.WriteString("\n")
	}
	return &buf
}

// WriteNull writes the null labeler minimum of every listed file.
func (s *Sink) WriteNull(run *bench.TrialRun) error {
	var buf bytes.Buffer
	for f, rec := range run.Dataset.Files {
		buf.WriteString(rec.Name + "\t" + cell(run.NullMinimum.At(f, 0)) + "\n")
	}
	return s.write(filepath.Join(s.DatasetDir(run.Dataset.Name), run.Dataset.Name+nullResultsSuffix), &buf)
}

// AverageTable collects per-dataset averages for the cross-dataset table.
// Rows are datasets in insertion order; columns are algorithms.
type AverageTable struct {
	Names    []string
	Datasets []string
	Cells    [][]bench.AggregateCell
}

// Add appends a dataset row.
func (t *AverageTable) Add(dataset string, cells []bench.AggregateCell) {
	t.Datasets = append(t.Datasets, dataset)
	t.Cells = append(t.Cells, cells)
}

// Value returns the average at (row, col), or NaN when there is no data.
func (t *AverageTable) Value(row, col int) float64 {
	if avg, ok := t.Cells[row][col].Average(); ok {
		return avg
	}
	return math.NaN()
}
