// Package report writes benchmark results to the output directory.
//
// # Layout
//
// Everything a test produces for a dataset lands in <root>/<dataset>/:
//
//	<dataset>_results.txt          per-file minimum times (and component counts)
//	<dataset>_averages.txt         per-algorithm average of the minima
//	<dataset>_NULL_results.txt     per-file null labeler minimum
//	density.txt, size.txt          bucketed averages
//	normalized_density.txt         density averages divided by the null time
//	middle_results/<dataset>_run_<t>.txt
//	colors/<file>_<algorithm>.png
//	<dataset>.gnuplot              plotting script, not executed
//	memoryAccesses.tex             memory access table
//
// The cross-dataset averages table is written to <root>/averageResults.tex.
//
// # Formats
//
// Text tables are tab separated with a '#'-prefixed header. Bucket rows whose
// first algorithm has no data are prefixed with '#' so plotting tools skip
// them. Numbers use six significant digits.
package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/matzehuels/labelbench/pkg/errors"
	"github.com/matzehuels/labelbench/pkg/labeling"
	"github.com/matzehuels/labelbench/pkg/observability"
)

// Output names.
const (
	ColorsDir         = "colors"
	MiddleDir         = "middle_results"
	AverageLatexFile  = "averageResults.tex"
	MemoryLatexFile   = "memoryAccesses.tex"
	ScriptExt         = ".gnuplot"
	DensityFile       = "density.txt"
	NormalizedFile    = "normalized_density.txt"
	SizeFile          = "size.txt"
	BenchfmtExt       = ".bench"
	resultsSuffix     = "_results.txt"
	averagesSuffix    = "_averages.txt"
	nullResultsSuffix = "_NULL_results.txt"
)

// Sink writes report artifacts under Root.
type Sink struct {
	Root string

	// WriteCounts adds an n_label column after every algorithm in per-file tables.
	WriteCounts bool

	// Terminal is the gnuplot terminal named in generated scripts.
	Terminal Terminal
}

// NewSink returns a sink rooted at root using the platform's default terminal.
func NewSink(root string) *Sink {
	return &Sink{Root: root, WriteCounts: true, Terminal: DefaultTerminal()}
}

// DatasetDir returns the output directory of a dataset.
func (s *Sink) DatasetDir(dataset string) string {
	return filepath.Join(s.Root, dataset)
}

// ResultsPath returns the path of a dataset's minimum-time table.
func (s *Sink) ResultsPath(dataset string) string {
	return filepath.Join(s.DatasetDir(dataset), dataset+resultsSuffix)
}

// AveragesPath returns the path of a dataset's averages table.
func (s *Sink) AveragesPath(dataset string) string {
	return filepath.Join(s.DatasetDir(dataset), dataset+averagesSuffix)
}

// MiddlePath returns the path of the table flushed after trial t.
func (s *Sink) MiddlePath(dataset string, t int) string {
	return filepath.Join(s.DatasetDir(dataset), MiddleDir, dataset+"_run_"+strconv.Itoa(t)+".txt")
}

// ColorPath returns the path of a colorized output. Escape markers are
// removed from the algorithm name.
func (s *Sink) ColorPath(dataset, file, algorithm string) string {
	return filepath.Join(s.DatasetDir(dataset), ColorsDir, filepath.FromSlash(file)+"_"+labeling.StripEscapes(algorithm)+".png")
}

// ScriptPath returns the path of a dataset's gnuplot script.
func (s *Sink) ScriptPath(dataset string) string {
	return filepath.Join(s.DatasetDir(dataset), dataset+ScriptExt)
}

// write stores buf at path, creating parent directories. Failures carry
// ErrCodeSinkWrite.
func (s *Sink) write(path string, buf *bytes.Buffer) error {
	ctx := context.Background()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		observability.Artifact().OnArtifactError(ctx, path, err)
		return errors.Wrap(errors.ErrCodeSinkWrite, err, "unable to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		observability.Artifact().OnArtifactError(ctx, path, err)
		return errors.Wrap(errors.ErrCodeSinkWrite, err, "unable to create %s", path)
	}
	observability.Artifact().OnArtifactWritten(ctx, path, buf.Len())
	return nil
}

// formatFloat prints v with six significant digits.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
