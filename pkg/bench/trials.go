package bench

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/montanaflynn/stats"

	"github.com/matzehuels/labelbench/pkg/dataset"
	"github.com/matzehuels/labelbench/pkg/errors"
	"github.com/matzehuels/labelbench/pkg/labeling"
	"github.com/matzehuels/labelbench/pkg/observability"
	"github.com/matzehuels/labelbench/pkg/raster"
)

// TrialSink receives intermediate trial output. Failures are logged and do
// not stop the measurement.
type TrialSink interface {
	// WriteTrial flushes run.Current after trial t.
	WriteTrial(run *TrialRun, t int) error
	// WriteColorized stores the false-color rendering of a normalized label map.
	WriteColorized(ds *dataset.Dataset, file int, algorithm string, labels *raster.LabelMap) error
}

type discardSink struct{}

func (discardSink) WriteTrial(*TrialRun, int) error { return nil }
func (discardSink) WriteColorized(*dataset.Dataset, int, string, *raster.LabelMap) error {
	return nil
}

// TrialOptions configures one repeated-trial measurement.
type TrialOptions struct {
	// Test names the measurement in hooks and logs ("averages", "density_size").
	Test string

	// Trials is the number of repetitions N. Must be at least 1.
	Trials int

	// SaveEveryTrial flushes the current matrix to the sink after every trial.
	SaveEveryTrial bool

	// ColorOutput renders every algorithm's normalized output during trial 0.
	ColorOutput bool

	// MeasureNull times the null labeler once per file per trial.
	MeasureNull bool

	// RetainSamples keeps every trial's time for spread statistics.
	RetainSamples bool
}

// TrialRun is the outcome of a TrialAggregator run.
type TrialRun struct {
	Dataset *dataset.Dataset
	Names   []string
	Trials  int

	// Current holds the times of the last trial.
	Current *Matrix
	// Minimum holds the per-cell minimum over all trials.
	Minimum *Matrix
	// Counts holds the component counts reported in trial 0, [file][algorithm].
	Counts [][]uint
	// NullMinimum is a single-column matrix of null labeler minima, when measured.
	NullMinimum *Matrix

	samples [][]float64
}

func newTrialRun(ds *dataset.Dataset, entries []labeling.Entry, opts TrialOptions) *TrialRun {
	rows, cols := ds.Len(), len(entries)
	run := &TrialRun{
		Dataset:     ds,
		Names:       labeling.Names(entries),
		Current:     NewMatrix(rows, cols),
		Minimum:     NewMatrix(rows, cols),
		Counts:      make([][]uint, rows),
		NullMinimum: NewMatrix(rows, 1),
	}
	for f := range run.Counts {
		run.Counts[f] = make([]uint, cols)
	}
	if opts.RetainSamples {
		run.samples = make([][]float64, rows*cols)
	}
	return run
}

// Samples returns every retained trial time of cell (f, a) in trial order.
func (r *TrialRun) Samples(f, a int) []float64 {
	if r.samples == nil {
		return nil
	}
	return r.samples[f*r.Minimum.Cols+a]
}

// Spread summarizes the retained trials of one cell.
type Spread struct {
	N      int
	Min    float64
	Median float64
	Mean   float64
	StdDev float64
}

// Spread returns the distribution of cell (f, a), or false when no samples
// were retained.
func (r *TrialRun) Spread(f, a int) (Spread, bool) {
	data := stats.Float64Data(r.Samples(f, a))
	if len(data) == 0 {
		return Spread{}, false
	}
	var s Spread
	s.N = len(data)
	s.Min, _ = stats.Min(data)
	s.Median, _ = stats.Median(data)
	s.Mean, _ = stats.Mean(data)
	s.StdDev, _ = stats.StandardDeviation(data)
	return s, true
}

// TrialAggregator runs every algorithm on every file N times and keeps the
// per-cell minimum.
type TrialAggregator struct {
	Loader dataset.Loader
	Timer  Timer
	Null   labeling.Labeler
	Sink   TrialSink
	Logger *log.Logger
}

// Run measures entries on ds. Iteration order is trial, then file, then
// algorithm. A file that fails to load is marked missing on first failure and
// skipped for the remaining trials.
func (a *TrialAggregator) Run(ctx context.Context, ds *dataset.Dataset, entries []labeling.Entry, opts TrialOptions) (*TrialRun, error) {
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeNoAlgorithms, "no algorithms to measure on %s", ds.Name)
	}
	if opts.Trials < 1 {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "trials must be at least 1, got %d", opts.Trials)
	}

	logger := orDiscard(a.Logger)
	harness := NewHarness(a.Timer)
	null := a.Null
	if null == nil {
		null = labeling.Null
	}
	var sink TrialSink = discardSink{}
	if a.Sink != nil {
		sink = a.Sink
	}
	hooks := observability.Bench()

	run := newTrialRun(ds, entries, opts)
	total, done := opts.Trials*ds.Len(), 0

	for t := 0; t < opts.Trials; t++ {
		for f := range ds.Files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			done++
			if !ds.Files[f].Present {
				hooks.OnFileDone(ctx, opts.Test, ds.Name, ds.Files[f].Name, done, total)
				continue
			}

			img, err := a.Loader.Load(ds.Path(f))
			if err != nil {
				if ds.MarkMissing(f) {
					logger.Warn("file does not exist, excluded", "dataset", ds.Name, "file", ds.Files[f].Name, "err", err)
					hooks.OnLoadFailure(ctx, ds.Name, ds.Files[f].Name, err)
				}
				hooks.OnFileDone(ctx, opts.Test, ds.Name, ds.Files[f].Name, done, total)
				continue
			}

			if opts.MeasureNull {
				_, _, ms := harness.Label(null, img)
				run.NullMinimum.Lower(f, 0, ms)
			}

			for i, e := range entries {
				out, n, ms := harness.Label(e.Labeler, img)
				run.Current.Set(f, i, ms)
				run.Minimum.Lower(f, i, ms)
				if run.samples != nil {
					k := f*len(entries) + i
					run.samples[k] = append(run.samples[k], ms)
				}

				if t != 0 {
					continue
				}
				run.Counts[f][i] = n
				if opts.ColorOutput {
					raster.Normalize(out)
					if err := sink.WriteColorized(ds, f, e.Name, out); err != nil {
						logger.Warn("unable to save colored output", "file", ds.Files[f].Name, "algorithm", e.Name, "err", err)
					}
				}
			}
			hooks.OnFileDone(ctx, opts.Test, ds.Name, ds.Files[f].Name, done, total)
		}

		if opts.SaveEveryTrial {
			if err := sink.WriteTrial(run, t); err != nil {
				logger.Warn("unable to save middle results", "dataset", ds.Name, "trial", t, "err", err)
			}
		}
		logger.Debug("trial done", "test", opts.Test, "dataset", ds.Name, "trial", t+1, "of", opts.Trials)
	}

	run.Trials = opts.Trials
	return run, nil
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return l
}
