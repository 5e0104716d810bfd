package bench

import (
	"context"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/labelbench/pkg/dataset"
	"github.com/matzehuels/labelbench/pkg/errors"
	"github.com/matzehuels/labelbench/pkg/labeling"
	"github.com/matzehuels/labelbench/pkg/observability"
)

// MemoryRun is the outcome of a memory access pass.
type MemoryRun struct {
	Dataset *dataset.Dataset
	Names   []string
	// Totals holds, per algorithm, the access counts summed over every
	// successfully loaded file.
	Totals []labeling.AccessCounts
	// Loaded is the number of files that were loaded and labeled.
	Loaded int
}

// Averages returns per-algorithm mean access counts per slot. Every slot of
// every algorithm uses the same denominator, Loaded.
func (r *MemoryRun) Averages() [][labeling.NumSlots]float64 {
	out := make([][labeling.NumSlots]float64, len(r.Totals))
	if r.Loaded == 0 {
		return out
	}
	for a, t := range r.Totals {
		for s, v := range t {
			out[a][s] = float64(v) / float64(r.Loaded)
		}
	}
	return out
}

// MemoryAggregator runs access-counting algorithms once per file.
type MemoryAggregator struct {
	Loader dataset.Loader
	Logger *log.Logger
	// Workers bounds the number of files processed concurrently. Values
	// below 1 process files one at a time.
	Workers int
}

type memoryRow struct {
	counts []labeling.AccessCounts
	err    error
}

// Run labels every present file of ds with each entry. Files are processed
// in parallel, each by exactly one worker into its own row; the rows are then
// reduced in file order so results do not depend on scheduling.
func (m *MemoryAggregator) Run(ctx context.Context, ds *dataset.Dataset, entries []labeling.MemEntry) (*MemoryRun, error) {
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeNoAlgorithms, "no memory algorithms to run on %s", ds.Name)
	}
	logger := orDiscard(m.Logger)
	hooks := observability.Bench()

	rows := make([]memoryRow, ds.Len())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, m.Workers))

	for f := range ds.Files {
		if !ds.Files[f].Present {
			continue
		}
		path := ds.Path(f)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := m.Loader.Load(path)
			if err != nil {
				rows[f].err = err
				return nil
			}
			counts := make([]labeling.AccessCounts, len(entries))
			for i, e := range entries {
				_, counts[i] = e.Counter.LabelWithAccessCounts(img)
			}
			rows[f].counts = counts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	run := &MemoryRun{
		Dataset: ds,
		Names:   labeling.MemNames(entries),
		Totals:  make([]labeling.AccessCounts, len(entries)),
	}
	for f, row := range rows {
		if row.err != nil {
			if ds.MarkMissing(f) {
				logger.Warn("file does not exist, excluded", "dataset", ds.Name, "file", ds.Files[f].Name, "err", row.err)
				hooks.OnLoadFailure(ctx, ds.Name, ds.Files[f].Name, row.err)
			}
			continue
		}
		if row.counts == nil {
			continue
		}
		run.Loaded++
		for a, c := range row.counts {
			for s, v := range c {
				run.Totals[a][s] += v
			}
		}
		hooks.OnFileDone(ctx, "memory", ds.Name, ds.Files[f].Name, f+1, ds.Len())
	}
	return run, nil
}
