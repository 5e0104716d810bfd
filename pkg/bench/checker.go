package bench

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/labelbench/pkg/dataset"
	"github.com/matzehuels/labelbench/pkg/errors"
	"github.com/matzehuels/labelbench/pkg/labeling"
	"github.com/matzehuels/labelbench/pkg/observability"
	"github.com/matzehuels/labelbench/pkg/raster"
)

// Verdict is the correctness outcome of one algorithm.
type Verdict struct {
	Algorithm string `json:"algorithm"`
	Correct   bool   `json:"correct"`
	// FirstFailure is the path of the first file the algorithm got wrong.
	FirstFailure string `json:"first_failure,omitempty"`
}

// CheckState tracks which algorithms have been found incorrect during one
// checker pass. Once marked, an algorithm stays incorrect.
type CheckState struct {
	verdicts  []Verdict
	incorrect int
}

// NewCheckState starts with every algorithm correct.
func NewCheckState(names []string) *CheckState {
	s := &CheckState{verdicts: make([]Verdict, len(names))}
	for i, n := range names {
		s.verdicts[i] = Verdict{Algorithm: n, Correct: true}
	}
	return s
}

// MarkIncorrect flags algorithm i and records path as its first failure.
// It reports false if the algorithm was already incorrect; the recorded path
// is never overwritten.
func (s *CheckState) MarkIncorrect(i int, path string) bool {
	if !s.verdicts[i].Correct {
		return false
	}
	s.verdicts[i].Correct = false
	s.verdicts[i].FirstFailure = path
	s.incorrect++
	return true
}

// Incorrect reports whether algorithm i has failed.
func (s *CheckState) Incorrect(i int) bool { return !s.verdicts[i].Correct }

// AllIncorrect reports whether no algorithm remains to be checked.
func (s *CheckState) AllIncorrect() bool { return s.incorrect == len(s.verdicts) }

// Verdicts returns a copy of the per-algorithm verdicts in configured order.
func (s *CheckState) Verdicts() []Verdict {
	return append([]Verdict(nil), s.verdicts...)
}

// DatasetError records a dataset the checker could not read.
type DatasetError struct {
	Dataset string
	Err     error
}

// CheckReport is the result of a checker pass.
type CheckReport struct {
	Verdicts     []Verdict
	Datasets     []string
	Skipped      []DatasetError
	FilesChecked int
	// Performed is false when no file could be loaded. Verdicts is then
	// empty: nothing was compared, so no algorithm is known to be correct.
	Performed bool
	// Stopped is true when the pass ended early because every algorithm failed.
	Stopped bool
}

// Passed reports whether the check was performed and every algorithm matched
// the reference everywhere.
func (r *CheckReport) Passed() bool {
	if !r.Performed {
		return false
	}
	for _, v := range r.Verdicts {
		if !v.Correct {
			return false
		}
	}
	return true
}

// Checker compares every algorithm against a reference labeler.
type Checker struct {
	Source    dataset.Source
	Loader    dataset.Loader
	Reference labeling.Labeler
	Logger    *log.Logger
}

// Run checks entries on each dataset in order. Unreadable datasets and files
// are logged and skipped without penalizing any algorithm; when nothing could
// be loaded the report is returned with Performed unset. An algorithm found
// incorrect is never invoked again, and the pass stops as soon as every
// algorithm is incorrect.
func (c *Checker) Run(ctx context.Context, datasets []string, entries []labeling.Entry) (*CheckReport, error) {
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeNoAlgorithms, "no algorithms to check")
	}
	logger := orDiscard(c.Logger)
	ref := c.Reference
	if ref == nil {
		ref = labeling.Reference
	}
	hooks := observability.Bench()

	state := NewCheckState(labeling.Names(entries))
	report := &CheckReport{}

	for _, name := range datasets {
		if state.AllIncorrect() {
			break
		}
		ds, err := c.Source.Open(name)
		if err != nil {
			logger.Warn("unable to open dataset, skipped", "dataset", name, "err", err)
			report.Skipped = append(report.Skipped, DatasetError{Dataset: name, Err: err})
			continue
		}
		report.Datasets = append(report.Datasets, name)

		for f := range ds.Files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !ds.Files[f].Present {
				continue
			}
			path := ds.Path(f)
			img, err := c.Loader.Load(path)
			if err != nil {
				ds.MarkMissing(f)
				logger.Warn("file does not exist, skipped", "dataset", name, "file", ds.Files[f].Name, "err", err)
				hooks.OnLoadFailure(ctx, name, ds.Files[f].Name, err)
				continue
			}

			want, wantN := ref.Label(img)
			raster.Normalize(want)
			for i, e := range entries {
				if state.Incorrect(i) {
					continue
				}
				got, gotN := e.Labeler.Label(img)
				if raster.Equivalent(want, got, wantN, gotN) {
					continue
				}
				state.MarkIncorrect(i, path)
				logger.Warn("algorithm disagrees with reference", "algorithm", e.Name, "file", path,
					"want_components", wantN, "got_components", gotN)
				hooks.OnMismatch(ctx, e.Name, name, ds.Files[f].Name)
			}
			report.FilesChecked++
			hooks.OnFileDone(ctx, "check", name, ds.Files[f].Name, f+1, ds.Len())

			if state.AllIncorrect() {
				report.Stopped = true
				break
			}
		}
	}

	if report.FilesChecked == 0 {
		logger.Warn("unable to perform check, no file could be loaded", "datasets", len(datasets))
		return report, nil
	}
	report.Performed = true
	report.Verdicts = state.Verdicts()
	return report, nil
}
