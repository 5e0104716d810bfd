package report

import (
	"bytes"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/perf/benchfmt"

	"github.com/matzehuels/labelbench/pkg/bench"
	"github.com/matzehuels/labelbench/pkg/errors"
	"github.com/matzehuels/labelbench/pkg/labeling"
)

// WriteBenchfmt writes every retained trial of run in the Go benchmark
// format to <root>/<dataset>/<dataset>_<test>.bench, so that results can be
// compared across runs with benchstat. Each trial becomes one result named
// Label/<dataset>/<file>/<algorithm> with an ns/op value.
//
// When run has no retained samples, the per-file minimum is written once.
func (s *Sink) WriteBenchfmt(run *bench.TrialRun, test string) error {
	var buf bytes.Buffer
	w := benchfmt.NewWriter(&buf)

	config := []benchfmt.Config{
		{Key: "goos", Value: []byte(runtime.GOOS), File: true},
		{Key: "goarch", Value: []byte(runtime.GOARCH), File: true},
		{Key: "test", Value: []byte(test), File: true},
		{Key: "dataset", Value: []byte(run.Dataset.Name), File: true},
	}

	for f, rec := range run.Dataset.Files {
		if !rec.Present {
			continue
		}
		for a, name := range run.Names {
			samples := run.Samples(f, a)
			if len(samples) == 0 {
				if m := run.Minimum.At(f, a); m.Valid {
					samples = []float64{m.Millis}
				}
			}
			for _, ms := range samples {
				res := &benchfmt.Result{
					Config: config,
					Name:   benchfmt.Name(BenchName(run.Dataset.Name, rec.Name, name)),
					Iters:  1,
					Values: []benchfmt.Value{{Value: ms * float64(time.Millisecond), Unit: "ns/op"}},
				}
				if err := w.Write(res); err != nil {
					return errors.Wrap(errors.ErrCodeSinkWrite, err, "encode benchmark result")
				}
			}
		}
	}
	path := filepath.Join(s.DatasetDir(run.Dataset.Name), run.Dataset.Name+"_"+test+BenchfmtExt)
	return s.write(path, &buf)
}

// BenchName builds a benchmark name without whitespace or escape markers.
func BenchName(dataset, file, algorithm string) string {
	clean := func(s string) string {
		return strings.Join(strings.Fields(s), "_")
	}
	return "Label/" + clean(dataset) + "/" + clean(file) + "/" + clean(labeling.StripEscapes(algorithm))
}
