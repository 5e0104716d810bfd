package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/labelbench/pkg/archive"
	"github.com/matzehuels/labelbench/pkg/bench"
	"github.com/matzehuels/labelbench/pkg/config"
	"github.com/matzehuels/labelbench/pkg/dataset"
	"github.com/matzehuels/labelbench/pkg/errors"
	"github.com/matzehuels/labelbench/pkg/labeling"
	"github.com/matzehuels/labelbench/pkg/observability"
	"github.com/matzehuels/labelbench/pkg/report"
)

// Runner executes benchmark sessions.
//
// Every collaborator is optional. Unset fields fall back to the built-in
// registry, the directories named in the configuration, the image loader,
// the wall clock and a null archive.
type Runner struct {
	Registry *labeling.Registry
	Source   dataset.Source
	Loader   dataset.Loader
	Sink     *report.Sink
	Archive  archive.Store
	Timer    bench.Timer
	Logger   *log.Logger
	Version  string
}

// NewRunner creates a runner that archives completed sessions to store.
// If store is nil, sessions are not archived.
func NewRunner(store archive.Store, logger *log.Logger) *Runner {
	if store == nil {
		store = archive.NewNullStore()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Registry: labeling.Default(),
		Archive:  store,
		Logger:   logger,
	}
}

// session holds the collaborators resolved for one Execute call.
type session struct {
	cfg     *config.Config
	source  dataset.Source
	loader  dataset.Loader
	sink    *report.Sink
	logger  *log.Logger
	entries []labeling.Entry
	mem     []labeling.MemEntry
	result  *Result
}

// Execute runs the selected tests in order. With no tests given, every test
// enabled in cfg runs. The differential check always runs first.
//
// A configuration error is returned before any test starts. Failures inside
// a test are recorded in the result instead. The error is non-nil afterwards
// only when ctx was cancelled, in which case the partial result is returned
// and not archived.
func (r *Runner) Execute(ctx context.Context, cfg *config.Config, tests ...Test) (*Result, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	selected := selectTests(cfg, tests)

	s, err := r.newSession(cfg, selected)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	s.result = &Result{
		ID:        uuid.NewString(),
		Version:   r.Version,
		StartedAt: start.UTC(),
	}
	s.logger.Info("starting run", "id", s.result.ID, "algorithms", len(s.entries))

	steps := []struct {
		test Test
		fn   func(context.Context, *session) error
	}{
		{TestCheck, r.check},
		{TestAverages, r.averagesTest},
		{TestDensity, r.densityTest},
		{TestMemory, r.memoryTest},
	}
	for _, step := range steps {
		if !selected[step.test] {
			continue
		}
		if err := step.fn(ctx, s); err != nil {
			s.result.Duration = time.Since(start)
			return s.result, err
		}
	}

	s.result.Duration = time.Since(start)
	s.logger.Info("run complete", "id", s.result.ID, "summary", s.result.Summary(), "duration", s.result.Duration)
	r.archive(ctx, s)
	return s.result, nil
}

// selectTests picks the tests named in tests, or the ones cfg enables when
// none are named. The check is always selected; it is skipped at run time
// only when no algorithm resolves.
func selectTests(cfg *config.Config, tests []Test) map[Test]bool {
	selected := map[Test]bool{TestCheck: true}
	if len(tests) > 0 {
		for _, t := range tests {
			selected[t] = true
		}
		return selected
	}
	selected[TestAverages] = cfg.Averages.Perform
	selected[TestDensity] = cfg.DensitySize.Perform
	selected[TestMemory] = cfg.Memory.Perform
	return selected
}

func (r *Runner) newSession(cfg *config.Config, selected map[Test]bool) (*session, error) {
	s := &session{
		cfg:    cfg,
		source: r.Source,
		loader: r.Loader,
		sink:   r.Sink,
		logger: r.Logger,
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.source == nil {
		s.source = dataset.DirSource{Root: cfg.InputPath}
	}
	if s.loader == nil {
		s.loader = dataset.NewImageLoader()
	}
	if s.sink == nil {
		s.sink = report.NewSink(cfg.OutputPath)
		s.sink.WriteCounts = cfg.WriteNLabels
	}

	reg := r.Registry
	if reg == nil {
		reg = labeling.Default()
	}
	var err error
	if s.entries, err = reg.ResolveLabelers(cfg.Algorithms.Funcs, cfg.Algorithms.Names, s.logger); err != nil {
		return nil, err
	}
	if selected[TestMemory] {
		if s.mem, err = reg.ResolveAccessCounters(cfg.MemoryAlgorithms.Funcs, cfg.MemoryAlgorithms.Names, s.logger); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// record appends the outcome of test on dataset and notifies the hooks.
func (s *session) record(ctx context.Context, test Test, name string, start time.Time, err error) {
	tr := TestResult{Test: test, Dataset: name, Status: StatusOK, Duration: time.Since(start)}
	if err != nil {
		tr.Status = StatusFailed
		tr.Message = err.Error()
		s.logger.Error("test failed", "test", test, "dataset", name, "err", err)
	} else {
		s.logger.Info("test done", "test", test, "dataset", name, "duration", tr.Duration)
	}
	observability.Bench().OnTestComplete(ctx, string(test), name, tr.Duration, err)
	s.result.Tests = append(s.result.Tests, tr)
}

func (s *session) skip(test Test, reason string) {
	s.logger.Error(reason+", test skipped", "test", test)
	s.result.Tests = append(s.result.Tests, TestResult{Test: test, Status: StatusSkipped, Message: reason})
}

// cancelled reports ctx's error if err was caused by cancellation.
func cancelled(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// =============================================================================
// Stages
// =============================================================================

func (r *Runner) check(ctx context.Context, s *session) error {
	if len(s.entries) == 0 {
		s.skip(TestCheck, "no algorithms")
		return nil
	}
	start := time.Now()
	observability.Bench().OnTestStart(ctx, string(TestCheck), "", 0)

	checker := &bench.Checker{
		Source:    s.source,
		Loader:    s.loader,
		Reference: labeling.Reference,
		Logger:    s.logger,
	}
	rep, err := checker.Run(ctx, s.cfg.Check.Datasets, s.entries)
	if err := cancelled(ctx, err); err != nil {
		return err
	}
	if err != nil {
		s.record(ctx, TestCheck, "", start, err)
		return nil
	}
	for _, d := range rep.Skipped {
		s.result.Tests = append(s.result.Tests, TestResult{
			Test: TestCheck, Dataset: d.Dataset, Status: StatusFailed, Message: d.Err.Error(),
		})
	}
	if !rep.Performed {
		d := time.Since(start)
		s.logger.Warn("unable to perform check, skipped")
		observability.Bench().OnTestComplete(ctx, string(TestCheck), "", d, nil)
		s.result.Tests = append(s.result.Tests, TestResult{
			Test: TestCheck, Status: StatusSkipped, Message: "no file could be checked", Duration: d,
		})
		return nil
	}

	s.result.Check = summarizeCheck(rep)
	for _, v := range rep.Verdicts {
		if v.Correct {
			s.logger.Info("algorithm correct", "algorithm", v.Algorithm)
		} else {
			s.logger.Warn("algorithm incorrect", "algorithm", v.Algorithm, "first_failure", v.FirstFailure)
		}
	}
	s.record(ctx, TestCheck, "", start, nil)
	return nil
}

func (r *Runner) averagesTest(ctx context.Context, s *session) error {
	if len(s.entries) == 0 {
		s.skip(TestAverages, "no algorithms")
		return nil
	}
	table := &report.AverageTable{Names: labeling.Names(s.entries)}

	for _, name := range s.cfg.Averages.Datasets {
		start := time.Now()
		cells, err := r.averages(ctx, s, name)
		if err := cancelled(ctx, err); err != nil {
			return err
		}
		if err != nil {
			cells = make([]bench.AggregateCell, len(s.entries))
		} else {
			s.result.Averages = append(s.result.Averages, summarizeAverages(name, table.Names, cells))
		}
		table.Add(name, cells)
		s.record(ctx, TestAverages, name, start, err)
	}

	if len(table.Datasets) > 0 {
		if err := s.sink.WriteAverageLatex(table); err != nil {
			s.record(ctx, TestAverages, "", time.Now(), err)
		}
	}
	return nil
}

// averages runs the averages test on one dataset and returns the
// per-algorithm cells.
func (r *Runner) averages(ctx context.Context, s *session, name string) ([]bench.AggregateCell, error) {
	ds, err := s.source.Open(name)
	if err != nil {
		return nil, err
	}
	observability.Bench().OnTestStart(ctx, string(TestAverages), name, ds.Len())

	opts := bench.TrialOptions{
		Test:           string(TestAverages),
		Trials:         s.cfg.Averages.Trials,
		SaveEveryTrial: s.cfg.Averages.SaveMiddle,
		ColorOutput:    s.cfg.Averages.ColorLabels,
		RetainSamples:  true,
	}
	run, err := r.trials(s).Run(ctx, ds, s.entries, opts)
	if err != nil {
		return nil, err
	}
	logSpread(s.logger, run)

	if err := s.sink.WriteResults(run); err != nil {
		return nil, err
	}
	cells := bench.Averages(run)
	if err := s.sink.WriteAverages(ds.Name, run.Names, cells); err != nil {
		return nil, err
	}
	if err := s.sink.WriteAveragesScript(ds.Name); err != nil {
		return nil, err
	}
	if err := s.sink.WriteBenchfmt(run, string(TestAverages)); err != nil {
		return nil, err
	}
	return cells, nil
}

// logSpread logs, per algorithm, the file whose trials varied the most.
func logSpread(logger *log.Logger, run *bench.TrialRun) {
	if run.Trials < 2 {
		return
	}
	for a, name := range run.Names {
		var worst bench.Spread
		var file string
		for f, rec := range run.Dataset.Files {
			if sp, ok := run.Spread(f, a); ok && sp.N > 1 && sp.StdDev >= worst.StdDev {
				worst, file = sp, rec.Name
			}
		}
		if file != "" {
			logger.Debug("widest trial spread", "dataset", run.Dataset.Name, "algorithm", name,
				"file", file, "median_ms", worst.Median, "stddev_ms", worst.StdDev)
		}
	}
}

func (r *Runner) densityTest(ctx context.Context, s *session) error {
	if len(s.entries) == 0 {
		s.skip(TestDensity, "no algorithms")
		return nil
	}
	for _, name := range s.cfg.DensitySize.Datasets {
		start := time.Now()
		err := r.densitySize(ctx, s, name)
		if err := cancelled(ctx, err); err != nil {
			return err
		}
		s.record(ctx, TestDensity, name, start, err)
	}
	return nil
}

func (r *Runner) densitySize(ctx context.Context, s *session, name string) error {
	ds, err := s.source.Open(name)
	if err != nil {
		return err
	}
	observability.Bench().OnTestStart(ctx, string(TestDensity), name, ds.Len())

	opts := bench.TrialOptions{
		Test:           string(TestDensity),
		Trials:         s.cfg.DensitySize.Trials,
		SaveEveryTrial: s.cfg.DensitySize.SaveMiddle,
		ColorOutput:    s.cfg.DensitySize.ColorLabels,
		MeasureNull:    true,
		RetainSamples:  true,
	}
	run, err := r.trials(s).Run(ctx, ds, s.entries, opts)
	if err != nil {
		return err
	}

	if err := s.sink.WriteResults(run); err != nil {
		return err
	}
	if err := s.sink.WriteBuckets(ds.Name, bench.Bucketize(run)); err != nil {
		return err
	}
	if err := s.sink.WriteNull(run); err != nil {
		return err
	}
	if err := s.sink.WriteDensitySizeScript(ds.Name, run.Names); err != nil {
		return err
	}
	return s.sink.WriteBenchfmt(run, string(TestDensity))
}

func (r *Runner) memoryTest(ctx context.Context, s *session) error {
	if len(s.mem) == 0 {
		s.skip(TestMemory, "no memory algorithms")
		return nil
	}
	for _, name := range s.cfg.Memory.Datasets {
		start := time.Now()
		err := r.memory(ctx, s, name)
		if err := cancelled(ctx, err); err != nil {
			return err
		}
		s.record(ctx, TestMemory, name, start, err)
	}
	return nil
}

func (r *Runner) memory(ctx context.Context, s *session, name string) error {
	ds, err := s.source.Open(name)
	if err != nil {
		return err
	}
	observability.Bench().OnTestStart(ctx, string(TestMemory), name, ds.Len())

	agg := &bench.MemoryAggregator{Loader: s.loader, Logger: s.logger, Workers: s.cfg.Workers}
	run, err := agg.Run(ctx, ds, s.mem)
	if err != nil {
		return err
	}
	if err := s.sink.WriteMemoryLatex(run); err != nil {
		return err
	}
	s.result.Memory = append(s.result.Memory, summarizeMemory(run))
	return nil
}

func (r *Runner) trials(s *session) *bench.TrialAggregator {
	return &bench.TrialAggregator{
		Loader: s.loader,
		Timer:  r.Timer,
		Sink:   s.sink,
		Logger: s.logger,
	}
}

// =============================================================================
// Archive
// =============================================================================

// archive stores the session result. Failures are logged, never returned.
func (r *Runner) archive(ctx context.Context, s *session) {
	if r.Archive == nil {
		return
	}
	rec, err := NewRecord(s.result)
	if err != nil {
		s.logger.Warn("unable to encode run", "id", s.result.ID, "err", err)
		return
	}
	if err := r.Archive.Put(ctx, rec); err != nil {
		s.logger.Warn("unable to archive run", "id", s.result.ID, "err", err)
		return
	}
	s.logger.Debug("archived run", "id", s.result.ID)
}

// NewRecord encodes res as an archive record.
func NewRecord(res *Result) (archive.Record, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return archive.Record{}, errors.Wrap(errors.ErrCodeInternal, err, "encode run %s", res.ID)
	}
	return archive.Record{
		ID:        res.ID,
		CreatedAt: res.StartedAt,
		Version:   res.Version,
		Summary:   res.Summary(),
		Data:      data,
	}, nil
}

// DecodeRecord restores the result stored in rec.
func DecodeRecord(rec archive.Record) (*Result, error) {
	var res Result
	if err := json.Unmarshal(rec.Data, &res); err != nil {
		return nil, errors.Wrap(errors.ErrCodeArchive, err, "decode run %s", rec.ID)
	}
	return &res, nil
}
