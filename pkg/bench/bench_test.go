package bench

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/labelbench/pkg/dataset"
	"github.com/matzehuels/labelbench/pkg/errors"
	"github.com/matzehuels/labelbench/pkg/labeling"
	"github.com/matzehuels/labelbench/pkg/observability"
	"github.com/matzehuels/labelbench/pkg/raster"
)

// =============================================================================
// Fakes
// =============================================================================

const dataDir = "/data"

// fakeLoader serves images by file name and counts load attempts.
type fakeLoader struct {
	mu     sync.Mutex
	images map[string]*raster.BinaryImage
	calls  map[string]int
}

func newFakeLoader(images map[string]*raster.BinaryImage) *fakeLoader {
	l := &fakeLoader{images: make(map[string]*raster.BinaryImage), calls: make(map[string]int)}
	for name, img := range images {
		l.images[filepath.Join(dataDir, name)] = img
	}
	return l
}

func (l *fakeLoader) Load(path string) (*raster.BinaryImage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[filepath.Base(path)]++
	img, ok := l.images[path]
	if !ok {
		return nil, errors.New(errors.ErrCodeLoadFailure, "no such file %s", path)
	}
	return img, nil
}

func (l *fakeLoader) Calls(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[name]
}

// scriptedTimer runs fn and returns the next scripted duration in ms.
func scriptedTimer(ms ...float64) Timer {
	var (
		mu sync.Mutex
		i  int
	)
	return TimerFunc(func(fn func()) time.Duration {
		fn()
		mu.Lock()
		defer mu.Unlock()
		d := ms[i%len(ms)]
		i++
		return time.Duration(d * float64(time.Millisecond))
	})
}

// countingLabeler wraps a labeler and counts invocations.
type countingLabeler struct {
	mu    sync.Mutex
	inner labeling.Labeler
	calls int
}

func (c *countingLabeler) Label(img *raster.BinaryImage) (*raster.LabelMap, uint) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Label(img)
}

// wrongLabeler labels every foreground pixel as its own component.
var wrongLabeler = labeling.LabelerFunc(func(img *raster.BinaryImage) (*raster.LabelMap, uint) {
	out := raster.NewLabelMap(img.Rows, img.Cols)
	var n uint
	for i, p := range img.Pix {
		if p != 0 {
			n++
			out.Labels[i] = uint32(n)
		}
	}
	return out, n
})

type recordingSink struct {
	trials   []int
	colored  []string
	failNext bool
}

func (s *recordingSink) WriteTrial(run *TrialRun, t int) error {
	s.trials = append(s.trials, t)
	if s.failNext {
		return fmt.Errorf("disk full")
	}
	return nil
}

func (s *recordingSink) WriteColorized(ds *dataset.Dataset, f int, alg string, l *raster.LabelMap) error {
	if !l.Equal(raster.Canonical(l)) {
		return fmt.Errorf("labels not normalized")
	}
	s.colored = append(s.colored, ds.Files[f].Name+"_"+labeling.StripEscapes(alg))
	return nil
}

type countingHooks struct {
	observability.NoopBenchHooks
	mu           sync.Mutex
	loadFailures int
	mismatches   int
}

func (h *countingHooks) OnLoadFailure(context.Context, string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loadFailures++
}

func (h *countingHooks) OnMismatch(context.Context, string, string, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mismatches++
}

func useHooks(t *testing.T) *countingHooks {
	t.Helper()
	h := &countingHooks{}
	observability.SetBenchHooks(h)
	t.Cleanup(observability.Reset)
	return h
}

func img(t *testing.T, rows ...[]uint8) *raster.BinaryImage {
	t.Helper()
	b, err := raster.BinaryFromRows(rows)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func entries(labelers ...labeling.Labeler) []labeling.Entry {
	out := make([]labeling.Entry, len(labelers))
	for i, l := range labelers {
		out[i] = labeling.Entry{ID: fmt.Sprint(i), Name: fmt.Sprintf("alg%d", i), Labeler: l}
	}
	return out
}

// =============================================================================
// Matrix and AggregateCell
// =============================================================================

func TestMatrixLower(t *testing.T) {
	m := NewMatrix(1, 1)
	if m.At(0, 0).Valid {
		t.Fatal("new cells must be unavailable")
	}
	for _, v := range []float64{5, 3, 4} {
		m.Lower(0, 0, v)
	}
	if got := m.At(0, 0); !got.Valid || got.Millis != 3 {
		t.Errorf("Lower = %+v, want 3", got)
	}
}

func TestAggregateCell(t *testing.T) {
	var c AggregateCell
	if avg, ok := c.Average(); avg != 0 || ok || !c.NoData() {
		t.Errorf("empty cell Average() = (%v, %v), want (0, false)", avg, ok)
	}
	c.Add(1)
	c.Add(2)
	if avg, ok := c.Average(); avg != 1.5 || !ok {
		t.Errorf("Average() = (%v, %v), want (1.5, true)", avg, ok)
	}
}

func TestMillis(t *testing.T) {
	if Millis(1500*time.Microsecond) != 1.5 {
		t.Errorf("Millis(1.5ms) = %v", Millis(1500*time.Microsecond))
	}
	if Millis(-time.Second) != 0 {
		t.Error("negative durations must clamp to 0")
	}
}

// =============================================================================
// TrialAggregator
// =============================================================================

func TestTrialAggregatorKeepsMinimum(t *testing.T) {
	ds := dataset.New("d", dataDir, "128_3_sample.png")
	loader := newFakeLoader(map[string]*raster.BinaryImage{"128_3_sample.png": img(t, []uint8{1, 0, 1})})
	agg := &TrialAggregator{Loader: loader, Timer: scriptedTimer(5.0, 4.2, 4.8)}

	run, err := agg.Run(context.Background(), ds, entries(labeling.LabelerFunc(labeling.SAUF)),
		TrialOptions{Trials: 3, RetainSamples: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := run.Minimum.At(0, 0); !got.Valid || !approx(got.Millis, 4.2) {
		t.Errorf("minimum = %+v, want 4.2", got)
	}
	if got := run.Current.At(0, 0); !approx(got.Millis, 4.8) {
		t.Errorf("current = %+v, want last trial 4.8", got)
	}
	for _, s := range run.Samples(0, 0) {
		if run.Minimum.At(0, 0).Millis > s {
			t.Errorf("minimum %v exceeds sample %v", run.Minimum.At(0, 0).Millis, s)
		}
	}
	if n := len(run.Samples(0, 0)); n != 3 {
		t.Errorf("retained %d samples, want 3", n)
	}
	if run.Counts[0][0] != 2 {
		t.Errorf("component count = %d, want 2", run.Counts[0][0])
	}

	sp, ok := run.Spread(0, 0)
	if !ok || sp.N != 3 || !approx(sp.Min, 4.2) || !approx(sp.Median, 4.8) {
		t.Errorf("Spread = %+v, %v", sp, ok)
	}
}

func TestTrialAggregatorLoadFailureOnce(t *testing.T) {
	hooks := useHooks(t)
	ds := dataset.New("d", dataDir, "a.png", "gone.png", "b.png")
	loader := newFakeLoader(map[string]*raster.BinaryImage{
		"a.png": img(t, []uint8{1}),
		"b.png": img(t, []uint8{1, 1}),
	})
	agg := &TrialAggregator{Loader: loader, Timer: scriptedTimer(1)}

	run, err := agg.Run(context.Background(), ds, entries(labeling.Null), TrialOptions{Trials: 4})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ds.Files[1].Present {
		t.Error("missing file should be marked absent")
	}
	if loader.Calls("gone.png") != 1 {
		t.Errorf("missing file loaded %d times, want 1", loader.Calls("gone.png"))
	}
	if loader.Calls("a.png") != 4 {
		t.Errorf("present file loaded %d times, want 4", loader.Calls("a.png"))
	}
	if hooks.loadFailures != 1 {
		t.Errorf("load failure reported %d times, want 1", hooks.loadFailures)
	}
	if run.Minimum.At(1, 0).Valid {
		t.Error("missing file must have no minimum")
	}
}

func TestTrialAggregatorSinkOutput(t *testing.T) {
	ds := dataset.New("d", dataDir, "a.png", "b.png")
	loader := newFakeLoader(map[string]*raster.BinaryImage{
		"a.png": img(t, []uint8{1, 0, 1}),
		"b.png": img(t, []uint8{0, 1, 1}),
	})
	sink := &recordingSink{failNext: true}
	agg := &TrialAggregator{Loader: loader, Timer: scriptedTimer(1), Sink: sink}

	list := []labeling.Entry{
		{Name: `CT\_OPT`, Labeler: labeling.LabelerFunc(labeling.BFS)},
		{Name: "raw", Labeler: wrongLabeler},
	}
	_, err := agg.Run(context.Background(), ds, list, TrialOptions{Trials: 2, SaveEveryTrial: true, ColorOutput: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.trials) != 2 || sink.trials[0] != 0 || sink.trials[1] != 1 {
		t.Errorf("WriteTrial calls = %v, want [0 1] despite sink errors", sink.trials)
	}
	want := []string{"a.png_CT_OPT", "a.png_raw", "b.png_CT_OPT", "b.png_raw"}
	if fmt.Sprint(sink.colored) != fmt.Sprint(want) {
		t.Errorf("colored = %v, want %v (trial 0 only)", sink.colored, want)
	}
}

func TestTrialAggregatorErrors(t *testing.T) {
	ds := dataset.New("d", dataDir, "a.png")
	agg := &TrialAggregator{Loader: newFakeLoader(nil)}

	if _, err := agg.Run(context.Background(), ds, nil, TrialOptions{Trials: 1}); !errors.Is(err, errors.ErrCodeNoAlgorithms) {
		t.Errorf("no entries err = %v, want NO_ALGORITHMS", err)
	}
	if _, err := agg.Run(context.Background(), ds, entries(labeling.Null), TrialOptions{}); !errors.Is(err, errors.ErrCodeConfigInvalid) {
		t.Errorf("zero trials err = %v, want CONFIG_INVALID", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := agg.Run(ctx, ds, entries(labeling.Null), TrialOptions{Trials: 1}); err != context.Canceled {
		t.Errorf("canceled err = %v, want context.Canceled", err)
	}
}

// =============================================================================
// Averages and buckets
// =============================================================================

func TestAverages(t *testing.T) {
	ds := dataset.New("d", dataDir, "a.png", "b.png", "gone.png")
	ds.Files[2].Present = false
	run := &TrialRun{Dataset: ds, Minimum: NewMatrix(3, 2)}
	run.Minimum.Set(0, 0, 2)
	run.Minimum.Set(1, 0, 4)
	run.Minimum.Set(2, 0, 100) // excluded: file absent
	run.Minimum.Set(0, 1, 7)   // column 1 has one real value

	cells := Averages(run)
	if avg, ok := cells[0].Average(); !ok || avg != 3 {
		t.Errorf("alg0 average = %v, %v, want 3", avg, ok)
	}
	if cells[1].Count != 1 {
		t.Errorf("alg1 count = %d, want 1", cells[1].Count)
	}
}

func TestBucketize(t *testing.T) {
	ds := dataset.New("d", dataDir, "128_3_sample.png", "120.png", "image.png", "310.png")
	run := &TrialRun{
		Dataset:     ds,
		Names:       []string{"a"},
		Minimum:     NewMatrix(4, 1),
		NullMinimum: NewMatrix(4, 1),
	}
	run.Minimum.Set(0, 0, 4.2)
	run.Minimum.Set(1, 0, 6.0)
	run.Minimum.Set(2, 0, 1000)
	run.Minimum.Set(3, 0, 9.0)
	run.NullMinimum.Set(0, 0, 2.1)
	run.NullMinimum.Set(1, 0, 2.0)
	// 310.png has no null minimum: excluded from normalized only.

	b := Bucketize(run)

	if avg, _ := b.Density[0][2].Average(); !approx(avg, 5.1) {
		t.Errorf("density[2] = %v, want 5.1", avg)
	}
	if avg, _ := b.Size[0][1].Average(); !approx(avg, 5.1) {
		t.Errorf("size[1] = %v, want 5.1", avg)
	}
	if avg, _ := b.Normalized[0][2].Average(); !approx(avg, 2.5) {
		t.Errorf("normalized[2] = %v, want (2 + 3) / 2", avg)
	}
	if b.Density[0][1].Count != 1 || b.Normalized[0][1].Count != 0 {
		t.Errorf("310.png routing: density=%d normalized=%d", b.Density[0][1].Count, b.Normalized[0][1].Count)
	}

	rows := b.DensityRows()
	if len(rows) != dataset.DensityBuckets || rows[2].X != "0.3" || rows[2].NoData || !rows[0].NoData {
		t.Errorf("DensityRows = %+v", rows)
	}
	size := b.SizeRows()
	if len(size) != dataset.SizeBuckets || size[1].X != "4096" || size[1].NoData {
		t.Errorf("SizeRows[1] = %+v, want area 4096", size[1])
	}
	if !size[0].NoData || size[0].Values[0] != 0 {
		t.Errorf("empty size bucket = %+v, want 0 and no data", size[0])
	}
}

func TestNormalizationIndependentOfTrialOrder(t *testing.T) {
	ds1 := dataset.New("d", dataDir, "050.png")
	ds2 := dataset.New("d", dataDir, "050.png")
	loader := newFakeLoader(map[string]*raster.BinaryImage{"050.png": img(t, []uint8{1})})
	opts := TrialOptions{Trials: 2, MeasureNull: true}

	// Each trial times null first, then the algorithm.
	a := &TrialAggregator{Loader: loader, Timer: scriptedTimer(1, 8, 2, 4)}
	b := &TrialAggregator{Loader: loader, Timer: scriptedTimer(2, 4, 1, 8)}
	r1, err := a.Run(context.Background(), ds1, entries(labeling.Null), opts)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := b.Run(context.Background(), ds2, entries(labeling.Null), opts)
	if err != nil {
		t.Fatal(err)
	}
	n1, _ := Bucketize(r1).Normalized[0][5].Average()
	n2, _ := Bucketize(r2).Normalized[0][5].Average()
	if !approx(n1, 4) || !approx(n2, 4) {
		t.Errorf("normalized = %v, %v, want 4 (min 4 / null min 1)", n1, n2)
	}
}

// =============================================================================
// Checker
// =============================================================================

type mapSource map[string]*dataset.Dataset

func (s mapSource) Open(name string) (*dataset.Dataset, error) {
	ds, ok := s[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeDatasetUnreadable, "unable to open %s", name)
	}
	return ds, nil
}

func TestCheckState(t *testing.T) {
	s := NewCheckState([]string{"a", "b"})
	if !s.MarkIncorrect(0, "x.png") {
		t.Error("first MarkIncorrect should report true")
	}
	if s.MarkIncorrect(0, "y.png") {
		t.Error("second MarkIncorrect should report false")
	}
	if v := s.Verdicts()[0]; v.Correct || v.FirstFailure != "x.png" {
		t.Errorf("verdict = %+v, want first failure x.png", v)
	}
	if s.AllIncorrect() {
		t.Error("AllIncorrect with one correct algorithm")
	}
	s.MarkIncorrect(1, "z.png")
	if !s.AllIncorrect() {
		t.Error("AllIncorrect should hold")
	}
}

func TestCheckerVerdicts(t *testing.T) {
	hooks := useHooks(t)
	ds := dataset.New("d", dataDir, "single.png", "pair.png", "gone.png")
	loader := newFakeLoader(map[string]*raster.BinaryImage{
		"single.png": img(t, []uint8{1, 1, 0}),
		"pair.png":   img(t, []uint8{1, 1, 0, 1}),
	})
	bfs := &countingLabeler{inner: labeling.LabelerFunc(labeling.BFS)}
	wrong := &countingLabeler{inner: wrongLabeler}

	c := &Checker{Source: mapSource{"d": ds}, Loader: loader}
	report, err := c.Run(context.Background(), []string{"missing", "d"}, entries(bfs, wrong))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Skipped) != 1 || report.Skipped[0].Dataset != "missing" {
		t.Errorf("Skipped = %+v", report.Skipped)
	}
	if !report.Verdicts[0].Correct {
		t.Errorf("BFS verdict = %+v, want correct", report.Verdicts[0])
	}
	v := report.Verdicts[1]
	if v.Correct || v.FirstFailure != filepath.Join(dataDir, "single.png") {
		t.Errorf("wrong verdict = %+v, want first failure single.png", v)
	}
	if wrong.calls != 1 {
		t.Errorf("incorrect algorithm invoked %d times, want 1", wrong.calls)
	}
	if bfs.calls != 2 {
		t.Errorf("correct algorithm invoked %d times, want 2", bfs.calls)
	}
	if !report.Performed || report.FilesChecked != 2 || report.Stopped || report.Passed() {
		t.Errorf("report = %+v", report)
	}
	if hooks.mismatches != 1 || hooks.loadFailures != 1 {
		t.Errorf("hooks: mismatches=%d loadFailures=%d, want 1 and 1", hooks.mismatches, hooks.loadFailures)
	}
}

func TestCheckerStopsWhenAllIncorrect(t *testing.T) {
	first := dataset.New("first", dataDir, "a.png", "b.png", "c.png")
	second := dataset.New("second", dataDir, "a.png")
	loader := newFakeLoader(map[string]*raster.BinaryImage{
		"a.png": img(t, []uint8{1, 1}),
		"b.png": img(t, []uint8{1, 1}),
		"c.png": img(t, []uint8{1, 1}),
	})
	w1 := &countingLabeler{inner: wrongLabeler}
	w2 := &countingLabeler{inner: wrongLabeler}

	c := &Checker{Source: mapSource{"first": first, "second": second}, Loader: loader}
	report, err := c.Run(context.Background(), []string{"first", "second"}, entries(w1, w2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Stopped || report.FilesChecked != 1 {
		t.Errorf("report = %+v, want stop after the first file", report)
	}
	if w1.calls != 1 || w2.calls != 1 {
		t.Errorf("calls = %d, %d, want 1 each", w1.calls, w2.calls)
	}
	if loader.Calls("b.png") != 0 {
		t.Error("checker kept loading after every algorithm failed")
	}
	if len(report.Datasets) != 1 {
		t.Errorf("Datasets = %v, want only the first", report.Datasets)
	}
}

func TestCheckerNoAlgorithms(t *testing.T) {
	c := &Checker{Source: mapSource{}, Loader: newFakeLoader(nil)}
	if _, err := c.Run(context.Background(), []string{"d"}, nil); !errors.Is(err, errors.ErrCodeNoAlgorithms) {
		t.Errorf("err = %v, want NO_ALGORITHMS", err)
	}
}

func TestCheckerNothingLoaded(t *testing.T) {
	ds := dataset.New("d", dataDir, "gone.png")
	wrong := &countingLabeler{inner: wrongLabeler}

	c := &Checker{Source: mapSource{"d": ds}, Loader: newFakeLoader(nil)}
	report, err := c.Run(context.Background(), []string{"d", "unknown"}, entries(wrong))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Performed || report.FilesChecked != 0 {
		t.Errorf("report = %+v, want not performed", report)
	}
	if len(report.Verdicts) != 0 {
		t.Errorf("Verdicts = %+v, want none when nothing was checked", report.Verdicts)
	}
	if report.Passed() {
		t.Error("Passed() = true for a check that compared nothing")
	}
	if wrong.calls != 0 {
		t.Errorf("algorithm invoked %d times, want 0", wrong.calls)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Dataset != "unknown" {
		t.Errorf("Skipped = %+v", report.Skipped)
	}
}

// pixelSwapLabeler labels like BFS but moves the first pixel of component 1
// into component 2 on images five columns wide. The component count is left
// unchanged, so only the pixel comparison can catch it.
var pixelSwapLabeler = labeling.LabelerFunc(func(b *raster.BinaryImage) (*raster.LabelMap, uint) {
	out, n := labeling.BFS(b)
	if b.Cols != 5 {
		return out, n
	}
	for i, v := range out.Labels {
		if v == 1 {
			out.Labels[i] = 2
			break
		}
	}
	return out, n
})

func TestCheckerKeepsFirstFailure(t *testing.T) {
	good := img(t, []uint8{1, 1, 0, 1})
	bad := img(t, []uint8{1, 1, 0, 1, 0})
	ds := dataset.New("d", dataDir, "1.png", "2.png", "3.png", "4.png", "5.png")
	loader := newFakeLoader(map[string]*raster.BinaryImage{
		"1.png": good, "2.png": good, "3.png": bad, "4.png": good, "5.png": bad,
	})
	bfs := &countingLabeler{inner: labeling.LabelerFunc(labeling.BFS)}
	swap := &countingLabeler{inner: pixelSwapLabeler}

	c := &Checker{Source: mapSource{"d": ds}, Loader: loader}
	report, err := c.Run(context.Background(), []string{"d"}, entries(bfs, swap))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	v := report.Verdicts[1]
	if v.Correct || v.FirstFailure != filepath.Join(dataDir, "3.png") {
		t.Errorf("verdict = %+v, want first failure 3.png", v)
	}
	if swap.calls != 3 {
		t.Errorf("incorrect algorithm invoked %d times, want 3", swap.calls)
	}
	if !report.Verdicts[0].Correct || bfs.calls != 5 {
		t.Errorf("BFS verdict = %+v after %d calls, want correct after 5", report.Verdicts[0], bfs.calls)
	}
	if !report.Performed || report.Stopped || report.FilesChecked != 5 {
		t.Errorf("report = %+v, want all five files checked", report)
	}
}

// =============================================================================
// MemoryAggregator
// =============================================================================

func TestMemoryAggregator(t *testing.T) {
	names := []string{"a.png", "gone.png", "b.png", "c.png"}
	ds := dataset.New("d", dataDir, names...)
	loader := newFakeLoader(map[string]*raster.BinaryImage{
		"a.png": img(t, []uint8{1}),
		"b.png": img(t, []uint8{1, 1}),
		"c.png": img(t, []uint8{1, 1, 1}),
	})
	// Counts scale with the number of pixels so each file contributes differently.
	counter := labeling.AccessCounterFunc(func(b *raster.BinaryImage) (uint, labeling.AccessCounts) {
		n := uint64(len(b.Pix))
		return 1, labeling.AccessCounts{n, 2 * n, 0, 10}
	})
	list := []labeling.MemEntry{{Name: "m", Counter: counter}, {Name: "sauf", Counter: labeling.AccessCounterFunc(labeling.SAUFWithAccessCounts)}}

	m := &MemoryAggregator{Loader: loader, Workers: 3}
	run, err := m.Run(context.Background(), ds, list)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Loaded != 3 {
		t.Errorf("Loaded = %d, want 3", run.Loaded)
	}
	if ds.Files[1].Present {
		t.Error("failed file should be marked absent")
	}
	avg := run.Averages()
	want := [labeling.NumSlots]float64{2, 4, 0, 10}
	if avg[0] != want {
		t.Errorf("averages = %v, want %v", avg[0], want)
	}
	for s, total := range run.Totals[1] {
		if want := float64(total) / 3; avg[1][s] != want {
			t.Errorf("slot %d average = %v, want %v (denominator 3)", s, avg[1][s], want)
		}
	}
}

func TestMemoryAggregatorExactTotals(t *testing.T) {
	const big = 1<<53 + 1
	ds := dataset.New("d", dataDir, "a.png", "b.png")
	loader := newFakeLoader(map[string]*raster.BinaryImage{
		"a.png": img(t, []uint8{1}),
		"b.png": img(t, []uint8{1}),
	})
	counter := labeling.AccessCounterFunc(func(*raster.BinaryImage) (uint, labeling.AccessCounts) {
		return 1, labeling.AccessCounts{big, 1, 0, 0}
	})

	run, err := (&MemoryAggregator{Loader: loader}).Run(context.Background(), ds, []labeling.MemEntry{{Name: "m", Counter: counter}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := run.Totals[0][labeling.SlotBinary], uint64(2*big); got != want {
		t.Errorf("binary total = %d, want %d", got, want)
	}
	if got := run.Totals[0][labeling.SlotLabel]; got != 2 {
		t.Errorf("label total = %d, want 2", got)
	}
}

func TestMemoryRunAveragesWithoutFiles(t *testing.T) {
	run := &MemoryRun{Totals: make([]labeling.AccessCounts, 2)}
	for a, avg := range run.Averages() {
		if avg != ([labeling.NumSlots]float64{}) {
			t.Errorf("algorithm %d averages = %v, want zeros", a, avg)
		}
	}
}

func TestMemoryAggregatorDeterministic(t *testing.T) {
	names := make([]string, 20)
	images := make(map[string]*raster.BinaryImage)
	for i := range names {
		names[i] = fmt.Sprintf("%03d.png", i)
		b := raster.NewBinaryImage(4, 4)
		for j := 0; j <= i%16; j++ {
			b.Pix[(j*7)%16] = 1
		}
		images[names[i]] = b
	}
	list := []labeling.MemEntry{{Name: "bfs", Counter: labeling.AccessCounterFunc(labeling.BFSWithAccessCounts)}}

	serial, err := (&MemoryAggregator{Loader: newFakeLoader(images)}).Run(context.Background(), dataset.New("d", dataDir, names...), list)
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := (&MemoryAggregator{Loader: newFakeLoader(images), Workers: 8}).Run(context.Background(), dataset.New("d", dataDir, names...), list)
	if err != nil {
		t.Fatal(err)
	}
	if serial.Totals[0] != parallel.Totals[0] {
		t.Errorf("parallel totals %v differ from serial %v", parallel.Totals[0], serial.Totals[0])
	}
}
