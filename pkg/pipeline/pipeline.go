// Package pipeline runs a configured benchmark session end to end.
//
// A session consists of up to four tests, always in this order:
//
//  1. Check: compare every algorithm against the reference labeler
//  2. Averages: time each algorithm per dataset and average the minima
//  3. Density/size: bucket the minima by image density and size
//  4. Memory: average memory access counts per algorithm
//
// Configuration errors stop the session before any test starts. After that a
// failure only affects the test and dataset it happened in; the outcome of
// each is recorded in [Result.Tests] and the remaining tests still run.
//
// # Usage
//
//	runner := pipeline.NewRunner(store, logger)
//	result, err := runner.Execute(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, t := range result.Tests {
//	    fmt.Println(t.Test, t.Dataset, t.Status)
//	}
//
// Run a subset of tests:
//
//	result, err := runner.Execute(ctx, cfg, pipeline.TestAverages, pipeline.TestMemory)
package pipeline

import (
	"fmt"
	"time"

	"github.com/matzehuels/labelbench/pkg/bench"
	"github.com/matzehuels/labelbench/pkg/config"
	"github.com/matzehuels/labelbench/pkg/errors"
	"github.com/matzehuels/labelbench/pkg/labeling"
)

// =============================================================================
// Tests
// =============================================================================

// Test names one kind of benchmark test.
type Test string

const (
	TestCheck    Test = "check"
	TestAverages Test = "averages"
	TestDensity  Test = "density_size"
	TestMemory   Test = "memory"
)

// AllTests lists the tests in execution order.
var AllTests = []Test{TestCheck, TestAverages, TestDensity, TestMemory}

// ParseTest converts a test name to a Test.
func ParseTest(name string) (Test, error) {
	for _, t := range AllTests {
		if string(t) == name {
			return t, nil
		}
	}
	if name == "density" {
		return TestDensity, nil
	}
	return "", errors.New(errors.ErrCodeConfigInvalid, "unknown test %q (must be one of: check, averages, density_size, memory)", name)
}

// Status is the outcome of one test on one dataset.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// =============================================================================
// Result
// =============================================================================

// Result is the outcome of a session. It is archived as JSON.
type Result struct {
	// ID identifies the session in the archive.
	ID        string        `json:"id"`
	Version   string        `json:"version,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	// Check is set when the check ran.
	Check *CheckSummary `json:"check,omitempty"`

	// Averages has one entry per averages dataset, in configured order.
	Averages []DatasetAverages `json:"averages,omitempty"`

	// Memory has one entry per memory dataset that completed.
	Memory []DatasetMemory `json:"memory,omitempty"`

	// Tests records every test and dataset that was attempted.
	Tests []TestResult `json:"tests"`
}

// TestResult is the outcome of one test on one dataset.
type TestResult struct {
	Test     Test          `json:"test"`
	Dataset  string        `json:"dataset,omitempty"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// CheckSummary is the serializable form of a performed checker report.
type CheckSummary struct {
	Verdicts     []bench.Verdict `json:"verdicts"`
	FilesChecked int             `json:"files_checked"`
	Skipped      []string        `json:"skipped,omitempty"`
	Stopped      bool            `json:"stopped,omitempty"`
}

// DatasetAverages holds the per-algorithm averages of one dataset.
type DatasetAverages struct {
	Dataset    string             `json:"dataset"`
	Algorithms []AlgorithmAverage `json:"algorithms"`
}

// AlgorithmAverage is one algorithm's average minimum in milliseconds.
type AlgorithmAverage struct {
	Algorithm string  `json:"algorithm"`
	Millis    float64 `json:"millis"`
	NoData    bool    `json:"no_data,omitempty"`
}

// DatasetMemory holds the average access counts of one dataset.
type DatasetMemory struct {
	Dataset    string            `json:"dataset"`
	Files      int               `json:"files"`
	Algorithms []AlgorithmMemory `json:"algorithms"`
}

// AlgorithmMemory is one algorithm's average access count per slot.
type AlgorithmMemory struct {
	Algorithm string                      `json:"algorithm"`
	Accesses  [labeling.NumSlots]float64 `json:"accesses"`
}

// Failed returns the tests that did not complete.
func (r *Result) Failed() []TestResult {
	var out []TestResult
	for _, t := range r.Tests {
		if t.Status == StatusFailed {
			out = append(out, t)
		}
	}
	return out
}

// Summary is a one-line description of the session.
func (r *Result) Summary() string {
	ok, failed, skipped := 0, 0, 0
	for _, t := range r.Tests {
		switch t.Status {
		case StatusOK:
			ok++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	s := fmt.Sprintf("%d ok", ok)
	if failed > 0 {
		s += fmt.Sprintf(", %d failed", failed)
	}
	if skipped > 0 {
		s += fmt.Sprintf(", %d skipped", skipped)
	}
	if r.Check != nil {
		correct := 0
		for _, v := range r.Check.Verdicts {
			if v.Correct {
				correct++
			}
		}
		s += fmt.Sprintf(", check %d/%d correct", correct, len(r.Check.Verdicts))
	}
	return s
}

func summarizeCheck(rep *bench.CheckReport) *CheckSummary {
	s := &CheckSummary{
		Verdicts:     rep.Verdicts,
		FilesChecked: rep.FilesChecked,
		Stopped:      rep.Stopped,
	}
	for _, d := range rep.Skipped {
		s.Skipped = append(s.Skipped, d.Dataset)
	}
	return s
}

func summarizeAverages(name string, names []string, cells []bench.AggregateCell) DatasetAverages {
	d := DatasetAverages{Dataset: name, Algorithms: make([]AlgorithmAverage, len(names))}
	for i, n := range names {
		avg, ok := cells[i].Average()
		d.Algorithms[i] = AlgorithmAverage{Algorithm: n, Millis: avg, NoData: !ok}
	}
	return d
}

func summarizeMemory(run *bench.MemoryRun) DatasetMemory {
	d := DatasetMemory{Dataset: run.Dataset.Name, Files: run.Loaded}
	for a, avg := range run.Averages() {
		d.Algorithms = append(d.Algorithms, AlgorithmMemory{Algorithm: run.Names[a], Accesses: avg})
	}
	return d
}

// validate checks the configuration before any test runs.
func validate(cfg *config.Config) error {
	if cfg == nil {
		return errors.New(errors.ErrCodeConfigInvalid, "no configuration")
	}
	return cfg.Validate()
}
