// Package pkg provides the core libraries of labelbench, a benchmark harness
// for connected components labeling algorithms.
//
// # Overview
//
// labelbench runs a fixed set of tests over image datasets: a correctness
// check against a reference labeler, average execution time per dataset,
// execution time by foreground density and image size, and a count of memory
// accesses per data structure. Every test writes plain-text tables, gnuplot
// scripts and LaTeX tables to an output directory, and the run summary is
// archived for later inspection.
//
// # Architecture
//
// The typical data flow through a run:
//
//	labelbench.toml
//	       ↓
//	  [config] package (load + validate)
//	       ↓
//	  [pipeline] package (select tests, build a session)
//	       ↓
//	  [dataset] + [raster] packages (list files, load binary images)
//	       ↓
//	  [bench] package (check, trials, buckets, memory accesses)
//	       ↓
//	  [report] package (tables, gnuplot, LaTeX, benchfmt)
//	       ↓
//	  [archive] package (file, Redis or MongoDB run records)
//
// # Quick Start
//
//	cfg, err := config.Load("labelbench.toml")
//	if err != nil {
//	    return err
//	}
//	store, err := archive.Open(ctx, cfg.Archive.Options())
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	runner := pipeline.NewRunner(store, logger)
//	res, err := runner.Execute(ctx, cfg, pipeline.TestCheck, pipeline.TestAverages)
//	fmt.Println(res.Summary())
//
// # Main Packages
//
// [labeling] - The labeler and access-counter contracts, the name registry
// and the built-in algorithms (a two-pass reference, breadth-first search and
// the null labeler).
//
// [raster] - Binary images and label maps, image decoding and label
// normalization for comparison and colorized output.
//
// [bench] - The measurement core: the timing harness, per-file minimum
// aggregation over trials, density and size buckets, the correctness checker
// and the memory access aggregator.
//
// [report] - The output sink writing every result file of a run.
//
// [pipeline] - Test orchestration used by the CLI and the archive server.
//
// [archive] - Run records with file, Redis and MongoDB backends.
//
// [observability] - Hooks for progress reporting and artifact accounting.
//
// [errors] - Coded errors shared by every package.
//
// [archive]: https://pkg.go.dev/github.com/matzehuels/labelbench/pkg/archive
// [bench]: https://pkg.go.dev/github.com/matzehuels/labelbench/pkg/bench
// [config]: https://pkg.go.dev/github.com/matzehuels/labelbench/pkg/config
// [dataset]: https://pkg.go.dev/github.com/matzehuels/labelbench/pkg/dataset
// [errors]: https://pkg.go.dev/github.com/matzehuels/labelbench/pkg/errors
// [labeling]: https://pkg.go.dev/github.com/matzehuels/labelbench/pkg/labeling
// [observability]: https://pkg.go.dev/github.com/matzehuels/labelbench/pkg/observability
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/labelbench/pkg/pipeline
// [raster]: https://pkg.go.dev/github.com/matzehuels/labelbench/pkg/raster
// [report]: https://pkg.go.dev/github.com/matzehuels/labelbench/pkg/report
package pkg
