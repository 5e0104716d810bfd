// Package bench implements the measurement protocol: differential
// correctness checking against a reference labeler, minimum-of-N timing, and
// the aggregations built on top of it.
//
// # Correctness
//
// [Checker] runs the reference once per file and every not-yet-failed
// algorithm after it. Outputs are compared as partitions with
// [raster.Equivalent], so label numbering does not matter. The first mismatch
// marks an algorithm incorrect for the rest of the pass.
//
// # Timing
//
// [TrialAggregator] repeats trial → file → algorithm N times and keeps the
// per-cell minimum, which is robust against scheduler noise. Only the
// labeling call is timed.
//
// # Aggregation
//
// [Averages] reduces the minimum matrix to one mean per algorithm.
// [Bucketize] groups it by the size and density classes encoded in file
// names, with an additional density series normalized by the null labeler.
// [MemoryAggregator] averages access counters over loaded files.
//
// A cell with no samples averages to 0 and reports no data, so renderers can
// tell an empty bucket from a fast one.
package bench
