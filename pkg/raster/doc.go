// Package raster defines the pixel grids exchanged between image loaders,
// labeling algorithms and the benchmark harness.
//
// # Types
//
// [BinaryImage] is an immutable grid of 0/1 pixels. [LabelMap] is a grid of
// component identifiers with the same dimensions as its source image, where
// 0 is background and positive values name components.
//
// # Canonical Form
//
// Identifiers emitted by different algorithms are not comparable. [Normalize]
// remaps them in place to the dense sequence 1..K assigned in row-major order
// of first appearance, and [Equivalent] compares a candidate against a
// reference that is already in that form:
//
//	ref, n := reference.Label(img)
//	cand, m := candidate.Label(img)
//	if !raster.Equivalent(ref, cand, n, m) {
//	    // candidate disagrees with the reference partition
//	}
package raster
