// Package labeling defines the contract every connected-components labeling
// algorithm satisfies, a registry that maps configured identifiers to
// implementations, and a small set of built-in algorithms.
//
// # Capabilities
//
// Two capability shapes coexist:
//
//   - [Labeler] produces a [raster.LabelMap] and a component count. It is used
//     by the correctness checker and the timing harness.
//   - [AccessCounter] produces a component count and four memory access
//     counters. It is used by the memory access test.
//
// Implementations must be deterministic and must not modify their input image.
//
// # Registry
//
// A [Registry] resolves identifiers from configuration. Unknown identifiers
// are skipped with a warning; mismatched identifier/name lists are fatal:
//
//	entries, err := labeling.Default().ResolveLabelers(funcs, names, logger)
package labeling

import (
	"strings"

	"github.com/matzehuels/labelbench/pkg/raster"
)

// Labeler computes the connected components of a binary image.
type Labeler interface {
	// Label returns a freshly allocated label map sized like img and the
	// number of distinct non-zero components.
	Label(img *raster.BinaryImage) (*raster.LabelMap, uint)
}

// LabelerFunc adapts a plain function to the Labeler interface.
type LabelerFunc func(img *raster.BinaryImage) (*raster.LabelMap, uint)

// Label calls f(img).
func (f LabelerFunc) Label(img *raster.BinaryImage) (*raster.LabelMap, uint) { return f(img) }

// Access counter slots.
const (
	SlotBinary      = iota // binary image reads
	SlotLabel              // label image reads and writes
	SlotEquivalence        // equivalence structure reads and writes
	SlotOther              // anything else the algorithm tracks

	NumSlots
)

// SlotNames are the column titles for the access counter slots.
var SlotNames = [NumSlots]string{"Binary Image", "Label Image", "Equivalence Vector/s", "Other"}

// AccessCounts holds one counter per slot. Untracked categories stay 0.
type AccessCounts [NumSlots]uint64

// Total returns the sum over all slots.
func (a AccessCounts) Total() uint64 {
	var t uint64
	for _, v := range a {
		t += v
	}
	return t
}

// AccessCounter labels an image while counting memory accesses per data structure.
type AccessCounter interface {
	LabelWithAccessCounts(img *raster.BinaryImage) (uint, AccessCounts)
}

// AccessCounterFunc adapts a plain function to the AccessCounter interface.
type AccessCounterFunc func(img *raster.BinaryImage) (uint, AccessCounts)

// LabelWithAccessCounts calls f(img).
func (f AccessCounterFunc) LabelWithAccessCounts(img *raster.BinaryImage) (uint, AccessCounts) {
	return f(img)
}

// Entry pairs a labeler with its display name.
type Entry struct {
	ID      string
	Name    string
	Labeler Labeler
}

// MemEntry pairs an access counter with its display name.
type MemEntry struct {
	ID      string
	Name    string
	Counter AccessCounter
}

// Names returns the display names of entries, in order.
func Names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// MemNames returns the display names of memory entries, in order.
func MemNames(entries []MemEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// EscapeMarker is the escape character display names may carry for the
// plot renderer (e.g. "CT\\_OPT" renders as "CT_OPT").
const EscapeMarker = '\\'

// StripEscapes removes every escape marker. The result is safe to use as
// part of a file name.
func StripEscapes(name string) string {
	return strings.ReplaceAll(name, string(EscapeMarker), "")
}

// CollapseEscapes collapses each adjacent pair of escape markers into one,
// producing the form expected by table renderers.
func CollapseEscapes(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		b.WriteByte(name[i])
		if name[i] == EscapeMarker && i+1 < len(name) && name[i+1] == EscapeMarker {
			i++
		}
	}
	return b.String()
}
