package labeling

import "github.com/matzehuels/labelbench/pkg/raster"

// Reference is the labeler the correctness checker compares against.
var Reference Labeler = LabelerFunc(SAUF)

// Null only traverses the image and writes the output. Its time is the
// lower bound the normalized density chart divides by.
var Null Labeler = LabelerFunc(func(img *raster.BinaryImage) (*raster.LabelMap, uint) {
	out := raster.NewLabelMap(img.Rows, img.Cols)
	for i, p := range img.Pix {
		out.Labels[i] = uint32(p)
	}
	return out, 0
})

// SAUF is a two-pass, 8-connectivity scan with a union-find equivalence
// table. Provisional labels are merged toward the smaller id, and final
// labels are assigned in row-major order of first appearance, so the output
// is already canonical.
func SAUF(img *raster.BinaryImage) (*raster.LabelMap, uint) {
	n, out := sauf(img, nil)
	return out, n
}

// SAUFWithAccessCounts runs SAUF while counting accesses per data structure.
func SAUFWithAccessCounts(img *raster.BinaryImage) (uint, AccessCounts) {
	var counts AccessCounts
	n, _ := sauf(img, &counts)
	return n, counts
}

func sauf(img *raster.BinaryImage, counts *AccessCounts) (uint, *raster.LabelMap) {
	rows, cols := img.Rows, img.Cols
	out := raster.NewLabelMap(rows, cols)
	uf := newUnionFind(counts)

	count := func(slot int, n uint64) {
		if counts != nil {
			counts[slot] += n
		}
	}

	// neighbor returns the provisional label at (r, c) when it is foreground.
	neighbor := func(r, c int) uint32 {
		if r < 0 || c < 0 || c >= cols {
			return 0
		}
		count(SlotBinary, 1)
		if img.Pix[r*cols+c] == 0 {
			return 0
		}
		count(SlotLabel, 1)
		return out.Labels[r*cols+c]
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			count(SlotBinary, 1)
			if img.Pix[i] == 0 {
				continue
			}
			// Scan mask: p q r above, s to the left.
			var label uint32
			for _, nb := range [4]uint32{
				neighbor(r-1, c-1), neighbor(r-1, c), neighbor(r-1, c+1), neighbor(r, c-1),
			} {
				if nb == 0 {
					continue
				}
				if label == 0 {
					label = nb
				} else {
					label = uf.union(label, nb)
				}
			}
			if label == 0 {
				label = uf.newLabel()
			}
			count(SlotLabel, 1)
			out.Labels[i] = label
		}
	}

	// Second pass: resolve roots and renumber by first appearance.
	final := make([]uint32, len(uf.parent))
	var next uint32
	for i := range out.Labels {
		count(SlotLabel, 1)
		l := out.Labels[i]
		if l == 0 {
			continue
		}
		root := uf.find(l)
		count(SlotEquivalence, 1)
		if final[root] == 0 {
			next++
			final[root] = next
		}
		count(SlotLabel, 1)
		out.Labels[i] = final[root]
	}
	return uint(next), out
}

type unionFind struct {
	parent []uint32
	counts *AccessCounts
}

func newUnionFind(counts *AccessCounts) *unionFind {
	// Index 0 is the background and never used as a provisional label.
	return &unionFind{parent: []uint32{0}, counts: counts}
}

func (u *unionFind) touch(n uint64) {
	if u.counts != nil {
		u.counts[SlotEquivalence] += n
	}
}

func (u *unionFind) newLabel() uint32 {
	l := uint32(len(u.parent))
	u.parent = append(u.parent, l)
	u.touch(1)
	return l
}

func (u *unionFind) find(l uint32) uint32 {
	for u.parent[l] != l {
		u.touch(1)
		l = u.parent[l]
	}
	u.touch(1)
	return l
}

// union merges the sets of a and b and returns the surviving root, which is
// always the smaller of the two roots.
func (u *unionFind) union(a, b uint32) uint32 {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return ra
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.touch(1)
	return ra
}

// BFS labels components by flood fill from each unvisited foreground pixel in
// row-major order. Its output is canonical.
func BFS(img *raster.BinaryImage) (*raster.LabelMap, uint) {
	out, n := bfs(img, nil)
	return out, n
}

// BFSWithAccessCounts runs BFS while counting accesses. Queue traffic is
// reported in the Other slot.
func BFSWithAccessCounts(img *raster.BinaryImage) (uint, AccessCounts) {
	var counts AccessCounts
	_, n := bfs(img, &counts)
	return n, counts
}

func bfs(img *raster.BinaryImage, counts *AccessCounts) (*raster.LabelMap, uint) {
	rows, cols := img.Rows, img.Cols
	out := raster.NewLabelMap(rows, cols)
	count := func(slot int, n uint64) {
		if counts != nil {
			counts[slot] += n
		}
	}

	var next uint32
	queue := make([]int, 0, 64)
	for start := range img.Pix {
		count(SlotBinary, 1)
		if img.Pix[start] == 0 {
			continue
		}
		count(SlotLabel, 1)
		if out.Labels[start] != 0 {
			continue
		}

		next++
		out.Labels[start] = next
		count(SlotLabel, 1)
		queue = append(queue[:0], start)
		count(SlotOther, 1)

		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			count(SlotOther, 1)
			pr, pc := p/cols, p%cols
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					r, c := pr+dr, pc+dc
					if (dr == 0 && dc == 0) || r < 0 || r >= rows || c < 0 || c >= cols {
						continue
					}
					q := r*cols + c
					count(SlotBinary, 1)
					if img.Pix[q] == 0 {
						continue
					}
					count(SlotLabel, 1)
					if out.Labels[q] != 0 {
						continue
					}
					out.Labels[q] = next
					count(SlotLabel, 1)
					queue = append(queue, q)
					count(SlotOther, 1)
				}
			}
		}
	}
	return out, uint(next)
}
