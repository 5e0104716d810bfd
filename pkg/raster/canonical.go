package raster

// Normalize rewrites l in place so that its positive identifiers form the
// dense sequence 1..K in row-major order of first appearance. It returns K.
// Normalizing an already canonical map leaves it unchanged.
func Normalize(l *LabelMap) uint32 {
	remap := make(map[uint32]uint32)
	var next uint32
	for i, v := range l.Labels {
		if v == 0 {
			continue
		}
		id, ok := remap[v]
		if !ok {
			next++
			id = next
			remap[v] = id
		}
		l.Labels[i] = id
	}
	return next
}

// Canonical returns a normalized copy of l, leaving l untouched.
func Canonical(l *LabelMap) *LabelMap {
	out := l.Clone()
	Normalize(out)
	return out
}

// Equivalent reports whether cand describes the same partition of
// foreground pixels as ref. ref must already be canonical; cand is compared
// through an on-the-fly remap and is not modified.
//
// The maps are equivalent iff refCount == candCount, the dimensions match and
// every pixel's canonical candidate label equals the reference label.
func Equivalent(ref, cand *LabelMap, refCount, candCount uint) bool {
	if refCount != candCount || !ref.SameSize(cand) {
		return false
	}
	remap := make(map[uint32]uint32, refCount)
	var next uint32
	for i, v := range cand.Labels {
		if v == 0 {
			if ref.Labels[i] != 0 {
				return false
			}
			continue
		}
		id, ok := remap[v]
		if !ok {
			next++
			id = next
			remap[v] = id
		}
		if ref.Labels[i] != id {
			return false
		}
	}
	return true
}
