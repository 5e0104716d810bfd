package raster

import "fmt"

// BinaryImage is a row-major grid of 0/1 pixels.
// Algorithms must treat it as read-only.
type BinaryImage struct {
	Rows, Cols int
	Pix        []uint8
}

// NewBinaryImage returns an all-background image of the given size.
func NewBinaryImage(rows, cols int) *BinaryImage {
	return &BinaryImage{Rows: rows, Cols: cols, Pix: make([]uint8, rows*cols)}
}

// BinaryFromRows builds an image from nested rows. Any non-zero value is
// stored as 1. All rows must have the same length.
func BinaryFromRows(rows [][]uint8) (*BinaryImage, error) {
	if len(rows) == 0 {
		return NewBinaryImage(0, 0), nil
	}
	cols := len(rows[0])
	img := NewBinaryImage(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", r, len(row), cols)
		}
		for c, v := range row {
			if v != 0 {
				img.Pix[r*cols+c] = 1
			}
		}
	}
	return img, nil
}

// At returns the pixel at (r, c).
func (b *BinaryImage) At(r, c int) uint8 { return b.Pix[r*b.Cols+c] }

// Set stores v (0 or 1) at (r, c).
func (b *BinaryImage) Set(r, c int, v uint8) { b.Pix[r*b.Cols+c] = v }


// LabelMap is a row-major grid of component identifiers.
type LabelMap struct {
	Rows, Cols int
	Labels     []uint32
}

// NewLabelMap returns a zeroed label map of the given size.
func NewLabelMap(rows, cols int) *LabelMap {
	return &LabelMap{Rows: rows, Cols: cols, Labels: make([]uint32, rows*cols)}
}

// LabelsFromRows builds a label map from nested rows.
func LabelsFromRows(rows [][]uint32) (*LabelMap, error) {
	if len(rows) == 0 {
		return NewLabelMap(0, 0), nil
	}
	cols := len(rows[0])
	l := NewLabelMap(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", r, len(row), cols)
		}
		copy(l.Labels[r*cols:], row)
	}
	return l, nil
}

// At returns the label at (r, c).
func (l *LabelMap) At(r, c int) uint32 { return l.Labels[r*l.Cols+c] }

// Set stores v at (r, c).
func (l *LabelMap) Set(r, c int, v uint32) { l.Labels[r*l.Cols+c] = v }

// Clone returns a deep copy.
func (l *LabelMap) Clone() *LabelMap {
	out := &LabelMap{Rows: l.Rows, Cols: l.Cols, Labels: make([]uint32, len(l.Labels))}
	copy(out.Labels, l.Labels)
	return out
}

// SameSize reports whether l and o have identical dimensions.
func (l *LabelMap) SameSize(o *LabelMap) bool {
	return l.Rows == o.Rows && l.Cols == o.Cols
}

// Equal reports element-wise equality, including dimensions.
func (l *LabelMap) Equal(o *LabelMap) bool {
	if !l.SameSize(o) {
		return false
	}
	for i, v := range l.Labels {
		if o.Labels[i] != v {
			return false
		}
	}
	return true
}
