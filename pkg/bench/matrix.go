package bench

// TrialResult is one timing in milliseconds, or "not available".
type TrialResult struct {
	Millis float64
	Valid  bool
}

// Available returns a valid result.
func Available(ms float64) TrialResult { return TrialResult{Millis: ms, Valid: true} }

// Matrix holds one TrialResult per (file, algorithm) cell.
// The zero value of each cell is "not available".
type Matrix struct {
	Rows, Cols int
	Cells      []TrialResult
}

// NewMatrix returns a rows×cols matrix with every cell unavailable.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Cells: make([]TrialResult, rows*cols)}
}

// At returns the cell for file f and algorithm a.
func (m *Matrix) At(f, a int) TrialResult { return m.Cells[f*m.Cols+a] }

// Set stores ms in cell (f, a).
func (m *Matrix) Set(f, a int, ms float64) { m.Cells[f*m.Cols+a] = Available(ms) }

// Lower stores ms in cell (f, a) when the cell is unavailable or larger.
func (m *Matrix) Lower(f, a int, ms float64) {
	c := &m.Cells[f*m.Cols+a]
	if !c.Valid || ms < c.Millis {
		*c = Available(ms)
	}
}

// Row returns the cells of file f. The slice aliases the matrix.
func (m *Matrix) Row(f int) []TrialResult { return m.Cells[f*m.Cols : (f+1)*m.Cols] }
