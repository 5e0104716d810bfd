package bench

// AggregateCell accumulates values for one average.
type AggregateCell struct {
	Sum   float64
	Count int
}

// Add accumulates v.
func (c *AggregateCell) Add(v float64) {
	c.Sum += v
	c.Count++
}

// Average returns Sum/Count, or 0 and false when the cell has no data.
func (c AggregateCell) Average() (float64, bool) {
	if c.Count == 0 {
		return 0, false
	}
	return c.Sum / float64(c.Count), true
}

// NoData reports whether nothing was accumulated.
func (c AggregateCell) NoData() bool { return c.Count == 0 }

// Averages returns one cell per algorithm holding the mean of the per-file
// minimum times. Files that are missing or have no valid minimum are excluded
// from both sum and count.
func Averages(run *TrialRun) []AggregateCell {
	cells := make([]AggregateCell, run.Minimum.Cols)
	for f := 0; f < run.Minimum.Rows; f++ {
		if !run.Dataset.Files[f].Present {
			continue
		}
		for a, r := range run.Minimum.Row(f) {
			if r.Valid {
				cells[a].Add(r.Millis)
			}
		}
	}
	return cells
}
