package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/labelbench/pkg/archive"
	"github.com/matzehuels/labelbench/pkg/labeling"
	"github.com/matzehuels/labelbench/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failures.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleBorder  = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconSkipped = "–"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints a detail line (indented).
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Tables
// =============================================================================

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// verdictTable renders the check verdicts, one row per algorithm.
func verdictTable(check *pipeline.CheckSummary) string {
	t := newTable("Algorithm", "Result", "First failure")
	for _, v := range check.Verdicts {
		result := StyleSuccess.Render(iconSuccess + " correct")
		if !v.Correct {
			result = StyleError.Render(iconError + " incorrect")
		}
		t.Row(labeling.StripEscapes(v.Algorithm), result, v.FirstFailure)
	}
	return t.Render()
}

// averagesTable renders average times with datasets as rows.
func averagesTable(averages []pipeline.DatasetAverages) string {
	if len(averages) == 0 {
		return ""
	}
	headers := []string{"Dataset"}
	for _, a := range averages[0].Algorithms {
		headers = append(headers, labeling.StripEscapes(a.Algorithm))
	}
	t := newTable(headers...)
	for _, d := range averages {
		row := []string{d.Dataset}
		for _, a := range d.Algorithms {
			if a.NoData {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(a.Millis, 'f', 3, 64)+" ms")
		}
		t.Row(row...)
	}
	return t.Render()
}

// memoryTable renders average access counts in millions for one dataset.
func memoryTable(m pipeline.DatasetMemory) string {
	headers := append([]string{"Algorithm"}, labeling.SlotNames[:]...)
	t := newTable(append(headers, "Total")...)
	for _, a := range m.Algorithms {
		row := []string{labeling.StripEscapes(a.Algorithm)}
		var total float64
		for _, v := range a.Accesses {
			row = append(row, strconv.FormatFloat(v/1e6, 'f', 3, 64))
			total += v / 1e6
		}
		t.Row(append(row, strconv.FormatFloat(total, 'f', 3, 64))...)
	}
	return t.Render()
}

// testsTable renders the status of every test and dataset.
func testsTable(tests []pipeline.TestResult) string {
	t := newTable("Test", "Dataset", "Status", "Time", "Message")
	for _, tr := range tests {
		t.Row(string(tr.Test), tr.Dataset, statusText(tr.Status), tr.Duration.Round(time.Millisecond).String(), tr.Message)
	}
	return t.Render()
}

func statusText(s pipeline.Status) string {
	switch s {
	case pipeline.StatusOK:
		return StyleSuccess.Render(iconSuccess + " ok")
	case pipeline.StatusFailed:
		return StyleError.Render(iconError + " failed")
	default:
		return StyleDim.Render(iconSkipped + " " + string(s))
	}
}

// runsTable renders archived runs, newest first.
func runsTable(recs []archive.Record) string {
	t := newTable("ID", "Created", "Version", "Summary")
	for _, r := range recs {
		t.Row(r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Version, r.Summary)
	}
	return t.Render()
}

// printResult prints everything a session produced.
func printResult(w io.Writer, res *pipeline.Result) {
	if res.Check != nil {
		fmt.Fprintln(w, StyleTitle.Render("Check"))
		fmt.Fprintln(w, verdictTable(res.Check))
	}
	if len(res.Averages) > 0 {
		fmt.Fprintln(w, StyleTitle.Render("Averages"))
		fmt.Fprintln(w, averagesTable(res.Averages))
	}
	for _, m := range res.Memory {
		fmt.Fprintln(w, StyleTitle.Render("Memory accesses (millions) on "+m.Dataset))
		fmt.Fprintln(w, memoryTable(m))
	}
	if len(res.Tests) > 0 {
		fmt.Fprintln(w, StyleTitle.Render("Tests"))
		fmt.Fprintln(w, testsTable(res.Tests))
	}
	printKeyValue(w, "Run", res.ID)
	printKeyValue(w, "Duration", res.Duration.Round(time.Millisecond).String())
}
