package report

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/matzehuels/labelbench/pkg/bench"
	"github.com/matzehuels/labelbench/pkg/labeling"
)

const siunitxNote = `%This table needs the 'siunitx' package; add the following line to the preamble:
%\usepackage{siunitx}

`

// WriteAverageLatex writes the cross-dataset averages table to
// <root>/averageResults.tex. Values have three decimals; cells without data
// are left empty.
func (s *Sink) WriteAverageLatex(t *AverageTable) error {
	var buf bytes.Buffer
	buf.WriteString(siunitxNote)
	buf.WriteString("\\begin{table}[tbh]\n\n")
	buf.WriteString("\t\\centering\n")
	buf.WriteString("\t\\caption{Average Results in ms (Lower is Better)}\n")
	buf.WriteString("\t\\label{tab:table1}\n")
	buf.WriteString("\t\\begin{tabular}{|l|")
	for range t.Names {
		buf.WriteString("S[table-format=2.3]|")
	}
	buf.WriteString("}\n\t\\hline\n\t")
	for _, n := range t.Names {
		fmt.Fprintf(&buf, " & {%s}", labeling.CollapseEscapes(n))
	}
	buf.WriteString("\\\\\n\t\\hline\n")

	for r, ds := range t.Datasets {
		buf.WriteString("\t" + ds)
		for c := range t.Names {
			buf.WriteString(" & ")
			if v := t.Value(r, c); !math.IsNaN(v) {
				buf.WriteString(strconv.FormatFloat(v, 'f', 3, 64))
			}
		}
		buf.WriteString("\\\\\n")
	}
	buf.WriteString("\t\\hline\n\t\\end{tabular}\n\n\\end{table}\n")
	return s.write(filepath.Join(s.Root, AverageLatexFile), &buf)
}

// WriteMemoryLatex writes <root>/<dataset>/memoryAccesses.tex. Values are in
// millions of accesses; zero cells are left empty and a total column is added.
func (s *Sink) WriteMemoryLatex(run *bench.MemoryRun) error {
	var buf bytes.Buffer
	buf.WriteString(siunitxNote)
	buf.WriteString("\\begin{table}[tbh]\n\n")
	buf.WriteString("\t\\centering\n")
	fmt.Fprintf(&buf, "\t\\caption{Analysis of memory accesses required by connected components computation for '%s' dataset. The numbers are given in millions of accesses}\n", run.Dataset.Name)
	buf.WriteString("\t\\label{tab:table1}\n")
	buf.WriteString("\t\\begin{tabular}{|l|")
	for i := 0; i <= labeling.NumSlots; i++ {
		buf.WriteString("S[table-format=2.3]|")
	}
	buf.WriteString("}\n\t\\hline\n\t{Algorithm}")
	for _, slot := range labeling.SlotNames {
		fmt.Fprintf(&buf, " & {%s}", slot)
	}
	buf.WriteString(" & {Total Accesses}\\\\\n\t\\hline\n")

	for a, avg := range run.Averages() {
		fmt.Fprintf(&buf, "\t{%s}", labeling.CollapseEscapes(run.Names[a]))
		var total float64
		for _, v := range avg {
			m := v / 1e6
			buf.WriteString("\t& ")
			if v != 0 {
				buf.WriteString(strconv.FormatFloat(m, 'f', 3, 64))
			}
			total += m
		}
		buf.WriteString("\t& " + strconv.FormatFloat(total, 'f', 3, 64) + "\t\\\\\n")
	}
	buf.WriteString("\t\\hline\n\t\\end{tabular}\n\n\\end{table}\n")
	return s.write(filepath.Join(s.DatasetDir(run.Dataset.Name), MemoryLatexFile), &buf)
}
