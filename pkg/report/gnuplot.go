package report

import (
	"bytes"
	"runtime"
	"text/template"

	"github.com/matzehuels/labelbench/pkg/errors"
)

// Terminal is a gnuplot output terminal and the extension of its files.
type Terminal struct {
	Name string
	Ext  string
}

// DefaultTerminal returns postscript on macOS and pdf elsewhere.
func DefaultTerminal() Terminal {
	if runtime.GOOS == "darwin" {
		return Terminal{Name: "postscript", Ext: ".ps"}
	}
	return Terminal{Name: "pdf", Ext: ".pdf"}
}

type plotSeries struct {
	File   string
	Column int
	Title  string
}

type scriptData struct {
	Script   string
	Dir      string
	Dataset  string
	Terminal Terminal
	Averages string
	Density  []plotSeries
	Norm     []plotSeries
	Size     []plotSeries
}

var funcs = template.FuncMap{
	"last": func(i int, s []plotSeries) bool { return i == len(s)-1 },
}

var averagesScript = template.Must(template.New("averages").Parse(`# gnuplot script (http://www.gnuplot.info/)
# open gnuplot, move to this directory and run 'load "{{.Script}}"'

reset
cd '{{.Dir}}'
set grid ytic
set grid

# {{.Dataset}} (colors)
set output "{{.Dataset}}{{.Terminal.Ext}}"
set terminal {{.Terminal.Name}} enhanced color font ',15'

set style data histogram
set style histogram cluster gap 1
set style fill solid 0.25 border -1
set boxwidth 0.9

stats "{{.Averages}}" using 2 nooutput
ymax = STATS_max + (STATS_max/100)*10
xw = 0
yw = (ymax)/22

set xtic rotate by -45 scale 0
set ylabel "Execution Time [ms]"
set yrange[0:ymax]
set xrange[*:*]
set key off

plot \
'{{.Averages}}' using 2:xtic(1), '{{.Averages}}' using ($0 - xw) : ($2 + yw) : (stringcolumn(3)) with labels

# {{.Dataset}} (black and white)
set output "{{.Dataset}}_bw{{.Terminal.Ext}}"
set terminal {{.Terminal.Name}} enhanced monochrome dashed font ',15'
replot

exit gnuplot
`))

var densitySizeScript = template.Must(template.New("density_size").Funcs(funcs).Parse(`# gnuplot script (http://www.gnuplot.info/)
# open gnuplot, move to this directory and run 'load "{{.Script}}"'

reset
cd '{{.Dir}}'
set grid
{{define "plot"}}plot \
{{range $i, $s := .}}"{{$s.File}}" using 1:{{$s.Column}} with linespoints title "{{$s.Title}}"{{if not (last $i $)}} , \
{{end}}{{end}}
{{end}}
# density (colors)
set output "density{{.Terminal.Ext}}"
set terminal {{.Terminal.Name}} enhanced color font ',15'
set xlabel "Density"
set ylabel "Execution Time [ms]"
set xrange [0:1]
set yrange [*:*]
set logscale y
set key left top nobox spacing 2 font ', 8'
{{template "plot" .Density}}
# density (black and white)
set output "density_bw{{.Terminal.Ext}}"
set terminal {{.Terminal.Name}} enhanced monochrome dashed font ',15'
replot

# normalized density (colors)
set output "normalized_density{{.Terminal.Ext}}"
set terminal {{.Terminal.Name}} enhanced color font ',15'
set xlabel "Density"
set ylabel "Normalized Execution Time [ms]"
set xrange [0:1]
set yrange [*:*]
set logscale y
set key left top nobox spacing 2 font ', 8'
{{template "plot" .Norm}}
# normalized density (black and white)
set output "normalized_density_bw{{.Terminal.Ext}}"
set terminal {{.Terminal.Name}} enhanced monochrome dashed font ',15'
replot

# size (colors)
set output "size{{.Terminal.Ext}}"
set terminal {{.Terminal.Name}} enhanced color font ',15'
unset logscale
set xlabel "Pixels"
set ylabel "Execution Time [ms]"
set format x "10^{%L}"
set xrange [100:100000000]
set yrange [*:*]
set logscale xy 10
set key left top nobox spacing 2 font ', 8'
{{template "plot" .Size}}
# size (black and white)
set output "size_bw{{.Terminal.Ext}}"
set terminal {{.Terminal.Name}} enhanced monochrome dashed font ',15'
replot

exit gnuplot
`))

// WriteAveragesScript writes the histogram script for a dataset's averages.
func (s *Sink) WriteAveragesScript(dataset string) error {
	data := s.scriptData(dataset)
	data.Averages = dataset + averagesSuffix
	return s.render(averagesScript, data)
}

// WriteDensitySizeScript writes the line-chart script for the bucketed tables.
// names gives the column order of the tables.
func (s *Sink) WriteDensitySizeScript(dataset string, names []string) error {
	data := s.scriptData(dataset)
	data.Density = series(DensityFile, names)
	data.Norm = series(NormalizedFile, names)
	data.Size = series(SizeFile, names)
	return s.render(densitySizeScript, data)
}

func (s *Sink) scriptData(dataset string) scriptData {
	term := s.Terminal
	if term.Name == "" {
		term = DefaultTerminal()
	}
	return scriptData{
		Script:   dataset + ScriptExt,
		Dir:      s.DatasetDir(dataset),
		Dataset:  dataset,
		Terminal: term,
	}
}

func (s *Sink) render(t *template.Template, data scriptData) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render %s", t.Name())
	}
	return s.write(s.ScriptPath(data.Dataset), &buf)
}

// series maps algorithm i to column i+2 of file (column 1 holds the x value).
func series(file string, names []string) []plotSeries {
	out := make([]plotSeries, len(names))
	for i, n := range names {
		out[i] = plotSeries{File: file, Column: i + 2, Title: n}
	}
	return out
}
