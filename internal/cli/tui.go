package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/labelbench/pkg/observability"
	"github.com/matzehuels/labelbench/pkg/pipeline"
)

// Progress styles
var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	progressDim   = lipgloss.NewStyle().Foreground(colorDim)
)

const barWidth = 30

// =============================================================================
// Messages
// =============================================================================

type testStartMsg struct {
	test, dataset string
	files         int
}

type fileDoneMsg struct {
	test, dataset, file string
	done, total         int
}

type testDoneMsg struct {
	test, dataset string
	duration      time.Duration
	err           error
}

type noticeMsg string

type finishedMsg struct{}

// =============================================================================
// progressHooks - forwards benchmark events to the program
// =============================================================================

// progressHooks implements observability.BenchHooks by sending every event
// to a bubbletea program.
type progressHooks struct {
	send func(tea.Msg)
}

func (h *progressHooks) OnTestStart(_ context.Context, test, dataset string, files int) {
	h.send(testStartMsg{test: test, dataset: dataset, files: files})
}

func (h *progressHooks) OnTestComplete(_ context.Context, test, dataset string, d time.Duration, err error) {
	h.send(testDoneMsg{test: test, dataset: dataset, duration: d, err: err})
}

func (h *progressHooks) OnFileDone(_ context.Context, test, dataset, file string, done, total int) {
	h.send(fileDoneMsg{test: test, dataset: dataset, file: file, done: done, total: total})
}

func (h *progressHooks) OnLoadFailure(_ context.Context, dataset, file string, err error) {
	h.send(noticeMsg(fmt.Sprintf("%s/%s excluded: %v", dataset, file, err)))
}

func (h *progressHooks) OnMismatch(_ context.Context, algorithm, dataset, file string) {
	h.send(noticeMsg(fmt.Sprintf("%s is incorrect on %s/%s", algorithm, dataset, file)))
}

var _ observability.BenchHooks = (*progressHooks)(nil)

// =============================================================================
// ProgressModel - live view of a running session
// =============================================================================

type testLine struct {
	test, dataset string
	done, total   int
	duration      time.Duration
	finished      bool
	failed        bool
}

// ProgressModel is the bubbletea model shown while tests run.
type ProgressModel struct {
	lines    []*testLine
	notices  []string
	quitting bool
	aborted  bool
}

// NewProgressModel creates an empty progress view.
func NewProgressModel() ProgressModel {
	return ProgressModel{}
}

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) line(test, dataset string) *testLine {
	for i := len(m.lines) - 1; i >= 0; i-- {
		if l := m.lines[i]; l.test == test && l.dataset == dataset && !l.finished {
			return l
		}
	}
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.aborted = true
			m.quitting = true
			return m, tea.Quit
		}
	case testStartMsg:
		m.lines = append(m.lines, &testLine{test: msg.test, dataset: msg.dataset, total: msg.files})
	case fileDoneMsg:
		if l := m.line(msg.test, msg.dataset); l != nil {
			l.done, l.total = msg.done, msg.total
		}
	case testDoneMsg:
		l := m.line(msg.test, msg.dataset)
		if l == nil {
			l = &testLine{test: msg.test, dataset: msg.dataset}
			m.lines = append(m.lines, l)
		}
		l.finished = true
		l.failed = msg.err != nil
		l.duration = msg.duration
	case noticeMsg:
		m.notices = append(m.notices, string(msg))
	case finishedMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Running tests"))
	b.WriteString("\n\n")

	for _, l := range m.lines {
		icon := styleIconSpinner.Render(iconInfo)
		switch {
		case l.finished && l.failed:
			icon = styleIconError.Render(iconError)
		case l.finished:
			icon = styleIconSuccess.Render(iconSuccess)
		}
		name := l.test
		if l.dataset != "" {
			name += " " + l.dataset
		}
		fmt.Fprintf(&b, "%s %-28s %s", icon, name, bar(l.done, l.total))
		if l.finished {
			b.WriteString(" " + progressDim.Render(l.duration.Round(time.Millisecond).String()))
		}
		b.WriteString("\n")
	}

	if n := len(m.notices); n > 0 {
		b.WriteString("\n")
		start := 0
		if n > 5 {
			start = n - 5
		}
		for _, s := range m.notices[start:] {
			b.WriteString(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(s) + "\n")
		}
	}

	if !m.quitting {
		b.WriteString("\n" + progressDim.Render("q quit"))
	}
	return b.String()
}

// bar renders done/total as a fixed-width progress bar.
func bar(done, total int) string {
	if total <= 0 {
		return barEmptyStyle.Render(strings.Repeat("░", barWidth))
	}
	if done > total {
		done = total
	}
	full := done * barWidth / total
	return barFullStyle.Render(strings.Repeat("█", full)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-full)) +
		progressDim.Render(fmt.Sprintf(" %d/%d", done, total))
}

// =============================================================================
// Running with progress
// =============================================================================

// runWithProgress runs fn while a progress view renders benchmark events on
// stderr. Quitting the view cancels fn. Log output is suppressed meanwhile.
func (c *CLI) runWithProgress(ctx context.Context, fn func(context.Context) (*pipeline.Result, error)) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(), tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	observability.SetBenchHooks(&progressHooks{send: p.Send})
	defer observability.SetBenchHooks(observability.NoopBenchHooks{})

	defer c.silenceLogs()()

	type outcome struct {
		res *pipeline.Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := fn(ctx)
		ch <- outcome{res, err}
		p.Send(finishedMsg{})
	}()

	final, err := p.Run()
	if m, ok := final.(ProgressModel); ok && m.aborted {
		cancel()
	}
	out := <-ch
	if out.err == nil && err != nil && ctx.Err() == nil {
		return out.res, fmt.Errorf("progress view: %w", err)
	}
	return out.res, out.err
}

// =============================================================================
// artifactCounter - counts written report files
// =============================================================================

type artifactCounter struct {
	written atomic.Int64
	bytes   atomic.Int64
	failed  atomic.Int64
}

func (a *artifactCounter) OnArtifactWritten(_ context.Context, _ string, size int) {
	a.written.Add(1)
	a.bytes.Add(int64(size))
}

func (a *artifactCounter) OnArtifactError(context.Context, string, error) {
	a.failed.Add(1)
}

var _ observability.ArtifactHooks = (*artifactCounter)(nil)
