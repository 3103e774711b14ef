package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/encore/pkg/anneal"
	"github.com/matzehuels/encore/pkg/pipeline"
	"github.com/matzehuels/encore/pkg/problem"
	"github.com/matzehuels/encore/pkg/stats"
)

// Progress view styles
var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	sparkStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	listDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	barWidth     = 32
	sparkWidth   = 48
	tickInterval = 200 * time.Millisecond
)

// =============================================================================
// Messages
// =============================================================================

// rowMsg carries one progress sample from the solving goroutine.
type rowMsg stats.Row

// solveDoneMsg reports the end of the run.
type solveDoneMsg struct {
	res *pipeline.SolveResult
	err error
}

// tickMsg refreshes the elapsed time between samples.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// =============================================================================
// SolveModel - Live annealing progress
// =============================================================================

// SolveModel is the bubbletea model behind solve --tui.
type SolveModel struct {
	ID     problem.ID
	Solver string
	End    anneal.End

	start    time.Time
	elapsed  time.Duration
	last     stats.Row
	rows     int
	history  []float64
	cancel   context.CancelFunc
	stopping bool
	done     bool
}

// NewSolveModel creates a progress model. cancel is called when the user
// asks to stop; the view stays up until the run reports back.
func NewSolveModel(id problem.ID, solver string, end anneal.End, cancel context.CancelFunc) SolveModel {
	return SolveModel{
		ID:     id,
		Solver: solver,
		End:    end,
		start:  time.Now(),
		cancel: cancel,
	}
}

func (m SolveModel) Init() tea.Cmd {
	return tick()
}

func (m SolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.stopping {
				m.stopping = true
				if m.cancel != nil {
					m.cancel()
				}
			}
		}
	case rowMsg:
		m.last = stats.Row(msg)
		m.rows++
		m.history = append(m.history, msg.Best)
		if len(m.history) > sparkWidth {
			m.history = m.history[len(m.history)-sparkWidth:]
		}
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = time.Time(msg).Sub(m.start)
		return m, tick()
	case solveDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m SolveModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Annealing problem %d", m.ID)))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(m.Solver))
	b.WriteString("\n\n")

	frac := m.fraction()
	b.WriteString(progressBar(frac, barWidth))
	b.WriteString(listDimStyle.Render(fmt.Sprintf(" %3.0f%%  %s", frac*100, m.elapsed.Round(time.Second))))
	b.WriteString("\n\n")

	if m.rows == 0 {
		b.WriteString(listDimStyle.Render("  waiting for the first sample..."))
		b.WriteString("\n")
	} else {
		keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
		line := func(k, v string) {
			b.WriteString(keyStyle.Render(k) + " " + StyleValue.Render(v) + "\n")
		}
		line("Iteration", formatScore(float64(m.last.Iteration)))
		line("Score", formatScore(m.last.Score))
		line("Best", formatScore(m.last.Best))
		line("Temperature", fmt.Sprintf("%.1f", m.last.Temperature))
		line("Accept", fmt.Sprintf("%.3f (+%.3f / -%.3f)", m.last.AcceptRate, m.last.AcceptRatePositive, m.last.AcceptRateNegative))
		b.WriteString("\n")
		b.WriteString(sparkStyle.Render(sparkline(m.history)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.stopping {
		b.WriteString(StyleWarning.Render("stopping, saving the best placement so far..."))
	} else {
		b.WriteString(listDimStyle.Render("q stop and save"))
	}
	return b.String()
}

// fraction returns how much of the run budget is used, in [0, 1].
func (m SolveModel) fraction() float64 {
	var f float64
	switch {
	case m.End.Iterations > 0:
		f = float64(m.last.Iteration) / float64(m.End.Iterations)
	case m.End.Duration > 0:
		f = float64(m.elapsed) / float64(m.End.Duration)
	}
	return min(max(f, 0), 1)
}

// progressBar draws frac of width cells filled.
func progressBar(frac float64, width int) string {
	full := int(frac*float64(width) + 0.5)
	full = min(max(full, 0), width)
	return barFullStyle.Render(strings.Repeat("█", full)) +
		barEmptyStyle.Render(strings.Repeat("░", width-full))
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline scales values between their minimum and maximum.
func sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	out := make([]rune, len(values))
	for i, v := range values {
		level := 0
		if hi > lo {
			level = int((v - lo) / (hi - lo) * float64(len(sparkLevels)-1))
		}
		out[i] = sparkLevels[level]
	}
	return string(out)
}

// =============================================================================
// Runner
// =============================================================================

// runSolveTUI runs Solve behind the progress view. The view owns the
// terminal, so the runner's logger should be silenced by the caller.
func runSolveTUI(ctx context.Context, runner *pipeline.Runner, opts pipeline.SolveOptions) (*pipeline.SolveResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	solver := anneal.SolverName(opts.Anneal.Temp0, opts.Anneal.End)
	prog := tea.NewProgram(NewSolveModel(opts.ID, solver, opts.Anneal.End, cancel), tea.WithOutput(os.Stderr))

	next := opts.Anneal.Progress
	opts.Anneal.Progress = func(r stats.Row) {
		prog.Send(rowMsg(r))
		if next != nil {
			next(r)
		}
	}

	done := make(chan solveDoneMsg, 1)
	go func() {
		res, err := runner.Solve(ctx, opts)
		msg := solveDoneMsg{res: res, err: err}
		done <- msg
		prog.Send(msg)
	}()

	if _, err := prog.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("progress view: %w", err)
	}
	msg := <-done
	return msg.res, msg.err
}
