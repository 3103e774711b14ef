package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/encore/pkg/stats"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner redraws a one-line status on stderr until stopped. Long solves
// replace the message with the latest annealing row.
type spinner struct {
	w       io.Writer
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once

	mu      sync.Mutex
	started bool
	message string
	drawn   int // widest line drawn so far, in cells
}

// newSpinner creates a spinner on stderr that stops when ctx is cancelled.
func newSpinner(ctx context.Context, message string) *spinner {
	return newSpinnerTo(ctx, os.Stderr, message)
}

func newSpinnerTo(ctx context.Context, w io.Writer, message string) *spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &spinner{
		w:       w,
		parent:  ctx,
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		message: message,
	}
}

// Start begins the animation.
func (s *spinner) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.draw(i)
			}
		}
	}()
}

// SetMessage replaces the status text shown after the frame.
func (s *spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}

// Progress shows an annealing row after prefix. It is an anneal progress
// callback and may be called from the solving goroutine.
func (s *spinner) Progress(prefix string, r stats.Row) {
	s.SetMessage(rowMessage(prefix, r))
}

func (s *spinner) draw(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]) + " " + StyleDim.Render(s.message)
	// Pad over the tail of a longer previous message.
	pad := max(s.drawn-lipgloss.Width(line), 0)
	fmt.Fprintf(s.w, "\r%s%s", line, strings.Repeat(" ", pad))
	s.drawn = max(s.drawn, lipgloss.Width(line))
}

// Stop halts the animation and clears the line. It is safe to call twice.
func (s *spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.stopped
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.drawn > 0 {
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.drawn))
		}
	})
}

// StopWithSuccess stops the spinner and prints a success line.
func (s *spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and prints an error line.
func (s *spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the parent context was cancelled.
func (s *spinner) Cancelled() bool {
	return s.parent.Err() != nil
}

// rowMessage formats an annealing row as a status line:
// "problem 3 · 120,000 it · best 1,234,567 · T 42.0".
func rowMessage(prefix string, r stats.Row) string {
	return fmt.Sprintf("%s · %s it · best %s · T %s",
		prefix,
		formatScore(float64(r.Iteration)),
		formatScore(r.Best),
		strconv.FormatFloat(r.Temperature, 'f', 1, 64))
}
