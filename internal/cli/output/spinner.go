package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows an animation while a long engine operation (snapshot
// upload, fork, comparison) runs. It only draws on a terminal.
type Spinner struct {
	w        io.Writer
	message  string
	interval time.Duration
	enabled  bool

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

// NewSpinner creates a spinner that draws on w when w is a terminal.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:        w,
		message:  message,
		interval: 100 * time.Millisecond,
		enabled:  IsTerminal(w),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start starts the animation.
func (s *Spinner) Start() {
	s.startOnce.Do(func() {
		if !s.enabled {
			close(s.stopped)
			return
		}
		go s.run()
	})
}

func (s *Spinner) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		fmt.Fprintf(s.w, "\r%s %s", spinnerFrames[i%len(spinnerFrames)], s.message)
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

// Stop stops the animation and clears the line. Safe to call more than
// once and without Start.
func (s *Spinner) Stop() {
	s.finish("\r\033[K")
}

// Success stops the animation with a success line.
func (s *Spinner) Success(message string) {
	s.finish(fmt.Sprintf("\r\033[K✓ %s\n", message))
}

// Fail stops the animation with a failure line.
func (s *Spinner) Fail(message string) {
	s.finish(fmt.Sprintf("\r\033[K✗ %s\n", message))
}

func (s *Spinner) finish(final string) {
	s.startOnce.Do(func() { close(s.stopped) })
	s.stopOnce.Do(func() {
		close(s.done)
		<-s.stopped
		if s.enabled {
			fmt.Fprint(s.w, final)
		}
	})
}
