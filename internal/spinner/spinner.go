// Package spinner shows an activity indicator while a request to the
// evaluation service is outstanding.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Start displays an animated spinner with the given message on w.
// Call the returned function to stop the spinner and clear the line.
func Start(w io.Writer, message string) (stop func()) {
	done := make(chan struct{})
	cleared := make(chan struct{})
	var stopOnce sync.Once
	width := runewidth.StringWidth(message) + 2
	go func() {
		i := 0
		for {
			select {
			case <-done:
				fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", width)) //nolint:errcheck
				close(cleared)
				return
			case <-time.After(80 * time.Millisecond):
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], message) //nolint:errcheck
				i++
			}
		}
	}()
	return func() {
		stopOnce.Do(func() {
			close(done)
		})
		<-cleared
	}
}

// Spinner runs at most one indicator at a time. On a non-terminal writer it
// prints each message once on its own line instead of animating.
type Spinner struct {
	w           io.Writer
	interactive bool

	mu   sync.Mutex
	stop func()
}

// New returns a Spinner writing to w.
func New(w io.Writer) *Spinner {
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	return &Spinner{w: w, interactive: interactive}
}

// Start replaces any running indicator with one showing message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	if !s.interactive {
		fmt.Fprintln(s.w, message) //nolint:errcheck
		return
	}
	s.stop = Start(s.w, message)
}

// Stop clears the running indicator, if any.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Spinner) stopLocked() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}
