package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

const spinnerInterval = 80 * time.Millisecond

// spinner animates a message on one terminal line while a slow operation,
// such as rendering or a store round trip, runs. The animation ends with
// Stop or when the parent context ends.
type spinner struct {
	out    io.Writer
	msg    string
	parent context.Context

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func newSpinner(ctx context.Context, msg string) *spinner {
	return newSpinnerTo(ctx, os.Stderr, msg)
}

func newSpinnerTo(parent context.Context, w io.Writer, msg string) *spinner {
	ctx, cancel := context.WithCancel(parent)
	return &spinner{out: w, msg: msg, parent: parent, ctx: ctx, cancel: cancel}
}

// Start draws frames in the background until the spinner stops.
func (s *spinner) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.clear()
		tick := time.NewTicker(spinnerInterval)
		defer tick.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				return
			case <-tick.C:
				frame := string(spinnerFrames[i%len(spinnerFrames)])
				s.write(fmt.Sprintf("\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.msg)))
			}
		}
	}()
}

// Stop ends the animation and clears the line. Further calls do nothing.
func (s *spinner) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

// Cancelled reports whether the parent context ended before Stop.
func (s *spinner) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped && s.parent.Err() != nil
}

// run animates while fn runs and prints success when fn returns nil.
func (s *spinner) run(success string, fn func() error) error {
	s.Start()
	err := fn()
	s.Stop()
	if err != nil {
		return err
	}
	printSuccess("%s", success)
	return nil
}

func (s *spinner) clear() {
	s.write("\r" + strings.Repeat(" ", len(s.msg)+4) + "\r")
}

func (s *spinner) write(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.out, line)
}
