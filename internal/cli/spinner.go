package cli

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// spinnerFrames is the braille animation cycle.
var spinnerFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner is a stderr activity indicator for the long pipeline stages.
// It repaints a single line in place and clears it when stopped or when
// its context is cancelled. Once a stage runs longer than a second the
// elapsed time is shown next to the message.
type spinner struct {
	message string
	start   time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
}

// newSpinnerWithContext creates a spinner that also stops when ctx is
// cancelled, so an interrupted command leaves a clean line behind.
func newSpinnerWithContext(ctx context.Context, message string) *spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &spinner{
		message: message,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start begins the animation in a background goroutine.
func (s *spinner) Start() {
	s.start = time.Now()
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.paint(frame)
			}
		}
	}()
}

// Stop halts the animation and clears the line. Safe to call more than
// once.
func (s *spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
	})
}

func (s *spinner) paint(frame int) {
	line := s.message
	if elapsed := time.Since(s.start); elapsed > time.Second {
		line = fmt.Sprintf("%s (%s)", s.message, elapsed.Round(time.Second))
	}
	fmt.Fprintf(os.Stderr, "\r\033[K%s %s",
		styleIconSpinner.Render(spinnerFrames[frame%len(spinnerFrames)]),
		StyleDim.Render(line))
}

func (s *spinner) clearLine() {
	fmt.Fprint(os.Stderr, "\r\033[K")
}
