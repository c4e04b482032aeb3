package transcribe

import (
	"fmt"
	"math"
)

// maxWindowSamples bounds window and step lengths so oversized durations
// cannot overflow int arithmetic. Such a window covers any real clip anyway.
const maxWindowSamples = math.MaxInt32

// Window is the half-open sample range [Start, End) of one engine call.
type Window struct {
	Start int
	End   int
}

// Len returns the number of samples in the window.
func (w Window) Len() int { return w.End - w.Start }

func (w Window) String() string { return fmt.Sprintf("[%d,%d)", w.Start, w.End) }

// SlidingOptions configures sliding-window transcription.
type SlidingOptions struct {
	WindowSec  float64
	StepSec    float64
	SampleRate int
	// Language is the hint passed to every window; empty means auto-detect.
	Language string
}

// Validate rejects non-positive or non-finite parameters. A step larger
// than the window is allowed and leaves gaps between windows.
func (o SlidingOptions) Validate() error {
	if !(o.WindowSec > 0) || math.IsInf(o.WindowSec, 0) {
		return fmt.Errorf("%w: window size %v s", ErrInvalidParameter, o.WindowSec)
	}
	if !(o.StepSec > 0) || math.IsInf(o.StepSec, 0) {
		return fmt.Errorf("%w: step size %v s", ErrInvalidParameter, o.StepSec)
	}
	if o.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidParameter, o.SampleRate)
	}
	return nil
}

// Lengths converts the window and step durations to sample counts.
func (o SlidingOptions) Lengths() (windowLen, stepLen int) {
	return samplesFor(o.WindowSec, o.SampleRate), samplesFor(o.StepSec, o.SampleRate)
}

func samplesFor(sec float64, rate int) int {
	v := math.Round(sec * float64(rate))
	if v < 1 {
		return 1
	}
	if v > maxWindowSamples {
		return maxWindowSamples
	}
	return int(v)
}

// PlanWindows partitions n samples into windows of windowLen samples whose
// starts advance by stepLen. A clip no longer than one window yields a
// single window; otherwise the final windows are clipped to n.
func PlanWindows(n, windowLen, stepLen int) []Window {
	if n <= 0 {
		return nil
	}
	windowLen = max(windowLen, 1)
	stepLen = max(stepLen, 1)
	if n <= windowLen {
		return []Window{{Start: 0, End: n}}
	}

	windows := make([]Window, 0, (n+stepLen-1)/stepLen)
	for offset := 0; offset < n; offset += stepLen {
		windows = append(windows, Window{Start: offset, End: min(offset+windowLen, n)})
	}
	return windows
}
