// Package stream transcribes audio that arrives incrementally. The caller
// appends samples as they are captured and calls Process whenever Ready
// reports a full hop of new audio; nothing runs in the background.
//
// Each pass transcribes the latest window of audio. Consecutive windows
// overlap by OverlapSec and their transcripts are stitched the same way the
// sliding-window transcriber stitches, so Segment.Delta carries only the
// words that were not heard in the previous pass.
package stream

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/obiente/translate/whisperbridge/internal/audio"
	"github.com/obiente/translate/whisperbridge/internal/metrics"
	"github.com/obiente/translate/whisperbridge/internal/transcribe"
	"github.com/obiente/translate/whisperbridge/internal/whisper"
)

var ErrInvalidOptions = errors.New("stream: invalid options")

// Transcriber runs one single-shot transcription on an instance.
type Transcriber interface {
	Transcribe(ctx context.Context, id int, audio []float32, language string) (string, error)
}

type Options struct {
	// SampleRate of appended audio. Zero means 16 kHz; other rates are
	// resampled on Append.
	SampleRate   int
	WindowSec    float64
	OverlapSec   float64
	MaxBufferSec float64
	Language     string
}

func (o Options) Validate() error {
	switch {
	case o.SampleRate < 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidOptions, o.SampleRate)
	case !(o.WindowSec > 0) || math.IsInf(o.WindowSec, 0):
		return fmt.Errorf("%w: window %v s", ErrInvalidOptions, o.WindowSec)
	case !(o.OverlapSec >= 0) || o.OverlapSec >= o.WindowSec:
		return fmt.Errorf("%w: overlap %v s must be in [0, %v)", ErrInvalidOptions, o.OverlapSec, o.WindowSec)
	case !(o.MaxBufferSec >= o.WindowSec) || math.IsInf(o.MaxBufferSec, 0):
		return fmt.Errorf("%w: max buffer %v s is shorter than the window", ErrInvalidOptions, o.MaxBufferSec)
	}
	return nil
}

// Segment is the result of one pass. Start and End locate the transcribed
// window in stream time.
type Segment struct {
	Start      time.Duration
	End        time.Duration
	Text       string
	Delta      string
	Transcript string
}

// Stream is a rolling buffer bound to one registry instance.
type Stream struct {
	tr      Transcriber
	id      int
	opts    Options
	metrics *metrics.Metrics
	log     zerolog.Logger

	windowLen int
	hopLen    int
	maxLen    int

	mu        sync.Mutex // guards samples, dropped, processed
	samples   []float32
	dropped   int // samples discarded from the front of the stream
	processed int // stream offset where the last transcribed window ended

	passMu   sync.Mutex // serialises passes
	stitcher *transcribe.Stitcher
}

// New creates a stream that transcribes with instance id. m may be nil.
func New(tr Transcriber, id int, opts Options, m *metrics.Metrics, log zerolog.Logger) (*Stream, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = whisper.SampleRate
	}
	windowLen := secondsToSamples(opts.WindowSec)
	overlapLen := min(int(math.Round(opts.OverlapSec*whisper.SampleRate)), windowLen-1)
	return &Stream{
		tr:        tr,
		id:        id,
		opts:      opts,
		metrics:   m,
		log:       log.With().Str("component", "stream").Int("id", id).Logger(),
		windowLen: windowLen,
		hopLen:    windowLen - overlapLen,
		maxLen:    max(windowLen, secondsToSamples(opts.MaxBufferSec)),
		stitcher:  transcribe.NewStitcher(),
	}, nil
}

// Append adds captured samples to the buffer, discarding the oldest audio
// once the buffer exceeds MaxBufferSec.
func (s *Stream) Append(samples []float32) {
	if len(samples) == 0 {
		return
	}
	if s.opts.SampleRate != whisper.SampleRate {
		samples = audio.ResampleLinear(samples, s.opts.SampleRate, whisper.SampleRate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, samples...)
	if excess := len(s.samples) - s.maxLen; excess > 0 {
		unheard := max(0, min(excess, s.dropped+excess-s.processed))
		s.samples = append(s.samples[:0], s.samples[excess:]...)
		s.dropped += excess
		s.log.Debug().
			Int("discarded", excess).
			Int("discarded_unheard", unheard).
			Float64("buffer_seconds", float64(len(s.samples))/whisper.SampleRate).
			Msg("trimmed rolling buffer")
	}
}

// Ready reports whether a full window of audio exists and at least one hop
// of it has not been transcribed yet.
func (s *Stream) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyLocked()
}

func (s *Stream) readyLocked() bool {
	total := s.dropped + len(s.samples)
	return total >= s.windowLen && total-s.processed >= s.hopLen
}

// Process transcribes the latest window when Ready. It returns false when
// there was nothing to do. On error the audio stays unprocessed.
func (s *Stream) Process(ctx context.Context) (Segment, bool, error) {
	return s.pass(ctx, false)
}

// Flush transcribes any audio not yet covered by a pass, however short.
func (s *Stream) Flush(ctx context.Context) (Segment, bool, error) {
	return s.pass(ctx, true)
}

func (s *Stream) pass(ctx context.Context, flush bool) (Segment, bool, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	s.mu.Lock()
	total := s.dropped + len(s.samples)
	if !s.readyLocked() && !(flush && total > s.processed) {
		s.mu.Unlock()
		return Segment{}, false, nil
	}
	w := transcribe.Window{Start: max(s.dropped, total-s.windowLen), End: total}
	window := make([]float32, w.Len())
	copy(window, s.samples[w.Start-s.dropped:])
	s.mu.Unlock()

	start := time.Now()
	text, err := s.tr.Transcribe(ctx, s.id, window, s.opts.Language)
	if err != nil {
		s.metrics.Transcription(metrics.ModeStream, "error")
		return Segment{}, false, fmt.Errorf("stream pass %s: %w", w, err)
	}
	s.metrics.Transcription(metrics.ModeStream, "ok")

	delta := s.stitcher.Add(w, text)

	s.mu.Lock()
	s.processed = w.End
	s.mu.Unlock()

	seg := Segment{
		Start:      samplesToDuration(w.Start),
		End:        samplesToDuration(w.End),
		Text:       text,
		Delta:      delta,
		Transcript: s.stitcher.String(),
	}
	s.log.Debug().
		Stringer("range", w).
		Dur("took", time.Since(start)).
		Str("delta", delta).
		Bool("flush", flush).
		Msg("stream pass")
	return seg, true, nil
}

// Duration is the total audio appended since creation or Reset.
func (s *Stream) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return samplesToDuration(s.dropped + len(s.samples))
}

// Dropped is the number of 16 kHz samples discarded from the buffer.
func (s *Stream) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Transcript returns everything transcribed so far.
func (s *Stream) Transcript() string {
	s.passMu.Lock()
	defer s.passMu.Unlock()
	return s.stitcher.String()
}

// Reset discards all audio and the running transcript.
func (s *Stream) Reset() {
	s.passMu.Lock()
	defer s.passMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = nil
	s.dropped = 0
	s.processed = 0
	s.stitcher = transcribe.NewStitcher()
}

func secondsToSamples(sec float64) int {
	return max(1, int(math.Round(sec*whisper.SampleRate)))
}

func samplesToDuration(n int) time.Duration {
	return time.Duration(n) * time.Second / whisper.SampleRate
}
