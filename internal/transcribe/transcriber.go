// Package transcribe runs single-shot and sliding-window transcription on
// registry instances. Every engine call happens synchronously on the
// calling goroutine while the instance lease is held.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/obiente/translate/whisperbridge/internal/metrics"
	"github.com/obiente/translate/whisperbridge/internal/registry"
	"github.com/obiente/translate/whisperbridge/internal/whisper"
)

var (
	ErrEmptyAudio       = errors.New("transcribe: empty audio")
	ErrInvalidParameter = errors.New("transcribe: invalid parameter")
	ErrInference        = errors.New("transcribe: inference failed")
)

// Acquirer hands out exclusive instance leases.
type Acquirer interface {
	Acquire(id int) (*registry.Lease, error)
}

// Transcriber transcribes audio with models held by a registry.
type Transcriber struct {
	instances Acquirer
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// New creates a Transcriber. m may be nil.
func New(instances Acquirer, m *metrics.Metrics, log zerolog.Logger) *Transcriber {
	return &Transcriber{
		instances: instances,
		metrics:   m,
		log:       log.With().Str("component", "transcribe").Logger(),
	}
}

// Transcribe runs one engine call over the whole clip. No partial result
// is returned on failure.
func (t *Transcriber) Transcribe(ctx context.Context, id int, audio []float32, language string) (text string, err error) {
	defer func() { t.metrics.Transcription(metrics.ModeSingle, outcome(err)) }()

	lease, err := t.instances.Acquire(id)
	if err != nil {
		return "", err
	}
	defer lease.Release()

	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInference, err)
	}
	return t.infer(lease.Model(), audio, language, metrics.ModeSingle)
}

// TranscribeSliding transcribes the clip window by window and stitches the
// results. Any window failure fails the whole call and discards the text of
// earlier windows. ctx is only consulted between windows.
func (t *Transcriber) TranscribeSliding(ctx context.Context, id int, audio []float32, opts SlidingOptions) (text string, err error) {
	defer func() { t.metrics.Transcription(metrics.ModeSliding, outcome(err)) }()

	if err := opts.Validate(); err != nil {
		return "", err
	}
	lease, err := t.instances.Acquire(id)
	if err != nil {
		return "", err
	}
	defer lease.Release()

	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	windowLen, stepLen := opts.Lengths()
	plan := PlanWindows(len(audio), windowLen, stepLen)
	t.log.Debug().
		Int("id", id).
		Int("samples", len(audio)).
		Int("window_samples", windowLen).
		Int("step_samples", stepLen).
		Int("windows", len(plan)).
		Msg("sliding window plan")

	stitcher := NewStitcher()
	for i, w := range plan {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: window %d %s: %w", ErrInference, i, w, err)
		}
		windowText, err := t.infer(lease.Model(), audio[w.Start:w.End], opts.Language, metrics.ModeSliding)
		if err != nil {
			t.log.Warn().Err(err).Int("id", id).Int("window", i).Stringer("range", w).Msg("window failed; discarding partial transcript")
			return "", fmt.Errorf("window %d %s: %w", i, w, err)
		}
		t.log.Debug().Int("window", i).Stringer("range", w).Str("text", windowText).Msg("window transcribed")
		stitcher.Add(w, windowText)
	}
	return stitcher.String(), nil
}

// infer calls the engine, turning errors and panics into ErrInference. The
// instance stays registered and usable either way.
func (t *Transcriber) infer(model whisper.Model, samples []float32, language, mode string) (text string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: engine panic: %v", ErrInference, r)
		}
		t.metrics.Inference(mode, time.Since(start))
	}()

	text, err = model.Infer(samples, language)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInference, err)
	}
	return strings.TrimSpace(text), nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, registry.ErrInvalidInstance):
		return "invalid_instance"
	case errors.Is(err, ErrEmptyAudio):
		return "empty_audio"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrInference):
		return "inference_error"
	default:
		return "error"
	}
}
