// Package bridge is the host-facing surface: plain integer ids, boolean
// results and caller-owned fixed-capacity output buffers. Every failure is
// recovered here, logged, and reported as false (or -1 from Init); output
// buffers are left untouched on failure unless truncation is configured.
package bridge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/obiente/translate/whisperbridge/internal/metrics"
	"github.com/obiente/translate/whisperbridge/internal/registry"
	"github.com/obiente/translate/whisperbridge/internal/resultbuf"
	"github.com/obiente/translate/whisperbridge/internal/transcribe"
	"github.com/obiente/translate/whisperbridge/internal/whisper"
	"github.com/obiente/translate/whisperbridge/internal/wordlist"
)

// Options configures a Bridge.
type Options struct {
	Loader whisper.Loader
	// Metrics may be nil.
	Metrics *metrics.Metrics
	// Policy applies to every result and info buffer.
	Policy resultbuf.Policy
	Log    zerolog.Logger
}

// Bridge owns the instance registry and the transcriber.
type Bridge struct {
	reg    *registry.Registry
	tr     *transcribe.Transcriber
	policy resultbuf.Policy
	log    zerolog.Logger
}

// New creates a Bridge with an empty registry.
func New(opts Options) *Bridge {
	reg := registry.New(opts.Loader, opts.Log, opts.Metrics.RegistryHooks())
	return &Bridge{
		reg:    reg,
		tr:     transcribe.New(reg, opts.Metrics, opts.Log),
		policy: opts.Policy,
		log:    opts.Log.With().Str("component", "bridge").Logger(),
	}
}

// Registry exposes the underlying registry (for collectors and streams).
func (b *Bridge) Registry() *registry.Registry { return b.reg }

// Transcriber exposes the underlying transcriber.
func (b *Bridge) Transcriber() *transcribe.Transcriber { return b.tr }

// Init loads a model and returns its positive instance id, or -1.
func (b *Bridge) Init(modelPath string) (id int) {
	defer b.recover("init", func() { id = -1 })

	id, err := b.reg.Create(modelPath)
	if err != nil {
		b.fail("init", 0, err)
		return -1
	}
	return id
}

// Free destroys the instance. It returns false for unknown ids.
func (b *Bridge) Free(id int) (ok bool) {
	defer b.recover("free", func() { ok = false })
	return b.reg.Destroy(id)
}

// IsValid reports whether id denotes a live instance.
func (b *Bridge) IsValid(id int) bool {
	return b.reg.IsValid(id)
}

// ProcessAudio transcribes 16 kHz mono audio in one engine call and writes
// the NUL-terminated transcript into result. A nil language auto-detects.
func (b *Bridge) ProcessAudio(id int, audio []float32, language *string, result []byte) (ok bool) {
	defer b.recover("process_audio", func() { ok = false })

	text, err := b.tr.Transcribe(context.Background(), id, audio, deref(language))
	if err != nil {
		b.fail("process_audio", id, err)
		return false
	}
	return b.write("process_audio", id, text, result)
}

// ProcessAudioSlidingWindow transcribes audio window by window and writes
// the stitched transcript into result.
func (b *Bridge) ProcessAudioSlidingWindow(id int, audio []float32, windowSec, stepSec float32, sampleRate int, language *string, result []byte) (ok bool) {
	defer b.recover("process_audio_sliding_window", func() { ok = false })

	opts := transcribe.SlidingOptions{
		WindowSec:  float64(windowSec),
		StepSec:    float64(stepSec),
		SampleRate: sampleRate,
		Language:   deref(language),
	}
	text, err := b.tr.TranscribeSliding(context.Background(), id, audio, opts)
	if err != nil {
		b.fail("process_audio_sliding_window", id, err)
		return false
	}
	return b.write("process_audio_sliding_window", id, text, result)
}

// ValidateWord reports whether word is in words, ignoring case.
func (b *Bridge) ValidateWord(word string, words []string) bool {
	return wordlist.Validate(word, words)
}

// GetModelInfo writes the model description of id into info.
func (b *Bridge) GetModelInfo(id int, info []byte) (ok bool) {
	defer b.recover("get_model_info", func() { ok = false })

	desc, err := b.describe(id)
	if err != nil {
		b.fail("get_model_info", id, err)
		return false
	}
	return b.write("get_model_info", id, desc, info)
}

// describe reads the model description under the instance lease. The lease
// is released even if the engine panics.
func (b *Bridge) describe(id int) (string, error) {
	lease, err := b.reg.Acquire(id)
	if err != nil {
		return "", err
	}
	defer lease.Release()
	return lease.Model().Describe(), nil
}

// Close destroys every instance.
func (b *Bridge) Close() {
	b.reg.Close()
}

func (b *Bridge) write(op string, id int, text string, buf []byte) bool {
	out, err := resultbuf.Write(text, buf, b.policy)
	if err != nil {
		b.log.Warn().Err(err).
			Str("op", op).
			Int("id", id).
			Int("text_bytes", len(text)).
			Int("capacity", len(buf)).
			Msg("result not written")
		return false
	}
	if out.Truncated {
		b.log.Warn().
			Str("op", op).
			Int("id", id).
			Int("text_bytes", len(text)).
			Int("written", out.Written).
			Msg("result truncated to buffer capacity")
	}
	return true
}

func (b *Bridge) fail(op string, id int, err error) {
	b.log.Warn().Err(err).Str("op", op).Int("id", id).Msg("call failed")
}

// recover turns a panic escaping the layers below into a failed call.
func (b *Bridge) recover(op string, onPanic func()) {
	if r := recover(); r != nil {
		b.log.Error().Str("op", op).Str("panic", fmt.Sprint(r)).Msg("recovered panic")
		onPanic()
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
