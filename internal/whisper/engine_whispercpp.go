//go:build whisper_cpp

package whisper

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	whisperpkg "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog"
)

type cppLoader struct {
	threads uint
	log     zerolog.Logger
}

// cppModel is the whisper.cpp-backed Model. A fresh whisper context is
// created for every Infer call so windows never share decoder state.
type cppModel struct {
	model   whisperpkg.Model
	path    string
	threads uint
	log     zerolog.Logger
}

// NewLoader returns the loader compiled into this build.
func NewLoader(opts Options) Loader {
	threads := uint(runtime.NumCPU())
	if opts.Threads > 0 {
		threads = uint(opts.Threads)
		opts.Log.Info().Int("threads", opts.Threads).Msg("whisper: using configured thread count")
	} else {
		opts.Log.Info().Uint("threads", threads).Msg("whisper: using default thread count (CPU cores)")
	}
	return &cppLoader{threads: threads, log: opts.Log}
}

// Backend names the engine compiled into this build.
func Backend() string { return "whisper.cpp" }

func (l *cppLoader) Load(modelPath string) (Model, error) {
	if _, err := checkModelFile(modelPath); err != nil {
		return nil, err
	}
	m, err := whisperpkg.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	l.log.Info().Str("model", modelPath).Msg("whisper: model loaded successfully")
	return &cppModel{model: m, path: modelPath, threads: l.threads, log: l.log}, nil
}

func (m *cppModel) Infer(samples []float32, language string) (string, error) {
	if m.model == nil {
		return "", errors.New("whisper: model closed")
	}
	if len(samples) == 0 {
		return "", nil
	}

	ctx, err := m.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create context: %w", err)
	}
	ctx.SetThreads(m.threads)
	lang, set, err := languageFor(m.model.IsMultilingual(), language)
	if err != nil {
		return "", err
	}
	if set {
		if err := ctx.SetLanguage(lang); err != nil {
			return "", fmt.Errorf("set language %q: %w", lang, err)
		}
	}
	ctx.SetSplitOnWord(true)
	ctx.SetTokenTimestamps(true)
	ctx.SetMaxSegmentLength(0)
	ctx.SetMaxTokensPerSegment(0)
	ctx.SetAudioCtx(0)

	start := time.Now()
	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("process audio: %w", err)
	}

	var segments []string
	for {
		seg, err := ctx.NextSegment()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", fmt.Errorf("read segment: %w", err)
		}
		if text := strings.TrimSpace(seg.Text); text != "" {
			segments = append(segments, text)
		}
	}

	detected := ctx.Language()
	if detected == "" || detected == "auto" {
		detected = ctx.DetectedLanguage()
	}
	full := strings.Join(segments, " ")
	m.log.Debug().
		Str("lang", detected).
		Int("segments", len(segments)).
		Int("samples", len(samples)).
		Dur("took", time.Since(start)).
		Msg("whisper: transcription complete")
	return full, nil
}

func (m *cppModel) Describe() string {
	if m.model == nil {
		return "whisper.cpp; closed"
	}
	return fmt.Sprintf("whisper.cpp; model=%s; multilingual=%t; languages=%d; threads=%d",
		filepath.Base(m.path), m.model.IsMultilingual(), len(m.model.Languages()), m.threads)
}

func (m *cppModel) Close() error {
	if m.model == nil {
		return nil
	}
	err := m.model.Close()
	m.model = nil
	return err
}
