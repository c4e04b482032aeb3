package whisper

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// SampleRate is the rate whisper models are trained on.
const SampleRate = 16000

// ggmlMagic is the little-endian file magic of ggml model files ("ggml").
const ggmlMagic = 0x67676d6c

var (
	// ErrUnsupportedFormat is returned when a file is not a ggml model.
	ErrUnsupportedFormat = errors.New("whisper: unsupported model format")
	// ErrUnsupportedLanguage is returned for a non-English hint on an
	// English-only model.
	ErrUnsupportedLanguage = errors.New("whisper: language not supported by model")
)

// Model is one loaded inference engine instance.
// Implementations are not reentrant: callers must serialize Infer calls.
type Model interface {
	// Infer transcribes mono PCM32F samples. An empty language means auto-detect.
	Infer(samples []float32, language string) (string, error)
	// Describe returns human-readable model metadata.
	Describe() string
	Close() error
}

// Loader turns a model path into a Model.
type Loader interface {
	Load(modelPath string) (Model, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(modelPath string) (Model, error)

// Load calls f(modelPath).
func (f LoaderFunc) Load(modelPath string) (Model, error) { return f(modelPath) }

// Options configures the default loader.
type Options struct {
	// Threads used per inference call; 0 selects the number of CPUs.
	Threads int
	Log     zerolog.Logger
}

// checkModelFile rejects paths that cannot hold a ggml model before the
// engine gets a chance to abort on them.
func checkModelFile(modelPath string) (int64, error) {
	if modelPath == "" {
		return 0, errors.New("whisper: model path required")
	}
	fi, err := os.Stat(modelPath)
	if err != nil {
		return 0, fmt.Errorf("whisper: stat model: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return 0, fmt.Errorf("whisper: %s is not a regular file", modelPath)
	}
	f, err := os.Open(modelPath)
	if err != nil {
		return 0, fmt.Errorf("whisper: open model: %w", err)
	}
	defer f.Close()

	var magic uint32
	if err := binary.Read(f, binary.LittleEndian, &magic); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%w: %s is truncated", ErrUnsupportedFormat, modelPath)
		}
		return 0, fmt.Errorf("whisper: read model header: %w", err)
	}
	if magic != ggmlMagic {
		return 0, fmt.Errorf("%w: bad magic %#x in %s", ErrUnsupportedFormat, magic, modelPath)
	}
	return fi.Size(), nil
}

// languageFor decides the language to set on a context. English-only
// models reject SetLanguage outright, so nothing is set for them and only
// an explicit non-English hint is an error.
func languageFor(multilingual bool, hint string) (lang string, set bool, err error) {
	if multilingual {
		return normaliseLanguage(hint), true, nil
	}
	switch strings.ToLower(hint) {
	case "", "auto", "en":
		return "en", false, nil
	}
	return "", false, fmt.Errorf("%w: %q on an English-only model", ErrUnsupportedLanguage, hint)
}

func normaliseLanguage(lang string) string {
	if lang == "" {
		return "auto"
	}
	return lang
}
