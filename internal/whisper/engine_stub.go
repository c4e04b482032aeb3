//go:build !whisper_cpp

package whisper

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Default stub (no cgo) so the project builds without the whisper_cpp tag.
// It validates model files like the real loader and returns deterministic text.
type stubLoader struct {
	opts Options
}

type stubModel struct {
	path   string
	size   int64
	closed bool
}

// NewLoader returns the loader compiled into this build.
func NewLoader(opts Options) Loader { return &stubLoader{opts: opts} }

// Backend names the engine compiled into this build.
func Backend() string { return "stub" }

func (l *stubLoader) Load(modelPath string) (Model, error) {
	size, err := checkModelFile(modelPath)
	if err != nil {
		return nil, err
	}
	l.opts.Log.Warn().Str("model", modelPath).Msg("whisper: built without whisper_cpp, using stub engine")
	return &stubModel{path: modelPath, size: size}, nil
}

func (m *stubModel) Infer(samples []float32, language string) (string, error) {
	if m.closed {
		return "", errors.New("whisper: model closed")
	}
	return fmt.Sprintf("[stub:%s] %d samples", normaliseLanguage(language), len(samples)), nil
}

func (m *stubModel) Describe() string {
	return fmt.Sprintf("stub engine; model=%s; size=%d bytes", filepath.Base(m.path), m.size)
}

func (m *stubModel) Close() error {
	m.closed = true
	return nil
}
