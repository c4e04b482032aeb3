package config

import (
	"errors"
	"fmt"
	"maps"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/obiente/translate/whisperbridge/internal/resultbuf"
)

type Config struct {
	ModelPath string `env:"WHISPER_MODEL_PATH" envDefault:"./models/ggml-base.bin"`
	Language  string `env:"WHISPER_LANGUAGE"`
	Threads   int    `env:"WHISPER_THREADS" envDefault:"0"`

	WindowSec  float64 `env:"WHISPER_WINDOW_SEC" envDefault:"30"`
	StepSec    float64 `env:"WHISPER_STEP_SEC" envDefault:"30"`
	SampleRate int     `env:"WHISPER_SAMPLE_RATE" envDefault:"16000"`

	ResultBufferSize int  `env:"WHISPER_RESULT_BUFFER_SIZE" envDefault:"102400"`
	TruncateResults  bool `env:"WHISPER_TRUNCATE_RESULTS" envDefault:"false"`

	StreamWindowSec    float64 `env:"WHISPER_STREAM_WINDOW_SEC" envDefault:"10"`
	StreamOverlapSec   float64 `env:"WHISPER_STREAM_OVERLAP_SEC" envDefault:"2"`
	StreamMaxBufferSec float64 `env:"WHISPER_STREAM_MAX_BUFFER_SEC" envDefault:"90"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
// Zero values are ignored.
type Overrides struct {
	EnvFile   string
	ModelPath string
	Language  string
	LogLevel  string
	WindowSec float64
	StepSec   float64
	Threads   int
	Truncate  *bool
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	return load(overrides, env.ToMap(os.Environ()))
}

// load is Load over an explicit environment, which it does not modify.
func load(overrides Overrides, environ map[string]string) (*Config, error) {
	vars := maps.Clone(environ)
	if vars == nil {
		vars = map[string]string{}
	}

	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		fileVars, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", envFile, err)
		}
		for k, v := range fileVars {
			if _, set := vars[k]; !set {
				vars[k] = v
			}
		}
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if overrides.ModelPath != "" {
		cfg.ModelPath = overrides.ModelPath
	}
	if overrides.Language != "" {
		cfg.Language = overrides.Language
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.WindowSec != 0 {
		cfg.WindowSec = overrides.WindowSec
	}
	if overrides.StepSec != 0 {
		cfg.StepSec = overrides.StepSec
	}
	if overrides.Threads != 0 {
		cfg.Threads = overrides.Threads
	}
	if overrides.Truncate != nil {
		cfg.TruncateResults = *overrides.Truncate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.ModelPath == "" {
		errs = append(errs, errors.New("WHISPER_MODEL_PATH is empty"))
	}
	if c.Threads < 0 {
		errs = append(errs, fmt.Errorf("WHISPER_THREADS must be >= 0, got %d", c.Threads))
	}
	if !(c.WindowSec > 0) {
		errs = append(errs, fmt.Errorf("WHISPER_WINDOW_SEC must be > 0, got %v", c.WindowSec))
	}
	if !(c.StepSec > 0) {
		errs = append(errs, fmt.Errorf("WHISPER_STEP_SEC must be > 0, got %v", c.StepSec))
	}
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("WHISPER_SAMPLE_RATE must be > 0, got %d", c.SampleRate))
	}
	if c.ResultBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("WHISPER_RESULT_BUFFER_SIZE must be > 0, got %d", c.ResultBufferSize))
	}
	if !(c.StreamWindowSec > 0) {
		errs = append(errs, fmt.Errorf("WHISPER_STREAM_WINDOW_SEC must be > 0, got %v", c.StreamWindowSec))
	}
	if c.StreamOverlapSec < 0 || c.StreamOverlapSec >= c.StreamWindowSec {
		errs = append(errs, fmt.Errorf("WHISPER_STREAM_OVERLAP_SEC must be in [0, window), got %v", c.StreamOverlapSec))
	}
	if c.StreamMaxBufferSec < c.StreamWindowSec {
		errs = append(errs, fmt.Errorf("WHISPER_STREAM_MAX_BUFFER_SEC must be >= the stream window, got %v", c.StreamMaxBufferSec))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ResultPolicy maps TruncateResults onto a buffer policy.
func (c *Config) ResultPolicy() resultbuf.Policy {
	if c.TruncateResults {
		return resultbuf.Truncate
	}
	return resultbuf.Reject
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
