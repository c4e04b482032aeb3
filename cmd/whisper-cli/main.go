package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/obiente/translate/whisperbridge/internal/audio"
	"github.com/obiente/translate/whisperbridge/internal/bridge"
	"github.com/obiente/translate/whisperbridge/internal/config"
	"github.com/obiente/translate/whisperbridge/internal/metrics"
	"github.com/obiente/translate/whisperbridge/internal/resultbuf"
	"github.com/obiente/translate/whisperbridge/internal/stream"
	"github.com/obiente/translate/whisperbridge/internal/whisper"
	"github.com/obiente/translate/whisperbridge/internal/wordlist"
)

// streamChunk is how much audio the stream mode feeds per Append, mimicking
// a capture callback.
const streamChunk = whisper.SampleRate / 10

func main() {
	var (
		envFile   = flag.String("env", "", "path to .env file (default .env)")
		modelPath = flag.String("model", "", "model file (overrides WHISPER_MODEL_PATH)")
		audioPath = flag.String("audio", "", "input .wav, .pcm or .raw file")
		mode      = flag.String("mode", "single", "single, sliding or stream")
		language  = flag.String("lang", "", "language code, empty for auto-detect")
		windowSec = flag.Float64("window", 0, "sliding window length in seconds")
		stepSec   = flag.Float64("step", 0, "sliding window step in seconds")
		threads   = flag.Int("threads", 0, "inference threads")
		logLevel  = flag.String("log-level", "", "log level")
		truncate  = flag.Bool("truncate", false, "truncate results that do not fit the result buffer")
		info      = flag.Bool("info", false, "print model info")
		wordsPath = flag.String("words", "", "word list file, one word per line")
		expect    = flag.String("expect", "", "expected transcript to compare against")
		dumpStats = flag.Bool("metrics", false, "print metrics to stderr on exit")
	)
	flag.Parse()

	overrides := config.Overrides{
		EnvFile:   *envFile,
		ModelPath: *modelPath,
		Language:  *language,
		LogLevel:  *logLevel,
		WindowSec: *windowSec,
		StepSec:   *stepSec,
		Threads:   *threads,
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "truncate" {
			overrides.Truncate = truncate
		}
	})

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *audioPath, *mode, *info, *wordsPath, *expect, *dumpStats); err != nil {
		log.Error().Err(err).Msg("whisper-cli failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, audioPath, mode string, info bool, wordsPath, expect string, dumpStats bool) error {
	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	b := bridge.New(bridge.Options{
		Loader:  whisper.NewLoader(whisper.Options{Threads: cfg.Threads, Log: log.Logger}),
		Metrics: m,
		Policy:  cfg.ResultPolicy(),
		Log:     log.Logger,
	})
	defer b.Close()
	promReg.MustRegister(metrics.NewCollector(b.Registry()))
	if dumpStats {
		defer dumpMetrics(promReg)
	}

	log.Info().Str("model", cfg.ModelPath).Str("backend", whisper.Backend()).Msg("loading model")
	id := b.Init(cfg.ModelPath)
	if id < 0 {
		return fmt.Errorf("could not load model %s", cfg.ModelPath)
	}
	defer b.Free(id)

	if info {
		buf := make([]byte, 1024)
		if !b.GetModelInfo(id, buf) {
			return errors.New("model info unavailable")
		}
		fmt.Println(resultbuf.Read(buf))
	}
	if audioPath == "" {
		if info {
			return nil
		}
		return errors.New("-audio is required")
	}

	samples, err := audio.LoadFile(audioPath, cfg.SampleRate)
	if err != nil {
		return err
	}
	log.Info().
		Str("file", audioPath).
		Int("samples", len(samples)).
		Float64("seconds", float64(len(samples))/whisper.SampleRate).
		Str("mode", mode).
		Msg("audio loaded")

	var lang *string
	if cfg.Language != "" {
		lang = &cfg.Language
	}

	var text string
	switch mode {
	case "single":
		buf := make([]byte, cfg.ResultBufferSize)
		if !b.ProcessAudio(id, samples, lang, buf) {
			return errors.New("transcription failed")
		}
		text = resultbuf.Read(buf)
	case "sliding":
		buf := make([]byte, cfg.ResultBufferSize)
		if !b.ProcessAudioSlidingWindow(id, samples, float32(cfg.WindowSec), float32(cfg.StepSec), whisper.SampleRate, lang, buf) {
			return errors.New("sliding window transcription failed")
		}
		text = resultbuf.Read(buf)
	case "stream":
		text, err = streamFile(ctx, cfg, b, m, id, samples)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	fmt.Println(text)

	if wordsPath != "" {
		if err := reportWords(b, text, wordsPath); err != nil {
			return err
		}
	}
	if expect != "" {
		c := wordlist.Compare(text, expect)
		fmt.Printf("exact=%t matched=%d/%d similarity=%.2f\n", c.Exact, c.Matched, c.Total, c.Similarity)
	}
	return nil
}

// streamFile feeds samples to a rolling stream in small chunks and prints
// each delta as it is produced.
func streamFile(ctx context.Context, cfg *config.Config, b *bridge.Bridge, m *metrics.Metrics, id int, samples []float32) (string, error) {
	s, err := stream.New(b.Transcriber(), id, stream.Options{
		WindowSec:    cfg.StreamWindowSec,
		OverlapSec:   cfg.StreamOverlapSec,
		MaxBufferSec: cfg.StreamMaxBufferSec,
		Language:     cfg.Language,
	}, m, log.Logger)
	if err != nil {
		return "", err
	}

	emit := func(seg stream.Segment) {
		if seg.Delta != "" {
			fmt.Fprintf(os.Stderr, "[%6.2fs - %6.2fs] %s\n", seg.Start.Seconds(), seg.End.Seconds(), seg.Delta)
		}
	}
	for off := 0; off < len(samples); off += streamChunk {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		s.Append(samples[off:min(off+streamChunk, len(samples))])
		seg, ok, err := s.Process(ctx)
		if err != nil {
			return "", err
		}
		if ok {
			emit(seg)
		}
	}
	seg, ok, err := s.Flush(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		emit(seg)
	}
	return s.Transcript(), nil
}

func reportWords(b *bridge.Bridge, text, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			words = append(words, w)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var known, unknown []string
	for _, field := range strings.Fields(text) {
		w := wordlist.Normalize(field)
		if w == "" {
			continue
		}
		if b.ValidateWord(w, words) {
			known = append(known, w)
		} else {
			unknown = append(unknown, w)
		}
	}
	fmt.Printf("known words: %d, unknown: %d %v\n", len(known), len(unknown), unknown)
	return nil
}

func dumpMetrics(g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		log.Warn().Err(err).Msg("gather metrics")
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stderr, mf); err != nil {
			log.Warn().Err(err).Msg("write metrics")
			return
		}
	}
}
