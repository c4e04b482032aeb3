// Command libwhisperbridge builds the C shared library:
//
//	go build -tags whisper_cpp -buildmode=c-shared -o libwhisperbridge.so ./cmd/libwhisperbridge
//
// Configuration comes from the environment (see internal/config); the
// model path is always passed to whisper_bridge_init.
package main

import (
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/obiente/translate/whisperbridge/internal/bridge"
	"github.com/obiente/translate/whisperbridge/internal/config"
	"github.com/obiente/translate/whisperbridge/internal/metrics"
	"github.com/obiente/translate/whisperbridge/internal/resultbuf"
	"github.com/obiente/translate/whisperbridge/internal/whisper"
)

var (
	libOnce sync.Once
	lib     *bridge.Bridge
)

// instance returns the process-wide bridge, creating it on first use.
func instance() *bridge.Bridge {
	libOnce.Do(func() {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
		logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)

		policy := resultbuf.Reject
		threads := 0
		cfg, err := config.Load(config.Overrides{})
		if err != nil {
			logger.Warn().Err(err).Msg("invalid configuration, using defaults")
		} else {
			logger = logger.Level(cfg.Level())
			policy = cfg.ResultPolicy()
			threads = cfg.Threads
		}
		log.Logger = logger

		m := metrics.New(prometheus.DefaultRegisterer)
		lib = bridge.New(bridge.Options{
			Loader:  whisper.NewLoader(whisper.Options{Threads: threads, Log: logger}),
			Metrics: m,
			Policy:  policy,
			Log:     logger,
		})
		prometheus.MustRegister(metrics.NewCollector(lib.Registry()))
		logger.Info().Str("backend", whisper.Backend()).Str("policy", policy.String()).Msg("whisper bridge ready")
	})
	return lib
}

func main() {}
