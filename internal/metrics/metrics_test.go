package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCount int

func (f fixedCount) Len() int { return int(f) }

func TestRegistryHooksCount(t *testing.T) {
	m := New(prometheus.NewRegistry())
	hooks := m.RegistryHooks()

	hooks.OnCreate(1)
	hooks.OnCreate(2)
	hooks.OnDestroy(1)
	hooks.OnLoadFailure("x.bin", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InstancesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InstancesDestroyed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadFailures))
}

func TestTranscriptionAndInference(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Transcription(ModeSliding, "ok")
	m.Transcription(ModeSliding, "ok")
	m.Transcription(ModeSingle, "empty_audio")
	m.Inference(ModeSliding, 20*time.Millisecond)
	m.Inference(ModeSingle, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transcriptions.WithLabelValues(ModeSliding, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transcriptions.WithLabelValues(ModeSingle, "empty_audio")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Windows))
	assert.Equal(t, 2, testutil.CollectAndCount(m.InferenceDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transcription(ModeSingle, "ok")
		m.Inference(ModeSingle, time.Second)
		hooks := m.RegistryHooks()
		assert.Nil(t, hooks.OnCreate)
	})
}

func TestCollectorReportsLiveInstances(t *testing.T) {
	c := NewCollector(fixedCount(3))
	expected := `
# HELP whisperbridge_instances_active Current number of live model instances.
# TYPE whisperbridge_instances_active gauge
whisperbridge_instances_active 3
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))

	assert.Equal(t, 0.0, testutil.ToFloat64(NewCollector(nil)))
}
