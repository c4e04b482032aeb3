package registry

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obiente/translate/whisperbridge/internal/whisper"
)

type fakeModel struct {
	closes  atomic.Int32
	busy    atomic.Int32
	maxBusy atomic.Int32
	delay   time.Duration
}

func (m *fakeModel) Infer(samples []float32, language string) (string, error) {
	n := m.busy.Add(1)
	defer m.busy.Add(-1)
	for {
		cur := m.maxBusy.Load()
		if n <= cur || m.maxBusy.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(m.delay)
	return "ok", nil
}

func (m *fakeModel) Describe() string { return "fake" }

func (m *fakeModel) Close() error {
	m.closes.Add(1)
	return nil
}

type fakeLoader struct {
	mu     sync.Mutex
	models map[string]*fakeModel
}

func newFakeLoader(paths ...string) *fakeLoader {
	l := &fakeLoader{models: make(map[string]*fakeModel)}
	for _, p := range paths {
		l.models[p] = &fakeModel{}
	}
	return l
}

func (l *fakeLoader) Load(path string) (whisper.Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.models[path]
	if !ok {
		return nil, errors.New("no such model")
	}
	return m, nil
}

func newTestRegistry(paths ...string) (*Registry, *fakeLoader) {
	l := newFakeLoader(paths...)
	return New(l, zerolog.Nop(), Hooks{}), l
}

func TestCreateThenIsValid(t *testing.T) {
	r, _ := newTestRegistry("a.bin", "b.bin")

	a, err := r.Create("a.bin")
	require.NoError(t, err)
	b, err := r.Create("b.bin")
	require.NoError(t, err)

	assert.Positive(t, a)
	assert.Positive(t, b)
	assert.NotEqual(t, a, b)
	assert.True(t, r.IsValid(a))
	assert.True(t, r.IsValid(b))
	assert.Equal(t, []int{a, b}, r.IDs())
}

func TestCreateInvalidPathRegistersNothing(t *testing.T) {
	var failures []string
	r := New(newFakeLoader(), zerolog.Nop(), Hooks{
		OnLoadFailure: func(path string, err error) { failures = append(failures, path) },
	})

	id, err := r.Create("missing.bin")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoad)
	assert.Zero(t, id)
	assert.Zero(t, r.Len())
	assert.Equal(t, []string{"missing.bin"}, failures)
}

func TestCreateNilModelIsLoadError(t *testing.T) {
	r := New(whisper.LoaderFunc(func(string) (whisper.Model, error) { return nil, nil }), zerolog.Nop(), Hooks{})
	_, err := r.Create("x.bin")
	assert.ErrorIs(t, err, ErrLoad)
	assert.Zero(t, r.Len())
}

func TestDestroyIsIdempotent(t *testing.T) {
	r, l := newTestRegistry("a.bin")
	id, err := r.Create("a.bin")
	require.NoError(t, err)

	assert.True(t, r.Destroy(id))
	assert.False(t, r.Destroy(id))
	assert.False(t, r.IsValid(id))
	assert.EqualValues(t, 1, l.models["a.bin"].closes.Load())
}

func TestUnknownIDs(t *testing.T) {
	r, _ := newTestRegistry()
	for _, id := range []int{-1, 0, 1, 42} {
		assert.False(t, r.IsValid(id))
		assert.False(t, r.Destroy(id))
		_, err := r.Acquire(id)
		assert.ErrorIs(t, err, ErrInvalidInstance)
	}
}

func TestIDsAreNeverReused(t *testing.T) {
	r, _ := newTestRegistry("a.bin")
	first, err := r.Create("a.bin")
	require.NoError(t, err)
	require.True(t, r.Destroy(first))

	second, err := r.Create("a.bin")
	require.NoError(t, err)
	assert.Greater(t, second, first)
	assert.False(t, r.IsValid(first))

	_, err = r.Acquire(first)
	assert.ErrorIs(t, err, ErrInvalidInstance)
}

func TestLeaseSerializesCallsPerInstance(t *testing.T) {
	r, l := newTestRegistry("a.bin")
	l.models["a.bin"].delay = 5 * time.Millisecond
	id, err := r.Create("a.bin")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := r.Acquire(id)
			if !assert.NoError(t, err) {
				return
			}
			defer lease.Release()
			_, _ = lease.Model().Infer(nil, "")
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, l.models["a.bin"].maxBusy.Load())
}

func TestDestroyWaitsForLease(t *testing.T) {
	r, l := newTestRegistry("a.bin")
	id, err := r.Create("a.bin")
	require.NoError(t, err)

	lease, err := r.Acquire(id)
	require.NoError(t, err)

	done := make(chan bool)
	go func() { done <- r.Destroy(id) }()

	select {
	case <-done:
		t.Fatal("Destroy returned while a lease was held")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Zero(t, l.models["a.bin"].closes.Load())

	lease.Release()
	lease.Release()
	assert.True(t, <-done)
	assert.EqualValues(t, 1, l.models["a.bin"].closes.Load())
}

func TestAcquireAfterConcurrentDestroy(t *testing.T) {
	r, _ := newTestRegistry("a.bin")
	id, err := r.Create("a.bin")
	require.NoError(t, err)

	held, err := r.Acquire(id)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		lease, err := r.Acquire(id)
		if err == nil {
			lease.Release()
		}
		errCh <- err
	}()
	// let the waiter block on the instance lock before destroying
	time.Sleep(10 * time.Millisecond)
	destroyed := make(chan bool, 1)
	go func() { destroyed <- r.Destroy(id) }()
	time.Sleep(10 * time.Millisecond)
	held.Release()

	assert.True(t, <-destroyed)
	err = <-errCh
	// the waiter either won the lock before Destroy or observed the invalidation
	if err != nil {
		assert.ErrorIs(t, err, ErrInvalidInstance)
	}
	assert.False(t, r.IsValid(id))
}

func TestConcurrentCreateDestroy(t *testing.T) {
	r, _ := newTestRegistry("a.bin")
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[int]bool{}
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := r.Create("a.bin")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			assert.False(t, ids[id], "duplicate id %d", id)
			ids[id] = true
			mu.Unlock()
			_ = r.IsValid(id)
			assert.True(t, r.Destroy(id))
		}()
	}
	wg.Wait()
	assert.Len(t, ids, 32)
	assert.Zero(t, r.Len())
}

func TestHooksAndClose(t *testing.T) {
	var created, destroyed []int
	r := New(newFakeLoader("a.bin"), zerolog.Nop(), Hooks{
		OnCreate:  func(id int) { created = append(created, id) },
		OnDestroy: func(id int) { destroyed = append(destroyed, id) },
	})
	a, _ := r.Create("a.bin")
	b, _ := r.Create("a.bin")

	r.Close()
	assert.Equal(t, []int{a, b}, created)
	assert.Equal(t, []int{a, b}, destroyed)
	assert.Zero(t, r.Len())
}
