// Package registry maps small integer instance ids to loaded models.
//
// Ids are issued monotonically starting at 1 and are never reused within a
// process, so an id held after Destroy always resolves to ErrInvalidInstance.
// Each instance carries its own lock: a Lease grants exclusive use of the
// model for one call, which keeps non-reentrant engine state safe while
// different instances run concurrently.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/obiente/translate/whisperbridge/internal/whisper"
)

var (
	// ErrLoad reports a model that could not be loaded.
	ErrLoad = errors.New("registry: load model failed")
	// ErrInvalidInstance reports an unknown or destroyed instance id.
	ErrInvalidInstance = errors.New("registry: invalid instance")
)

// Hooks observe registry lifecycle events. Nil fields are skipped.
type Hooks struct {
	OnCreate      func(id int)
	OnDestroy     func(id int)
	OnLoadFailure func(modelPath string, err error)
}

type instance struct {
	id    int
	path  string
	mu    sync.Mutex // held for the duration of a Lease
	model whisper.Model
	valid bool
}

// Registry owns every live instance.
type Registry struct {
	loader whisper.Loader
	log    zerolog.Logger
	hooks  Hooks

	mu        sync.RWMutex
	instances map[int]*instance
	nextID    int
}

// New creates an empty registry that loads models through loader.
func New(loader whisper.Loader, log zerolog.Logger, hooks Hooks) *Registry {
	return &Registry{
		loader:    loader,
		log:       log.With().Str("component", "registry").Logger(),
		hooks:     hooks,
		instances: make(map[int]*instance),
	}
}

// Create loads modelPath and registers it under a fresh id.
// The model is loaded outside the table lock so slow loads do not block lookups.
func (r *Registry) Create(modelPath string) (int, error) {
	model, err := r.loader.Load(modelPath)
	if err == nil && model == nil {
		err = errors.New("loader returned no model")
	}
	if err != nil {
		r.log.Warn().Err(err).Str("model", modelPath).Msg("model load failed")
		if r.hooks.OnLoadFailure != nil {
			r.hooks.OnLoadFailure(modelPath, err)
		}
		return 0, fmt.Errorf("%w: %s: %w", ErrLoad, modelPath, err)
	}

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.instances[id] = &instance{id: id, path: modelPath, model: model, valid: true}
	live := len(r.instances)
	r.mu.Unlock()

	r.log.Info().Int("id", id).Str("model", modelPath).Int("live", live).Msg("instance created")
	if r.hooks.OnCreate != nil {
		r.hooks.OnCreate(id)
	}
	return id, nil
}

// Destroy releases the instance. It returns false for unknown or already
// destroyed ids. A call in flight on the instance finishes before the model
// is closed.
func (r *Registry) Destroy(id int) bool {
	r.mu.Lock()
	inst, ok := r.instances[id]
	if ok {
		delete(r.instances, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	inst.mu.Lock()
	inst.valid = false
	model := inst.model
	inst.model = nil
	inst.mu.Unlock()

	if err := model.Close(); err != nil {
		r.log.Warn().Err(err).Int("id", id).Msg("model close failed")
	}
	r.log.Info().Int("id", id).Str("model", inst.path).Msg("instance destroyed")
	if r.hooks.OnDestroy != nil {
		r.hooks.OnDestroy(id)
	}
	return true
}

// IsValid reports whether id denotes a live instance.
func (r *Registry) IsValid(id int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.instances[id]
	return ok
}

// Acquire borrows the instance for one call, blocking while another call
// holds it. The caller must Release the lease.
func (r *Registry) Acquire(id int) (*Lease, error) {
	r.mu.RLock()
	inst, ok := r.instances[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInstance, id)
	}

	inst.mu.Lock()
	if !inst.valid {
		// destroyed while we waited for the lock
		inst.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrInvalidInstance, id)
	}
	return &Lease{inst: inst}, nil
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// IDs returns the live instance ids in ascending order.
func (r *Registry) IDs() []int {
	r.mu.RLock()
	ids := make([]int, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Ints(ids)
	return ids
}

// Close destroys every live instance.
func (r *Registry) Close() {
	for _, id := range r.IDs() {
		r.Destroy(id)
	}
}

// Lease is exclusive, temporary access to one instance's model.
type Lease struct {
	inst *instance
	once sync.Once
}

// ID returns the leased instance id.
func (l *Lease) ID() int { return l.inst.id }

// Model returns the borrowed model. It must not be used after Release.
func (l *Lease) Model() whisper.Model { return l.inst.model }

// Release returns the instance to the registry. Extra calls are no-ops.
func (l *Lease) Release() {
	l.once.Do(l.inst.mu.Unlock)
}
