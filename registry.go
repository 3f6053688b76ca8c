package satchel

import (
	"context"
	"sync"
)

// Factory produces a fresh default instance of a registered type. A factory
// is an arbitrary zero-argument callable; the engine does not guard against
// side effects or non-idempotence.
type Factory func() Tagged

// Registry maps type names to factories and is the sole mechanism for
// producing serializable instances. Registries are independent: a test can
// build its own without touching any other.
//
// Register all types before concurrent traffic begins. A populated registry
// is safe for concurrent Create/Serialize/Deserialize/Duplicate calls.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry

	// Policy, fixed at construction
	serializeDefaults bool
	strict            bool
}

// registryEntry holds one registered type.
type registryEntry struct {
	factory Factory
	def     Tagged // lazily built default, used only for elision comparison
}

// Option configures a Registry.
type Option func(*Registry)

// WithSerializeDefaults disables default-value elision: every non-transient
// field is serialized even when it equals the type's default.
func WithSerializeDefaults() Option {
	return func(r *Registry) {
		r.serializeDefaults = true
	}
}

// WithStrictValues makes opaque values fatal during serialization instead of
// being emitted as nil scalars. Duplication is always strict.
func WithStrictValues() Option {
	return func(r *Registry) {
		r.strict = true
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*registryEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores a factory under name. Re-registering a name silently
// overwrites the previous entry and discards its cached default.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &registryEntry{factory: factory}
}

// Create looks up name, invokes its factory, and tags the result. Every
// instance that will later be serialized or duplicated must originate here.
func (r *Registry) Create(name string) (Tagged, error) {
	r.mu.RLock()
	ent, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, newTypeError(ErrUnknownType, name)
	}

	// Factory runs outside the lock: it is arbitrary user code.
	inst := ent.factory()
	inst.tagRef().name = name

	emitObjectCreated(context.Background(), name)
	return inst, nil
}

// lookup returns the entry for name.
func (r *Registry) lookup(name string) (*registryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ent, ok := r.entries[name]
	return ent, ok
}

// defaultFor returns the cached default instance for name, building it on
// first use. The default is only ever read for structural comparison.
func (r *Registry) defaultFor(name string) (Tagged, bool) {
	// Fast path: read-lock cache check
	r.mu.RLock()
	ent, ok := r.entries[name]
	if !ok {
		r.mu.RUnlock()
		return nil, false
	}
	if ent.def != nil {
		def := ent.def
		r.mu.RUnlock()
		return def, true
	}
	r.mu.RUnlock()

	// Build outside the lock, then store with double-check so a racing
	// builder's result wins consistently.
	def := ent.factory()
	def.tagRef().name = name

	r.mu.Lock()
	defer r.mu.Unlock()
	if ent.def == nil {
		ent.def = def
	}
	return ent.def, true
}
