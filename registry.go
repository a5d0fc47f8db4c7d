package settings

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
)

// Source is one origin of raw configuration key/value pairs.
//
// Configure records configuration for a named environment (or for
// DefaultEnvironment). Repeated calls for the same environment merge:
// options overwrite only the keys they set. Fetch looks up one key's raw
// value under the given environment; a missing key is reported as absent,
// never as an error. Only genuine I/O or parse failures return errors.
//
// Fetch must be safe for concurrent use.
type Source interface {
	Configure(environment string, opts ...SourceOption) error
	Fetch(key, environment string) (value string, found bool, err error)
}

// SourceFactory constructs a fresh source instance for registration.
type SourceFactory func() Source

// Registry maps source names to their singleton instances and tracks
// per-environment configuration state. It lives on a Context and is reset
// only by discarding the Context.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*sourceEntry
}

type sourceEntry struct {
	name   string
	source Source
	kind   reflect.Type

	mu     sync.Mutex
	active map[string]bool // environments that have served at least one fetch
}

func newRegistry(logger *slog.Logger) *Registry {
	r := &Registry{entries: make(map[string]*sourceEntry)}

	secrets := NewSecretsSource()
	secrets.logger = logger

	// Built-in sources, matching the default registry of the resolution
	// model: process environment, generic config file, ini file, and
	// secret-per-file directory.
	r.entries["env"] = &sourceEntry{name: "env", source: NewEnvSource(), kind: reflect.TypeOf(&EnvSource{}), active: make(map[string]bool)}
	r.entries["file"] = &sourceEntry{name: "file", source: NewFileSource(), kind: reflect.TypeOf(&FileSource{}), active: make(map[string]bool)}
	r.entries["ini"] = &sourceEntry{name: "ini", source: NewIniSource(), kind: reflect.TypeOf(&IniSource{}), active: make(map[string]bool)}
	r.entries["secrets"] = &sourceEntry{name: "secrets", source: secrets, kind: reflect.TypeOf(&SecretsSource{}), active: make(map[string]bool)}

	return r
}

// Register binds name to a source built by factory and returns the
// registered instance. Registration is idempotent: if name is already bound
// to the same concrete type, the existing instance is returned and the new
// one is discarded. Binding a name to a different concrete type fails with
// ErrSourceConflict. Concurrent registration of one name yields exactly one
// winning instance.
func (r *Registry) Register(name string, factory SourceFactory) (Source, error) {
	if name == "" {
		return nil, fmt.Errorf("source name cannot be empty")
	}
	candidate := factory()
	if candidate == nil {
		return nil, fmt.Errorf("source factory for %q returned nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[name]; ok {
		if existing.kind != reflect.TypeOf(candidate) {
			return nil, fmt.Errorf("%w: %q is %s, not %s",
				ErrSourceConflict, name, existing.kind, reflect.TypeOf(candidate))
		}
		return existing.source, nil
	}

	r.entries[name] = &sourceEntry{
		name:   name,
		source: candidate,
		kind:   reflect.TypeOf(candidate),
		active: make(map[string]bool),
	}
	return candidate, nil
}

// Configure forwards options to the named source for the given environment.
// An empty environment configures the default scope. Configuration must
// happen before the first fetch for that environment; configuring a live
// environment fails with ErrSourceConfigured.
func (r *Registry) Configure(name, environment string, opts ...SourceOption) error {
	entry, err := r.entry(name)
	if err != nil {
		return err
	}
	return entry.configure(normalizeEnvironment(environment), opts...)
}

// Get returns the source registered under name.
func (r *Registry) Get(name string) (Source, error) {
	entry, err := r.entry(name)
	if err != nil {
		return nil, err
	}
	return entry.source, nil
}

func (r *Registry) entry(name string) (*sourceEntry, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (did you forget to register it?)", ErrUnknownSource, name)
	}
	return entry, nil
}

func (e *sourceEntry) configure(environment string, opts ...SourceOption) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active[environment] {
		return fmt.Errorf("%w: %q under %q", ErrSourceConfigured, e.name, environment)
	}
	return e.source.Configure(environment, opts...)
}

// activate applies schema-level hint options once, just before the first
// fetch for the environment. Hints use fallback options, so explicit
// Configure calls keep precedence.
func (e *sourceEntry) activate(environment string, hints []SourceOption) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active[environment] {
		return nil
	}
	if len(hints) > 0 {
		if err := e.source.Configure(environment, hints...); err != nil {
			return err
		}
	}
	e.active[environment] = true
	return nil
}

func (e *sourceEntry) fetch(key, environment string) (string, bool, error) {
	return e.source.Fetch(key, environment)
}
