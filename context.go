package settings

import (
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Context holds the process-scoped resolution state: the source registry and
// the singleton instance cache. Most programs use the package default
// Context; tests construct a fresh one to start from a clean slate.
type Context struct {
	registry *Registry
	logger   *slog.Logger

	mu        sync.Mutex
	instances map[instanceKey]any
	group     singleflight.Group
}

type instanceKey struct {
	typ         reflect.Type
	environment string
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger sets the logger resolution events and built-in source
// advisories are reported to. The default is slog.Default().
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *Context) { c.logger = logger }
}

// NewContext creates a Context with the built-in sources registered
// (env, file, ini, secrets) and an empty instance cache.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		instances: make(map[instanceKey]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.registry = newRegistry(c.logger)
	return c
}

// Registry returns the Context's source registry.
func (c *Context) Registry() *Registry {
	return c.registry
}

// RegisterSource registers a source under name. See Registry.Register.
func (c *Context) RegisterSource(name string, factory SourceFactory) (Source, error) {
	return c.registry.Register(name, factory)
}

// ConfigureSource configures the named source for an environment.
// See Registry.Configure.
func (c *Context) ConfigureSource(name, environment string, opts ...SourceOption) error {
	return c.registry.Configure(name, environment, opts...)
}

var defaultContext atomic.Pointer[Context]

func init() {
	defaultContext.Store(NewContext())
}

// Default returns the package default Context.
func Default() *Context {
	return defaultContext.Load()
}

// SetDefault makes c the package default Context.
func SetDefault(c *Context) {
	defaultContext.Store(c)
}

// RegisterSource registers a source on the default Context.
func RegisterSource(name string, factory SourceFactory) (Source, error) {
	return Default().RegisterSource(name, factory)
}

// ConfigureSource configures a source on the default Context.
func ConfigureSource(name, environment string, opts ...SourceOption) error {
	return Default().ConfigureSource(name, environment, opts...)
}

// Load builds (or reuses) the schema for T and resolves an instance against
// the default Context.
func Load[T any](opts ...SchemaOption) (*T, error) {
	schema, err := NewSchema[T](opts...)
	if err != nil {
		return nil, err
	}
	return schema.Instance(Default())
}

// MustLoad is like Load but panics on error.
func MustLoad[T any](opts ...SchemaOption) *T {
	instance, err := Load[T](opts...)
	if err != nil {
		panic(err)
	}
	return instance
}
