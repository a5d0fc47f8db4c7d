package settings

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

// Field is one declared configuration field of a schema: its logical name,
// declared Go type, default-or-required marker, and any per-source key
// overrides. Fields are immutable once the schema is built.
type Field struct {
	Name       string // logical name, lower snake
	GoName     string
	Index      int
	Type       reflect.Type
	Default    string
	HasDefault bool
	Required   bool
	Keys       map[string]string // per-source lookup key overrides
}

// lookupKey returns the key a source should be asked for, and whether it is
// an explicit override. The secrets source shares the env override, matching
// the env-style file names it reads.
func (f *Field) lookupKey(source string) (string, bool) {
	if key, ok := f.Keys[source]; ok {
		return key, true
	}
	if source == "secrets" {
		if key, ok := f.Keys["env"]; ok {
			return key, true
		}
	}
	return f.Name, false
}

// descriptor is the schema of one declaring type: its ordered fields plus
// the type-level resolution settings. Built at most once per declaring type
// and cached for the process lifetime.
type descriptor struct {
	goType      reflect.Type
	fields      []Field
	sources     []string
	environment EnvironmentFunc
	singleton   bool
	consulPath  string
	envConfig   map[string]map[string][]SourceOption
}

// SchemaOption configures type-level schema settings.
type SchemaOption func(*descriptor)

// WithSources declares the ordered list of source names values are resolved
// from. The first source to define a field wins; order sources from most
// authoritative to least. The default is just "env".
func WithSources(names ...string) SchemaOption {
	return func(d *descriptor) { d.sources = names }
}

// WithServerEnv pins the active environment to a literal string.
func WithServerEnv(environment string) SchemaOption {
	return func(d *descriptor) {
		d.environment = func() string { return environment }
	}
}

// WithServerEnvFunc sets the environment selector function, evaluated at
// resolution time. The default selector is ServerEnv.
func WithServerEnvFunc(fn EnvironmentFunc) SchemaOption {
	return func(d *descriptor) { d.environment = fn }
}

// WithSingleton controls instance caching. Singleton schemas (the default)
// resolve at most once per (declaring type, environment); non-singleton
// schemas resolve freshly on every Instance call.
func WithSingleton(enabled bool) SchemaOption {
	return func(d *descriptor) { d.singleton = enabled }
}

// WithConsulPath sets the base path hint remote sources resolve bare field
// keys under. Explicit WithBasePath configuration on the source wins.
func WithConsulPath(path string) SchemaOption {
	return func(d *descriptor) { d.consulPath = path }
}

// WithEnvironmentConfig attaches source configuration that is applied to the
// named source when this schema first resolves under the given environment,
// e.g. a per-environment config file path or remote address.
func WithEnvironmentConfig(environment, source string, opts ...SourceOption) SchemaOption {
	return func(d *descriptor) {
		environment = normalizeEnvironment(environment)
		if d.envConfig == nil {
			d.envConfig = make(map[string]map[string][]SourceOption)
		}
		if d.envConfig[environment] == nil {
			d.envConfig[environment] = make(map[string][]SourceOption)
		}
		d.envConfig[environment][source] = append(d.envConfig[environment][source], opts...)
	}
}

func (d *descriptor) environmentName() string {
	return normalizeEnvironment(d.environment())
}

// hintsFor collects the schema-level options applied when a source first
// activates for an environment. The consul path hint is handled separately,
// since only base-path sources consume it.
func (d *descriptor) hintsFor(source, environment string) []SourceOption {
	var hints []SourceOption
	if perEnv, ok := d.envConfig[environment]; ok {
		hints = append(hints, perEnv[source]...)
	}
	return hints
}

// Schema is the typed descriptor of one configuration struct T. Create one
// with NewSchema or MustSchema; resolve instances with Instance.
type Schema[T any] struct {
	desc *descriptor
}

// NewSchema builds the schema for T from its struct tags and the given
// type-level options. The descriptor is built once per declaring type and
// cached for the process lifetime; later calls for the same T return the
// cached descriptor and ignore their options.
func NewSchema[T any](opts ...SchemaOption) (*Schema[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	d, err := buildDescriptor(t, opts)
	if err != nil {
		return nil, err
	}
	return &Schema[T]{desc: d}, nil
}

// MustSchema is like NewSchema but panics on a schema error. Intended for
// package-level schema variables.
func MustSchema[T any](opts ...SchemaOption) *Schema[T] {
	s, err := NewSchema[T](opts...)
	if err != nil {
		panic(err)
	}
	return s
}

var descriptors sync.Map // reflect.Type -> *descriptor

// sourceTagNames are the struct tags recognized as per-source key overrides.
var sourceTagNames = []string{"env", "file", "ini", "consul"}

// resolvedSourceKey normalizes a field's lookup key the way the named source
// will, so declarations that end up reading the same key are caught when the
// schema is built.
func resolvedSourceKey(source string, f *Field) string {
	key, _ := f.lookupKey(source)
	switch source {
	case "env":
		return envCase(key)
	case "consul":
		if strings.Contains(key, "/") {
			return strings.TrimPrefix(key, "/")
		}
		return strings.ToLower(snakeCase(key))
	case "ini":
		if section, rest, ok := strings.Cut(key, "/"); ok {
			return section + "/" + strings.ToLower(snakeCase(rest))
		}
		return strings.ToLower(snakeCase(key))
	default:
		return strings.ToLower(snakeCase(key))
	}
}

func buildDescriptor(t reflect.Type, opts []SchemaOption) (*descriptor, error) {
	if cached, ok := descriptors.Load(t); ok {
		return cached.(*descriptor), nil
	}

	if t.Kind() != reflect.Struct {
		return nil, &SchemaError{Type: t.String(), Reason: "declaring type must be a struct"}
	}

	d := &descriptor{
		goType:      t,
		sources:     []string{"env"},
		environment: ServerEnv,
		singleton:   true,
	}
	for _, opt := range opts {
		opt(d)
	}
	if len(d.sources) == 0 {
		d.sources = []string{"env"}
	}

	seenNames := make(map[string]string)
	seenKeys := make(map[string]map[string]string)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("setting")
		if tag == "-" {
			continue
		}

		field := Field{
			Name:   snakeCase(sf.Name),
			GoName: sf.Name,
			Index:  i,
			Type:   sf.Type,
			Keys:   make(map[string]string),
		}
		if tag != "" {
			field.Name = tag
		}

		if !supportedFieldType(sf.Type) {
			return nil, &SchemaError{
				Type:   t.String(),
				Reason: fmt.Sprintf("field %s has unsupported type %s", sf.Name, sf.Type),
			}
		}

		for _, source := range sourceTagNames {
			if key, ok := sf.Tag.Lookup(source); ok && key != "" {
				field.Keys[source] = key
			}
		}

		if value, ok := sf.Tag.Lookup("default"); ok {
			field.Default = value
			field.HasDefault = true
		}
		field.Required = !field.HasDefault && !strings.EqualFold(sf.Tag.Get("optional"), "true")

		if prev, dup := seenNames[field.Name]; dup {
			return nil, &SchemaError{
				Type:   t.String(),
				Reason: fmt.Sprintf("fields %s and %s collide on name %q", prev, sf.Name, field.Name),
			}
		}
		seenNames[field.Name] = sf.Name

		// Derived keys collide with explicit overrides too, so both are
		// normalized into one per-source set before the duplicate check.
		for _, source := range sourceTagNames {
			resolved := resolvedSourceKey(source, &field)
			if seenKeys[source] == nil {
				seenKeys[source] = make(map[string]string)
			}
			if prev, dup := seenKeys[source][resolved]; dup {
				return nil, &SchemaError{
					Type:   t.String(),
					Reason: fmt.Sprintf("fields %s and %s collide on %s key %q", prev, sf.Name, source, resolved),
				}
			}
			seenKeys[source][resolved] = sf.Name
		}

		d.fields = append(d.fields, field)
	}

	actual, _ := descriptors.LoadOrStore(t, d)
	return actual.(*descriptor), nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func supportedFieldType(t reflect.Type) bool {
	if t == durationType {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return supportedFieldType(t.Elem())
	case reflect.Map:
		return t.Key().Kind() == reflect.String && supportedFieldType(t.Elem())
	default:
		return false
	}
}
