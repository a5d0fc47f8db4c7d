package settings

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// resolve produces one validated instance of the descriptor's type under the
// given environment. Sources are queried in declared order; the first source
// to return a present value wins a field, declared defaults fill the rest,
// and the merged raw mapping is coerced field by field so that every failure
// is reported in one ValidationError. Any source I/O failure aborts the
// attempt; a partial instance is never returned.
func (c *Context) resolve(d *descriptor, environment string) (any, error) {
	raw := make(map[string]any, len(d.fields))

	for _, name := range d.sources {
		entry, err := c.registry.entry(name)
		if err != nil {
			return nil, err
		}
		hints := d.hintsFor(name, environment)
		if d.consulPath != "" && consumesBasePath(entry.source) {
			hints = append(hints, fallbackBasePath(d.consulPath))
		}
		if err := entry.activate(environment, hints); err != nil {
			return nil, fmt.Errorf("configure source %q for %q: %w", name, environment, err)
		}

		for i := range d.fields {
			f := &d.fields[i]
			if _, done := raw[f.Name]; done {
				continue
			}
			key, _ := f.lookupKey(name)
			value, found, err := entry.fetch(key, environment)
			if err != nil {
				return nil, fmt.Errorf("fetch %q from source %q: %w", key, name, err)
			}
			if found {
				raw[f.Name] = value
			}
		}
	}

	var failures []FieldError
	instance := reflect.New(d.goType)

	for i := range d.fields {
		f := &d.fields[i]

		value, ok := raw[f.Name]
		if !ok {
			if f.HasDefault {
				value = f.Default
			} else if f.Required {
				failures = append(failures, FieldError{Field: f.Name, Reason: "required value is missing"})
				continue
			} else {
				continue
			}
		}

		target := reflect.New(f.Type)
		if err := coerce(value, target.Interface()); err != nil {
			failures = append(failures, FieldError{
				Field:  f.Name,
				Raw:    value,
				Reason: "invalid " + f.Type.String(),
			})
			continue
		}
		instance.Elem().Field(f.Index).Set(target.Elem())
	}

	if len(failures) > 0 {
		return nil, &ValidationError{Type: d.goType.String(), Fields: failures}
	}

	c.logger.Debug("resolved configuration",
		"type", d.goType.String(),
		"environment", environment,
		"fields", len(d.fields),
	)
	return instance.Interface(), nil
}

// consumesBasePath reports whether a source resolves bare keys under a base
// path. The local built-ins ignore base paths entirely.
func consumesBasePath(s Source) bool {
	switch s.(type) {
	case *EnvSource, *FileSource, *IniSource, *SecretsSource:
		return false
	default:
		return true
	}
}

// coerce converts one raw value into the target's declared type using the
// same weakly typed mapstructure decoding the rest of the library relies on.
func coerce(value any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}
	return decoder.Decode(value)
}
