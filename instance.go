package settings

import "fmt"

// Instance returns the resolved configuration for the schema's declaring
// type under the Context.
//
// Singleton schemas (the default) resolve at most once per (declaring type,
// environment): concurrent first callers share a single in-flight
// resolution, and the winning instance is cached for the life of the
// Context. A failed resolution is never cached, so a later call re-attempts
// after the underlying problem is fixed. Non-singleton schemas resolve
// freshly on every call and the caller owns the instance.
//
// The returned struct is shared when cached; treat it as read-only.
func (s *Schema[T]) Instance(ctx *Context) (*T, error) {
	d := s.desc
	environment := d.environmentName()

	if !d.singleton {
		resolved, err := ctx.resolve(d, environment)
		if err != nil {
			return nil, err
		}
		return resolved.(*T), nil
	}

	key := instanceKey{typ: d.goType, environment: environment}

	ctx.mu.Lock()
	cached, ok := ctx.instances[key]
	ctx.mu.Unlock()
	if ok {
		return cached.(*T), nil
	}

	// Descriptors are cached one per declaring type for the process lifetime,
	// so the pointer identifies the type even when two types share a name.
	flight := fmt.Sprintf("%p\x00%s", d, environment)
	resolved, err, _ := ctx.group.Do(flight, func() (any, error) {
		ctx.mu.Lock()
		cached, ok := ctx.instances[key]
		ctx.mu.Unlock()
		if ok {
			return cached, nil
		}

		instance, err := ctx.resolve(d, environment)
		if err != nil {
			return nil, err
		}

		ctx.mu.Lock()
		ctx.instances[key] = instance
		ctx.mu.Unlock()
		return instance, nil
	})
	if err != nil {
		return nil, err
	}
	return resolved.(*T), nil
}
