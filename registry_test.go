package settings_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settings"
)

func TestRegistry(t *testing.T) {
	t.Run("Builtins Are Preregistered", func(t *testing.T) {
		registry := settings.NewContext().Registry()

		for _, name := range []string{"env", "file", "ini", "secrets"} {
			src, err := registry.Get(name)
			require.NoError(t, err, "builtin %q", name)
			assert.NotNil(t, src)
		}
	})

	t.Run("Register Is Idempotent", func(t *testing.T) {
		registry := settings.NewContext().Registry()

		first, err := registry.Register("fake", func() settings.Source { return newFakeSource() })
		require.NoError(t, err)

		second, err := registry.Register("fake", func() settings.Source { return newFakeSource() })
		require.NoError(t, err)

		assert.Same(t, first, second)
	})

	t.Run("Register Conflicting Type Fails", func(t *testing.T) {
		registry := settings.NewContext().Registry()

		_, err := registry.Register("kv", func() settings.Source { return newFakeSource() })
		require.NoError(t, err)

		_, err = registry.Register("kv", func() settings.Source { return settings.NewEnvSource() })
		assert.ErrorIs(t, err, settings.ErrSourceConflict)
	})

	t.Run("Unknown Source", func(t *testing.T) {
		registry := settings.NewContext().Registry()

		_, err := registry.Get("nope")
		assert.ErrorIs(t, err, settings.ErrUnknownSource)

		err = registry.Configure("nope", "dev")
		assert.ErrorIs(t, err, settings.ErrUnknownSource)
	})

	t.Run("Concurrent Registration Yields One Instance", func(t *testing.T) {
		registry := settings.NewContext().Registry()

		const workers = 32
		results := make([]settings.Source, workers)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				src, err := registry.Register("racy", func() settings.Source { return newFakeSource() })
				assert.NoError(t, err)
				results[n] = src
			}(i)
		}
		wg.Wait()

		for i := 1; i < workers; i++ {
			assert.Same(t, results[0], results[i])
		}
	})

	t.Run("Configure After First Fetch Fails Fast", func(t *testing.T) {
		type lateConfig struct {
			Value string `default:"x"`
		}

		ctx := settings.NewContext()
		src := newFakeSource()
		_, err := ctx.RegisterSource("late", func() settings.Source { return src })
		require.NoError(t, err)

		schema, err := settings.NewSchema[lateConfig](
			settings.WithSources("late"),
			settings.WithServerEnv("stg"),
		)
		require.NoError(t, err)

		_, err = schema.Instance(ctx)
		require.NoError(t, err)

		err = ctx.ConfigureSource("late", "stg", settings.WithPrefix("X_"))
		assert.ErrorIs(t, err, settings.ErrSourceConfigured)

		// Other environments of the same source stay configurable.
		assert.NoError(t, ctx.ConfigureSource("late", "prd", settings.WithPrefix("X_")))
	})
}
