package settings_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settings"
)

func TestEnvSource(t *testing.T) {
	t.Run("Reads Process Environment", func(t *testing.T) {
		t.Setenv("MAX_CONNS", "40")

		src := settings.NewEnvSource()
		value, found, err := src.Fetch("max_conns", settings.DefaultEnvironment)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "40", value)
	})

	t.Run("Prefix Applies To Lookup Name", func(t *testing.T) {
		t.Setenv("MYAPP_TIMEOUT", "30s")

		src := settings.NewEnvSource()
		require.NoError(t, src.Configure("dev", settings.WithPrefix("MYAPP_")))

		value, found, err := src.Fetch("timeout", "dev")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "30s", value)

		// Unprefixed lookups in an unconfigured environment do not see it.
		_, found, err = src.Fetch("timeout", "prod")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Overlay File Fills Gaps", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stage.env")
		require.NoError(t, os.WriteFile(path, []byte("OVERLAY_ONLY=from-file\n"), 0o644))

		src := settings.NewEnvSource()
		require.NoError(t, src.Configure("stage", settings.WithEnvFile(path)))

		value, found, err := src.Fetch("overlay_only", "stage")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "from-file", value)
	})

	t.Run("Process Environment Wins Over Overlay", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stage.env")
		require.NoError(t, os.WriteFile(path, []byte("SHADOWED_VALUE=from-file\n"), 0o644))

		t.Setenv("SHADOWED_VALUE", "from-environ")

		src := settings.NewEnvSource()
		require.NoError(t, src.Configure("stage", settings.WithEnvFile(path)))

		value, found, err := src.Fetch("shadowed_value", "stage")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "from-environ", value)
	})

	t.Run("Conventional Env File Name", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, ".env.qa"),
			[]byte("CONVENTIONAL_VALUE=qa-value\n"),
			0o644,
		))
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { _ = os.Chdir(wd) })

		src := settings.NewEnvSource()
		value, found, err := src.Fetch("conventional_value", "qa")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "qa-value", value)
	})

	t.Run("No Overlay For Default Environment", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, ".env.default"),
			[]byte("DEFAULT_OVERLAY=should-not-load\n"),
			0o644,
		))
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { _ = os.Chdir(wd) })

		src := settings.NewEnvSource()
		_, found, err := src.Fetch("default_overlay", settings.DefaultEnvironment)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Malformed Overlay Is An Error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.env")
		require.NoError(t, os.WriteFile(path, []byte("not a dotenv line at all\n"), 0o644))

		src := settings.NewEnvSource()
		require.NoError(t, src.Configure("stage", settings.WithEnvFile(path)))

		_, _, err := src.Fetch("anything", "stage")
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
	})
}
