package settings_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settings"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource(t *testing.T) {
	t.Run("TOML", func(t *testing.T) {
		path := writeConfigFile(t, "app.toml", `
name = "svc-a"
port = 9000

[server]
host = "0.0.0.0"
`)

		src := settings.NewFileSource()
		require.NoError(t, src.Configure("dev", settings.WithPath(path)))

		value, found, err := src.Fetch("name", "dev")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "svc-a", value)

		value, found, err = src.Fetch("port", "dev")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "9000", value)
	})

	t.Run("JSON", func(t *testing.T) {
		path := writeConfigFile(t, "app.json", `{"name": "svc-a", "port": 9000}`)

		src := settings.NewFileSource()
		require.NoError(t, src.Configure("dev", settings.WithPath(path)))

		value, found, err := src.Fetch("port", "dev")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "9000", value)
	})

	t.Run("YAML", func(t *testing.T) {
		path := writeConfigFile(t, "app.yaml", "name: svc-a\nport: 9000\n")

		src := settings.NewFileSource()
		require.NoError(t, src.Configure("dev", settings.WithPath(path)))

		value, found, err := src.Fetch("name", "dev")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "svc-a", value)
	})

	t.Run("Nested Keys Use Dot Notation", func(t *testing.T) {
		path := writeConfigFile(t, "app.toml", `
[server]
host = "10.0.0.1"
port = 8443
`)

		src := settings.NewFileSource()
		require.NoError(t, src.Configure("dev", settings.WithPath(path)))

		value, found, err := src.Fetch("server.host", "dev")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "10.0.0.1", value)

		// The bare leaf name does not match a nested key.
		_, found, err = src.Fetch("host", "dev")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Format Sniffed Without Extension", func(t *testing.T) {
		path := writeConfigFile(t, "appconfig", `{"sniffed": "yes"}`)

		src := settings.NewFileSource()
		require.NoError(t, src.Configure("dev", settings.WithPath(path)))

		value, found, err := src.Fetch("sniffed", "dev")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "yes", value)
	})

	t.Run("Configured Path Must Exist", func(t *testing.T) {
		src := settings.NewFileSource()
		require.NoError(t, src.Configure("dev", settings.WithPath("/nonexistent/app.toml")))

		_, _, err := src.Fetch("name", "dev")
		assert.ErrorIs(t, err, settings.ErrConfigNotFound)
	})

	t.Run("No Path Means No Opinion", func(t *testing.T) {
		src := settings.NewFileSource()
		_, found, err := src.Fetch("name", "dev")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Environments Parse Independent Files", func(t *testing.T) {
		devPath := writeConfigFile(t, "dev.toml", "region = \"eu\"\n")
		prdPath := writeConfigFile(t, "prd.toml", "region = \"us\"\n")

		src := settings.NewFileSource()
		require.NoError(t, src.Configure("dev", settings.WithPath(devPath)))
		require.NoError(t, src.Configure("prd", settings.WithPath(prdPath)))

		value, _, err := src.Fetch("region", "dev")
		require.NoError(t, err)
		assert.Equal(t, "eu", value)

		value, _, err = src.Fetch("region", "prd")
		require.NoError(t, err)
		assert.Equal(t, "us", value)
	})
}
