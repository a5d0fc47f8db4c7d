package settings

import (
	"os"
	"strings"
)

// DefaultEnvironment is the environment used when a schema declares no
// selector at all, or the selector evaluates to an empty string. Sources
// apply no environment-specific overlays under it.
const DefaultEnvironment = "default"

// EnvironmentFunc selects the active deployment environment for a schema.
// It is evaluated at resolution time; the result is lowercased.
type EnvironmentFunc func() string

// ServerEnv is the default environment selector. It reads the SERVER_ENV
// process variable and falls back to "local".
func ServerEnv() string {
	if env := os.Getenv("SERVER_ENV"); env != "" {
		return strings.ToLower(env)
	}
	return "local"
}

func normalizeEnvironment(env string) string {
	env = strings.ToLower(strings.TrimSpace(env))
	if env == "" {
		return DefaultEnvironment
	}
	return env
}
