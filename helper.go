package settings

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// expandPath resolves a leading "~" against the current user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// snakeCase converts a field name to lower snake case: "MaxConns" becomes
// "max_conns", "APIKey" becomes "api_key". Names already in snake case pass
// through unchanged.
func snakeCase(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 2)

	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || (nextLower && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// envCase converts a lookup key to the upper snake convention used for
// environment variables and secret file names: "port" -> "PORT",
// "maxConns" -> "MAX_CONNS".
func envCase(key string) string {
	return strings.ToUpper(snakeCase(key))
}

// flattenValues converts a nested map to a flat map with dot-notation paths,
// so file sources can answer per-key lookups against parsed documents.
func flattenValues(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if sub, isMap := value.(map[string]any); isMap {
			for subPath, subValue := range flattenValues(sub, path) {
				flat[subPath] = subValue
			}
		} else {
			flat[path] = value
		}
	}

	return flat
}
