package settings

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SecretsSource reads one secret value per file from a configured directory,
// the way container orchestrators mount secrets. The file name is the
// upper snake form of the field key; the file content, trimmed of
// surrounding whitespace, is the raw value.
type SecretsSource struct {
	mu       sync.Mutex
	logger   *slog.Logger
	settings map[string]*sourceSettings
	warned   map[string]bool
}

// NewSecretsSource creates a SecretsSource with no configuration. It is
// registered by default under the name "secrets", where it advises through
// the Context's logger; standalone instances use slog.Default.
func NewSecretsSource() *SecretsSource {
	return &SecretsSource{
		logger:   slog.Default(),
		settings: make(map[string]*sourceSettings),
		warned:   make(map[string]bool),
	}
}

func (s *SecretsSource) Configure(environment string, opts ...SourceOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.settings[environment]
	if !ok {
		cfg = &sourceSettings{}
		s.settings[environment] = cfg
	}
	cfg.apply(opts)
	return nil
}

func (s *SecretsSource) Fetch(key, environment string) (string, bool, error) {
	s.mu.Lock()
	cfg := s.settings[environment]
	warned := s.warned[environment]
	if !warned {
		s.warned[environment] = true
	}
	s.mu.Unlock()

	if cfg == nil || cfg.dir == "" {
		return "", false, nil
	}
	dir := expandPath(cfg.dir)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if !warned {
				s.logger.Warn("secrets directory does not exist", "dir", dir)
			}
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat secrets dir %q: %w", dir, err)
	}
	if !info.IsDir() {
		return "", false, fmt.Errorf("secrets path %q is not a directory", dir)
	}

	path := filepath.Join(dir, envCase(key))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read secret file %q: %w", path, err)
	}

	return strings.TrimSpace(string(data)), true, nil
}

func (s *SecretsSource) String() string { return "secrets" }
