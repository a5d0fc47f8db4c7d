package settings

import (
	"fmt"
	"os"
	"sync"

	"github.com/subosito/gotenv"
)

// EnvSource reads raw values from the process environment. When an
// environment other than DefaultEnvironment is active it also overlays a
// dotenv file (".env.{environment}" unless configured via WithEnvFile),
// consulted only for names the real environment does not define.
//
// Lookup names follow the upper snake convention: the field "max_conns"
// is read from MAX_CONNS, optionally behind a configured prefix.
type EnvSource struct {
	mu       sync.Mutex
	settings map[string]*sourceSettings
	overlays map[string]map[string]string
}

// NewEnvSource creates an EnvSource with no configuration. It is registered
// by default under the name "env".
func NewEnvSource() *EnvSource {
	return &EnvSource{
		settings: make(map[string]*sourceSettings),
		overlays: make(map[string]map[string]string),
	}
}

func (s *EnvSource) Configure(environment string, opts ...SourceOption) error {
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

func (s *EnvSource) Fetch(key, environment string) (string, bool, error) {
	s.mu.Lock()
	cfg := s.settings[environment]
	if cfg == nil {
		cfg = &sourceSettings{}
	}
	name := cfg.prefix + envCase(key)

	overlay, err := s.overlay(cfg, environment)
	s.mu.Unlock()
	if err != nil {
		return "", false, err
	}

	if value, ok := os.LookupEnv(name); ok {
		return value, true, nil
	}
	if value, ok := overlay[name]; ok {
		return value, true, nil
	}
	return "", false, nil
}

// overlay parses the environment's dotenv file once and caches the mapping.
// A missing file is not an error; the source simply has no overlay. Called
// with s.mu held.
func (s *EnvSource) overlay(cfg *sourceSettings, environment string) (map[string]string, error) {
	if cached, ok := s.overlays[environment]; ok {
		return cached, nil
	}

	path := cfg.envFile
	if path == "" {
		if environment == DefaultEnvironment {
			s.overlays[environment] = map[string]string{}
			return s.overlays[environment], nil
		}
		path = ".env." + environment
	}
	path = expandPath(path)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			s.overlays[environment] = map[string]string{}
			return s.overlays[environment], nil
		}
		return nil, fmt.Errorf("stat env file %q: %w", path, err)
	}

	values, err := gotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parse env file %q: %w", path, err)
	}

	overlay := make(map[string]string, len(values))
	for k, v := range values {
		overlay[k] = v
	}
	s.overlays[environment] = overlay
	return overlay, nil
}

func (s *EnvSource) String() string { return "env" }
