package settings

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/ini.v1"
)

// IniSource reads raw values from an ini-style key/value file. Keys are
// looked up in the configured section (the unnamed default section unless
// WithSection is given); a per-field override of the form "section/key"
// routes that one key to the named section instead. The file is parsed once
// per environment.
type IniSource struct {
	mu       sync.Mutex
	settings map[string]*sourceSettings
	parsed   map[string]*ini.File
}

// NewIniSource creates an IniSource with no configuration. It is registered
// by default under the name "ini".
func NewIniSource() *IniSource {
	return &IniSource{
		settings: make(map[string]*sourceSettings),
		parsed:   make(map[string]*ini.File),
	}
}

func (s *IniSource) Configure(environment string, opts ...SourceOption) error {
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

func (s *IniSource) Fetch(key, environment string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.settings[environment]
	if cfg == nil || cfg.path == "" {
		return "", false, nil
	}

	file, err := s.load(cfg, environment)
	if err != nil {
		return "", false, err
	}

	// A section-qualified key bypasses the configured section.
	name := cfg.section
	if qualifier, rest, ok := strings.Cut(key, "/"); ok {
		name, key = qualifier, rest
	}

	section, err := s.section(file, name)
	if err != nil {
		return "", false, err
	}

	// Explicit per-field overrides are tried verbatim first; derived names
	// use the lower snake convention.
	for _, candidate := range []string{key, strings.ToLower(snakeCase(key))} {
		if section.HasKey(candidate) {
			return section.Key(candidate).String(), true, nil
		}
	}
	return "", false, nil
}

// load parses the environment's ini file once and caches it.
// Called with s.mu held.
func (s *IniSource) load(cfg *sourceSettings, environment string) (*ini.File, error) {
	if cached, ok := s.parsed[environment]; ok {
		return cached, nil
	}

	path := expandPath(cfg.path)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("stat ini file %q: %w", path, err)
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("parse ini file %q: %w", path, err)
	}
	s.parsed[environment] = file
	return file, nil
}

func (s *IniSource) section(file *ini.File, name string) (*ini.Section, error) {
	if name == "" {
		return file.Section(ini.DefaultSection), nil
	}
	section, err := file.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("ini section %q does not exist: %w", name, err)
	}
	return section, nil
}

func (s *IniSource) String() string { return "ini" }
