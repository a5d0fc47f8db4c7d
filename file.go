package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileSource reads raw values from a structured config file (TOML, JSON or
// YAML). The format is detected from the file extension, falling back to
// content sniffing. The file is parsed once per environment and the flattened
// document cached; nested tables answer dot-notation keys.
//
// A source with no configured path has no opinion on any key. A configured
// path that does not exist is a fatal error.
type FileSource struct {
	mu       sync.Mutex
	settings map[string]*sourceSettings
	parsed   map[string]map[string]string
}

// NewFileSource creates a FileSource with no configuration. It is registered
// by default under the name "file".
func NewFileSource() *FileSource {
	return &FileSource{
		settings: make(map[string]*sourceSettings),
		parsed:   make(map[string]map[string]string),
	}
}

func (s *FileSource) Configure(environment string, opts ...SourceOption) error {
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

func (s *FileSource) Fetch(key, environment string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load(environment)
	if err != nil {
		return "", false, err
	}
	if values == nil {
		return "", false, nil
	}

	value, ok := values[strings.ToLower(snakeCase(key))]
	return value, ok, nil
}

// load parses the environment's file once and caches a flattened,
// lowercased view of it. Called with s.mu held.
func (s *FileSource) load(environment string) (map[string]string, error) {
	if cached, ok := s.parsed[environment]; ok {
		return cached, nil
	}

	cfg := s.settings[environment]
	if cfg == nil || cfg.path == "" {
		s.parsed[environment] = nil
		return nil, nil
	}
	path := expandPath(cfg.path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	document := make(map[string]any)
	switch format := detectFileFormat(path, data); format {
	case "toml":
		if err := toml.Unmarshal(data, &document); err != nil {
			return nil, fmt.Errorf("parse TOML config file %q: %w", path, err)
		}
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&document); err != nil {
			return nil, fmt.Errorf("parse JSON config file %q: %w", path, err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &document); err != nil {
			return nil, fmt.Errorf("parse YAML config file %q: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unable to determine config format for file %q", path)
	}

	flat := flattenValues(document, "")
	values := make(map[string]string, len(flat))
	for k, v := range flat {
		values[strings.ToLower(k)] = fmt.Sprintf("%v", v)
	}
	s.parsed[environment] = values
	return values, nil
}

func (s *FileSource) String() string { return "file" }

// detectFileFormat determines the format from the file extension, then from
// the content itself.
func detectFileFormat(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}

	// JSON first (strict), YAML second (superset of JSON), TOML last.
	var probe any
	if err := json.Unmarshal(data, &probe); err == nil {
		return "json"
	}
	if err := yaml.Unmarshal(data, &probe); err == nil {
		return "yaml"
	}
	if err := toml.Unmarshal(data, &probe); err == nil {
		return "toml"
	}
	return ""
}
