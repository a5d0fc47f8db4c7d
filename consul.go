package settings

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/consul/api"
)

// ConsulSource reads raw values from a Consul KV store. Bare keys are
// resolved under the configured base path (WithBasePath, or a schema's
// WithConsulPath hint); keys containing "/" are treated as absolute paths
// and used verbatim, so explicit per-field overrides bypass the prefix.
//
// Network failures surface as ErrSourceUnavailable and abort the resolution
// attempt; the source applies no retry policy of its own.
type ConsulSource struct {
	mu       sync.Mutex
	settings map[string]*sourceSettings
	clients  map[string]*api.Client
}

// NewConsulSource creates a ConsulSource with no configuration. Register it
// under a name of your choice:
//
//	settings.RegisterSource("consul", func() settings.Source {
//	    return settings.NewConsulSource()
//	})
func NewConsulSource() *ConsulSource {
	return &ConsulSource{
		settings: make(map[string]*sourceSettings),
		clients:  make(map[string]*api.Client),
	}
}

func (s *ConsulSource) Configure(environment string, opts ...SourceOption) error {
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

func (s *ConsulSource) Fetch(key, environment string) (string, bool, error) {
	s.mu.Lock()
	cfg := s.settings[environment]
	if cfg == nil {
		cfg = &sourceSettings{}
	}
	client, err := s.client(cfg, environment)
	s.mu.Unlock()
	if err != nil {
		return "", false, err
	}

	pair, _, err := client.KV().Get(s.lookupKey(cfg, key), nil)
	if err != nil {
		return "", false, fmt.Errorf("%w: consul get %q: %v", ErrSourceUnavailable, key, err)
	}
	if pair == nil {
		return "", false, nil
	}
	return string(pair.Value), true, nil
}

// lookupKey maps a field key to its KV path. Explicit path-style overrides
// win over base-path prefixing.
func (s *ConsulSource) lookupKey(cfg *sourceSettings, key string) string {
	if strings.Contains(key, "/") {
		return strings.TrimPrefix(key, "/")
	}

	key = strings.ToLower(snakeCase(key))
	if cfg.basePath == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimSuffix(cfg.basePath, "/")+"/"+key, "/")
}

// client builds the environment's Consul client once. Called with s.mu held.
func (s *ConsulSource) client(cfg *sourceSettings, environment string) (*api.Client, error) {
	if cached, ok := s.clients[environment]; ok {
		return cached, nil
	}

	conf := api.DefaultConfig()
	if cfg.address != "" {
		conf.Address = cfg.address
	}
	if cfg.token != "" {
		conf.Token = cfg.token
	}

	client, err := api.NewClient(conf)
	if err != nil {
		return nil, fmt.Errorf("%w: consul client: %v", ErrSourceUnavailable, err)
	}
	s.clients[environment] = client
	return client, nil
}

func (s *ConsulSource) String() string { return "consul" }
