package settings

// sourceSettings is the shared option set for source configuration. Each
// source reads only the fields that concern it. Options are applied
// cumulatively: a later Configure call overwrites only the fields its
// options set, so unspecified keys retain their previous values.
type sourceSettings struct {
	envFile  string // dotenv overlay path for the env source
	prefix   string // prepended to derived environment variable names
	path     string // file path for the file and ini sources
	section  string // ini section holding the keys (defaults to the unnamed section)
	dir      string // directory for the secrets source
	address  string // remote source address
	token    string // remote source access token
	basePath string // remote source key prefix
}

// SourceOption configures one aspect of a source for a given environment.
type SourceOption func(*sourceSettings)

// WithEnvFile sets the dotenv file the env source overlays under the real
// process environment. When unset, the env source looks for
// ".env.{environment}" in the working directory.
func WithEnvFile(path string) SourceOption {
	return func(s *sourceSettings) { s.envFile = path }
}

// WithPrefix sets a prefix prepended to derived environment variable names,
// e.g. "MYAPP_" turns the field "port" into "MYAPP_PORT".
func WithPrefix(prefix string) SourceOption {
	return func(s *sourceSettings) { s.prefix = prefix }
}

// WithPath sets the file path for the file and ini sources.
// A leading "~" is expanded to the user's home directory.
func WithPath(path string) SourceOption {
	return func(s *sourceSettings) { s.path = path }
}

// WithSection sets the ini section keys are read from.
func WithSection(name string) SourceOption {
	return func(s *sourceSettings) { s.section = name }
}

// WithDir sets the directory the secrets source reads one-file-per-key
// secret values from.
func WithDir(path string) SourceOption {
	return func(s *sourceSettings) { s.dir = path }
}

// WithAddress sets the address of a remote source, e.g. "127.0.0.1:8500".
func WithAddress(address string) SourceOption {
	return func(s *sourceSettings) { s.address = address }
}

// WithToken sets the access token for a remote source.
func WithToken(token string) SourceOption {
	return func(s *sourceSettings) { s.token = token }
}

// WithBasePath sets the key prefix a remote source resolves bare keys under.
func WithBasePath(path string) SourceOption {
	return func(s *sourceSettings) { s.basePath = path }
}

// fallbackBasePath applies a schema-level base path hint without overriding
// an explicitly configured one.
func fallbackBasePath(path string) SourceOption {
	return func(s *sourceSettings) {
		if s.basePath == "" {
			s.basePath = path
		}
	}
}

func (s *sourceSettings) apply(opts []SourceOption) {
	for _, opt := range opts {
		opt(s)
	}
}
