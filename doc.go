// Package settings provides declarative, schema-driven configuration loading
// for Go applications: declare a struct, pick an ordered list of sources, and
// resolve one validated, read-only instance per deployment environment.
//
// Features:
//   - Ordered multi-source resolution with first-source-wins precedence
//   - Built-in sources: process environment (with .env.{environment}
//     overlays), TOML/JSON/YAML files, ini files, secret-per-file directories
//   - Pluggable remote sources (a Consul KV source ships in the box)
//   - Per-environment source configuration, applied before first use
//   - Struct tags for defaults, required markers, and per-source key overrides
//   - Weakly typed coercion via mapstructure with aggregated validation errors
//   - Singleton instances with race-free at-most-once resolution
//
// Quick Start:
//
//	type AppConfig struct {
//	    Port    int           `default:"8000"`
//	    Name    string        `setting:"service_name" env:"SERVICE_NAME"`
//	    Timeout time.Duration `default:"30s"`
//	    Debug   bool          `default:"false"`
//	}
//
//	var appSchema = settings.MustSchema[AppConfig](
//	    settings.WithSources("env", "ini"),
//	    settings.WithEnvironmentConfig("local", "ini", settings.WithPath("~/.app/local.ini")),
//	)
//
//	cfg, err := appSchema.Instance(settings.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Precedence:
//
// Sources are declared most-authoritative first. The first source to return
// a value for a field wins; later sources never override it. Fields no
// source answers fall back to their declared default; required fields with
// no value fail resolution with a ValidationError listing every failing
// field at once.
//
// Environments:
//
// The active environment is selected per schema, either as a literal
// (WithServerEnv) or a function evaluated at resolution time
// (WithServerEnvFunc). The default selector reads SERVER_ENV and falls back
// to "local". Each source keeps independent configuration per environment,
// and configuration must be complete before the first fetch for that
// environment.
//
// Thread Safety:
//
// Registration, configuration, and resolution are safe for concurrent use.
// Singleton schemas guarantee at most one resolution per (type, environment)
// even under concurrent first access.
package settings
