package project

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/vito/unifier/pkg/elab"
	"github.com/vito/unifier/pkg/schema"
)

// ConfigFile is the name of the project configuration file.
const ConfigFile = "unifier.toml"

// Config represents a unifier.toml project configuration file.
type Config struct {
	// Schema lists schema files to load, relative to the config file.
	// Supports ${ENV_VAR} expansion.
	Schema []string `toml:"schema"`

	// Prelude controls whether the built-in declarations are loaded.
	// Defaults to true.
	Prelude *bool `toml:"prelude"`

	Resolve ResolveConfig `toml:"resolve"`
	Log     LogConfig     `toml:"log"`

	// Dir is the directory containing the config file.
	Dir string `toml:"-"`
}

type ResolveConfig struct {
	PruneCandidates bool `toml:"prune_candidates"`
	MaxPasses       int  `toml:"max_passes"`
}

type LogConfig struct {
	// Level is a slog level name: debug, info, warn or error.
	Level string `toml:"level"`
}

// Load loads a unifier.toml file from the given path.
func Load(path string) (*Config, error) {
	var config Config
	md, err := toml.DecodeFile(path, &config)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("parsing %s: unknown keys %v", path, undecoded)
	}
	config.Dir = filepath.Dir(path)
	return &config, nil
}

// Find searches for a unifier.toml file starting from dir and walking up to
// parent directories, stopping at a .git boundary. Returns ("", nil, nil)
// if not found.
func Find(dir string) (string, *Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	for {
		path := filepath.Join(dir, ConfigFile)
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				return "", nil, err
			}
			return path, config, nil
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", nil, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}

// UsePrelude reports whether the prelude should be loaded.
func (c *Config) UsePrelude() bool {
	return c == nil || c.Prelude == nil || *c.Prelude
}

// SchemaPaths returns the configured schema files with environment
// variables expanded and relative paths resolved against Dir.
func (c *Config) SchemaPaths() ([]string, error) {
	if c == nil {
		return nil, nil
	}
	paths := make([]string, 0, len(c.Schema))
	for _, p := range c.Schema {
		expanded, err := expandEnvVars(p)
		if err != nil {
			return nil, errors.Wrapf(err, "schema %q", p)
		}
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Join(c.Dir, expanded)
		}
		paths = append(paths, expanded)
	}
	return paths, nil
}

// LogLevel parses the configured log level, defaulting to info.
func (c *Config) LogLevel() (slog.Level, error) {
	level := slog.LevelInfo
	if c == nil || c.Log.Level == "" {
		return level, nil
	}
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return level, errors.Wrap(err, "log level")
	}
	return level, nil
}

// ElabOptions translates the [resolve] section into elaborator options.
func (c *Config) ElabOptions() []elab.Option {
	if c == nil {
		return nil
	}
	return []elab.Option{
		elab.WithPruneCandidates(c.Resolve.PruneCandidates),
		elab.WithMaxPasses(c.Resolve.MaxPasses),
	}
}

// BuildRegistry loads the prelude, when asked, followed by every schema file
// in order, and freezes the result.
func BuildRegistry(prelude bool, paths []string) (*schema.Registry, error) {
	b := schema.NewBuilder()
	if prelude {
		schema.Prelude(b)
	}
	for _, path := range paths {
		if err := schema.LoadFile(b, path); err != nil {
			return nil, err
		}
	}
	return b.Freeze()
}

// expandError reports a ${VAR} reference that could not be expanded.
type expandError struct {
	msg     string
	pattern string
}

func (e *expandError) Error() string {
	return e.msg
}

// expandEnvVars expands ${VAR} references in a string. Unset variables are
// an error, as is $(...) command substitution.
func expandEnvVars(s string) (string, error) {
	if i := strings.Index(s, "$("); i >= 0 {
		end := strings.Index(s[i:], ")")
		pattern := s[i:]
		if end >= 0 {
			pattern = s[i : i+end+1]
		}
		return "", &expandError{
			msg:     "$() command substitution is not supported; use ${VAR}",
			pattern: pattern,
		}
	}

	var firstErr error
	expanded := os.Expand(s, func(key string) string {
		val, ok := os.LookupEnv(key)
		if !ok && firstErr == nil {
			pattern := "${" + key + "}"
			firstErr = &expandError{
				msg:     "environment variable " + pattern + " is not set",
				pattern: pattern,
			}
		}
		return val
	})
	if firstErr != nil {
		return "", firstErr
	}
	return expanded, nil
}
