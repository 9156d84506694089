// Package config loads the root configuration: a YAML document describing
// the generator tree plus run settings, overridable from the environment.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/toyz/scaffold/internal/errors"
	"github.com/toyz/scaffold/internal/generator"
)

// Environment variables overriding file values
const (
	EnvOutput     = "SCAFFOLD_OUTPUT"
	EnvModule     = "SCAFFOLD_MODULE"
	EnvNoFormat   = "SCAFFOLD_NO_FORMAT"
	EnvNoCommands = "SCAFFOLD_NO_COMMANDS"
)

// DefaultFile is looked up when no configuration path is given
const DefaultFile = "scaffold.yaml"

// Config is the root configuration of a generation run
type Config struct {
	// Output is the output directory. Relative paths are resolved against
	// the directory of the configuration file.
	Output string `yaml:"output"`
	// Module is the generated project's module path. When empty it is
	// derived from the go.mod enclosing the output directory.
	Module     string   `yaml:"module,omitempty"`
	Format     bool     `yaml:"format"`
	Commands   bool     `yaml:"commands"`
	Categories []string `yaml:"categories,omitempty"`
	// NearestAncestor lets an ancestor's own export win over its other
	// children's when resolving dependencies
	NearestAncestor bool `yaml:"nearest_ancestor,omitempty"`
	// Templates is a directory whose files override the built-in static
	// templates of the same name, relative like Output
	Templates string             `yaml:"templates,omitempty"`
	Root      generator.NodeSpec `yaml:"root"`

	// Path is the file the configuration was read from
	Path string `yaml:"-"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	return &Config{
		Output:   ".",
		Format:   true,
		Commands: true,
	}
}

// Load reads the configuration at path, loads a .env file next to it and
// applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFileSystemError("read", path, err)
	}

	dir := filepath.Dir(path)
	if err := LoadDotEnv(dir); err != nil {
		return nil, err
	}

	cfg, err := Parse(bytes.NewReader(data), dir)
	if err != nil {
		return nil, errors.WrapConfigurationError(path, "parse", err)
	}
	cfg.Path = path
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a configuration document. Unknown keys are rejected.
// Relative output paths are resolved against baseDir.
func Parse(r io.Reader, baseDir string) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	cfg.Output = resolvePath(baseDir, cfg.Output)
	cfg.Templates = resolvePath(baseDir, cfg.Templates)
	return cfg, nil
}

// LoadDotEnv loads dir/.env into the process environment without
// overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.WrapConfigurationError(path, "load", err)
	}
	return nil
}

// ApplyEnv overrides file values from the environment. An output directory
// taken from the environment is relative to the working directory.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvOutput); ok && strings.TrimSpace(v) != "" {
		c.Output = v
	}
	if v, ok := lookup(EnvModule); ok && strings.TrimSpace(v) != "" {
		c.Module = strings.TrimSpace(v)
	}

	flags := []struct {
		name   string
		target *bool
	}{
		{EnvNoFormat, &c.Format},
		{EnvNoCommands, &c.Commands},
	}
	for _, f := range flags {
		v, ok := lookup(f.name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		disabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.ConfigurationError(f.name, "expected a boolean, got '"+v+"'")
		}
		if disabled {
			*f.target = false
		}
	}
	return nil
}

// Validate checks the fields every run needs
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output) == "" {
		return errors.ConfigurationError("output", "output directory cannot be empty")
	}
	if c.Root.Generator == "" {
		return errors.ConfigurationError("root", "root generator is required").
			WithSuggestion("Add root: {generator: project, name: app}")
	}
	return nil
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
