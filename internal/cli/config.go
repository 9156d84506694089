package cli

import (
	"path/filepath"

	"github.com/toyz/scaffold/internal/config"
)

// Options holds command line overrides for a generation run
type Options struct {
	// ConfigPath is the root configuration file, config.DefaultFile if empty
	ConfigPath string

	// Output overrides the configured output directory. Relative paths are
	// resolved against the working directory.
	Output string

	// Module overrides the configured module path
	Module string

	NoFormat   bool
	NoCommands bool

	// Check computes the change set without writing anything
	Check bool
}

// Load reads the configuration named by the options and applies the
// overrides on top of file and environment values.
func (o Options) Load() (*config.Config, error) {
	path := o.ConfigPath
	if path == "" {
		path = config.DefaultFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if o.Output != "" {
		abs, err := filepath.Abs(o.Output)
		if err != nil {
			return nil, err
		}
		cfg.Output = abs
	}
	if o.Module != "" {
		cfg.Module = o.Module
	}
	if o.NoFormat {
		cfg.Format = false
	}
	if o.NoCommands {
		cfg.Commands = false
	}
	return cfg, nil
}
