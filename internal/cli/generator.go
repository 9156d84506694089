package cli

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/toyz/scaffold/internal/catalog"
	"github.com/toyz/scaffold/internal/engine"
	"github.com/toyz/scaffold/internal/errors"
	"github.com/toyz/scaffold/internal/generator"
	"github.com/toyz/scaffold/internal/graph"
	"github.com/toyz/scaffold/internal/output"
	"github.com/toyz/scaffold/internal/utils"
)

// templateCacheSize bounds the static templates kept in memory per source
const templateCacheSize = 64

// Generator coordinates configuration loading, graph construction, the
// engine run and materialization.
type Generator struct {
	diagnostics *utils.DiagnosticSystem
	resolver    *ModuleResolver
	cleaner     *Cleaner
	catalog     *generator.Catalog
	runner      output.CommandRunner

	mu      sync.Mutex
	readers map[string]*utils.TemplateReader
}

// NewGenerator creates a generator over the built-in catalog
func NewGenerator(diagnostics *utils.DiagnosticSystem) *Generator {
	if diagnostics == nil {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticSilent)
	}
	return &Generator{
		diagnostics: diagnostics,
		resolver:    NewModuleResolver(),
		cleaner:     NewCleaner(),
		catalog:     catalog.New(),
		readers:     make(map[string]*utils.TemplateReader),
	}
}

// WithRunner replaces the command runner used for post-write commands
func (g *Generator) WithRunner(runner output.CommandRunner) *Generator {
	g.runner = runner
	return g
}

// Catalog returns the generators node specs can name
func (g *Generator) Catalog() *generator.Catalog {
	return g.catalog
}

// Run executes one generation. In check mode nothing is written and the
// summary lists what would change.
func (g *Generator) Run(ctx context.Context, opts Options) (*GenerationSummary, error) {
	diag := g.diagnostics
	runID := uuid.NewString()
	diag.Verbose("run %s", runID)

	cfg, err := opts.Load()
	if err != nil {
		return nil, err
	}
	diag.Debug("configuration %s, output %s", cfg.Path, cfg.Output)

	module, err := g.resolver.Resolve(cfg.Module, cfg.Output)
	if err != nil {
		return nil, err
	}
	if module == "" {
		diag.Warn("no module path found for %s, falling back to the root node name", cfg.Output)
	} else {
		diag.Debug("module %s", module)
	}

	var graphOpts []graph.Option
	if cfg.NearestAncestor {
		graphOpts = append(graphOpts, graph.WithNearestAncestor())
	}
	diag.StartProgress("Resolving generator graph")
	gr, err := graph.New(g.catalog, cfg.Root, graphOpts...)
	if err != nil {
		diag.EndProgress("Resolving generator graph", false)
		return nil, err
	}
	diag.EndProgress("Resolving generator graph", true)

	categories := cfg.Categories
	if len(categories) == 0 {
		categories = catalog.DefaultCategories
	}
	run, err := engine.New(gr, engine.Options{
		Module:      module,
		Categories:  categories,
		Diagnostics: diag,
	}).Run(ctx)
	if err != nil {
		return nil, err
	}

	reader, err := g.reader(cfg.Templates)
	if err != nil {
		return nil, err
	}
	m := output.NewMaterializer(output.Options{
		Root:        cfg.Output,
		Format:      cfg.Format,
		DryRun:      opts.Check,
		RunCommands: cfg.Commands,
		Manifest:    true,
		Templates:   reader,
		Runner:      g.runner,
		Diagnostics: diag,
	})
	result, err := m.Materialize(ctx, run.Actions)
	if err != nil {
		return nil, err
	}

	summary := &GenerationSummary{
		RunID:   runID,
		Nodes:   gr.Len(),
		Files:   len(result.Files),
		Changed: result.Changed(),
		Stale:   result.Stale,
		DryRun:  opts.Check,
	}
	for _, cmd := range result.Commands {
		if cmd.Ran {
			summary.Commands = append(summary.Commands, cmd.Command)
		}
	}
	return summary, nil
}

// Clean removes the files recorded by the last generation into the
// configured output directory.
func (g *Generator) Clean(opts Options) ([]string, error) {
	cfg, err := opts.Load()
	if err != nil {
		return nil, err
	}
	removed, err := g.cleaner.Clean(cfg.Output)
	for _, path := range removed {
		g.diagnostics.FileChange("-", path)
	}
	return removed, err
}

// WatchTargets returns the files and directories whose changes affect a run
func (g *Generator) WatchTargets(opts Options) (files, dirs []string, err error) {
	cfg, err := opts.Load()
	if err != nil {
		return nil, nil, err
	}
	files = []string{cfg.Path, filepath.Join(filepath.Dir(cfg.Path), ".env")}
	if cfg.Templates != "" {
		dirs = append(dirs, cfg.Templates)
	}
	return files, dirs, nil
}

// Purge drops cached static templates
func (g *Generator) Purge() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.readers {
		r.Purge()
	}
}

// reader returns the cached template reader for an override directory,
// layered over the built-in templates.
func (g *Generator) reader(dir string) (*utils.TemplateReader, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.readers[dir]; ok {
		return r, nil
	}
	fsys := catalog.Templates
	if dir != "" {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return nil, errors.FileSystemError("open", dir, "template directory does not exist")
		}
		fsys = overlayFS{os.DirFS(dir), catalog.Templates}
	}
	r, err := utils.NewTemplateReader(fsys, templateCacheSize)
	if err != nil {
		return nil, err
	}
	g.readers[dir] = r
	return r, nil
}

// overlayFS opens a name from the first layer that has it
type overlayFS []fs.FS

func (o overlayFS) Open(name string) (fs.File, error) {
	var err error
	for _, layer := range o {
		var f fs.File
		if f, err = layer.Open(name); err == nil {
			return f, nil
		}
	}
	return nil, err
}
