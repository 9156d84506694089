package generator

import (
	"github.com/toyz/scaffold/internal/fragment"
	"github.com/toyz/scaffold/internal/ledger"
	"github.com/toyz/scaffold/internal/output"
	"github.com/toyz/scaffold/internal/provider"
	"github.com/toyz/scaffold/internal/schema"
	"github.com/toyz/scaffold/internal/utils"
)

// ModulePrefix is the import origin prefix mapped to the generated
// project's module path.
const ModulePrefix = "@module"

// Env is the run-wide state hooks share. The engine creates one per run.
type Env struct {
	Module      string
	Queue       *output.Queue
	Assembler   *output.Assembler
	Ledger      *ledger.Ledger
	Diagnostics *utils.DiagnosticSystem
}

// NewEnv creates an Env for a run generating into module
func NewEnv(module string, diagnostics *utils.DiagnosticSystem) *Env {
	if diagnostics == nil {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticSilent)
	}
	return &Env{
		Module:      module,
		Queue:       output.NewQueue(),
		Assembler:   output.NewAssembler(),
		Ledger:      ledger.New(),
		Diagnostics: diagnostics,
	}
}

// Mappers returns the import mappers every generated file uses
func (e *Env) Mappers() []fragment.ImportMapper {
	if e.Module == "" {
		return nil
	}
	return []fragment.ImportMapper{{Prefix: ModulePrefix, Target: e.Module}}
}

// Node identifies the generator instance a hook runs for
type Node struct {
	Path      string
	Name      string
	Generator string
	Config    schema.Values
}

// WireContext is handed to wire hooks
type WireContext struct {
	Node
	Deps provider.Dependencies
	Env  *Env
}

// TryRegister pre-registers an artifact key for target in the run ledger
func (wc *WireContext) TryRegister(target, key string) ledger.Registration {
	return wc.Env.Ledger.TryRegister(target, key, wc.Path)
}

// BuildContext is handed to build hooks. Its helpers queue actions; nothing
// touches the filesystem until the run is materialized.
type BuildContext struct {
	Node
	Deps provider.Dependencies
	// Exports are the node's own exports, frozen when they support it
	Exports provider.Exports
	Env     *Env
}

// RenderTemplate queues a composite template render to path
func (bc *BuildContext) RenderTemplate(path string, tpl *fragment.Template) {
	bc.Env.Queue.Add(output.RenderTemplate{Path: path, Template: tpl, By: bc.Path})
}

// CopyTemplate queues a static template copy to path, substituting values
// and rendering decls as its import block.
func (bc *BuildContext) CopyTemplate(path, source string, values map[string]string, decls ...fragment.Declaration) {
	bc.Env.Queue.Add(output.CopyTemplate{
		Path:    path,
		Source:  source,
		Values:  values,
		Decls:   decls,
		Mappers: bc.Env.Mappers(),
		By:      bc.Path,
	})
}

// WriteFile queues literal content to path
func (bc *BuildContext) WriteFile(path, content string) {
	bc.Env.Queue.Add(output.WriteFile{Path: path, Content: content, By: bc.Path})
}

// RunCommand queues a command that runs when one of watch changed
func (bc *BuildContext) RunCommand(command, dir string, watch ...string) {
	bc.Env.Queue.Add(output.RunCommand{Command: command, Dir: dir, WatchPaths: watch, By: bc.Path})
}

// RunCommandAlways queues a command that runs on every materialization
func (bc *BuildContext) RunCommandAlways(command, dir string) {
	bc.Env.Queue.Add(output.RunCommand{Command: command, Dir: dir, Always: true, By: bc.Path})
}

// ConfigureFile sets the preamble of an assembled file. Module imports
// written as "@module/..." are mapped for every file.
func (bc *BuildContext) ConfigureFile(target, preamble string) {
	bc.Env.Assembler.Configure(target, output.FileOptions{Preamble: preamble, Mappers: bc.Env.Mappers()})
}

// Contribute adds a fragment to an assembled file under category
func (bc *BuildContext) Contribute(target string, f fragment.Fragment, category string) {
	bc.Env.Assembler.RegisterContribution(bc.Path, target, f, category)
}

// TryRegister claims an artifact key for target. Callers skip emission when
// the key was already registered.
func (bc *BuildContext) TryRegister(target, key string) ledger.Registration {
	return bc.Env.Ledger.TryRegister(target, key, bc.Path)
}
