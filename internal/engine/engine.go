// Package engine runs the two-phase generation protocol over a validated
// graph: wire in producer order, then build in mutation order.
package engine

import (
	"context"
	"sort"

	"github.com/toyz/scaffold/internal/errors"
	"github.com/toyz/scaffold/internal/generator"
	"github.com/toyz/scaffold/internal/graph"
	"github.com/toyz/scaffold/internal/output"
	"github.com/toyz/scaffold/internal/provider"
	"github.com/toyz/scaffold/internal/utils"
)

const (
	PhaseWire  = "wire"
	PhaseBuild = "build"
)

// Options configures an engine run
type Options struct {
	// Module is the generated project's module path, mapped from "@module"
	Module string
	// Categories is the priority list for assembled file contributions
	Categories  []string
	Diagnostics *utils.DiagnosticSystem
}

// Result is what a successful run queued
type Result struct {
	Actions []output.Action
	Env     *generator.Env
}

// Engine executes one generation run. Hooks run one at a time.
type Engine struct {
	graph    *graph.Graph
	registry *provider.Registry
	env      *generator.Env
	opts     Options
	ran      bool
}

// New creates an engine for g
func New(g *graph.Graph, opts Options) *Engine {
	if opts.Diagnostics == nil {
		opts.Diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticSilent)
	}
	return &Engine{
		graph:    g,
		registry: provider.NewRegistry(),
		env:      generator.NewEnv(opts.Module, opts.Diagnostics),
		opts:     opts,
	}
}

// Registry returns the provider registry of the run
func (e *Engine) Registry() *provider.Registry {
	return e.registry
}

// Run wires and builds every node, then flushes assembled files into the
// action queue. Any failure aborts the run and nothing is returned to
// materialize.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.ran {
		return nil, errors.New(errors.ConfigurationErrorCode, "engine has already run")
	}
	e.ran = true

	for _, n := range e.graph.Nodes() {
		for _, slot := range sortedKeys(n.Bindings) {
			e.registry.Bind(n.Path, slot, n.Bindings[slot])
		}
	}

	diag := e.opts.Diagnostics
	diag.StartProgress(PhaseWire)
	if err := e.wire(ctx); err != nil {
		diag.EndProgress(PhaseWire, false)
		return nil, err
	}
	diag.EndProgress(PhaseWire, true)

	diag.StartProgress(PhaseBuild)
	if err := e.build(ctx); err != nil {
		diag.EndProgress(PhaseBuild, false)
		return nil, err
	}
	diag.EndProgress(PhaseBuild, true)

	root := e.graph.Root()
	if err := e.env.Assembler.Flush(root.Path, e.env.Queue, e.opts.Categories); err != nil {
		return nil, err
	}

	return &Result{Actions: e.env.Queue.Actions(), Env: e.env}, nil
}

func (e *Engine) wire(ctx context.Context) error {
	for _, n := range e.graph.WireOrder() {
		if err := ctx.Err(); err != nil {
			return e.fail(n, PhaseWire, err)
		}
		e.opts.Diagnostics.Debug("wire %s (%s)", n.Path, n.Descriptor.Name)

		deps, err := e.registry.Dependencies(n.Path)
		if err != nil {
			return e.fail(n, PhaseWire, err)
		}

		exports := provider.Exports{}
		if n.Descriptor.Wire != nil {
			exports, err = n.Descriptor.Wire(ctx, &generator.WireContext{Node: n.Info(), Deps: deps, Env: e.env})
			if err != nil {
				return e.fail(n, PhaseWire, err)
			}
		}
		if err := n.Descriptor.CheckExports(exports); err != nil {
			return e.fail(n, PhaseWire, err)
		}
		for _, slot := range sortedKeys(exports) {
			if err := e.registry.DeclareExport(n.Path, slot, exports[slot]); err != nil {
				return e.fail(n, PhaseWire, err)
			}
		}
		n.State = graph.Wired
	}
	return nil
}

func (e *Engine) build(ctx context.Context) error {
	for _, n := range e.graph.BuildOrder() {
		if err := ctx.Err(); err != nil {
			return e.fail(n, PhaseBuild, err)
		}
		e.opts.Diagnostics.Debug("build %s (%s)", n.Path, n.Descriptor.Name)

		// contributions to the node's own exports end here
		exports := e.registry.Exports(n.Path)
		for _, slot := range sortedKeys(exports) {
			if f, ok := exports[slot].(provider.Freezer); ok {
				f.Freeze()
			}
		}

		deps, err := e.registry.Dependencies(n.Path)
		if err != nil {
			return e.fail(n, PhaseBuild, err)
		}
		if n.Descriptor.Build != nil {
			bc := &generator.BuildContext{Node: n.Info(), Deps: deps, Exports: exports, Env: e.env}
			if err := n.Descriptor.Build(ctx, bc); err != nil {
				return e.fail(n, PhaseBuild, err)
			}
		}
		n.State = graph.Built
	}
	return nil
}

func (e *Engine) fail(n *graph.Node, phase string, cause error) error {
	n.State = graph.Failed
	e.opts.Diagnostics.Debug("%s %s failed: %v", phase, n.Path, cause)
	return errors.NewHookExecutionError(n.Path, n.Descriptor.Name, phase, cause)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
