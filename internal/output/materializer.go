package output

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/mattn/go-shellwords"
	"golang.org/x/sync/errgroup"

	"github.com/toyz/scaffold/internal/errors"
	"github.com/toyz/scaffold/internal/fragment"
	"github.com/toyz/scaffold/internal/utils"
)

// TemplateSource provides static template bodies for CopyTemplate
type TemplateSource interface {
	Read(name string) (string, error)
}

// CommandRunner runs a parsed command line in dir
type CommandRunner func(ctx context.Context, dir string, args []string) ([]byte, error)

// ExecRunner runs commands with os/exec
func ExecRunner(ctx context.Context, dir string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// FileStatus describes what materialization did to a file
type FileStatus int

const (
	FileUnchanged FileStatus = iota
	FileCreated
	FileUpdated
)

// Marker returns the one-character change marker used in reports
func (s FileStatus) Marker() string {
	switch s {
	case FileCreated:
		return "+"
	case FileUpdated:
		return "~"
	default:
		return "="
	}
}

// FileResult is one materialized file
type FileResult struct {
	Path    string
	Status  FileStatus
	Content []byte
	By      string
}

// CommandResult is one command action
type CommandResult struct {
	Command string
	Dir     string
	Ran     bool
	Output  string
}

// Result summarizes a materialization
type Result struct {
	Files           []FileResult
	Commands        []CommandResult
	Stale           []string
	ManifestWritten bool
	DryRun          bool
}

// Changed returns the paths that were (or in a dry run would be) written
func (r *Result) Changed() []string {
	var out []string
	for _, f := range r.Files {
		if f.Status != FileUnchanged {
			out = append(out, f.Path)
		}
	}
	return out
}

// Options configures a Materializer
type Options struct {
	Root        string
	Format      bool
	DryRun      bool
	RunCommands bool
	Manifest    bool
	Concurrency int
	Templates   TemplateSource
	Runner      CommandRunner
	Diagnostics *utils.DiagnosticSystem
}

// Materializer turns queued actions into files and command runs
type Materializer struct {
	opts Options
}

// NewMaterializer creates a materializer
func NewMaterializer(opts Options) *Materializer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticSilent)
	}
	return &Materializer{opts: opts}
}

type fileTask struct {
	index  int
	path   string
	action Action
}

// Materialize computes every file in parallel, then writes the changed ones
// in registration order and runs the commands whose watched paths changed.
// Nothing is written if any file fails to compute.
func (m *Materializer) Materialize(ctx context.Context, actions []Action) (*Result, error) {
	var tasks []fileTask
	var commands []RunCommand
	seen := make(map[string]string)

	for _, action := range actions {
		if cmd, ok := action.(RunCommand); ok {
			commands = append(commands, cmd)
			continue
		}
		path, err := utils.CleanOutputPath(action.Target())
		if err != nil {
			return nil, errors.Wrap(errors.ConfigurationErrorCode, "invalid output path", err).WithPath(action.Origin())
		}
		if first, dup := seen[path]; dup {
			return nil, errors.Newf(errors.ConfigurationErrorCode,
				"output '%s' is written by both %s and %s", path, first, action.Origin()).
				WithPath(action.Origin()).
				WithContext("path", path)
		}
		seen[path] = action.Origin()
		tasks = append(tasks, fileTask{index: len(tasks), path: path, action: action})
	}

	files := make([]FileResult, len(tasks))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(m.opts.Concurrency)
	for _, task := range tasks {
		task := task
		eg.Go(func() error {
			select {
			case <-egCtx.Done():
				return egCtx.Err()
			default:
			}
			result, err := m.compute(task)
			if err != nil {
				return err
			}
			files[task.index] = result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Files: files, DryRun: m.opts.DryRun}
	changed := make(map[string]bool)
	for _, f := range files {
		if f.Status != FileUnchanged {
			changed[f.Path] = true
		}
	}

	if !m.opts.DryRun {
		for _, f := range files {
			if f.Status == FileUnchanged {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := m.write(f); err != nil {
				return nil, err
			}
		}
	}
	for _, f := range files {
		m.opts.Diagnostics.FileChange(f.Status.Marker(), f.Path)
	}

	if m.opts.Manifest {
		if err := m.updateManifest(result); err != nil {
			return nil, err
		}
	}

	for _, cmd := range commands {
		cr, err := m.runCommand(ctx, cmd, changed)
		if err != nil {
			return nil, err
		}
		result.Commands = append(result.Commands, cr)
	}

	return result, nil
}

func (m *Materializer) compute(task fileTask) (FileResult, error) {
	content, err := m.render(task.action)
	if err != nil {
		return FileResult{}, err
	}

	data := []byte(content)
	if m.opts.Format && utils.IsGoFile(task.path) {
		formatted, err := utils.FormatGoSource(task.path, data)
		if err != nil {
			return FileResult{}, errors.Wrap(errors.TemplateErrorCode, "generated Go source does not parse", err).
				WithPath(task.action.Origin()).
				WithContext("path", task.path)
		}
		data = formatted
	}

	status := FileCreated
	full := filepath.Join(m.opts.Root, filepath.FromSlash(task.path))
	existing, err := os.ReadFile(full)
	switch {
	case err == nil && bytes.Equal(existing, data):
		status = FileUnchanged
	case err == nil:
		status = FileUpdated
	case !os.IsNotExist(err):
		return FileResult{}, errors.WrapFileSystemError("read", full, err)
	}

	return FileResult{Path: task.path, Status: status, Content: data, By: task.action.Origin()}, nil
}

func (m *Materializer) render(action Action) (string, error) {
	switch a := action.(type) {
	case WriteFile:
		return a.Content, nil
	case RenderTemplate:
		out, err := a.Template.Render()
		if err != nil {
			return "", errors.Wrap(errors.TemplateErrorCode, "failed to render template", err).WithPath(a.By)
		}
		return out, nil
	case CopyTemplate:
		if m.opts.Templates == nil {
			return "", errors.New(errors.ConfigurationErrorCode, "no template source configured").WithPath(a.By)
		}
		body, err := m.opts.Templates.Read(a.Source)
		if err != nil {
			return "", errors.Wrap(errors.FileSystemErrorCode, "failed to read static template", err).WithPath(a.By)
		}
		out, err := fragment.RenderStatic(a.Source, body, a.Values, a.Decls, a.Mappers...)
		if err != nil {
			return "", errors.Wrap(errors.TemplateErrorCode, "failed to render static template", err).WithPath(a.By)
		}
		return out, nil
	default:
		return "", errors.Newf(errors.UnknownErrorCode, "unsupported action %T", action).WithPath(action.Origin())
	}
}

func (m *Materializer) write(f FileResult) error {
	full := filepath.Join(m.opts.Root, filepath.FromSlash(f.Path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.WrapFileSystemError("create directory for", full, err)
	}
	if err := os.WriteFile(full, f.Content, 0o644); err != nil {
		return errors.WrapFileSystemError("write", full, err)
	}
	return nil
}

func (m *Materializer) updateManifest(result *Result) error {
	previous, err := LoadManifest(m.opts.Root)
	if err != nil {
		return err
	}
	current := NewManifest(result.Files)
	result.Stale = previous.Stale(current)
	for _, path := range result.Stale {
		m.opts.Diagnostics.Warn("%s is no longer generated", path)
	}
	if m.opts.DryRun {
		return nil
	}
	written, err := current.Save(m.opts.Root)
	if err != nil {
		return err
	}
	result.ManifestWritten = written
	return nil
}

func (m *Materializer) runCommand(ctx context.Context, cmd RunCommand, changed map[string]bool) (CommandResult, error) {
	cr := CommandResult{Command: cmd.Command, Dir: cmd.Dir}

	trigger := cmd.Always && len(cmd.WatchPaths) == 0
	for _, p := range cmd.WatchPaths {
		clean, err := utils.CleanOutputPath(p)
		if err == nil && changed[clean] {
			trigger = true
			break
		}
	}
	if !trigger || m.opts.DryRun || !m.opts.RunCommands {
		if trigger {
			m.opts.Diagnostics.Verbose("skipping command %q", cmd.Command)
		}
		return cr, nil
	}

	args, err := shellwords.Parse(cmd.Command)
	if err != nil {
		return cr, errors.WrapCommandError(cmd.Command, cmd.Dir, err).WithPath(cmd.By)
	}
	if len(args) == 0 {
		return cr, errors.WrapCommandError(cmd.Command, cmd.Dir, fmt.Errorf("empty command")).WithPath(cmd.By)
	}

	dir := m.opts.Root
	if cmd.Dir != "" {
		clean, err := utils.CleanOutputPath(cmd.Dir)
		if err != nil {
			return cr, errors.WrapCommandError(cmd.Command, cmd.Dir, err).WithPath(cmd.By)
		}
		dir = filepath.Join(m.opts.Root, filepath.FromSlash(clean))
	}

	m.opts.Diagnostics.Info("running %s", cmd.Command)
	out, err := m.opts.Runner(ctx, dir, args)
	cr.Output = string(out)
	if err != nil {
		return cr, errors.WrapCommandError(cmd.Command, cmd.Dir, err).
			WithPath(cmd.By).
			WithContext("output", cr.Output)
	}
	cr.Ran = true
	return cr, nil
}
