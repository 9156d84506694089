// Package output assembles fragments into files and materializes the queued
// build actions: rendering, idempotent writes and gated commands.
package output

import (
	"sync"

	"github.com/toyz/scaffold/internal/fragment"
)

// Action is a queued, idempotent build instruction. Actions are pure data
// until the Materializer runs them.
type Action interface {
	// Target is the output path written by the action, or "" for commands
	Target() string
	// Origin is the node path that queued the action
	Origin() string
}

// RenderTemplate writes a rendered composite template
type RenderTemplate struct {
	Path     string
	Template *fragment.Template
	By       string
}

func (a RenderTemplate) Target() string { return a.Path }
func (a RenderTemplate) Origin() string { return a.By }

// CopyTemplate copies a static template, substituting values by placeholder
// name and rendering Decls as its import block.
type CopyTemplate struct {
	Path    string
	Source  string
	Values  map[string]string
	Decls   []fragment.Declaration
	Mappers []fragment.ImportMapper
	By      string
}

func (a CopyTemplate) Target() string { return a.Path }
func (a CopyTemplate) Origin() string { return a.By }

// WriteFile writes literal content
type WriteFile struct {
	Path    string
	Content string
	By      string
}

func (a WriteFile) Target() string { return a.Path }
func (a WriteFile) Origin() string { return a.By }

// RunCommand runs a command after all files were written. It runs when one
// of WatchPaths changed, or on every run when WatchPaths is empty and Always
// is set.
type RunCommand struct {
	Command    string
	Dir        string
	WatchPaths []string
	Always     bool
	By         string
}

func (a RunCommand) Target() string { return "" }
func (a RunCommand) Origin() string { return a.By }

// Queue collects actions in registration order
type Queue struct {
	mu      sync.Mutex
	actions []Action
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{}
}

// Add appends an action
func (q *Queue) Add(a Action) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.actions = append(q.actions, a)
}

// Actions returns the queued actions in registration order
func (q *Queue) Actions() []Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Action(nil), q.actions...)
}

// Len returns the number of queued actions
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}
