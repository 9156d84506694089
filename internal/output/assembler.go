package output

import (
	"sort"
	"strings"
	"sync"

	"github.com/toyz/scaffold/internal/fragment"
)

// FileOptions configures how an assembled file is composed
type FileOptions struct {
	// Preamble precedes the bodies, typically a header comment and the
	// package clause. The import block goes at TPL_IMPORTS or after the
	// package clause.
	Preamble string
	Mappers  []fragment.ImportMapper
}

type assembledContribution struct {
	fragment fragment.Fragment
	category string
	by       string
}

type assembledFile struct {
	options       FileOptions
	contributions []assembledContribution
}

// Assembler merges every fragment destined for one output file
type Assembler struct {
	mu    sync.Mutex
	files map[string]*assembledFile
	order []string
}

// NewAssembler creates an empty assembler
func NewAssembler() *Assembler {
	return &Assembler{files: make(map[string]*assembledFile)}
}

func (a *Assembler) file(target string) *assembledFile {
	f, ok := a.files[target]
	if !ok {
		f = &assembledFile{}
		a.files[target] = f
		a.order = append(a.order, target)
	}
	return f
}

// Configure sets the composition options of target
func (a *Assembler) Configure(target string, options FileOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.file(target).options = options
}

// RegisterContribution adds a fragment to target under an ordering category
func (a *Assembler) RegisterContribution(by, target string, f fragment.Fragment, category string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	file := a.file(target)
	file.contributions = append(file.contributions, assembledContribution{
		fragment: f,
		category: category,
		by:       by,
	})
}

// Targets returns the targets in first-registration order
func (a *Assembler) Targets() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.order...)
}

// Compose renders target: contributions stable-sorted by category priority
// (unlisted categories last), joined by blank lines, with the deduplicated
// import block.
func (a *Assembler) Compose(target string, priorities []string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	file, ok := a.files[target]
	if !ok {
		return "", nil
	}

	ordered := OrderByCategory(file.contributions, priorities, func(c assembledContribution) string {
		return c.category
	})

	bodies := make([]string, 0, len(ordered))
	decls := make([][]fragment.Declaration, 0, len(ordered))
	for _, c := range ordered {
		if body := strings.TrimRight(c.fragment.Body(), "\n"); body != "" {
			bodies = append(bodies, body)
		}
		decls = append(decls, c.fragment.Declarations())
	}

	var text strings.Builder
	if preamble := strings.TrimRight(file.options.Preamble, "\n"); preamble != "" {
		text.WriteString(preamble)
		text.WriteString("\n\n")
	}
	text.WriteString(strings.Join(bodies, "\n\n"))
	text.WriteString("\n")

	return fragment.RenderStatic(target, text.String(), nil, fragment.UnionDeclarations(decls...), file.options.Mappers...)
}

// Flush composes every target and queues a WriteFile for each, in
// first-registration order. Nothing is queued if any target fails.
func (a *Assembler) Flush(by string, q *Queue, priorities []string) error {
	writes := make([]Action, 0, len(a.Targets()))
	for _, target := range a.Targets() {
		content, err := a.Compose(target, priorities)
		if err != nil {
			return err
		}
		writes = append(writes, WriteFile{Path: target, Content: content, By: by})
	}
	for _, w := range writes {
		q.Add(w)
	}
	return nil
}

// OrderByCategory stable-sorts items by the position of their category in
// priorities. Items with unlisted categories keep their relative order after
// all listed ones.
func OrderByCategory[T any](items []T, priorities []string, category func(T) string) []T {
	rank := make(map[string]int, len(priorities))
	for i, p := range priorities {
		if _, dup := rank[p]; !dup {
			rank[p] = i
		}
	}
	rankOf := func(item T) int {
		if r, ok := rank[category(item)]; ok {
			return r
		}
		return len(priorities)
	}

	out := append([]T(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return rankOf(out[i]) < rankOf(out[j])
	})
	return out
}
