package graph

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/toyz/scaffold/internal/errors"
	"github.com/toyz/scaffold/internal/generator"
	"github.com/toyz/scaffold/internal/schema"
)

var (
	rootNamePattern  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_\-]*$`)
	childNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_\-]*$`)
)

// Option configures graph construction
type Option func(*builder)

// WithNearestAncestor lets a scope's own export win over exports of its
// other children when both match a dependency. Without it such a slot is
// ambiguous and needs an explicit reference.
func WithNearestAncestor() Option {
	return func(b *builder) { b.nearestAncestor = true }
}

type builder struct {
	catalog         *generator.Catalog
	graph           *Graph
	errs            *errors.MultipleErrors
	nearestAncestor bool
}

// New builds the generator tree rooted at root, resolves every dependency
// and computes both execution orders. All problems found in one stage are
// reported together as *errors.MultipleErrors; nothing runs on failure.
func New(catalog *generator.Catalog, root generator.NodeSpec, opts ...Option) (*Graph, error) {
	b := &builder{
		catalog: catalog,
		graph:   &Graph{byPath: make(map[string]NodeID)},
	}
	for _, opt := range opts {
		opt(b)
	}

	name := root.Name
	if name == "" {
		name = root.Generator
	}
	if !rootNamePattern.MatchString(name) {
		return nil, errors.Newf(errors.ConfigurationErrorCode, "invalid root name '%s'", name)
	}

	b.add(root, name, NoNode)
	if err := b.errs.ErrOrNil(); err != nil {
		return nil, err
	}

	b.bind()
	if err := b.errs.ErrOrNil(); err != nil {
		return nil, err
	}

	wire, build := b.edges()
	var err error
	if b.graph.wireOrder, err = b.order("wire", wire); err != nil {
		return nil, err
	}
	if b.graph.buildOrder, err = b.order("build", build); err != nil {
		return nil, err
	}
	return b.graph, nil
}

func (b *builder) fail(err errors.ScaffoldError) {
	errors.AddToMultiple(&b.errs, err)
}

func (b *builder) add(spec generator.NodeSpec, name string, parent NodeID) {
	path := "/" + name
	if parent != NoNode {
		path = b.graph.nodes[parent].Path + "/" + name
	}
	if _, dup := b.graph.byPath[path]; dup {
		b.fail(errors.Newf(errors.ConfigurationErrorCode, "duplicate node '%s'", path).WithPath(path))
		return
	}

	desc, err := b.catalog.Lookup(spec.Generator)
	if err != nil {
		b.fail(errors.AtPath(err, path))
		return
	}

	values, err := desc.Schema.Validate(path, spec.Config)
	valid := err == nil
	if err != nil {
		b.failAll(path, err)
	}

	for _, slot := range sortedKeys(spec.Refs) {
		if _, ok := desc.Dependencies[slot]; !ok {
			b.fail(errors.NewSchemaValidationError(path, "refs."+slot, "not a dependency of generator '"+desc.Name+"'").
				WithValue(spec.Refs[slot]))
			valid = false
		}
	}

	node := &Node{
		ID:         NodeID(len(b.graph.nodes)),
		Path:       path,
		Name:       name,
		Descriptor: desc,
		Config:     values,
		Refs:       spec.Refs,
		Parent:     parent,
	}
	b.graph.nodes = append(b.graph.nodes, node)
	b.graph.byPath[path] = node.ID
	if parent != NoNode {
		p := b.graph.nodes[parent]
		p.Children = append(p.Children, node.ID)
	}

	for _, slot := range sortedKeys(spec.Children) {
		if _, ok := desc.Children[slot]; !ok {
			b.fail(errors.NewSchemaValidationError(path, "children."+slot, "not a child slot of generator '"+desc.Name+"'"))
		}
	}

	for _, slot := range sortedKeys(desc.Children) {
		b.addChildren(node, slot, desc.Children[slot], spec, values, valid)
	}
}

func (b *builder) addChildren(node *Node, slot string, cs generator.ChildSlot, spec generator.NodeSpec, values schema.Values, valid bool) {
	specs, explicit := spec.ChildrenOf(slot)
	if !explicit {
		if cs.Defaults == nil || !valid {
			return
		}
		defaults, err := cs.Defaults(values)
		if err != nil {
			b.fail(errors.Wrapf(errors.ConfigurationErrorCode, err, "default children of slot '%s' failed", slot).
				WithPath(node.Path))
			return
		}
		specs = defaults
	}

	if !cs.Multiple && len(specs) > 1 {
		b.fail(errors.NewSchemaValidationError(node.Path, "children."+slot,
			fmt.Sprintf("slot holds a single child, got %d", len(specs))))
		return
	}

	for i, child := range specs {
		field := fmt.Sprintf("children.%s[%d]", slot, i)
		if child.Generator == "" {
			child.Generator = cs.Generator
		}
		if child.Generator == "" {
			b.fail(errors.NewSchemaValidationError(node.Path, field, "no generator named and the slot has no default"))
			continue
		}

		name := slot
		if cs.Multiple {
			childName := child.Name
			if childName == "" {
				childName = strconv.Itoa(i)
			}
			if !childNamePattern.MatchString(childName) {
				b.fail(errors.NewSchemaValidationError(node.Path, field, "invalid child name").WithValue(childName))
				continue
			}
			name = slot + "." + childName
		}
		b.add(child, name, node.ID)
	}
}

// failAll records every error of a schema validation failure
func (b *builder) failAll(path string, err error) {
	if multi, ok := err.(*errors.MultipleErrors); ok {
		for _, e := range multi.Errors {
			b.fail(e)
		}
		return
	}
	b.fail(errors.Wrap(errors.SchemaValidationErrorCode, "invalid configuration", err).WithPath(path))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
