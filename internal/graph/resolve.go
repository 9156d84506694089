package graph

import (
	"github.com/toyz/scaffold/internal/errors"
	"github.com/toyz/scaffold/internal/provider"
)

type candidate struct {
	node NodeID
	slot string
}

func (b *builder) bind() {
	for _, n := range b.graph.nodes {
		n.Bindings = make(map[string]*provider.Binding, len(n.Descriptor.Dependencies))
		for _, slot := range sortedKeys(n.Descriptor.Dependencies) {
			binding, err := b.resolveSlot(n, slot, n.Descriptor.Dependencies[slot])
			if err != nil {
				b.fail(err)
				continue
			}
			n.Bindings[slot] = binding
		}
	}
}

// resolveSlot binds one dependency. An explicit reference wins. Otherwise
// scopes are searched from the parent upwards, each scope offering its own
// exports and those of its children. Global exports are the last resort.
func (b *builder) resolveSlot(n *Node, slot string, dep provider.Dependency) (*provider.Binding, errors.ScaffoldError) {
	typeName := dep.Type.Name
	if ref, ok := n.Refs[slot]; ok {
		return b.resolveReference(n, slot, dep, ref)
	}

	for scope := n.Parent; scope != NoNode; scope = b.graph.nodes[scope].Parent {
		cands := b.candidatesIn(scope, n.ID, typeName)
		if len(cands) == 0 {
			continue
		}
		if b.nearestAncestor {
			var own []candidate
			for _, c := range cands {
				if c.node == scope {
					own = append(own, c)
				}
			}
			if len(own) == 1 {
				return b.binding(own[0]), nil
			}
		}
		if len(cands) == 1 {
			return b.binding(cands[0]), nil
		}
		return nil, errors.NewAmbiguousDependencyError(n.Path, slot, typeName, b.describe(cands))
	}

	var globals []candidate
	for _, other := range b.graph.nodes {
		if other.ID == n.ID {
			continue
		}
		for _, exportSlot := range other.Descriptor.ExportsOf(typeName) {
			if other.Descriptor.Exports[exportSlot].Global {
				globals = append(globals, candidate{node: other.ID, slot: exportSlot})
			}
		}
	}
	switch {
	case len(globals) == 1:
		return b.binding(globals[0]), nil
	case len(globals) > 1:
		return nil, errors.NewAmbiguousDependencyError(n.Path, slot, typeName, b.describe(globals))
	case dep.Optional:
		return nil, nil
	default:
		return nil, errors.NewUnresolvedDependencyError(n.Path, slot, typeName)
	}
}

func (b *builder) resolveReference(n *Node, slot string, dep provider.Dependency, raw string) (*provider.Binding, errors.ScaffoldError) {
	typeName := dep.Type.Name
	ref, err := provider.ParseReference(raw)
	if err != nil {
		return nil, errors.NewSchemaValidationError(n.Path, "refs."+slot, err.Error()).WithValue(raw)
	}
	target, err := ref.Resolve(n.Path)
	if err != nil {
		return nil, errors.NewSchemaValidationError(n.Path, "refs."+slot, err.Error()).WithValue(raw)
	}

	unresolved := func(reason string) errors.ScaffoldError {
		e := errors.NewUnresolvedDependencyError(n.Path, slot, typeName)
		e.WithContext("reference", raw).WithContext("reason", reason)
		return e
	}

	id, ok := b.graph.byPath[target]
	if !ok {
		return nil, unresolved("no node at " + target)
	}
	if id == n.ID {
		return nil, unresolved("a node cannot depend on itself")
	}
	producer := b.graph.nodes[id]

	if ref.Export != "" {
		export, ok := producer.Descriptor.Exports[ref.Export]
		if !ok || export.Type.Name != typeName {
			return nil, unresolved(target + " has no '" + typeName + "' export named " + ref.Export)
		}
		return b.binding(candidate{node: id, slot: ref.Export}), nil
	}

	slots := producer.Descriptor.ExportsOf(typeName)
	cands := make([]candidate, len(slots))
	for i, s := range slots {
		cands[i] = candidate{node: id, slot: s}
	}
	switch len(cands) {
	case 0:
		return nil, unresolved(target + " exports no '" + typeName + "'")
	case 1:
		return b.binding(cands[0]), nil
	default:
		return nil, errors.NewAmbiguousDependencyError(n.Path, slot, typeName, b.describe(cands))
	}
}

// candidatesIn lists exports of typeName on scope and its children, self excluded
func (b *builder) candidatesIn(scope, self NodeID, typeName string) []candidate {
	members := append([]NodeID{scope}, b.graph.nodes[scope].Children...)
	var cands []candidate
	for _, id := range members {
		if id == self {
			continue
		}
		for _, slot := range b.graph.nodes[id].Descriptor.ExportsOf(typeName) {
			cands = append(cands, candidate{node: id, slot: slot})
		}
	}
	return cands
}

func (b *builder) binding(c candidate) *provider.Binding {
	producer := b.graph.nodes[c.node]
	return &provider.Binding{
		Producer: producer.Path,
		Export:   c.slot,
		Type:     producer.Descriptor.Exports[c.slot].Type,
	}
}

func (b *builder) describe(cands []candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = b.graph.nodes[c.node].Path + "#" + c.slot
	}
	return out
}
