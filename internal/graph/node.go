// Package graph builds the generator tree from node specs, binds every
// dependency slot to a producer and computes the wire and build orders.
package graph

import (
	"github.com/toyz/scaffold/internal/generator"
	"github.com/toyz/scaffold/internal/provider"
	"github.com/toyz/scaffold/internal/schema"
)

// NodeID addresses a node in the graph arena. IDs follow pre-order, so the
// root is 0 and a parent's ID is lower than its children's.
type NodeID int

// NoNode is the parent of the root
const NoNode NodeID = -1

// State is the lifecycle state of a node
type State int

const (
	Unwired State = iota
	Wired
	Built
	Failed
)

func (s State) String() string {
	switch s {
	case Unwired:
		return "unwired"
	case Wired:
		return "wired"
	case Built:
		return "built"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Node is one instantiated generator
type Node struct {
	ID         NodeID
	Path       string
	Name       string
	Descriptor *generator.Descriptor
	Config     schema.Values
	Refs       map[string]string
	Parent     NodeID
	Children   []NodeID
	// Bindings maps each dependency slot to its producer. Optional slots
	// without producer map to nil.
	Bindings map[string]*provider.Binding
	State    State
}

// Info returns the identity handed to hooks
func (n *Node) Info() generator.Node {
	return generator.Node{
		Path:      n.Path,
		Name:      n.Name,
		Generator: n.Descriptor.Name,
		Config:    n.Config,
	}
}

// Graph is the validated generator tree with its execution orders
type Graph struct {
	nodes      []*Node
	byPath     map[string]NodeID
	wireOrder  []NodeID
	buildOrder []NodeID
}

// Root returns the root node
func (g *Graph) Root() *Node {
	return g.nodes[0]
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns the node with id
func (g *Graph) Node(id NodeID) *Node {
	return g.nodes[id]
}

// Nodes returns every node in pre-order
func (g *Graph) Nodes() []*Node {
	return append([]*Node(nil), g.nodes...)
}

// Lookup returns the node at path
func (g *Graph) Lookup(path string) (*Node, bool) {
	id, ok := g.byPath[path]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// WireOrder returns nodes with every producer before its consumers
func (g *Graph) WireOrder() []*Node {
	return g.resolve(g.wireOrder)
}

// BuildOrder returns nodes with read-only producers before their consumers
// and mutable producers after theirs.
func (g *Graph) BuildOrder() []*Node {
	return g.resolve(g.buildOrder)
}

// Paths returns the paths of nodes, for diagnostics and tests
func Paths(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Path
	}
	return out
}

func (g *Graph) resolve(ids []NodeID) []*Node {
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}
