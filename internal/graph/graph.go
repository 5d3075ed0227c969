// Package graph provides a directed graph of table relationships.
// Nodes are keyed case-insensitively, self-loops are allowed and cycles are
// expected: tables routinely reference each other.
package graph

import "github.com/leapstack-labs/dbschema/pkg/core"

// Node represents a table in the graph.
type Node struct {
	// Name is the spelling the node was first added with
	Name string
	// Data holds arbitrary node data
	Data interface{}
	// Placeholder marks a node that only exists as an edge endpoint
	Placeholder bool
}

// Graph represents a directed relationship graph.
// An edge from A to B means A references B.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]string // referencing -> referenced (outward)
	parents map[string][]string // referenced -> referencing (inward)
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Adding an existing name updates its
// data and promotes a placeholder to a declared node.
func (g *Graph) AddNode(name string, data interface{}) {
	key := core.Fold(name)
	if node, exists := g.nodes[key]; exists {
		if node.Placeholder {
			node.Name = name
			node.Placeholder = false
		}
		node.Data = data
		return
	}
	g.insert(key, &Node{Name: name, Data: data})
}

func (g *Graph) insert(key string, node *Node) {
	g.nodes[key] = node
	g.edges[key] = []string{}
	g.parents[key] = []string{}
}

// AddEdge adds a directed edge from the referencing table to the referenced
// one. Missing endpoints are added as placeholders; duplicate edges collapse.
func (g *Graph) AddEdge(from, to string) {
	fromKey, toKey := core.Fold(from), core.Fold(to)
	if _, exists := g.nodes[fromKey]; !exists {
		g.insert(fromKey, &Node{Name: from, Placeholder: true})
	}
	if _, exists := g.nodes[toKey]; !exists {
		g.insert(toKey, &Node{Name: to, Placeholder: true})
	}

	if !contains(g.edges[fromKey], toKey) {
		g.edges[fromKey] = append(g.edges[fromKey], toKey)
	}
	if !contains(g.parents[toKey], fromKey) {
		g.parents[toKey] = append(g.parents[toKey], fromKey)
	}
}

// GetNode returns a node by name.
func (g *Graph) GetNode(name string) (*Node, bool) {
	node, exists := g.nodes[core.Fold(name)]
	return node, exists
}

// Outward returns the names of the tables name references, in edge order.
func (g *Graph) Outward(name string) []string {
	return g.names(g.edges[core.Fold(name)])
}

// Inward returns the names of the tables referencing name, in edge order.
func (g *Graph) Inward(name string) []string {
	return g.names(g.parents[core.Fold(name)])
}

// Direction returns Inward or Outward according to dir.
func (g *Graph) Direction(name string, dir core.Direction) []string {
	if dir == core.Inward {
		return g.Inward(name)
	}
	return g.Outward(name)
}

func (g *Graph) names(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = g.nodes[k].Name
	}
	return out
}

// NodeCount returns the number of nodes in the graph, placeholders included.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// contains checks if a slice contains a string.
func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
