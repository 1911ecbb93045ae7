package graph

import (
	"strconv"
	"strings"

	"github.com/inkgraph/backend/pkg/concepts"
)

// Node is one graph vertex. ID is the normalized form of the label and
// doubles as the identity for merging.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Edge is a directed, weighted connection between two node IDs. The label
// carries either the weight ("w=2") or a verb for relation edges.
type Edge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Label  string  `json:"label,omitempty"`
	Weight float64 `json:"weight"`
}

// Graph is the wire form of a derived mindmap or flowchart. Node and edge
// order is deterministic: insertion order of first occurrence.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Empty reports whether the graph carries no structure worth returning.
func (g Graph) Empty() bool {
	return len(g.Edges) == 0
}

// NormalizeKey derives the node identity from a label.
func NormalizeKey(label string) string {
	return concepts.Normalize(label)
}

// Titleize upper-cases the first letter of every word for display labels
// built from normalized phrases.
func Titleize(phrase string) string {
	return concepts.Titleize(phrase)
}

// WeightLabel renders an edge weight as its display label.
func WeightLabel(weight float64) string {
	return "w=" + strconv.FormatFloat(weight, 'g', -1, 64)
}

type edgeKey struct {
	from string
	to   string
}

// builder accumulates nodes and edges with duplicate merging. Adding an
// existing node is a no-op; adding an existing edge accumulates its weight.
type builder struct {
	nodes     map[string]Node
	nodeOrder []string
	edges     map[edgeKey]*Edge
	edgeOrder []edgeKey
}

func newBuilder() *builder {
	return &builder{
		nodes: map[string]Node{},
		edges: map[edgeKey]*Edge{},
	}
}

// addNode registers a label and returns its node ID, or "" when the label
// normalizes to nothing.
func (b *builder) addNode(label string) string {
	label = strings.TrimSpace(label)
	key := NormalizeKey(label)
	if key == "" {
		return ""
	}
	if _, ok := b.nodes[key]; !ok {
		b.nodes[key] = Node{ID: key, Label: label}
		b.nodeOrder = append(b.nodeOrder, key)
	}
	return key
}

func (b *builder) addEdge(from, to string, weight float64, label string) {
	if from == "" || to == "" || from == to {
		return
	}
	key := edgeKey{from: from, to: to}
	if edge, ok := b.edges[key]; ok {
		edge.Weight += weight
		return
	}
	b.edges[key] = &Edge{From: from, To: to, Label: label, Weight: weight}
	b.edgeOrder = append(b.edgeOrder, key)
}

func (b *builder) graph() Graph {
	g := Graph{
		Nodes: make([]Node, 0, len(b.nodeOrder)),
		Edges: make([]Edge, 0, len(b.edgeOrder)),
	}
	for _, key := range b.nodeOrder {
		g.Nodes = append(g.Nodes, b.nodes[key])
	}
	for _, key := range b.edgeOrder {
		edge := *b.edges[key]
		if edge.Label == "" {
			edge.Label = WeightLabel(edge.Weight)
		}
		g.Edges = append(g.Edges, edge)
	}
	return g
}
