package graph

import (
	"testing"

	"github.com/inkgraph/backend/pkg/common"
	"github.com/inkgraph/backend/pkg/concepts"
)

func nodeIDs(g Graph) map[string]bool {
	ids := map[string]bool{}
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	return ids
}

// checkWellFormed verifies every edge references declared nodes and no edge
// is a self loop.
func checkWellFormed(t *testing.T, g Graph) {
	t.Helper()
	ids := nodeIDs(g)
	for _, e := range g.Edges {
		if !ids[e.From] || !ids[e.To] {
			t.Fatalf("edge %v references undeclared node", e)
		}
		if e.From == e.To {
			t.Fatalf("self loop: %v", e)
		}
	}
}

func TestFromBulletsMergesDuplicateChildren(t *testing.T) {
	g := FromBullets([]common.Bullet{
		{
			Text: "Topic",
			Children: []common.Bullet{
				{Text: "Sub A"},
				{Text: "Sub A"},
			},
		},
	})
	checkWellFormed(t, g)

	if len(g.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2: %+v", len(g.Nodes), g.Nodes)
	}
	if len(g.Edges) != 1 {
		t.Fatalf("got %d edges, want 1: %+v", len(g.Edges), g.Edges)
	}
	edge := g.Edges[0]
	if edge.Weight != 2 {
		t.Fatalf("edge weight = %v, want 2", edge.Weight)
	}
	if edge.Label != "w=2" {
		t.Fatalf("edge label = %q, want w=2", edge.Label)
	}
}

func TestFromBulletsNestedOutline(t *testing.T) {
	g := FromBullets([]common.Bullet{
		{
			Text: "Energy",
			Children: []common.Bullet{
				{Text: "Kinetic", Children: []common.Bullet{{Text: "Motion"}}},
				{Text: "Potential"},
			},
		},
	})
	checkWellFormed(t, g)

	if len(g.Nodes) != 4 {
		t.Fatalf("got %d nodes: %+v", len(g.Nodes), g.Nodes)
	}
	if len(g.Edges) != 3 {
		t.Fatalf("got %d edges: %+v", len(g.Edges), g.Edges)
	}
	if g.Nodes[0].Label != "Energy" {
		t.Fatalf("first node = %q", g.Nodes[0].Label)
	}
}

func TestFromBulletsEmptyInput(t *testing.T) {
	g := FromBullets(nil)
	if !g.Empty() || len(g.Nodes) != 0 {
		t.Fatalf("expected empty graph, got %+v", g)
	}
}

func TestFromCooccurrenceBuildsSingleTree(t *testing.T) {
	text := "Entropy rises with temperature. Temperature drives pressure. " +
		"Entropy and pressure relate. Viscosity is unrelated here."
	phrases := []common.KeyPhrase{
		{Phrase: "entropy", Score: 1.0},
		{Phrase: "temperature", Score: 0.99},
		{Phrase: "pressure", Score: 0.98},
		{Phrase: "viscosity", Score: 0.97},
	}

	g := FromCooccurrence(text, phrases)
	checkWellFormed(t, g)

	if len(g.Nodes) != 4 {
		t.Fatalf("got %d nodes: %+v", len(g.Nodes), g.Nodes)
	}
	// A tree over n nodes has n-1 edges.
	if len(g.Edges) != 3 {
		t.Fatalf("got %d edges, want 3: %+v", len(g.Edges), g.Edges)
	}

	// Every node except the root has exactly one incoming edge.
	incoming := map[string]int{}
	for _, e := range g.Edges {
		incoming[e.To]++
	}
	if incoming["entropy"] != 0 {
		t.Fatalf("root has incoming edges: %+v", g.Edges)
	}
	for _, id := range []string{"temperature", "pressure", "viscosity"} {
		if incoming[id] != 1 {
			t.Fatalf("node %s has %d incoming edges: %+v", id, incoming[id], g.Edges)
		}
	}

	// The isolated phrase hangs off the tree by a connector edge.
	found := false
	for _, e := range g.Edges {
		if e.To == "viscosity" && e.Weight == connectorWeight {
			found = true
		}
	}
	if !found {
		t.Fatalf("no connector edge for isolated phrase: %+v", g.Edges)
	}
}

func TestFromCooccurrenceEmptyPhrases(t *testing.T) {
	g := FromCooccurrence("some text", nil)
	if !g.Empty() {
		t.Fatalf("expected empty graph, got %+v", g)
	}
}

func TestFromRelations(t *testing.T) {
	g := FromRelations([][]string{
		{"photosynthesis", "light reaction"},
		{"photosynthesis", "calvin cycle"},
		{"too short"},
		nil,
	})
	checkWellFormed(t, g)

	if len(g.Nodes) != 3 {
		t.Fatalf("got %d nodes: %+v", len(g.Nodes), g.Nodes)
	}
	if len(g.Edges) != 2 {
		t.Fatalf("got %d edges: %+v", len(g.Edges), g.Edges)
	}
	if g.Edges[0].From != "photosynthesis" || g.Edges[0].To != "light reaction" {
		t.Fatalf("edge = %+v", g.Edges[0])
	}
}

func TestFromSentencesExtractsSubjectVerbObject(t *testing.T) {
	sentences := []concepts.Sentence{
		{
			Text: "Mitochondria produce energy.",
			Tokens: []concepts.Token{
				{Text: "Mitochondria", Tag: "NNS"},
				{Text: "produce", Tag: "VBP"},
				{Text: "energy", Tag: "NN"},
				{Text: ".", Tag: "."},
			},
		},
		{
			Text: "Quickly running away.",
			Tokens: []concepts.Token{
				{Text: "Quickly", Tag: "RB"},
				{Text: "running", Tag: "VBG"},
				{Text: "away", Tag: "RB"},
			},
		},
	}

	phrases := []common.KeyPhrase{
		{Phrase: "Mitochondria", Score: 1.0},
		{Phrase: "Energy", Score: 0.99},
	}
	g := FromSentences(sentences, phrases)
	checkWellFormed(t, g)

	if len(g.Edges) != 1 {
		t.Fatalf("got %d edges: %+v", len(g.Edges), g.Edges)
	}
	edge := g.Edges[0]
	if edge.From != "mitochondria" || edge.To != "energy" {
		t.Fatalf("edge = %+v", edge)
	}
	if edge.Label != "produce" {
		t.Fatalf("edge label = %q", edge.Label)
	}
}

func TestFromSentencesIgnoresNonConceptNouns(t *testing.T) {
	sentences := []concepts.Sentence{
		{
			Text: "The janitor cleaned the hallway.",
			Tokens: []concepts.Token{
				{Text: "The", Tag: "DT"},
				{Text: "janitor", Tag: "NN"},
				{Text: "cleaned", Tag: "VBD"},
				{Text: "the", Tag: "DT"},
				{Text: "hallway", Tag: "NN"},
				{Text: ".", Tag: "."},
			},
		},
	}
	phrases := []common.KeyPhrase{
		{Phrase: "Entropy", Score: 1.0},
		{Phrase: "Temperature", Score: 0.99},
	}

	g := FromSentences(sentences, phrases)
	if !g.Empty() || len(g.Nodes) != 0 {
		t.Fatalf("nouns outside the concept list produced a graph: %+v", g)
	}
}

func TestFromSentencesPrefersLongestConceptMatch(t *testing.T) {
	sentences := []concepts.Sentence{
		{
			Text: "Deep neural networks classify images.",
			Tokens: []concepts.Token{
				{Text: "Deep", Tag: "JJ"},
				{Text: "neural", Tag: "JJ"},
				{Text: "networks", Tag: "NNS"},
				{Text: "classify", Tag: "VBP"},
				{Text: "images", Tag: "NNS"},
				{Text: ".", Tag: "."},
			},
		},
	}
	phrases := []common.KeyPhrase{
		{Phrase: "Networks", Score: 1.0},
		{Phrase: "Neural Networks", Score: 0.99},
		{Phrase: "Images", Score: 0.98},
	}

	g := FromSentences(sentences, phrases)
	checkWellFormed(t, g)
	if len(g.Edges) != 1 {
		t.Fatalf("got %d edges: %+v", len(g.Edges), g.Edges)
	}
	if g.Edges[0].From != "neural networks" {
		t.Fatalf("subject matched %q, want the longer concept", g.Edges[0].From)
	}
}

func TestTitleize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"light reaction", "Light Reaction"},
		{"dna", "Dna"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Titleize(tt.in); got != tt.want {
			t.Errorf("Titleize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
