package graph

import (
	"regexp"
	"sort"
	"strings"

	"github.com/inkgraph/backend/pkg/common"
)

var sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

// connectorWeight attaches isolated phrases to the root so the hierarchy
// stays a single tree. It is near zero to keep connectors visually distinct
// from real associations.
const connectorWeight = 0.0001

// FromCooccurrence derives a hierarchy over the keyphrases: phrases
// co-occurring in a sentence form a weighted association graph, its maximum
// spanning tree keeps the strongest links, and the tree is oriented away
// from the top-ranked phrase. Phrases without any co-occurrence attach
// directly to the root.
func FromCooccurrence(text string, phrases []common.KeyPhrase) Graph {
	if len(phrases) == 0 {
		return Graph{}
	}

	b := newBuilder()
	var ids []string
	for _, phrase := range phrases {
		if id := b.addNode(Titleize(phrase.Phrase)); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return Graph{}
	}
	root := ids[0]

	weights := cooccurrenceWeights(text, ids)
	adjacency := spanningTree(ids, root, weights)
	orient(b, root, adjacency)
	return b.graph()
}

type pairWeight struct {
	a, b   string
	weight float64
}

// cooccurrenceWeights counts, per unordered phrase pair, the sentences in
// which both phrases appear.
func cooccurrenceWeights(text string, ids []string) []pairWeight {
	counts := map[edgeKey]float64{}
	for _, sentence := range sentenceSplit.Split(strings.ToLower(text), -1) {
		var present []string
		for _, id := range ids {
			if strings.Contains(sentence, id) {
				present = append(present, id)
			}
		}
		for i := 0; i < len(present); i++ {
			for j := i + 1; j < len(present); j++ {
				counts[orderedPair(present[i], present[j])]++
			}
		}
	}

	pairs := make([]pairWeight, 0, len(counts))
	for key, weight := range counts {
		pairs = append(pairs, pairWeight{a: key.from, b: key.to, weight: weight})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].weight != pairs[j].weight {
			return pairs[i].weight > pairs[j].weight
		}
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})
	return pairs
}

func orderedPair(a, b string) edgeKey {
	if b < a {
		a, b = b, a
	}
	return edgeKey{from: a, to: b}
}

type neighbor struct {
	id     string
	weight float64
}

// spanningTree runs Kruskal over the pairs in descending weight order, which
// yields the maximum spanning forest, then joins every remaining component
// to the root with a connector edge.
func spanningTree(ids []string, root string, pairs []pairWeight) map[string][]neighbor {
	parent := map[string]string{}
	for _, id := range ids {
		parent[id] = id
	}
	var find func(string) string
	find = func(id string) string {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}
		return parent[id]
	}
	union := func(a, b string) bool {
		ra, rb := find(a), find(b)
		if ra == rb {
			return false
		}
		parent[ra] = rb
		return true
	}

	adjacency := map[string][]neighbor{}
	link := func(a, b string, weight float64) {
		adjacency[a] = append(adjacency[a], neighbor{id: b, weight: weight})
		adjacency[b] = append(adjacency[b], neighbor{id: a, weight: weight})
	}

	for _, pair := range pairs {
		if union(pair.a, pair.b) {
			link(pair.a, pair.b, pair.weight)
		}
	}
	for _, id := range ids {
		if union(id, root) {
			link(root, id, connectorWeight)
		}
	}
	return adjacency
}

// orient walks the tree breadth-first from the root and emits directed
// parent-to-child edges.
func orient(b *builder, root string, adjacency map[string][]neighbor) {
	visited := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[current] {
			if visited[next.id] {
				continue
			}
			visited[next.id] = true
			b.addEdge(current, next.id, next.weight, "")
			queue = append(queue, next.id)
		}
	}
}
