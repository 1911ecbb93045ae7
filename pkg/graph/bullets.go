package graph

import "github.com/inkgraph/backend/pkg/common"

// maxOutlineDepth caps recursion into the bullet tree.
const maxOutlineDepth = 4

// FromBullets turns a hierarchical outline into a mindmap graph. Bullets
// with the same normalized text collapse into one node, and repeated
// parent-child pairs accumulate edge weight.
func FromBullets(bullets []common.Bullet) Graph {
	b := newBuilder()
	for _, bullet := range bullets {
		addBullet(b, "", bullet, 0)
	}
	return b.graph()
}

func addBullet(b *builder, parent string, bullet common.Bullet, depth int) {
	if depth >= maxOutlineDepth {
		return
	}

	node := b.addNode(bullet.Text)
	if node == "" {
		return
	}
	if parent != "" {
		b.addEdge(parent, node, 1, "")
	}
	for _, child := range bullet.Children {
		addBullet(b, node, child, depth+1)
	}
}
