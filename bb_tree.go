package rigid

import (
	"math"
	"slices"

	"github.com/setanarut/vec"
)

const pooledBufferSize = 64

// BBTree is an incremental bounding volume hierarchy. Leaves of a tree with
// velocity prediction enabled store fattened boxes, so objects that move a
// little stay in place and only leaves that outgrow their box are reinserted.
type BBTree struct {
	// predictVelocity expands leaf boxes by 10% and by a tenth of the velocity.
	predictVelocity bool
	// rebuildThreshold is how many times the cost of a freshly built tree the
	// tree may reach before Update rebuilds it. 0 disables automatic rebuilds.
	rebuildThreshold float64

	leaves      map[ShapeID]*node
	root        *node
	pooledNodes *node

	// churn counts reinsertions since the last rebuild.
	churn    int
	baseCost float64
}

// NewBBTree returns an empty tree. Pass predictVelocity for trees of moving objects.
func NewBBTree(predictVelocity bool, rebuildThreshold float64) *BBTree {
	return &BBTree{
		predictVelocity:  predictVelocity,
		rebuildThreshold: rebuildThreshold,
		leaves:           make(map[ShapeID]*node),
	}
}

type node struct {
	id     ShapeID
	bb     BB
	parent *node
	a, b   *node
	leaf   bool
}

func nodeSetA(n, value *node) {
	n.a = value
	value.parent = n
}

func nodeSetB(n, value *node) {
	n.b = value
	value.parent = n
}

func (n *node) other(child *node) *node {
	if n.a == child {
		return n.b
	}
	return n.a
}

func (tree *BBTree) Count() int {
	return len(tree.leaves)
}

func (tree *BBTree) Contains(id ShapeID) bool {
	_, ok := tree.leaves[id]
	return ok
}

// Each visits the leaves in tree order.
func (tree *BBTree) Each(f SpatialIndexQuery) {
	if tree.root != nil {
		tree.root.each(f)
	}
}

func (n *node) each(f SpatialIndexQuery) {
	if n.leaf {
		f(n.id)
		return
	}
	// f may not remove leaves, but cache the children anyway.
	a, b := n.a, n.b
	a.each(f)
	b.each(f)
}

func (tree *BBTree) Insert(id ShapeID, bb BB, vel vec.Vec2) error {
	if _, ok := tree.leaves[id]; ok {
		return newError(InvalidHandle, "BBTree.Insert", "%v already indexed", id)
	}
	if !bb.Valid() {
		return newError(InvalidGeometry, "BBTree.Insert", "%v has invalid bounding box %v", id, bb)
	}
	leaf := tree.newLeaf(id, tree.leafBB(bb, vel))
	tree.leaves[id] = leaf
	tree.root = tree.subtreeInsert(tree.root, leaf)
	return nil
}

func (tree *BBTree) Remove(id ShapeID) error {
	leaf, ok := tree.leaves[id]
	if !ok {
		return newError(InvalidHandle, "BBTree.Remove", "%v not indexed", id)
	}
	delete(tree.leaves, id)
	tree.root = tree.subtreeRemove(tree.root, leaf)
	tree.recycleNode(leaf)
	return nil
}

// Update reinserts the leaf only when bb left its fattened box.
func (tree *BBTree) Update(id ShapeID, bb BB, vel vec.Vec2) error {
	leaf, ok := tree.leaves[id]
	if !ok {
		return newError(InvalidHandle, "BBTree.Update", "%v not indexed", id)
	}
	if !bb.Valid() {
		return newError(InvalidGeometry, "BBTree.Update", "%v has invalid bounding box %v", id, bb)
	}
	if leaf.bb.Contains(bb) {
		return nil
	}

	tree.root = tree.subtreeRemove(tree.root, leaf)
	leaf.bb = tree.leafBB(bb, vel)
	leaf.parent = nil
	tree.root = tree.subtreeInsert(tree.root, leaf)

	tree.churn++
	if tree.rebuildThreshold > 0 && tree.churn > len(tree.leaves) {
		tree.churn = 0
		if cost := tree.cost(); cost > tree.rebuildThreshold*tree.baseCost {
			tree.Rebuild()
		}
	}
	return nil
}

// Rebuild builds a balanced tree from the current leaves by splitting along
// the longest axis at the median.
func (tree *BBTree) Rebuild() {
	if len(tree.leaves) == 0 {
		return
	}
	leaves := make([]*node, 0, len(tree.leaves))
	if tree.root != nil {
		tree.root.collectLeaves(&leaves)
	}
	tree.recycleInternal(tree.root)
	tree.root = tree.buildTopDown(leaves)
	tree.root.parent = nil
	tree.churn = 0
	tree.baseCost = tree.cost()
}

func (n *node) collectLeaves(out *[]*node) {
	if n.leaf {
		*out = append(*out, n)
		return
	}
	n.a.collectLeaves(out)
	n.b.collectLeaves(out)
}

func (tree *BBTree) recycleInternal(n *node) {
	if n == nil || n.leaf {
		return
	}
	a, b := n.a, n.b
	tree.recycleInternal(a)
	tree.recycleInternal(b)
	tree.recycleNode(n)
}

func (tree *BBTree) buildTopDown(leaves []*node) *node {
	if len(leaves) == 1 {
		return leaves[0]
	}

	bb := leaves[0].bb
	for _, l := range leaves[1:] {
		bb = bb.Merge(l.bb)
	}
	splitX := bb.R-bb.L > bb.T-bb.B
	slices.SortStableFunc(leaves, func(x, y *node) int {
		var cx, cy float64
		if splitX {
			cx, cy = x.bb.L+x.bb.R, y.bb.L+y.bb.R
		} else {
			cx, cy = x.bb.B+x.bb.T, y.bb.B+y.bb.T
		}
		switch {
		case cx < cy:
			return -1
		case cx > cy:
			return 1
		}
		return 0
	})

	mid := len(leaves) / 2
	return tree.newNode(tree.buildTopDown(leaves[:mid]), tree.buildTopDown(leaves[mid:]))
}

// cost is the summed area of the internal nodes, the usual surface area heuristic.
func (tree *BBTree) cost() float64 {
	var sum float64
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil || n.leaf {
			return
		}
		sum += n.bb.Area()
		walk(n.a)
		walk(n.b)
	}
	walk(tree.root)
	return sum
}

func (tree *BBTree) Query(bb BB, f SpatialIndexQuery) {
	if tree.root != nil {
		tree.root.subtreeQuery(bb, f)
	}
}

func (tree *BBTree) SegmentQuery(a, b vec.Vec2, tExit float64, f SpatialIndexSegmentQuery) {
	if tree.root != nil {
		tree.root.subtreeSegmentQuery(a, b, tExit, f)
	}
}

// leafBB returns the box stored in a leaf.
func (tree *BBTree) leafBB(bb BB, vel vec.Vec2) BB {
	if !tree.predictVelocity {
		return bb
	}

	coef := 0.1
	x := (bb.R - bb.L) * coef
	y := (bb.T - bb.B) * coef

	v := vel.Scale(0.1)
	return BB{
		bb.L + math.Min(-x, v.X),
		bb.B + math.Min(-y, v.Y),
		bb.R + math.Max(x, v.X),
		bb.T + math.Max(y, v.Y),
	}
}

// leafBounds returns the stored (possibly fattened) box of id.
func (tree *BBTree) leafBounds(id ShapeID) (BB, bool) {
	leaf, ok := tree.leaves[id]
	if !ok {
		return BB{}, false
	}
	return leaf.bb, true
}

func (tree *BBTree) subtreeInsert(subtree *node, leaf *node) *node {
	if subtree == nil {
		return leaf
	}
	if subtree.leaf {
		return tree.newNode(leaf, subtree)
	}

	costA := subtree.b.bb.Area() + subtree.a.bb.MergedArea(leaf.bb)
	costB := subtree.a.bb.Area() + subtree.b.bb.MergedArea(leaf.bb)

	if costA == costB {
		costA = subtree.a.bb.Proximity(leaf.bb)
		costB = subtree.b.bb.Proximity(leaf.bb)
	}

	if costB < costA {
		nodeSetB(subtree, tree.subtreeInsert(subtree.b, leaf))
	} else {
		nodeSetA(subtree, tree.subtreeInsert(subtree.a, leaf))
	}

	subtree.bb = subtree.bb.Merge(leaf.bb)
	return subtree
}

func (tree *BBTree) subtreeRemove(subtree *node, leaf *node) *node {
	if leaf == subtree {
		return nil
	}

	parent := leaf.parent
	if parent == subtree {
		other := subtree.other(leaf)
		other.parent = subtree.parent
		tree.recycleNode(subtree)
		return other
	}

	tree.replaceChild(parent.parent, parent, parent.other(leaf))
	return subtree
}

// replaceChild puts value in place of child, recycling child, and refits the ancestors.
func (tree *BBTree) replaceChild(parent, child, value *node) {
	if parent.a == child {
		tree.recycleNode(parent.a)
		nodeSetA(parent, value)
	} else {
		tree.recycleNode(parent.b)
		nodeSetB(parent, value)
	}

	for n := parent; n != nil; n = n.parent {
		n.bb = n.a.bb.Merge(n.b.bb)
	}
}

func (n *node) subtreeQuery(bb BB, f SpatialIndexQuery) {
	if !n.bb.Intersects(bb) {
		return
	}
	if n.leaf {
		f(n.id)
		return
	}
	n.a.subtreeQuery(bb, f)
	n.b.subtreeQuery(bb, f)
}

func (n *node) subtreeSegmentQuery(a, b vec.Vec2, tExit float64, f SpatialIndexSegmentQuery) float64 {
	if n.leaf {
		return f(n.id)
	}

	tA := n.a.bb.SegmentQuery(a, b)
	tB := n.b.bb.SegmentQuery(a, b)

	if tA < tB {
		if tA < tExit {
			tExit = math.Min(tExit, n.a.subtreeSegmentQuery(a, b, tExit, f))
		}
		if tB < tExit {
			tExit = math.Min(tExit, n.b.subtreeSegmentQuery(a, b, tExit, f))
		}
	} else {
		if tB < tExit {
			tExit = math.Min(tExit, n.b.subtreeSegmentQuery(a, b, tExit, f))
		}
		if tA < tExit {
			tExit = math.Min(tExit, n.a.subtreeSegmentQuery(a, b, tExit, f))
		}
	}

	return tExit
}

func (tree *BBTree) newNode(a, b *node) *node {
	n := tree.nodeFromPool()
	n.bb = a.bb.Merge(b.bb)
	n.parent = nil

	nodeSetA(n, a)
	nodeSetB(n, b)
	return n
}

func (tree *BBTree) newLeaf(id ShapeID, bb BB) *node {
	n := tree.nodeFromPool()
	n.id = id
	n.leaf = true
	n.bb = bb
	return n
}

func (tree *BBTree) nodeFromPool() *node {
	n := tree.pooledNodes

	if n != nil {
		tree.pooledNodes = n.parent
		*n = node{}
		return n
	}

	// Pool is exhausted make more
	for range pooledBufferSize {
		tree.recycleNode(&node{})
	}

	return &node{}
}

func (tree *BBTree) recycleNode(n *node) {
	*n = node{parent: tree.pooledNodes}
	tree.pooledNodes = n
}
