package bvh

import (
	"time"

	"github.com/9Christian6/RenderFrameworkRIS/log"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

const (
	// Traversal stack capacity. Depth is bounded well below this for any
	// tree the builder can emit.
	TraversalStackSize = 64

	// Per-triangle pre-split stack capacity.
	PreSplitStackSize = 32

	// Subtrees above this reference count are built as independent tasks.
	parallelThreshold = 1000

	// SAH cost of visiting an inner node, in units of one
	// triangle-intersection test.
	traversalCost float32 = 1.0
)

// A node of the hierarchy. Nodes are stored in a contiguous array; the two
// children of an inner node always occupy consecutive slots and the root is
// node 0.
//
// Child holds the index of the first child for inner nodes and the index of
// the first primitive slot for leaves. Count holds the leaf primitive count
// (> 0) or the negated split axis for inner nodes (<= 0).
type Node struct {
	Min   types.Vec3
	Child int32
	Max   types.Vec3
	Count int32
}

func (n *Node) IsLeaf() bool {
	return n.Count > 0
}

func (n *Node) BBox() types.BBox {
	return types.BBox{Min: n.Min, Max: n.Max}
}

// Padded slab bound addressed by octant index: 0-2 map to Min, 4-6 to Max.
func (n *Node) bound(i int) float32 {
	if i < 4 {
		return n.Min[i]
	}
	return n.Max[i-4]
}

// A bounding volume hierarchy over a triangle mesh.
type Bvh struct {
	// Nodes stored as a contiguous list.
	Nodes []Node

	// Maps leaf primitive slots back to source triangle indices.
	PrimIDs []uint32

	// Triangle data in leaf order, reorganized for the intersection kernel.
	Tris []PrecomputedTri
}

var logger = log.New("bvh")

// Build a hierarchy from a list of vertices and a list of indices. Triangle i
// uses indices[4i+0..2]; the fourth slot carries the material id and is
// ignored here.
func Build(verts []types.Vec3, indices []uint32) *Bvh {
	numTris := len(indices) / 4
	maxRefs := numTris * 3 / 2

	bboxes := make([]types.BBox, maxRefs)
	centers := make([]types.Vec3, maxRefs)
	refs := make([]uint32, maxRefs)

	globalBBox := types.EmptyBBox()
	for i := 0; i < numTris; i++ {
		globalBBox = globalBBox.ExtendPoint(verts[indices[i*4+0]])
		globalBBox = globalBBox.ExtendPoint(verts[indices[i*4+1]])
		globalBBox = globalBBox.ExtendPoint(verts[indices[i*4+2]])
	}

	start := time.Now()

	threshold := globalBBox.Volume() / float32(int32(1)<<14)
	numRefs := preSplit(verts, indices, bboxes, centers, refs, threshold, numTris, maxRefs)

	b := &Bvh{}
	b.build(globalBBox, bboxes[:numRefs], centers[:numRefs], numRefs)
	b.fixRefs(refs)
	b.optimize(3)

	b.Tris = make([]PrecomputedTri, numRefs)
	parallelFor(numRefs, func(i int) {
		triID := b.PrimIDs[i]
		i0 := indices[triID*4+0]
		i1 := indices[triID*4+1]
		i2 := indices[triID*4+2]
		b.Tris[i] = NewPrecomputedTri(verts[i0], verts[i1], verts[i2])
	})

	logger.Debugf(
		"built hierarchy in %d ms: %d tris, %d refs, %d nodes",
		time.Since(start).Nanoseconds()/1e6, numTris, numRefs, len(b.Nodes),
	)
	return b
}

// Returns the number of nodes in the hierarchy.
func (b *Bvh) NodeCount() int {
	return len(b.Nodes)
}
