package bvh

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// Shared state of one top-down build. The three prims arrays hold the same
// reference ids sorted by centroid along each axis; costs is scratch space
// indexed by global reference position, so concurrent tasks working on
// disjoint ranges never collide.
type builder struct {
	bboxes  []types.BBox
	centers []types.Vec3
	costs   []float32

	prims [3][]uint32

	nodes     []Node
	nodeCount int64

	wg sync.WaitGroup
}

// Sweep the presorted reference range once from the left accumulating
// bounding boxes and once from the right, returning the position, cost and
// right bbox of the cheapest object split along this axis.
func findSplit(prims []uint32, costs []float32, begin, end int, bboxes []types.BBox) (int, float32, types.BBox) {
	curBB := types.EmptyBBox()

	for i := begin; i < end-1; i++ {
		curBB = curBB.Extend(bboxes[prims[i]])
		costs[i] = float32(i-begin+1) * curBB.HalfArea()
	}

	minSplit := -1
	minCost := float32(math.MaxFloat32)
	minBB := types.EmptyBBox()

	curBB = types.EmptyBBox()
	for i := end - 1; i > begin; i-- {
		curBB = curBB.Extend(bboxes[prims[i]])

		c := costs[i-1] + float32(end-i)*curBB.HalfArea()
		if c < minCost {
			minSplit = i
			minCost = c
			minBB = curBB
		}
	}

	return minSplit, minCost, minBB
}

// Stable partition of a[begin:end] by pred; returns the number of elements
// for which pred holds.
func stablePartition(a []uint32, begin, end int, pred func(uint32) bool) int {
	left := a[begin:begin]
	right := make([]uint32, 0, end-begin)
	for i := begin; i < end; i++ {
		if pred(a[i]) {
			left = append(left, a[i])
		} else {
			right = append(right, a[i])
		}
	}
	copy(a[begin+len(left):end], right)
	return len(left)
}

// Recursively split the node's reference range until the SAH prefers a leaf.
func (b *builder) build(nodeID int) {
	node := &b.nodes[nodeID]
	begin := int(node.Child)
	end := begin + int(node.Count)

	if end-begin <= 1 {
		return
	}

	// On all three axes, try to split this node
	minRight := types.EmptyBBox()
	minCost := float32(math.MaxFloat32)
	minSplit := -1
	minAxis := -1

	for axis := 0; axis < 3; axis++ {
		split, cost, right := findSplit(b.prims[axis], b.costs, begin, end, b.bboxes)
		if cost < minCost {
			minRight = right
			minCost = cost
			minSplit = split
			minAxis = axis
		}
	}

	// Compare the minimum split cost with the SAH cost of this node
	if minCost >= (float32(end-begin)-traversalCost)*node.BBox().HalfArea() {
		return
	}

	axis1 := (minAxis + 1) % 3
	axis2 := (minAxis + 2) % 3

	// Partition the other two axes with a tie-break on the reference id so
	// that all three arrays agree on the left/right sets.
	splitRef := b.prims[minAxis][minSplit-1]
	splitPos := b.centers[splitRef][minAxis]
	isOnLeftSide := func(ref uint32) bool {
		pos := b.centers[ref][minAxis]
		return pos < splitPos || (pos == splitPos && ref <= splitRef)
	}
	n1 := stablePartition(b.prims[axis1], begin, end, isOnLeftSide)
	n2 := stablePartition(b.prims[axis2], begin, end, isOnLeftSide)
	if begin+n1 != minSplit || begin+n2 != minSplit {
		panic("bvh: axis arrays disagree on partition size")
	}

	// Recompute the bounding box of the left child
	minLeft := types.EmptyBBox()
	for i := begin; i < minSplit; i++ {
		minLeft = minLeft.Extend(b.bboxes[b.prims[minAxis][i]])
	}

	childID := int(atomic.AddInt64(&b.nodeCount, 2)) - 2

	// Mark the node as an inner node
	node.Child = int32(childID)
	node.Count = int32(-minAxis)

	left := &b.nodes[childID]
	left.Child = int32(begin)
	left.Count = int32(minSplit - begin)
	left.Min = minLeft.Min
	left.Max = minLeft.Max

	right := &b.nodes[childID+1]
	right.Child = int32(minSplit)
	right.Count = int32(end - minSplit)
	right.Min = minRight.Min
	right.Max = minRight.Max

	smallest, biggest := childID, childID+1
	if right.Count < left.Count {
		smallest, biggest = childID+1, childID
	}

	spawnTask := int(b.nodes[smallest].Count) > parallelThreshold
	if spawnTask {
		b.wg.Add(1)
		go func(id int) {
			defer b.wg.Done()
			b.build(id)
		}(smallest)
	}

	b.build(biggest)
	if !spawnTask {
		b.build(smallest)
	}
}

// Top-down SAH build over pre-split references.
func (b *Bvh) build(globalBBox types.BBox, bboxes []types.BBox, centers []types.Vec3, numRefs int) {
	b.PrimIDs = make([]uint32, numRefs)
	allPrims := make([]uint32, 2*numRefs)

	bl := &builder{
		bboxes:  bboxes,
		centers: centers,
		costs:   make([]float32, numRefs),
		prims:   [3][]uint32{b.PrimIDs, allPrims[:numRefs], allPrims[numRefs:]},
		nodes:   make([]Node, 2*numRefs+1),
	}

	// Sort according to the projection of each centroid on each axis
	var sortWG sync.WaitGroup
	sortWG.Add(3)
	for axis := 0; axis < 3; axis++ {
		go func(axis int) {
			defer sortWG.Done()
			prims := bl.prims[axis]
			for i := range prims {
				prims[i] = uint32(i)
			}
			sort.SliceStable(prims, func(p0, p1 int) bool {
				return centers[prims[p0]][axis] < centers[prims[p1]][axis]
			})
		}(axis)
	}
	sortWG.Wait()

	root := &bl.nodes[0]
	root.Child = 0
	root.Count = int32(numRefs)
	root.Min = globalBBox.Min
	root.Max = globalBBox.Max
	bl.nodeCount = 1

	bl.build(0)
	bl.wg.Wait()

	b.Nodes = make([]Node, bl.nodeCount)
	copy(b.Nodes, bl.nodes[:bl.nodeCount])
}

// Remap leaf slots from pre-split reference ids back to source triangles,
// deduplicating fragments of the same triangle that landed in one leaf.
func (b *Bvh) fixRefs(refs []uint32) {
	parallelFor(len(b.Nodes), func(i int) {
		node := &b.Nodes[i]
		if !node.IsLeaf() {
			return
		}
		begin := int(node.Child)
		end := begin + int(node.Count)
		slots := b.PrimIDs[begin:end]
		for j := range slots {
			slots[j] = refs[slots[j]]
		}
		sort.Slice(slots, func(x, y int) bool { return slots[x] < slots[y] })

		unique := 1
		for j := 1; j < len(slots); j++ {
			if slots[j] != slots[unique-1] {
				slots[unique] = slots[j]
				unique++
			}
		}
		node.Count = int32(unique)
	})
}
