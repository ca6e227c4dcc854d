package bvh

import (
	"container/heap"
	"math"
	"sort"

	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// Bottom-up pass computing the combined inefficiency measure
// m_comb = m_sum * m_min * m_area for every inner node. Children are stored
// after their parent, so a reverse scan sees both children before the parent.
func (b *Bvh) computeInefficiencies(inefficiencies []float32) {
	numNodes := len(b.Nodes)
	minArea := make([]float32, numNodes)
	sumArea := make([]float32, numNodes)
	numChildren := make([]int, numNodes)
	const areaEpsilon float32 = 1e-10

	for i := numNodes - 1; i >= 0; i-- {
		node := &b.Nodes[i]
		area := node.BBox().HalfArea()
		if node.IsLeaf() {
			inefficiencies[i] = 0.0
			minArea[i] = area
			sumArea[i] = area
			numChildren[i] = 1
			continue
		}

		child := node.Child
		nextNumChildren := numChildren[child+0] + numChildren[child+1]
		nextSumArea := sumArea[child+0] + sumArea[child+1]
		nextMinArea := minArea[child+0]
		if minArea[child+1] < nextMinArea {
			nextMinArea = minArea[child+1]
		}
		if nextMinArea < areaEpsilon {
			nextMinArea = areaEpsilon
		}
		mSum := area / (nextSumArea / float32(nextNumChildren))
		mMin := area / nextMinArea
		mArea := area
		inefficiencies[i] = mSum * mMin * mArea
		minArea[i] = nextMinArea
		if area < nextMinArea {
			minArea[i] = area
		}
		sumArea[i] = nextSumArea + area
		numChildren[i] = nextNumChildren + 1
	}
}

// Recompute the parent side array from the child indices.
func (b *Bvh) computeParents(parents []int32) {
	parents[0] = 0
	for i := range b.Nodes {
		node := &b.Nodes[i]
		if node.IsLeaf() {
			continue
		}
		parents[node.Child+0] = int32(i)
		parents[node.Child+1] = int32(i)
	}
}

// Detach a node from the tree: its parent slot is overwritten by its sibling
// and the ancestors are refit. Returns the index of the freed slot pair.
func (b *Bvh) removeNode(nodeID int32, parents []int32) int32 {
	parent := parents[nodeID]
	otherChild := b.Nodes[parent].Child
	free := otherChild
	if otherChild == nodeID {
		otherChild++
	}
	b.Nodes[parent] = b.Nodes[otherChild]
	if !b.Nodes[otherChild].IsLeaf() {
		child := b.Nodes[otherChild].Child
		parents[child+0] = parent
		parents[child+1] = parent
	}
	b.refitParents(parent, parents)
	return free
}

type candidateNode struct {
	nodeID      int32
	inducedCost float32
	priority    float32
}

type candidateQueue []candidateNode

func (q candidateQueue) Len() int            { return len(q) }
func (q candidateQueue) Less(i, j int) bool  { return q[i].priority > q[j].priority }
func (q candidateQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *candidateQueue) Push(x interface{}) { *q = append(*q, x.(candidateNode)) }
func (q *candidateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Best-first search for the sibling that minimizes induced plus direct SAH
// cost when the detached node is reinserted next to it.
func (b *Bvh) findReinsertion(node *Node) int32 {
	const epsilon float32 = 1e-20

	nodeArea := node.BBox().HalfArea()
	bestCost := float32(math.MaxFloat32)
	bestCandidate := candidateNode{nodeID: 0, inducedCost: 0, priority: 1.0 / epsilon}

	candidates := candidateQueue{bestCandidate}
	for len(candidates) > 0 {
		candidate := heap.Pop(&candidates).(candidateNode)
		if candidate.inducedCost+nodeArea >= bestCost {
			break
		}
		directCost := node.BBox().Extend(b.Nodes[candidate.nodeID].BBox()).HalfArea()
		totalCost := candidate.inducedCost + directCost
		if totalCost < bestCost {
			bestCost = totalCost
			bestCandidate = candidate
		}
		childCost := totalCost - b.Nodes[candidate.nodeID].BBox().HalfArea()
		if childCost+nodeArea < bestCost && !b.Nodes[candidate.nodeID].IsLeaf() {
			childID := b.Nodes[candidate.nodeID].Child
			heap.Push(&candidates, candidateNode{childID + 0, childCost, 1 / (childCost + epsilon)})
			heap.Push(&candidates, candidateNode{childID + 1, childCost, 1 / (childCost + epsilon)})
		}
	}
	return bestCandidate.nodeID
}

// Refit ancestor bounding boxes to the union of their children after a
// structural change below nodeID.
func (b *Bvh) refitParents(nodeID int32, parents []int32) {
	cur := nodeID
	for cur != 0 {
		cur = parents[cur]
		child := b.Nodes[cur].Child
		b.Nodes[cur].Min = types.MinVec3(b.Nodes[child+0].Min, b.Nodes[child+1].Min)
		b.Nodes[cur].Max = types.MaxVec3(b.Nodes[child+0].Max, b.Nodes[child+1].Max)
	}
}

// Splice the detached node back in as a sibling of pos, using the freed slot
// pair for the two new children.
func (b *Bvh) reinsertNode(node Node, pos, free int32, parents []int32) {
	other := b.Nodes[pos]
	b.Nodes[free+0] = node
	b.Nodes[free+1] = other
	if !node.IsLeaf() {
		child := node.Child
		parents[child+0] = free + 0
		parents[child+1] = free + 0
	}
	if !other.IsLeaf() {
		child := other.Child
		parents[child+0] = free + 1
		parents[child+1] = free + 1
	}
	parents[free+0] = pos
	parents[free+1] = pos
	b.Nodes[pos].Min = types.MinVec3(node.Min, other.Min)
	b.Nodes[pos].Max = types.MaxVec3(node.Max, other.Max)
	b.Nodes[pos].Count = 0
	b.Nodes[pos].Child = free
	b.refitParents(pos, parents)
}

// Re-linearize the tree depth-first so sibling pairs are contiguous again.
func (b *Bvh) reorderNodes(tmpNodes []Node, parents []int32) {
	var stack [TraversalStackSize]int32
	stackPtr := 0

	parents[0] = 0
	tmpNodes[0] = b.Nodes[0]
	if tmpNodes[0].Count <= 0 {
		stack[0] = 0
		cur := int32(1)
		for stackPtr >= 0 {
			parentID := stack[stackPtr]
			stackPtr--
			parent := &tmpNodes[parentID]
			parents[cur+0] = parentID
			parents[cur+1] = parentID
			tmpNodes[cur+0] = b.Nodes[parent.Child+0]
			tmpNodes[cur+1] = b.Nodes[parent.Child+1]
			parent.Child = cur
			if tmpNodes[cur+0].Count <= 0 {
				stackPtr++
				stack[stackPtr] = cur + 0
			}
			if tmpNodes[cur+1].Count <= 0 {
				stackPtr++
				stack[stackPtr] = cur + 1
			}
			cur += 2
		}
	}
	copy(b.Nodes, tmpNodes)
}

// Reinsertion optimization: repeatedly detach the most inefficient nodes and
// splice them back at the position with the lowest SAH cost.
func (b *Bvh) optimize(numIters int) {
	numNodes := len(b.Nodes)
	numRanks := numNodes - 1

	inefficiencies := make([]float32, numNodes)
	parents := make([]int32, numNodes)
	ranks := make([]int32, numRanks)
	tmpNodes := make([]Node, numNodes)
	b.computeParents(parents)

	for iter := 0; iter < numIters; iter++ {
		batchSize := numRanks / 10
		if batchSize == 0 {
			return
		}

		b.computeInefficiencies(inefficiencies)
		for i := range ranks {
			ranks[i] = int32(i + 1)
		}
		sort.Slice(ranks, func(i, j int) bool {
			return inefficiencies[ranks[i]] > inefficiencies[ranks[j]]
		})

		for i := 0; i < batchSize; i++ {
			node := b.Nodes[ranks[i]]
			free := b.removeNode(ranks[i], parents)
			pos := b.findReinsertion(&node)
			b.reinsertNode(node, pos, free, parents)
		}
		b.reorderNodes(tmpNodes, parents)
	}
}
