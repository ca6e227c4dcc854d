package bvh

import "github.com/9Christian6/RenderFrameworkRIS/types"

// Padded slab test against the node bounding box. A hit exists iff t0 <= t1.
func (n *Node) intersect(invDir, orgDivDir types.Vec3, tmin, tmax float32, octant *[3]int) (float32, float32) {
	t0x := n.bound(octant[0])*invDir[0] - orgDivDir[0]
	t1x := n.bound(4-octant[0])*invDir[0] - orgDivDir[0]
	t0y := n.bound(octant[1])*invDir[1] - orgDivDir[1]
	t1y := n.bound(6-octant[1])*invDir[1] - orgDivDir[1]
	t0z := n.bound(octant[2])*invDir[2] - orgDivDir[2]
	t1z := n.bound(8-octant[2])*invDir[2] - orgDivDir[2]

	t0 := max4(t0x, t0y, t0z, tmin)
	t1 := min4(t1x, t1y, t1z, tmax)
	return t0, t1
}

func max4(a, b, c, d float32) float32 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	if d > a {
		a = d
	}
	return a
}

func min4(a, b, c, d float32) float32 {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	if d < a {
		a = d
	}
	return a
}

// Find the closest intersection along the ray. A miss is reported with
// Hit.Tri = -1; traversal never fails otherwise.
func (b *Bvh) Traverse(ray types.Ray) types.Hit {
	return b.traverse(ray, false)
}

// Report whether any intersection exists along the ray interval.
func (b *Bvh) TraverseAny(ray types.Ray) bool {
	return b.traverse(ray, true).Tri >= 0
}

func (b *Bvh) traverse(ray types.Ray, any bool) types.Hit {
	hit := types.Hit{Tri: -1, T: ray.Tmax}
	if len(b.Nodes) == 0 {
		return hit
	}

	// Degenerate hierarchy where the root itself is a leaf.
	if b.Nodes[0].IsLeaf() {
		b.intersectLeaf(&b.Nodes[0], ray, &hit, any)
		if hit.Tri >= 0 {
			hit.Tri = int32(b.PrimIDs[hit.Tri])
		}
		return hit
	}

	var stack [TraversalStackSize]int32
	top := b.Nodes[0].Child
	stackPtr := 0

	octant := [3]int{0, 1, 2}
	if ray.Dir[0] <= 0 {
		octant[0] = 4
	}
	if ray.Dir[1] <= 0 {
		octant[1] = 5
	}
	if ray.Dir[2] <= 0 {
		octant[2] = 6
	}
	// A zero direction component would make the slab bounds NaN (0 * Inf),
	// so tiny components are replaced by a small value carrying the sign
	// the octant selection above assumes.
	const minDirComponent float32 = 1e-20
	var invDir types.Vec3
	for i := 0; i < 3; i++ {
		d := ray.Dir[i]
		if d <= 0 && d > -minDirComponent {
			d = -minDirComponent
		} else if d > 0 && d < minDirComponent {
			d = minDirComponent
		}
		invDir[i] = 1.0 / d
	}
	orgDivDir := ray.Org.MulVec(invDir)

	stack[0] = -1
	for {
		left := &b.Nodes[top+0]
		right := &b.Nodes[top+1]

		lt0, lt1 := left.intersect(invDir, orgDivDir, ray.Tmin, hit.T, &octant)
		rt0, rt1 := right.intersect(invDir, orgDivDir, ray.Tmin, hit.T, &octant)

		child := [2]int32{-1, -1}
		if lt0 <= lt1 {
			if left.IsLeaf() {
				if b.intersectLeaf(left, ray, &hit, any) && any {
					break
				}
			} else {
				child[0] = left.Child
			}
		}
		if rt0 <= rt1 {
			if right.IsLeaf() {
				if b.intersectLeaf(right, ray, &hit, any) && any {
					break
				}
			} else {
				child[1] = right.Child
			}
		}

		// Traverse the nearer child first, push the other
		if child[0] >= 0 && child[1] >= 0 {
			if lt0 < rt0 {
				child[0], child[1] = child[1], child[0]
			}
			stackPtr++
			stack[stackPtr] = child[0]
			top = child[1]
		} else if child[1] >= 0 {
			top = child[1]
		} else if child[0] >= 0 {
			top = child[0]
		} else {
			top = stack[stackPtr]
			stackPtr--
			if top < 0 {
				break
			}
		}
	}

	if hit.Tri >= 0 {
		hit.Tri = int32(b.PrimIDs[hit.Tri])
	}
	return hit
}

// Run the intersection kernel over every triangle in the leaf, shrinking the
// hit interval as closer hits are found.
func (b *Bvh) intersectLeaf(leaf *Node, ray types.Ray, hit *types.Hit, any bool) bool {
	found := false
	first := leaf.Child
	for j := first; j < first+leaf.Count; j++ {
		if t, u, v, ok := b.Tris[j].Intersect(ray, ray.Tmin, hit.T); ok {
			hit.Tri = j
			hit.T = t
			hit.U = u
			hit.V = v
			found = true
			if any {
				return true
			}
		}
	}
	return found
}
