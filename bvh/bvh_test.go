package bvh

import (
	"math"
	"testing"

	"github.com/9Christian6/RenderFrameworkRIS/sampler"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// Deterministic pseudo-random triangle soup inside the unit cube.
func makeTriangleSoup(numTris int, seed uint32) ([]types.Vec3, []uint32) {
	s := sampler.NewUniformSampler(seed)
	verts := make([]types.Vec3, 0, numTris*3)
	indices := make([]uint32, 0, numTris*4)
	for i := 0; i < numTris; i++ {
		base := s.Next()
		center := types.Vec3{s.Next(), s.Next(), s.Next()}
		for k := 0; k < 3; k++ {
			offset := types.Vec3{s.Next() - 0.5, s.Next() - 0.5, s.Next() - 0.5}
			verts = append(verts, center.Add(offset.Mul(0.1+0.2*base)))
		}
		indices = append(indices, uint32(i*3), uint32(i*3+1), uint32(i*3+2), 0)
	}
	return verts, indices
}

func makeRandomRays(numRays int, seed uint32) []types.Ray {
	s := sampler.NewUniformSampler(seed)
	rays := make([]types.Ray, numRays)
	for i := range rays {
		org := types.Vec3{s.Next()*3 - 1, s.Next()*3 - 1, s.Next()*3 - 1}
		dir := types.Vec3{s.Next()*2 - 1, s.Next()*2 - 1, s.Next()*2 - 1}.Normalize()
		if dir.Len() == 0 {
			dir = types.Vec3{0, 0, 1}
		}
		rays[i] = types.NewRay(org, dir, 0)
	}
	return rays
}

// Brute-force closest hit over all source triangles.
func bruteForceHit(verts []types.Vec3, indices []uint32, ray types.Ray) types.Hit {
	hit := types.Hit{Tri: -1, T: ray.Tmax}
	numTris := len(indices) / 4
	for i := 0; i < numTris; i++ {
		tri := NewPrecomputedTri(verts[indices[i*4+0]], verts[indices[i*4+1]], verts[indices[i*4+2]])
		if t, u, v, ok := tri.Intersect(ray, ray.Tmin, hit.T); ok {
			hit.Tri = int32(i)
			hit.T = t
			hit.U = u
			hit.V = v
		}
	}
	return hit
}

func TestBuildCompleteness(t *testing.T) {
	verts, indices := makeTriangleSoup(500, 11)
	b := Build(verts, indices)

	// Each source triangle must appear in at least one leaf range.
	numTris := len(indices) / 4
	seen := make(map[uint32][]int)
	for i := range b.Nodes {
		node := &b.Nodes[i]
		if !node.IsLeaf() {
			continue
		}
		if node.Count < 1 {
			t.Fatalf("leaf %d has %d primitives", i, node.Count)
		}
		for j := node.Child; j < node.Child+node.Count; j++ {
			seen[b.PrimIDs[j]] = append(seen[b.PrimIDs[j]], i)
		}
	}
	for tri := 0; tri < numTris; tri++ {
		leaves, ok := seen[uint32(tri)]
		if !ok {
			t.Fatalf("triangle %d is missing from every leaf", tri)
		}
		// Pre-splitting may spread fragments of a triangle over several
		// leaves but each leaf must reference it at most once.
		counts := make(map[int]int)
		for _, leaf := range leaves {
			counts[leaf]++
			if counts[leaf] > 1 {
				t.Fatalf("triangle %d appears twice in leaf %d", tri, leaf)
			}
		}
	}
}

func TestBuildContainment(t *testing.T) {
	verts, indices := makeTriangleSoup(300, 23)
	b := Build(verts, indices)

	const slack float32 = 1e-4
	for i := range b.Nodes {
		node := &b.Nodes[i]
		if node.IsLeaf() {
			continue
		}
		union := b.Nodes[node.Child].BBox().Extend(b.Nodes[node.Child+1].BBox())
		grown := types.BBox{
			Min: node.Min.Sub(types.Splat3(slack)),
			Max: node.Max.Add(types.Splat3(slack)),
		}
		if !grown.Contains(union) {
			t.Fatalf("node %d bbox %v does not contain its children union %v", i, node.BBox(), union)
		}
	}
}

func TestTraversalMatchesBruteForce(t *testing.T) {
	verts, indices := makeTriangleSoup(400, 37)
	b := Build(verts, indices)

	for index, ray := range makeRandomRays(2000, 101) {
		got := b.Traverse(ray)
		exp := bruteForceHit(verts, indices, ray)

		if got.Tri != exp.Tri {
			t.Fatalf("[ray %d] traversal hit tri %d; brute force hit %d", index, got.Tri, exp.Tri)
		}
		if exp.Tri >= 0 {
			relTol := float64(exp.T) * 1e-4
			if relTol < 1e-6 {
				relTol = 1e-6
			}
			if math.Abs(float64(got.T-exp.T)) > relTol {
				t.Fatalf("[ray %d] traversal t=%f; brute force t=%f", index, got.T, exp.T)
			}
		}
	}
}

func TestAnyHitAgreesWithClosestHit(t *testing.T) {
	verts, indices := makeTriangleSoup(200, 53)
	b := Build(verts, indices)

	s := sampler.NewUniformSampler(5)
	for index, ray := range makeRandomRays(2000, 67) {
		ray.Tmax = 0.5 + s.Next()*2

		closest := b.Traverse(ray)
		occluded := b.TraverseAny(ray)
		expOccluded := closest.Tri >= 0 && closest.T <= ray.Tmax
		if occluded != expOccluded {
			t.Fatalf("[ray %d] any-hit=%t but closest-hit tri=%d t=%f tmax=%f", index, occluded, closest.Tri, closest.T, ray.Tmax)
		}
	}
}

func TestSingleTriangleCenterRay(t *testing.T) {
	verts := []types.Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
	}
	indices := []uint32{0, 1, 2, 0}
	b := Build(verts, indices)

	// An orthographic ray through the centroid.
	ray := types.NewRay(types.Vec3{1.0 / 3.0, 1.0 / 3.0, -1}, types.Vec3{0, 0, 1}, 0)
	hit := b.Traverse(ray)

	if hit.Tri != 0 {
		t.Fatalf("expected to hit triangle 0; got %d", hit.Tri)
	}
	if math.Abs(float64(hit.U+hit.V-2.0/3.0)) > 1e-3 {
		t.Fatalf("expected barycentric u+v = 2/3 at the centroid; got u=%f v=%f", hit.U, hit.V)
	}
}

func TestNodeCountBound(t *testing.T) {
	verts, indices := makeTriangleSoup(250, 71)
	b := Build(verts, indices)

	numTris := len(indices) / 4
	maxRefs := numTris * 3 / 2
	if b.NodeCount() > 2*maxRefs+1 {
		t.Fatalf("node count %d exceeds bound %d", b.NodeCount(), 2*maxRefs+1)
	}
}

func TestLeafRangesAreSortedAndUnique(t *testing.T) {
	verts, indices := makeTriangleSoup(300, 83)
	b := Build(verts, indices)

	for i := range b.Nodes {
		node := &b.Nodes[i]
		if !node.IsLeaf() {
			continue
		}
		slots := b.PrimIDs[node.Child : node.Child+node.Count]
		for j := 1; j < len(slots); j++ {
			if slots[j] <= slots[j-1] {
				t.Fatalf("leaf %d prim ids are not strictly increasing: %v", i, slots)
			}
		}
	}
}
