package bvh

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// Recursively subdivide one triangle along its largest edge while the
// bounding box volume of that edge exceeds the threshold (the Edge Volume
// Heuristic). Each split allocates a new reference slot from the shared
// counter; every finalized fragment records its bbox, centroid and the
// source triangle it came from.
func trySplit(ref int, tri [3]types.Vec3, bboxes []types.BBox, centers []types.Vec3, refs []uint32, threshold float32, numRefs *int64, maxRefs int) {
	type fragment struct {
		tri [3]types.Vec3
		i   int
	}
	var stack [PreSplitStackSize]fragment
	stackPtr := 0

	stack[0] = fragment{tri: tri, i: ref}
	for stackPtr >= 0 {
		top := &stack[stackPtr]

		vol := [3]float32{
			types.PointBBox(top.tri[0]).ExtendPoint(top.tri[1]).Volume(),
			types.PointBBox(top.tri[1]).ExtendPoint(top.tri[2]).Volume(),
			types.PointBBox(top.tri[2]).ExtendPoint(top.tri[0]).Volume(),
		}
		maxVol := vol[0]
		if vol[1] > maxVol {
			maxVol = vol[1]
		}
		if vol[2] > maxVol {
			maxVol = vol[2]
		}

		if maxVol > threshold && stackPtr+1 < PreSplitStackSize {
			j := int(atomic.AddInt64(numRefs, 1)) - 1
			if j < maxRefs {
				for k := 0; k < 3; k++ {
					if maxVol == vol[k] {
						l := (k + 1) % 3
						m := top.tri[k].Add(top.tri[l]).Mul(0.5)
						stackPtr++
						other := &stack[stackPtr]
						other.tri = top.tri
						top.tri[k] = m
						other.tri[l] = m
						other.i = j
						break
					}
				}
				continue
			}
		}

		stackPtr--
		centers[top.i] = top.tri[0].Add(top.tri[1]).Add(top.tri[2]).Mul(1.0 / 3.0)
		bboxes[top.i] = types.PointBBox(top.tri[0]).ExtendPoint(top.tri[1]).ExtendPoint(top.tri[2])
		refs[top.i] = uint32(ref)
	}
}

// Split large triangles into several references before the top-down build.
// Returns the reference count, capped at maxRefs.
func preSplit(verts []types.Vec3, indices []uint32, bboxes []types.BBox, centers []types.Vec3, refs []uint32, threshold float32, numTris, maxRefs int) int {
	numRefs := int64(numTris)

	parallelFor(numTris, func(i int) {
		tri := [3]types.Vec3{
			verts[indices[i*4+0]],
			verts[indices[i*4+1]],
			verts[indices[i*4+2]],
		}
		trySplit(i, tri, bboxes, centers, refs, threshold, &numRefs, maxRefs)
	})

	if int(numRefs) < maxRefs {
		return int(numRefs)
	}
	return maxRefs
}

// Run fn over [0, n) on all available cores.
func parallelFor(n int, fn func(i int)) {
	numWorkers := runtime.NumCPU()
	if numWorkers > n {
		numWorkers = n
	}
	if numWorkers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var next int64
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&next, 1)) - 1
				if i >= n {
					return
				}
				fn(i)
			}
		}()
	}
	wg.Wait()
}
