package render

import (
	"math"

	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// A uniform voxel index over a point set, rebuilt once per photon-map
// iteration. Points are binned into hashed cells with a counting-sort CSR
// layout; radius queries visit the 27 cells overlapping [q-r, q+r].
type HashGrid struct {
	cellSize float32
	mask     uint32
	offsets  []int32
	indices  []int32
}

func (g *HashGrid) hash(x, y, z int32) uint32 {
	return (uint32(x)*73856093 ^ uint32(y)*19349663 ^ uint32(z)*83492791) & g.mask
}

func cellCoord(v, cellSize float32) int32 {
	return int32(math.Floor(float64(v / cellSize)))
}

// Build the index over n points. The cell size doubles as the query radius.
func (g *HashGrid) Build(pos func(i int) types.Vec3, n int, cellSize float32) {
	g.cellSize = cellSize

	numCells := uint32(1)
	for int(numCells) < n {
		numCells <<= 1
	}
	g.mask = numCells - 1

	if cap(g.offsets) >= int(numCells)+1 {
		g.offsets = g.offsets[:numCells+1]
		for i := range g.offsets {
			g.offsets[i] = 0
		}
	} else {
		g.offsets = make([]int32, numCells+1)
	}
	if cap(g.indices) >= n {
		g.indices = g.indices[:n]
	} else {
		g.indices = make([]int32, n)
	}

	// Counting sort: bucket sizes, prefix sums, then placement.
	for i := 0; i < n; i++ {
		p := pos(i)
		h := g.hash(cellCoord(p[0], cellSize), cellCoord(p[1], cellSize), cellCoord(p[2], cellSize))
		g.offsets[h+1]++
	}
	for i := 1; i < len(g.offsets); i++ {
		g.offsets[i] += g.offsets[i-1]
	}
	cursor := make([]int32, numCells)
	for i := 0; i < n; i++ {
		p := pos(i)
		h := g.hash(cellCoord(p[0], cellSize), cellCoord(p[1], cellSize), cellCoord(p[2], cellSize))
		g.indices[g.offsets[h]+cursor[h]] = int32(i)
		cursor[h]++
	}
}

// Visit every indexed point within cellSize of q, yielding the point index
// and its squared distance. Hash collisions may map several of the 27
// candidate cells to one bucket, so visited buckets are deduplicated.
func (g *HashGrid) Query(q types.Vec3, pos func(i int) types.Vec3, fn func(i int, d2 float32)) {
	if len(g.indices) == 0 {
		return
	}

	r := g.cellSize
	r2 := r * r
	var visited [27]uint32
	numVisited := 0

	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				h := g.hash(
					cellCoord(q[0], g.cellSize)+int32(dx),
					cellCoord(q[1], g.cellSize)+int32(dy),
					cellCoord(q[2], g.cellSize)+int32(dz),
				)

				seen := false
				for i := 0; i < numVisited; i++ {
					if visited[i] == h {
						seen = true
						break
					}
				}
				if seen {
					continue
				}
				visited[numVisited] = h
				numVisited++

				for j := g.offsets[h]; j < g.offsets[h+1]; j++ {
					i := int(g.indices[j])
					d := pos(i).Sub(q)
					d2 := d.Dot(d)
					if d2 <= r2 {
						fn(i, d2)
					}
				}
			}
		}
	}
}
