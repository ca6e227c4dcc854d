package scene

import (
	"fmt"

	"github.com/9Christian6/RenderFrameworkRIS/bvh"
	"github.com/9Christian6/RenderFrameworkRIS/material"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// Incrementally assembles a scene: meshes are flattened into the shared
// vertex/index arrays and emissive materials spawn one area light per
// triangle when the scene is finalized.
type Builder struct {
	sc        *Scene
	emission  []types.Vec3
	finalized bool
}

func NewBuilder() *Builder {
	return &Builder{
		sc: &Scene{emitters: make(map[int32]material.Light)},
	}
}

// Register a material and its emitted radiance (zero for non-emitters).
// Returns the material id used by AddMesh.
func (b *Builder) AddMaterial(mat material.Material, emission types.Vec3) uint32 {
	b.sc.Materials = append(b.sc.Materials, mat)
	b.emission = append(b.emission, emission)
	return uint32(len(b.sc.Materials) - 1)
}

// Append a triangle mesh. Indices reference the given vertex list with
// three entries per triangle; normals may be nil, in which case each vertex
// gets the normalized sum of the area-weighted normals of its faces.
func (b *Builder) AddMesh(verts []types.Vec3, indices []uint32, normals []types.Vec3, matID uint32) error {
	if len(indices)%3 != 0 {
		return fmt.Errorf("scene: mesh index count %d is not a multiple of 3", len(indices))
	}
	if normals != nil && len(normals) != len(verts) {
		return fmt.Errorf("scene: mesh has %d normals for %d vertices", len(normals), len(verts))
	}

	base := uint32(len(b.sc.Verts))
	b.sc.Verts = append(b.sc.Verts, verts...)

	if normals != nil {
		b.sc.Normals = append(b.sc.Normals, normals...)
	} else {
		// Accumulate area-weighted face normals per vertex.
		computed := make([]types.Vec3, len(verts))
		for i := 0; i+2 < len(indices); i += 3 {
			v0 := verts[indices[i]]
			v1 := verts[indices[i+1]]
			v2 := verts[indices[i+2]]
			n := v1.Sub(v0).Cross(v2.Sub(v0))
			computed[indices[i]] = computed[indices[i]].Add(n)
			computed[indices[i+1]] = computed[indices[i+1]].Add(n)
			computed[indices[i+2]] = computed[indices[i+2]].Add(n)
		}
		for i := range computed {
			computed[i] = computed[i].Normalize()
		}
		b.sc.Normals = append(b.sc.Normals, computed...)
	}

	for i := 0; i+2 < len(indices); i += 3 {
		b.sc.Indices = append(b.sc.Indices,
			base+indices[i], base+indices[i+1], base+indices[i+2], matID)
	}
	return nil
}

// Append a quad as two triangles. Vertices wind counter-clockwise as seen
// from the front side.
func (b *Builder) AddQuad(v0, v1, v2, v3 types.Vec3, matID uint32) {
	b.AddMesh(
		[]types.Vec3{v0, v1, v2, v3},
		[]uint32{0, 1, 2, 0, 2, 3},
		nil,
		matID,
	)
}

func (b *Builder) AddPointLight(pos, intensity types.Vec3) {
	b.sc.Lights = append(b.sc.Lights, &material.PointLight{Pos: pos, Intensity: intensity})
}

func (b *Builder) SetCamera(camera *Camera) {
	b.sc.Camera = camera
}

// Build the acceleration structure and synthesize area lights for every
// triangle carrying an emissive material.
func (b *Builder) Finalize() (*Scene, error) {
	if b.finalized {
		return nil, fmt.Errorf("scene: builder already finalized")
	}
	b.finalized = true

	sc := b.sc
	if sc.NumTris() == 0 {
		return nil, fmt.Errorf("scene: no geometry")
	}
	if sc.Camera == nil {
		return nil, fmt.Errorf("scene: no camera")
	}

	for tri := 0; tri < sc.NumTris(); tri++ {
		matID := sc.Indices[tri*4+3]
		radiance := b.emission[matID]
		if radiance == (types.Vec3{}) {
			continue
		}
		light := material.NewTriangleLight(
			sc.Verts[sc.Indices[tri*4+0]],
			sc.Verts[sc.Indices[tri*4+1]],
			sc.Verts[sc.Indices[tri*4+2]],
			radiance,
		)
		sc.Lights = append(sc.Lights, light)
		sc.emitters[int32(tri)] = light
	}

	sc.Bvh = bvh.Build(sc.Verts, sc.Indices)
	return sc, nil
}
