package scene

import (
	"github.com/9Christian6/RenderFrameworkRIS/material"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// Build the classic Cornell box: white floor, ceiling and back wall, red
// left wall, green right wall and a square area light below the ceiling.
// The box spans [-1,1] in x/z and [0,2] in y; the camera looks down -z from
// the open front side.
func Cornell() *Scene {
	b := NewBuilder()

	white := b.AddMaterial(diffuseMaterial(types.Vec3{0.73, 0.73, 0.73}), types.Vec3{})
	red := b.AddMaterial(diffuseMaterial(types.Vec3{0.65, 0.05, 0.05}), types.Vec3{})
	green := b.AddMaterial(diffuseMaterial(types.Vec3{0.12, 0.45, 0.15}), types.Vec3{})
	light := b.AddMaterial(diffuseMaterial(types.Vec3{0.73, 0.73, 0.73}), types.Vec3{15, 15, 15})

	// Floor
	b.AddQuad(
		types.Vec3{-1, 0, -1}, types.Vec3{-1, 0, 1},
		types.Vec3{1, 0, 1}, types.Vec3{1, 0, -1},
		white,
	)
	// Ceiling
	b.AddQuad(
		types.Vec3{-1, 2, -1}, types.Vec3{1, 2, -1},
		types.Vec3{1, 2, 1}, types.Vec3{-1, 2, 1},
		white,
	)
	// Back wall
	b.AddQuad(
		types.Vec3{-1, 0, -1}, types.Vec3{1, 0, -1},
		types.Vec3{1, 2, -1}, types.Vec3{-1, 2, -1},
		white,
	)
	// Left wall
	b.AddQuad(
		types.Vec3{-1, 0, -1}, types.Vec3{-1, 2, -1},
		types.Vec3{-1, 2, 1}, types.Vec3{-1, 0, 1},
		red,
	)
	// Right wall
	b.AddQuad(
		types.Vec3{1, 0, -1}, types.Vec3{1, 0, 1},
		types.Vec3{1, 2, 1}, types.Vec3{1, 2, -1},
		green,
	)
	// Area light just below the ceiling, facing down
	b.AddQuad(
		types.Vec3{-0.3, 1.99, -0.3}, types.Vec3{0.3, 1.99, -0.3},
		types.Vec3{0.3, 1.99, 0.3}, types.Vec3{-0.3, 1.99, 0.3},
		light,
	)

	b.SetCamera(NewCamera(types.Vec3{0, 1, 3.5}, types.Vec3{0, 1, 0}, types.Vec3{0, 1, 0}, 45))

	sc, err := b.Finalize()
	if err != nil {
		panic(err)
	}
	return sc
}

func diffuseMaterial(albedo types.Vec3) material.Material {
	return material.Material{
		Bsdf: &material.DiffuseBsdf{Tex: material.ConstTexture{Color: albedo}},
	}
}
