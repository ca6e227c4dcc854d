package scene

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/olekukonko/tablewriter"

	"github.com/9Christian6/RenderFrameworkRIS/bvh"
	"github.com/9Christian6/RenderFrameworkRIS/material"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// A fully loaded scene: triangle geometry with per-triangle material ids,
// per-vertex normals, lights, the camera and the acceleration structure.
// Scenes are immutable once built and shared across all render workers.
type Scene struct {
	// Triangle i uses Indices[4i+0..2]; Indices[4i+3] is its material id.
	Verts   []types.Vec3
	Indices []uint32
	Normals []types.Vec3
	UVs     []types.Vec2

	Materials []material.Material
	Lights    []material.Light
	Camera    *Camera

	Bvh *bvh.Bvh

	// Area lights synthesized from emissive materials, keyed by triangle.
	emitters map[int32]material.Light
}

// Find the closest intersection along the ray.
func (sc *Scene) Intersect(ray types.Ray) types.Hit {
	return sc.Bvh.Traverse(ray)
}

// Report whether anything blocks the ray interval.
func (sc *Scene) Occluded(ray types.Ray) bool {
	return sc.Bvh.TraverseAny(ray)
}

// The material of the triangle that was hit, with the triangle's area light
// attached when the material is emissive.
func (sc *Scene) Material(hit types.Hit) material.Material {
	mat := sc.Materials[sc.Indices[hit.Tri*4+3]]
	if emitter, ok := sc.emitters[hit.Tri]; ok {
		mat.Emitter = emitter
	}
	return mat
}

// Surface parameters at the hit point. Normals are flipped towards the ray
// origin so the shading frame always faces the incoming direction.
func (sc *Scene) SurfaceParams(ray types.Ray, hit types.Hit) material.SurfaceParams {
	i0 := sc.Indices[hit.Tri*4+0]
	i1 := sc.Indices[hit.Tri*4+1]
	i2 := sc.Indices[hit.Tri*4+2]

	v0 := sc.Verts[i0]
	v1 := sc.Verts[i1]
	v2 := sc.Verts[i2]
	faceNormal := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()

	shadingNormal := types.LerpBary3(sc.Normals[i0], sc.Normals[i1], sc.Normals[i2], hit.U, hit.V).Normalize()
	if shadingNormal.Len() == 0 {
		shadingNormal = faceNormal
	}

	entering := ray.Dir.Dot(faceNormal) < 0
	if !entering {
		faceNormal = faceNormal.Neg()
		shadingNormal = shadingNormal.Neg()
	}

	uv := types.Vec2{hit.U, hit.V}
	if len(sc.UVs) > 0 {
		uv = types.LerpBary2(sc.UVs[i0], sc.UVs[i1], sc.UVs[i2], hit.U, hit.V)
	}

	return material.SurfaceParams{
		Entering:   entering,
		Point:      ray.At(hit.T),
		UV:         uv,
		FaceNormal: faceNormal,
		Coords:     types.GenLocalCoords(shadingNormal),
	}
}

func (sc *Scene) NumTris() int {
	return len(sc.Indices) / 4
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Count", "Size"})
	table.Append([]string{"Vertices", fmt.Sprintf("%d", len(sc.Verts)), fmtSize(sc.Verts)})
	table.Append([]string{"Triangles", fmt.Sprintf("%d", sc.NumTris()), fmtSize(sc.Indices)})
	table.Append([]string{"Normals", fmt.Sprintf("%d", len(sc.Normals)), fmtSize(sc.Normals)})
	table.Append([]string{"Materials", fmt.Sprintf("%d", len(sc.Materials)), " "})
	table.Append([]string{"Lights", fmt.Sprintf("%d", len(sc.Lights)), " "})
	table.Append([]string{"BVH nodes", fmt.Sprintf("%d", sc.Bvh.NodeCount()), fmtSize(sc.Bvh.Nodes)})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
