package scene

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/9Christian6/RenderFrameworkRIS/types"
)

func TestCornellSurfaceParams(t *testing.T) {
	sc := Cornell()
	sc.Camera.SetupProjection(1.0)

	ray := sc.Camera.GenRay(0, 0)
	hit := sc.Intersect(ray)
	if hit.Tri < 0 {
		t.Fatalf("center ray missed the box")
	}

	surf := sc.SurfaceParams(ray, hit)
	if !surf.Entering {
		t.Fatalf("center ray should hit the front of the back wall")
	}
	// The back wall faces +z
	if surf.FaceNormal.Sub(types.Vec3{0, 0, 1}).Len() > 1e-4 {
		t.Fatalf("back wall normal = %v; expected +z", surf.FaceNormal)
	}
	if math.Abs(float64(surf.Point[2]+1.0)) > 1e-3 {
		t.Fatalf("hit point %v should lie on the z=-1 wall", surf.Point)
	}

	// The shading frame must be orthonormal
	n, tan, bt := surf.Coords.N, surf.Coords.T, surf.Coords.Bt
	if math.Abs(float64(n.Dot(tan))) > 1e-5 || math.Abs(float64(n.Dot(bt))) > 1e-5 || math.Abs(float64(tan.Dot(bt))) > 1e-5 {
		t.Fatalf("shading frame is not orthogonal: n=%v t=%v bt=%v", n, tan, bt)
	}
}

func TestCornellHasAreaLights(t *testing.T) {
	sc := Cornell()
	if len(sc.Lights) != 2 {
		t.Fatalf("expected 2 triangle lights from the light quad; got %d", len(sc.Lights))
	}

	// Shooting straight up from the box center must hit the light quad and
	// report its emitter.
	ray := types.NewRay(types.Vec3{0, 1, 0}, types.Vec3{0, 1, 0}, 0)
	hit := sc.Intersect(ray)
	if hit.Tri < 0 {
		t.Fatalf("upward ray missed the light quad")
	}
	mat := sc.Material(hit)
	if mat.Emitter == nil {
		t.Fatalf("light quad triangle %d has no emitter attached", hit.Tri)
	}
	emission := mat.Emitter.Emission(types.Vec3{0, -1, 0}, hit.U, hit.V)
	if emission.Intensity[0] != 15 {
		t.Fatalf("light quad radiance = %v; expected 15", emission.Intensity)
	}
}

func TestOccludedMatchesIntersect(t *testing.T) {
	sc := Cornell()

	center := types.Vec3{0, 1, 0}
	lightPoint := types.Vec3{0, 1.99, 0}
	dir := lightPoint.Sub(center).Normalize()
	dist := lightPoint.Sub(center).Len()

	// Nothing sits between the box center and the light quad.
	if sc.Occluded(types.NewRaySegment(center, dir, 1e-3, dist-1e-3)) {
		t.Fatalf("unobstructed shadow ray reported as occluded")
	}

	// Extending past the light quad must hit it.
	if !sc.Occluded(types.NewRaySegment(center, dir, 1e-3, dist+0.5)) {
		t.Fatalf("shadow ray through the light quad reported as unoccluded")
	}
}

func TestReadSceneRoundTrip(t *testing.T) {
	config := `{
		"camera": {"eye": [0, 1, 3], "center": [0, 1, 0], "up": [0, 1, 0], "fov": 45},
		"materials": [
			{"name": "white", "type": "diffuse", "color": [0.8, 0.8, 0.8]},
			{"name": "metal", "type": "mirror", "color": [0.9, 0.9, 0.9]},
			{"name": "shiny", "type": "combine", "a": "white", "b": "metal", "weight": 0.3},
			{"name": "lamp", "emission": [10, 10, 10]}
		],
		"meshes": [
			{
				"material": "shiny",
				"vertices": [[-1, 0, -1], [1, 0, -1], [1, 0, 1], [-1, 0, 1]],
				"indices": [0, 1, 2, 0, 2, 3]
			},
			{
				"material": "lamp",
				"vertices": [[-0.2, 2, -0.2], [0.2, 2, -0.2], [0, 2, 0.2]],
				"indices": [0, 1, 2]
			}
		],
		"point_lights": [
			{"position": [0, 1.5, 0], "intensity": [5, 5, 5]}
		]
	}`

	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := ReadScene(path)
	if err != nil {
		t.Fatalf("could not read scene: %s", err.Error())
	}

	if sc.NumTris() != 3 {
		t.Fatalf("expected 3 triangles; got %d", sc.NumTris())
	}
	if len(sc.Materials) != 4 {
		t.Fatalf("expected 4 materials; got %d", len(sc.Materials))
	}
	// One point light plus one area light from the emissive triangle
	if len(sc.Lights) != 2 {
		t.Fatalf("expected 2 lights; got %d", len(sc.Lights))
	}
	if sc.Bvh == nil || sc.Bvh.NodeCount() == 0 {
		t.Fatalf("scene has no acceleration structure")
	}
}

func TestReadSceneErrors(t *testing.T) {
	type spec struct {
		name   string
		config string
	}
	specs := []spec{
		{"bad json", `{`},
		{"no materials", `{"camera": {}, "meshes": []}`},
		{"unknown material", `{
			"materials": [{"name": "a", "type": "diffuse"}],
			"meshes": [{"material": "missing", "vertices": [[0,0,0],[1,0,0],[0,1,0]], "indices": [0,1,2]}]
		}`},
		{"unknown type", `{
			"materials": [{"name": "a", "type": "velvet"}],
			"meshes": []
		}`},
		{"no geometry", `{
			"camera": {"eye": [0,0,1], "center": [0,0,0]},
			"materials": [{"name": "a", "type": "diffuse"}],
			"meshes": []
		}`},
	}

	for index, sp := range specs {
		path := filepath.Join(t.TempDir(), "scene.json")
		if err := os.WriteFile(path, []byte(sp.config), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadScene(path); err == nil {
			t.Fatalf("[spec %d:%s] expected an error", index, sp.name)
		}
	}
}

func TestCameraGenRay(t *testing.T) {
	c := NewCamera(types.Vec3{0, 0, 5}, types.Vec3{0, 0, 0}, types.Vec3{0, 1, 0}, 90)
	c.SetupProjection(1.0)

	center := c.GenRay(0, 0)
	if center.Dir.Sub(types.Vec3{0, 0, -1}).Len() > 1e-5 {
		t.Fatalf("center ray direction = %v; expected -z", center.Dir)
	}

	// At 90 degrees fov the corner rays make 45 degrees with the view axis
	// vertically.
	top := c.GenRay(0, 1)
	if math.Abs(float64(top.Dir[1]-float32(math.Sqrt(0.5)))) > 1e-4 {
		t.Fatalf("top ray = %v; expected 45 degree elevation", top.Dir)
	}

	right := c.GenRay(1, 0)
	if right.Dir[0] <= 0 {
		t.Fatalf("x=+1 must map to the right of the view axis; got %v", right.Dir)
	}
}
