package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/9Christian6/RenderFrameworkRIS/img"
	"github.com/9Christian6/RenderFrameworkRIS/log"
	"github.com/9Christian6/RenderFrameworkRIS/material"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

var logger = log.New("scene")

// On-disk scene configuration.
type sceneConfig struct {
	Camera      cameraConfig     `json:"camera"`
	Materials   []materialConfig `json:"materials"`
	Meshes      []meshConfig     `json:"meshes"`
	PointLights []lightConfig    `json:"point_lights"`
}

type cameraConfig struct {
	Eye    [3]float32 `json:"eye"`
	Center [3]float32 `json:"center"`
	Up     [3]float32 `json:"up"`
	FOV    float32    `json:"fov"`
}

type materialConfig struct {
	Name string `json:"name"`

	// One of: diffuse, phong, mirror, glass, combine.
	Type string `json:"type"`

	Color    *[3]float32 `json:"color"`
	Texture  string      `json:"texture"`
	Emission *[3]float32 `json:"emission"`

	// Phong exponent.
	Exponent float32 `json:"exponent"`

	// Glass parameters.
	IOR           float32     `json:"ior"`
	Reflectance   *[3]float32 `json:"reflectance"`
	Transmittance *[3]float32 `json:"transmittance"`

	// Combine parameters: the names of the two mixed materials and the
	// weight of B.
	A      string  `json:"a"`
	B      string  `json:"b"`
	Weight float32 `json:"weight"`
}

type meshConfig struct {
	Material string       `json:"material"`
	Vertices [][3]float32 `json:"vertices"`
	Indices  []uint32     `json:"indices"`
	Normals  [][3]float32 `json:"normals"`
}

type lightConfig struct {
	Position  [3]float32 `json:"position"`
	Intensity [3]float32 `json:"intensity"`
}

// Read a scene configuration file, load its textures and build the
// acceleration structure.
func ReadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: could not open %s: %s", path, err.Error())
	}

	var config sceneConfig
	if err = json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("scene: could not parse %s: %s", path, err.Error())
	}

	builder := NewBuilder()
	baseDir := filepath.Dir(path)

	if len(config.Materials) == 0 {
		return nil, fmt.Errorf("scene: %s defines no materials", path)
	}

	// Combine entries may reference non-combine materials by name in any
	// order, so BSDFs are resolved in two passes. A combine entry that
	// references another combine entry needs that entry listed before it.
	bsdfs := make(map[string]material.Bsdf, len(config.Materials))
	for _, mc := range config.Materials {
		if mc.Type == "combine" {
			continue
		}
		bsdf, err := makeBsdf(mc, baseDir)
		if err != nil {
			return nil, err
		}
		bsdfs[mc.Name] = bsdf
	}
	for _, mc := range config.Materials {
		if mc.Type != "combine" {
			continue
		}
		a, okA := bsdfs[mc.A]
		b, okB := bsdfs[mc.B]
		if !okA || !okB {
			return nil, fmt.Errorf("scene: combine material %q references unknown material", mc.Name)
		}
		if mc.Weight < 0 || mc.Weight > 1 {
			return nil, fmt.Errorf("scene: combine material %q has weight %f outside [0,1]", mc.Name, mc.Weight)
		}
		bsdfs[mc.Name] = material.NewCombineBsdf(a, b, mc.Weight)
	}

	materialIDs := make(map[string]uint32, len(config.Materials))
	for _, mc := range config.Materials {
		emission := types.Vec3{}
		if mc.Emission != nil {
			emission = vec3(*mc.Emission)
		}
		materialIDs[mc.Name] = builder.AddMaterial(material.Material{Bsdf: bsdfs[mc.Name]}, emission)
	}

	for i, mc := range config.Meshes {
		matID, ok := materialIDs[mc.Material]
		if !ok {
			return nil, fmt.Errorf("scene: mesh %d references unknown material %q", i, mc.Material)
		}
		verts := make([]types.Vec3, len(mc.Vertices))
		for j, v := range mc.Vertices {
			verts[j] = vec3(v)
		}
		var normals []types.Vec3
		if len(mc.Normals) > 0 {
			normals = make([]types.Vec3, len(mc.Normals))
			for j, n := range mc.Normals {
				normals[j] = vec3(n).Normalize()
			}
		}
		if err = builder.AddMesh(verts, mc.Indices, normals, matID); err != nil {
			return nil, err
		}
	}

	for _, lc := range config.PointLights {
		builder.AddPointLight(vec3(lc.Position), vec3(lc.Intensity))
	}

	fov := config.Camera.FOV
	if fov == 0 {
		fov = 60
	}
	up := vec3(config.Camera.Up)
	if up.Len() == 0 {
		up = types.Vec3{0, 1, 0}
	}
	builder.SetCamera(NewCamera(vec3(config.Camera.Eye), vec3(config.Camera.Center), up, fov))

	sc, err := builder.Finalize()
	if err != nil {
		return nil, err
	}
	logger.Infof("loaded %s: %d tris, %d materials, %d lights", path, sc.NumTris(), len(sc.Materials), len(sc.Lights))
	return sc, nil
}

func makeBsdf(mc materialConfig, baseDir string) (material.Bsdf, error) {
	tex, err := makeTexture(mc, baseDir)
	if err != nil {
		return nil, err
	}

	switch mc.Type {
	case "diffuse":
		return &material.DiffuseBsdf{Tex: tex}, nil
	case "phong":
		exponent := mc.Exponent
		if exponent <= 0 {
			exponent = 32
		}
		return material.NewGlossyPhongBsdf(tex, exponent), nil
	case "mirror":
		ks := types.Vec3{1, 1, 1}
		if mc.Color != nil {
			ks = vec3(*mc.Color)
		}
		return &material.MirrorBsdf{Ks: ks}, nil
	case "glass":
		ior := mc.IOR
		if ior == 0 {
			ior = 1.4
		}
		ks := types.Vec3{1, 1, 1}
		kt := types.Vec3{1, 1, 1}
		if mc.Reflectance != nil {
			ks = vec3(*mc.Reflectance)
		}
		if mc.Transmittance != nil {
			kt = vec3(*mc.Transmittance)
		}
		return material.NewGlassBsdf(1.0, ior, ks, kt), nil
	case "":
		// Emissive-only materials act like black bodies.
		if mc.Emission != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("scene: material %q has no type", mc.Name)
	default:
		return nil, fmt.Errorf("scene: material %q has unknown type %q", mc.Name, mc.Type)
	}
}

func makeTexture(mc materialConfig, baseDir string) (material.Texture, error) {
	if mc.Texture != "" {
		path := mc.Texture
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		image, err := img.LoadTexture(path)
		if err != nil {
			return nil, fmt.Errorf("scene: material %q: %s", mc.Name, err.Error())
		}
		return material.NewImageTexture(image), nil
	}

	color := types.Vec3{1, 1, 1}
	if mc.Color != nil {
		color = vec3(*mc.Color)
	}
	return material.ConstTexture{Color: color}, nil
}

func vec3(v [3]float32) types.Vec3 {
	return types.Vec3{v[0], v[1], v[2]}
}
